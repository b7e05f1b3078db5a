package core

// A per-domain vector of (height, timestamp, hash) observations used to
// enforce causal ordering across domains (§3, §4.7). Shared: many readers,
// one writer, per §5.

import (
	"fmt"
	"sync"
	"time"
)

// TimeMapEntry is one domain's most recent observed position.
type TimeMapEntry struct {
	Height    uint64
	Timestamp time.Time
	Hash      ContentHash
}

// TimeMapObserver is notified after every update. The subscription API is
// optional per §9's open question; callers that never register one incur no
// cost.
type TimeMapObserver interface {
	OnTimeMapUpdate(domain DomainID, entry TimeMapEntry)
}

// TimeMap holds a monotone version and the current entry per domain.
type TimeMap struct {
	mu        sync.RWMutex
	entries   map[DomainID]TimeMapEntry
	version   uint64
	observers []TimeMapObserver
}

func NewTimeMap() *TimeMap {
	return &TimeMap{entries: make(map[DomainID]TimeMapEntry)}
}

// Subscribe registers an observer for post-update notifications.
func (t *TimeMap) Subscribe(o TimeMapObserver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Update records a new observation for domain, bumping the map's version.
func (t *TimeMap) Update(domain DomainID, entry TimeMapEntry) {
	t.mu.Lock()
	t.entries[domain] = entry
	t.version++
	observers := append([]TimeMapObserver(nil), t.observers...)
	t.mu.Unlock()

	for _, o := range observers {
		o.OnTimeMapUpdate(domain, entry)
	}
}

// Get returns the current entry for domain, if one has ever been recorded.
func (t *TimeMap) Get(domain DomainID) (TimeMapEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[domain]
	return e, ok
}

// Version returns the map's monotone version counter.
func (t *TimeMap) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// CausalOp tags the kind of operation being admitted for a causal check.
type CausalOp int

const (
	CausalCreate CausalOp = iota
	CausalUpdate
	CausalConsume
)

// CheckCausalAdmissibility enforces §4.7's admissibility rules:
//   Create:          r.CreatedAt >= time_map[d].Timestamp
//   Update/Consume:  if r.Metadata["time_map_height"] is set, it must be
//                     <= time_map[d].Height
func (t *TimeMap) CheckCausalAdmissibility(op CausalOp, domain DomainID, r *Register) error {
	entry, ok := t.Get(domain)
	if !ok {
		// No observation yet for this domain: nothing to violate.
		return nil
	}
	switch op {
	case CausalCreate:
		if r.CreatedAt.Before(entry.Timestamp) {
			return fmt.Errorf("%w: register created_at %s precedes domain %s timestamp %s", ErrCausalViolation, r.CreatedAt, domain, entry.Timestamp)
		}
	case CausalUpdate, CausalConsume:
		if h, ok := r.Metadata.Get("time_map_height"); ok {
			var height uint64
			if _, err := fmt.Sscanf(h, "%d", &height); err == nil && height > entry.Height {
				return fmt.Errorf("%w: register time_map_height %d exceeds domain %s height %d", ErrCausalViolation, height, domain, entry.Height)
			}
		}
	}
	return nil
}
