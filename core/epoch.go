package core

// A coarse-grained time unit for retention and GC, fixed per register at
// creation (§4.4).

import (
	"fmt"
	"sync"
)

// EpochManager tracks the current epoch and its block-height boundary, and
// optionally triggers garbage collection when the boundary is crossed.
type EpochManager struct {
	mu             sync.RWMutex
	current        uint64
	boundaryHeight uint64
	blocksPerEpoch uint64
	autoGC         bool
	gc             *GarbageCollector
}

// NewEpochManager constructs a manager whose first epoch boundary sits
// blocksPerEpoch blocks after genesis (default 100 per §4.4).
func NewEpochManager(blocksPerEpoch uint64, autoGC bool, gc *GarbageCollector) *EpochManager {
	if blocksPerEpoch == 0 {
		blocksPerEpoch = 100
	}
	return &EpochManager{boundaryHeight: blocksPerEpoch, blocksPerEpoch: blocksPerEpoch, autoGC: autoGC, gc: gc}
}

// Current returns the active epoch number.
func (e *EpochManager) Current() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// ObserveHeight advances the epoch when blockHeight passes the active
// boundary, optionally running GC on the epoch just closed.
func (e *EpochManager) ObserveHeight(blockHeight uint64) (advanced bool, newEpoch uint64) {
	e.mu.Lock()
	if blockHeight < e.boundaryHeight {
		e.mu.Unlock()
		return false, e.current
	}
	old := e.current
	e.current++
	e.boundaryHeight += e.blocksPerEpoch
	autoGC := e.autoGC
	gc := e.gc
	newCurrent := e.current
	e.mu.Unlock()

	if autoGC && gc != nil {
		gc.GarbageCollectEpoch(old)
	}
	return true, newCurrent
}

// AdvanceEpoch explicitly advances the epoch counter, matching the spec's
// `advance_epoch(old)` call when a caller has already determined the block
// height has passed the boundary.
func (e *EpochManager) AdvanceEpoch(old uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if old != e.current {
		return e.current, fmt.Errorf("%w: expected current epoch %d, got %d", ErrInvalidState, e.current, old)
	}
	e.current++
	e.boundaryHeight += e.blocksPerEpoch
	return e.current, nil
}
