package core

// Owns the registers map exclusively; observers receive read-only snapshots
// (§3 Ownership). Every state-mutating method is transactional: it either
// commits a new state and a matching fact, or returns an error with no
// visible side effect (§7). Cross-resource locks are acquired in the strict
// order nullifier-set, then register-store, then time-map (§5).

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// RegisterStore is the lifecycle manager: the sole mutator of register
// state, and the exclusive owner of the nullifier set.
type RegisterStore struct {
	mu         sync.Mutex
	registers  map[RegisterID]*Register
	nullifiers *NullifierSet
	timeMap    *TimeMap
	facts      *FactLog
	logger     *log.Entry
}

// NewRegisterStore wires a lifecycle manager to its shared time map and an
// owned fact log. Pass nil for timeMap to skip causal admissibility checks
// (e.g. in single-domain unit tests).
func NewRegisterStore(timeMap *TimeMap) *RegisterStore {
	return &RegisterStore{
		registers:  make(map[RegisterID]*Register),
		nullifiers: NewNullifierSet(),
		timeMap:    timeMap,
		facts:      NewFactLog(),
		logger:     log.WithField("component", "register_store"),
	}
}

// Facts exposes the store's append-only fact log for observers.
func (s *RegisterStore) Facts() *FactLog { return s.facts }

// Create admits a new register, subject to the causal Create check (§4.7),
// and emits a creation fact.
func (s *RegisterStore) Create(r *Register) error {
	if s.timeMap != nil {
		if err := s.timeMap.CheckCausalAdmissibility(CausalCreate, r.Domain, r); err != nil {
			return err
		}
	}
	s.mu.Lock()
	if _, exists := s.registers[r.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: register %s already exists", ErrInvalidState, r.ID)
	}
	s.registers[r.ID] = r
	s.mu.Unlock()

	s.facts.Append(Fact{Type: FactRegisterCreated, RegisterID: r.ID, Domain: r.Domain, TxID: r.CreatedByTx, BlockHeight: r.LastUpdatedHeight})
	s.logger.WithField("register", r.ID.String()).Debug("register created")
	return nil
}

// Get returns a read-only snapshot copy of the register, never the live
// pointer, matching the store's exclusive-ownership discipline.
func (s *RegisterStore) Get(id RegisterID) (Register, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registers[id]
	if !ok {
		return Register{}, fmt.Errorf("%w: register %s", ErrNotFound, id)
	}
	return *r, nil
}

func (s *RegisterStore) emitTransition(id RegisterID, from, to RegisterState, txID string, height uint64) {
	f := from
	t := to
	s.facts.Append(Fact{
		Type:          FactRegisterTransitioned,
		RegisterID:    id,
		PreviousState: &f,
		NewState:      &t,
		TxID:          txID,
		BlockHeight:   height,
	})
}

// transitionLocked performs a validated state transition under the store's
// lock and emits the matching fact; it must only be called with s.mu held.
func (s *RegisterStore) transitionLocked(id RegisterID, to RegisterState, txID string, height uint64, now time.Time) error {
	r, ok := s.registers[id]
	if !ok {
		return fmt.Errorf("%w: register %s", ErrNotFound, id)
	}
	from := r.State
	if err := r.transition(to, now); err != nil {
		return err
	}
	r.LastUpdatedHeight = height
	s.emitTransition(id, from, to, txID, height)
	return nil
}

// Lock transitions Active -> Locked.
func (s *RegisterStore) Lock(id RegisterID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(id, StateLocked, "", 0, now)
}

// Unlock transitions Locked -> Active.
func (s *RegisterStore) Unlock(id RegisterID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.registers[id]; ok && r.State != StateLocked {
		return fmt.Errorf("%w: cannot unlock register in state %s", ErrInvalidState, r.State)
	}
	return s.transitionLocked(id, StateActive, "", 0, now)
}

// Freeze transitions Active/Locked -> Frozen.
func (s *RegisterStore) Freeze(id RegisterID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(id, StateFrozen, "", 0, now)
}

// Unfreeze transitions Frozen -> Active.
func (s *RegisterStore) Unfreeze(id RegisterID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.registers[id]; ok && r.State != StateFrozen {
		return fmt.Errorf("%w: cannot unfreeze register in state %s", ErrInvalidState, r.State)
	}
	return s.transitionLocked(id, StateActive, "", 0, now)
}

// MarkForDeletion transitions Active/Locked/Frozen -> PendingDeletion.
func (s *RegisterStore) MarkForDeletion(id RegisterID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(id, StatePendingDeletion, "", 0, now)
}

// ConvertToTombstone transitions PendingDeletion -> Tombstone.
func (s *RegisterStore) ConvertToTombstone(id RegisterID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(id, StateTombstone, "", 0, now)
}

// MarkAsSummary transitions Active -> Summary and records the originals it
// summarizes; the reciprocal summarized_by update on each original is the
// summary manager's responsibility (summary.go), since it walks a set of
// registers that may span this call.
func (s *RegisterStore) MarkAsSummary(id RegisterID, summarizes []RegisterID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(summarizes) == 0 {
		return fmt.Errorf("%w: summary register must summarize at least one original", ErrInvalidState)
	}
	if err := s.transitionLocked(id, StateSummary, "", 0, now); err != nil {
		return err
	}
	s.registers[id].Summarizes = append([]RegisterID(nil), summarizes...)
	return nil
}

// SetSummarizedBy back-links an original register to the summary that now
// covers it (§3 invariant 4).
func (s *RegisterStore) SetSummarizedBy(id, summaryID RegisterID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registers[id]
	if !ok {
		return fmt.Errorf("%w: register %s", ErrNotFound, id)
	}
	r.SummarizedBy = &summaryID
	return nil
}

// Archive marks a register Archived and stores its archive reference; the
// canonical-bytes write itself is the archive store's job (archive.go).
func (s *RegisterStore) Archive(id RegisterID, ref ArchiveRef, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transitionLocked(id, StateArchived, "", 0, now); err != nil {
		return err
	}
	s.registers[id].ArchiveReference = &ref
	return nil
}

// Consume implements the consumption protocol of §4.3:
//  1. assert state is Active or Locked
//  2. compute the nullifier hash
//  3. insert into the nullifier set (fails with ErrDoubleSpend if spent)
//  4. flip state to Consumed and record successors
//  5. emit the transition fact
//
// Locks are acquired nullifier-set, then register-store, matching the
// system-wide ordering of §5; the nullifier insertion commits before the
// state flip so a reader observing Consumed also observes the nullifier.
func (s *RegisterStore) Consume(id RegisterID, domain DomainID, txID string, successors []RegisterID, blockHeight uint64, now time.Time) (*Nullifier, error) {
	s.mu.Lock()
	r, ok := s.registers[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: register %s", ErrNotFound, id)
	}
	if r.State != StateActive && r.State != StateLocked {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot consume register in state %s", ErrInvalidState, r.State)
	}
	if s.timeMap != nil {
		if err := s.timeMap.CheckCausalAdmissibility(CausalConsume, domain, r); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	s.mu.Unlock()

	nf, err := s.nullifiers.Insert(id, txID, blockHeight)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	from := r.State
	r.State = StateConsumed
	r.ConsumedByTx = txID
	r.LastUpdatedHeight = blockHeight
	r.LastUpdated = now
	r.Successors = append([]RegisterID(nil), successors...)
	s.mu.Unlock()

	s.emitTransition(id, from, StateConsumed, txID, blockHeight)
	s.facts.Append(Fact{Type: FactNullifierCreated, RegisterID: id, Domain: domain, TxID: txID, BlockHeight: blockHeight})
	s.logger.WithFields(log.Fields{"register": id.String(), "tx": txID}).Info("register consumed")
	return nf, nil
}

// Nullifiers exposes the owned nullifier set for read-only inspection.
func (s *RegisterStore) Nullifiers() *NullifierSet { return s.nullifiers }

// AllInEpoch returns snapshot copies of every register stamped with epoch e,
// used by the summary manager and the garbage collector.
func (s *RegisterStore) AllInEpoch(e uint64) []Register {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Register
	for _, r := range s.registers {
		if r.Epoch == e {
			out = append(out, *r)
		}
	}
	return out
}
