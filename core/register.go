package core

// A content-addressed, single-consumption storage cell with an explicit
// lifecycle state machine (§3, §4.3).

import (
	"fmt"
	"time"
)

// RegisterID is the content-addressed, never-reused identity of a register:
// H(creating transaction id || salt).
type RegisterID ContentHash

func (r RegisterID) String() string { return ContentHash(r).String() }

// DeriveRegisterID computes a register's identity from its creating
// transaction and a caller-supplied salt, guaranteeing uniqueness even for
// two registers created by the same transaction.
func DeriveRegisterID(txID string, salt []byte) RegisterID {
	w := NewBinaryWriter()
	w.WriteString(txID)
	w.WriteBytes(salt)
	return RegisterID(HashBytes(w.Bytes()))
}

// RegisterState is a register's position in the lifecycle state machine.
type RegisterState int

const (
	StateActive RegisterState = iota
	StateLocked
	StateFrozen
	StateConsumed
	StateArchived
	StateSummary
	StatePendingDeletion
	StateTombstone
	StateError
)

func (s RegisterState) String() string {
	switch s {
	case StateActive:
		return "Active"
	case StateLocked:
		return "Locked"
	case StateFrozen:
		return "Frozen"
	case StateConsumed:
		return "Consumed"
	case StateArchived:
		return "Archived"
	case StateSummary:
		return "Summary"
	case StatePendingDeletion:
		return "PendingDeletion"
	case StateTombstone:
		return "Tombstone"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("RegisterState(%d)", int(s))
	}
}

// ContentKind tags the register's payload variant.
type ContentKind int

const (
	ContentBinary ContentKind = iota
	ContentString
	ContentJSON
	ContentTokenBalance
	ContentNFT
	ContentStateCommitment
	ContentTimeMapCommitment
	ContentDataObject
	ContentEffectDAG
	ContentNullifier
	ContentCommitment
	ContentComposite
	ContentEmpty
)

// Contents is a tagged payload union; exactly one field is meaningful per
// Kind.
type Contents struct {
	Kind    ContentKind
	Binary  []byte
	String  string
	JSON    map[string]any
	Balance uint64
}

// TimeRange bounds a register's validity window over a domain's time map.
type TimeRange struct {
	NotBeforeHeight uint64
	NotAfterHeight  uint64 // 0 means unbounded
}

// ArchiveRef locates a register's archived canonical bytes (§4.4, §6).
type ArchiveRef struct {
	StoreID     string
	ContentHash ContentHash
}

// Register is a one-time-use, content-addressed storage cell.
type Register struct {
	// identity
	ID RegisterID

	// ownership
	Owner  Address
	Domain DomainID

	// payload
	Contents Contents

	// state
	State RegisterState

	// history
	CreatedAt         time.Time
	LastUpdated       time.Time
	LastUpdatedHeight uint64
	Epoch             uint64
	Validity          TimeRange
	CreatedByTx       string
	ConsumedByTx      string
	Successors        []RegisterID
	Summarizes        []RegisterID
	SummarizedBy      *RegisterID
	ArchiveReference  *ArchiveRef
	Metadata          *OrderedMap
}

// NewRegister constructs a fresh Active register stamped with the current
// epoch, satisfying invariant 3 (created_at == last_updated at creation).
func NewRegister(id RegisterID, owner Address, domain DomainID, contents Contents, epoch uint64, createdByTx string, now time.Time) *Register {
	return &Register{
		ID:          id,
		Owner:       owner,
		Domain:      domain,
		Contents:    contents,
		State:       StateActive,
		CreatedAt:   now,
		LastUpdated: now,
		Epoch:       epoch,
		CreatedByTx: createdByTx,
		Metadata:    NewOrderedMap(),
	}
}

// allowedTransitions enumerates the state machine of §4.3. Keys are "from
// states" each mapping to the set of states reachable via some trigger.
var allowedTransitions = map[RegisterState]map[RegisterState]bool{
	StateActive:          {StateLocked: true, StateFrozen: true, StateConsumed: true, StateArchived: true, StateSummary: true, StatePendingDeletion: true},
	StateLocked:          {StateActive: true, StateFrozen: true, StateConsumed: true, StateArchived: true, StatePendingDeletion: true},
	StateFrozen:          {StateActive: true, StatePendingDeletion: true},
	StateConsumed:        {StateArchived: true},
	StatePendingDeletion: {StateTombstone: true},
}

// CanTransition reports whether from -> to is a permitted edge.
func CanTransition(from, to RegisterState) bool {
	return allowedTransitions[from][to]
}

// transition validates and applies a state change, returning ErrInvalidState
// for any edge not in the table.
func (r *Register) transition(to RegisterState, now time.Time) error {
	if !CanTransition(r.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, r.State, to)
	}
	r.State = to
	r.LastUpdated = now
	return nil
}

// OrderedMap is a string->string map that remembers insertion order, used
// for register metadata (§3) where iteration order must be deterministic.
type OrderedMap struct {
	keys   []string
	values map[string]string
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]string)}
}

func (m *OrderedMap) Set(k, v string) {
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

func (m *OrderedMap) Get(k string) (string, bool) {
	v, ok := m.values[k]
	return v, ok
}

func (m *OrderedMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *OrderedMap) Len() int { return len(m.keys) }

// ToMap returns a plain copy suitable for canonical encoding.
func (m *OrderedMap) ToMap() map[string]string {
	out := make(map[string]string, len(m.keys))
	for _, k := range m.keys {
		out[k] = m.values[k]
	}
	return out
}
