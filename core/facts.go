package core

// An append-only log of lifecycle facts with content hashes (§4.8). Facts
// are emitted on commit, in the order their transitions commit (§5), so a
// reader observing a Consumed register also observes its nullifier.

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FactType tags the kind of lifecycle event recorded.
type FactType int

const (
	FactRegisterCreated FactType = iota
	FactRegisterTransitioned
	FactNullifierCreated
)

// Fact is one append-only log entry.
type Fact struct {
	ID              string
	Type            FactType
	RegisterID      RegisterID
	Domain          DomainID
	PreviousState   *RegisterState
	NewState        *RegisterState
	TxID            string
	BlockHeight     uint64
	ContentHash     ContentHash
	Auxiliary       map[string]string
}

// FactLog is the lifecycle manager's append-only, ordered record of facts.
type FactLog struct {
	mu     sync.Mutex
	facts  []Fact
	audit  *zap.SugaredLogger
}

func NewFactLog() *FactLog { return &FactLog{} }

// NewFactLogWithAudit returns a FactLog that additionally emits a structured
// log line for every appended fact, via a zap sugared logger.
func NewFactLogWithAudit(logger *zap.Logger) *FactLog {
	return &FactLog{audit: logger.Sugar()}
}

// Append records f, computing its content hash over a canonical encoding of
// its fields before storing it. f.ID is assigned if unset.
func (l *FactLog) Append(f Fact) Fact {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	f.ContentHash = hashFact(f)
	l.mu.Lock()
	l.facts = append(l.facts, f)
	audit := l.audit
	l.mu.Unlock()
	if audit != nil {
		audit.Infow("fact appended",
			"id", f.ID, "type", f.Type, "register", f.RegisterID, "domain", f.Domain,
			"tx", f.TxID, "height", f.BlockHeight, "hash", f.ContentHash)
	}
	return f
}

// Snapshot returns a read-only copy of the facts recorded so far, in
// emission order.
func (l *FactLog) Snapshot() []Fact {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Fact, len(l.facts))
	copy(out, l.facts)
	return out
}

// Len returns the number of facts recorded.
func (l *FactLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.facts)
}

func hashFact(f Fact) ContentHash {
	w := NewBinaryWriter()
	w.WriteUint32(uint32(f.Type))
	w.WriteBytes(f.RegisterID[:])
	w.WriteString(string(f.Domain))
	if f.PreviousState != nil {
		w.WriteByte(1)
		w.WriteUint32(uint32(*f.PreviousState))
	} else {
		w.WriteByte(0)
	}
	if f.NewState != nil {
		w.WriteByte(1)
		w.WriteUint32(uint32(*f.NewState))
	} else {
		w.WriteByte(0)
	}
	w.WriteString(f.TxID)
	w.WriteUint64(f.BlockHeight)
	w.WriteSortedMap(f.Auxiliary)
	return HashBytes(w.Bytes())
}
