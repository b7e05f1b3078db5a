package core

// Per-role session-type unfolding, an operation queue, and compliance
// tracking (§4.5). A participant owns its history and next-operations; the
// scheduler holds the set and iterates under single-threaded cooperative
// discipline (§3 Ownership).

import (
	"fmt"
	"time"
)

// Compliance tracks whether a participant has ever deviated from its
// protocol, per §3 invariant 7.
type Compliance struct {
	IsValid    bool
	Violations []string
	Step       int
	IsComplete bool
}

// Participant is a single role's session-type state machine plus its
// accumulated history, pending operations, gas, and synthesized effects.
type Participant struct {
	Name           string
	currentSession *SessionType
	ProtocolHistory []Op
	NextOperations  []Op
	Gas             uint64
	Effects         []Effect
	Compliance      Compliance

	inbox       []Op // operations received from peers, awaiting consumption
	lastActivity time.Time
	peer         string // counterpart participant name, stamped onto emitted ops for propagation
}

// SetPeer names the counterpart participant this one communicates with, so
// the scheduler can route its Send/InternalChoice ops to that peer's inbox.
// A participant with no peer set runs un-propagated (e.g. driven entirely by
// an external transport via Engine.Deliver).
func (p *Participant) SetPeer(peer string) {
	p.peer = peer
	p.stampPeer()
}

func (p *Participant) stampPeer() {
	if p.peer == "" {
		return
	}
	for i := range p.NextOperations {
		p.NextOperations[i].Peer = p.peer
	}
}

// NewParticipant installs protocol as the participant's session type and
// computes its first set of legal next operations.
func NewParticipant(name string, protocol *SessionType, now time.Time) *Participant {
	p := &Participant{Name: name, currentSession: protocol, Compliance: Compliance{IsValid: true}, lastActivity: now}
	p.refreshNextOperations()
	return p
}

func (p *Participant) refreshNextOperations() {
	ops, cont, complete := ComputeNextOperations(p.currentSession)
	p.NextOperations = ops
	if complete {
		p.Compliance.IsComplete = true
	}
	// cont is only meaningful for Send/Receive (a direct continuation); for
	// choice forms the continuation is resolved per-branch in
	// advanceContinuation once the chosen op is known.
	if p.currentSession != nil && (p.currentSession.Kind == SessionSend || p.currentSession.Kind == SessionReceive) {
		_ = cont // advanceContinuation recomputes this from currentSession directly
	}
	p.stampPeer()
}

// CurrentSession exposes the participant's live session-type pointer for
// read-only inspection (e.g. by the deadlock analyzer).
func (p *Participant) CurrentSession() *SessionType { return p.currentSession }

// Enqueue delivers an operation sent by a peer into this participant's
// inbox, to be consumed by a future ExecuteOperation call for Receive or
// ExternalChoice.
func (p *Participant) Enqueue(op Op) { p.inbox = append(p.inbox, op) }

// PendingInbox reports whether the participant has a queued peer operation.
func (p *Participant) PendingInbox() bool { return len(p.inbox) > 0 }

// PeekInbox returns the next queued operation without consuming it.
func (p *Participant) PeekInbox() (Op, bool) {
	if len(p.inbox) == 0 {
		return Op{}, false
	}
	return p.inbox[0], true
}

func (p *Participant) popInbox() {
	if len(p.inbox) > 0 {
		p.inbox = p.inbox[1:]
	}
}

// ExecuteOperation runs the protocol compliance check of §4.5:
//  1. op must match (by tag) some entry in next_operations, else record a
//     violation and fail.
//  2. append to history, charge gas.
//  3. advance current_session to the selected continuation and recompute
//     next_operations.
func (p *Participant) ExecuteOperation(op Op, ts time.Time) error {
	matched := false
	for _, candidate := range p.NextOperations {
		if sameTag(candidate, op) {
			matched = true
			break
		}
	}
	if !matched {
		p.Compliance.IsValid = false
		violation := fmt.Sprintf("step %d: unexpected operation %s", p.Compliance.Step, op)
		p.Compliance.Violations = append(p.Compliance.Violations, violation)
		return fmt.Errorf("%w: participant %s: %s", ErrSessionProtocolViolation, p.Name, violation)
	}

	p.ProtocolHistory = append(p.ProtocolHistory, op)
	p.Gas += opGasCost(op.Kind)
	p.Compliance.Step++
	p.lastActivity = ts

	if op.Kind == OpKindReceive || op.Kind == OpKindExternalChoice {
		p.popInbox()
	}

	p.advanceContinuation(op)
	p.refreshNextOperations()
	return nil
}

func (p *Participant) advanceContinuation(op Op) {
	for p.currentSession != nil && p.currentSession.Kind == SessionRecursive {
		p.currentSession = substitute(p.currentSession.Body, p.currentSession.Var, p.currentSession)
	}
	if p.currentSession == nil {
		return
	}
	switch p.currentSession.Kind {
	case SessionSend, SessionReceive:
		p.currentSession = p.currentSession.Cont
	case SessionInternalChoice, SessionExternalChoice:
		p.currentSession = continuationFor(p.currentSession, op)
	case SessionEnd:
		// stays at End
	}
}

func opGasCost(k OpKind) uint64 {
	switch k {
	case OpKindSend:
		return SessionOpGasCost(SessionOpSend)
	case OpKindReceive:
		return SessionOpGasCost(SessionOpReceive)
	case OpKindInternalChoice:
		return SessionOpGasCost(SessionOpInternalChoice)
	case OpKindExternalChoice:
		return SessionOpGasCost(SessionOpExternalChoice)
	case OpKindEnd:
		return SessionOpGasCost(SessionOpEnd)
	default:
		return DefaultGasCost
	}
}

// AwaitsExternalInput reports whether the participant's only legal next
// operations require input from a peer with nothing queued (a suspension
// point per §4.6).
func (p *Participant) AwaitsExternalInput() bool {
	if p.PendingInbox() {
		return false
	}
	for _, op := range p.NextOperations {
		if op.Kind != OpKindReceive && op.Kind != OpKindExternalChoice {
			return false
		}
	}
	return len(p.NextOperations) > 0
}

// LastActivity reports the simulated timestamp of the participant's last
// executed operation, used by the timeout deadlock check.
func (p *Participant) LastActivity() time.Time { return p.lastActivity }

// Peer returns the counterpart participant name set via SetPeer, or "" if
// none was set, used by the deadlock analyzer to build the waiting graph.
func (p *Participant) Peer() string { return p.peer }
