package core

// A protocol over a bidirectional channel, expressed as a sum of
// communication actions (§3, §4.5).

import "fmt"

// SessionKind tags one arm of the SessionType sum.
type SessionKind int

const (
	SessionSend SessionKind = iota
	SessionReceive
	SessionInternalChoice
	SessionExternalChoice
	SessionRecursive
	SessionVariable
	SessionEnd
)

// Branch is one labeled continuation of an (Internal|External)Choice.
type Branch struct {
	Label string
	Cont  *SessionType
}

// SessionType is the flat-struct sum representation of the session-type
// grammar; Kind selects which fields are meaningful.
type SessionType struct {
	Kind SessionKind

	// Send / Receive
	PayloadType string
	Cont        *SessionType

	// InternalChoice / ExternalChoice
	Branches []Branch

	// Recursive
	Var  string
	Body *SessionType
}

func Send(payloadType string, cont *SessionType) *SessionType {
	return &SessionType{Kind: SessionSend, PayloadType: payloadType, Cont: cont}
}
func Receive(payloadType string, cont *SessionType) *SessionType {
	return &SessionType{Kind: SessionReceive, PayloadType: payloadType, Cont: cont}
}
func InternalChoice(branches ...Branch) *SessionType {
	return &SessionType{Kind: SessionInternalChoice, Branches: branches}
}
func ExternalChoice(branches ...Branch) *SessionType {
	return &SessionType{Kind: SessionExternalChoice, Branches: branches}
}
func Recursive(v string, body *SessionType) *SessionType {
	return &SessionType{Kind: SessionRecursive, Var: v, Body: body}
}
func Variable(v string) *SessionType { return &SessionType{Kind: SessionVariable, Var: v} }
func End() *SessionType              { return &SessionType{Kind: SessionEnd} }

// substitute replaces every SessionVariable named v with self within t,
// implementing the Recursive unfolding of §4.5 ("substitute v ↦ self in
// body and recurse").
func substitute(t *SessionType, v string, self *SessionType) *SessionType {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case SessionVariable:
		if t.Var == v {
			return self
		}
		return t
	case SessionSend, SessionReceive:
		return &SessionType{Kind: t.Kind, PayloadType: t.PayloadType, Cont: substitute(t.Cont, v, self)}
	case SessionInternalChoice, SessionExternalChoice:
		branches := make([]Branch, len(t.Branches))
		for i, b := range t.Branches {
			branches[i] = Branch{Label: b.Label, Cont: substitute(b.Cont, v, self)}
		}
		return &SessionType{Kind: t.Kind, Branches: branches}
	case SessionRecursive:
		if t.Var == v {
			return t // shadowed; inner recursion rebinds v
		}
		return &SessionType{Kind: t.Kind, Var: t.Var, Body: substitute(t.Body, v, self)}
	default:
		return t
	}
}

// OpKind tags the kind of a concrete session operation exchanged at
// runtime, mirroring SessionKind but carrying only the fields relevant to a
// single executed or pending action.
type OpKind int

const (
	OpKindSend OpKind = iota
	OpKindReceive
	OpKindInternalChoice
	OpKindExternalChoice
	OpKindEnd
)

// Op is one session operation, either a pending next-operation or a
// completed history entry.
type Op struct {
	Kind            OpKind
	PayloadType     string
	Label           string   // chosen label, for InternalChoice
	AvailableLabels []string // offered labels, for ExternalChoice
	Peer            string   // the named peer this op communicates with, if known
}

func (o Op) String() string {
	switch o.Kind {
	case OpKindSend:
		return fmt.Sprintf("Send(%s)", o.PayloadType)
	case OpKindReceive:
		return fmt.Sprintf("Receive(%s)", o.PayloadType)
	case OpKindInternalChoice:
		return fmt.Sprintf("InternalChoice(%s)", o.Label)
	case OpKindExternalChoice:
		return fmt.Sprintf("ExternalChoice(%v)", o.AvailableLabels)
	case OpKindEnd:
		return "End"
	default:
		return "?"
	}
}

// sameTag reports whether a and b are the same kind of operation and, where
// relevant, agree on label/payload — the "matches by tag" test of §4.5 step 1.
func sameTag(a, b Op) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case OpKindSend, OpKindReceive:
		return a.PayloadType == b.PayloadType
	case OpKindInternalChoice:
		return a.Label == b.Label
	case OpKindExternalChoice:
		for _, l := range a.AvailableLabels {
			if l == b.Label {
				return true
			}
		}
		return false
	case OpKindEnd:
		return true
	default:
		return false
	}
}

// ComputeNextOperations unfolds one head form of t into the set of
// operations a participant may legally execute next, per §4.5. Recursive
// types are unfolded transparently; the returned SessionType is the
// continuation to install once one of the returned operations executes.
func ComputeNextOperations(t *SessionType) ([]Op, *SessionType, bool) {
	if t == nil {
		return nil, nil, true
	}
	switch t.Kind {
	case SessionSend:
		return []Op{{Kind: OpKindSend, PayloadType: t.PayloadType}}, t.Cont, false
	case SessionReceive:
		return []Op{{Kind: OpKindReceive, PayloadType: t.PayloadType}}, t.Cont, false
	case SessionInternalChoice:
		ops := make([]Op, len(t.Branches))
		for i, b := range t.Branches {
			ops[i] = Op{Kind: OpKindInternalChoice, Label: b.Label}
		}
		return ops, t, false
	case SessionExternalChoice:
		labels := make([]string, len(t.Branches))
		for i, b := range t.Branches {
			labels[i] = b.Label
		}
		return []Op{{Kind: OpKindExternalChoice, AvailableLabels: labels}}, t, false
	case SessionRecursive:
		unfolded := substitute(t.Body, t.Var, t)
		return ComputeNextOperations(unfolded)
	case SessionVariable:
		// An unresolved free variable cannot be unfolded further; treat as End
		// defensively so the scheduler never operates on dangling state.
		return []Op{{Kind: OpKindEnd}}, nil, true
	case SessionEnd:
		return []Op{{Kind: OpKindEnd}}, nil, true
	default:
		return nil, nil, true
	}
}

// continuationFor resolves the SessionType to install after executing op
// against the "current" continuation returned alongside next_operations
// (needed for (Internal|External)Choice, whose continuation depends on
// which branch was taken).
func continuationFor(t *SessionType, op Op) *SessionType {
	switch t.Kind {
	case SessionInternalChoice:
		for _, b := range t.Branches {
			if b.Label == op.Label {
				return b.Cont
			}
		}
	case SessionExternalChoice:
		for _, b := range t.Branches {
			if b.Label == op.Label {
				return b.Cont
			}
		}
	}
	return nil
}
