package core

// Four independent detectors run over the current participant set (§4.6):
// waiting-graph cycles, activity timeouts, bidirectional send conflicts, and
// live-lock (repeated non-progressing operations).

import "time"

// DeadlockKind classifies how a deadlock was detected.
type DeadlockKind int

const (
	DeadlockCycle DeadlockKind = iota
	DeadlockTimeout
	DeadlockResourceConflict
	DeadlockLiveLock
)

func (k DeadlockKind) String() string {
	switch k {
	case DeadlockCycle:
		return "DeadlockCycle"
	case DeadlockTimeout:
		return "TimeoutDeadlock"
	case DeadlockResourceConflict:
		return "ResourceConflict"
	case DeadlockLiveLock:
		return "LiveLock"
	default:
		return "?"
	}
}

// DeadlockReport describes one detected deadlock.
type DeadlockReport struct {
	Kind         DeadlockKind
	Participants []string
	Detail       string
}

// waitingFor returns the participant name p is blocked waiting on, if its
// next operation is an await (Receive or ExternalChoice) with an empty
// inbox, and false if p is not currently blocked. The edge is resolved
// directly from p.Peer() — the counterpart named via SetPeer — rather than
// by guessing at a non-blocked producer, so a mutual-await (both sides
// blocked on each other) still yields an edge on both ends and a cycle is
// detected instead of masked as a timeout.
func (e *Engine) waitingFor(name string) (string, bool) {
	p := e.participants[name]
	if !p.AwaitsExternalInput() {
		return "", false
	}
	peer := p.Peer()
	if peer == "" {
		return "", false
	}
	return peer, true
}

// DetectDeadlock runs all four checks in order, returning the first finding
// (cycle, then timeout, then resource conflict, then live-lock).
func (e *Engine) DetectDeadlock(now time.Time) *DeadlockReport {
	if r := e.detectCycle(); r != nil {
		return r
	}
	if r := e.detectTimeout(now); r != nil {
		return r
	}
	if r := e.detectResourceConflict(); r != nil {
		return r
	}
	if r := e.detectLiveLock(); r != nil {
		return r
	}
	return nil
}

// detectCycle builds the waiting graph (edge p -> q when p awaits q) and
// runs DFS with a recursion-stack set; any back-edge is a cycle.
func (e *Engine) detectCycle() *DeadlockReport {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(e.participantOrder))
	for _, name := range e.participantOrder {
		color[name] = white
	}

	var stack []string
	var cyclePath []string

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = gray
		stack = append(stack, name)

		if next, ok := e.waitingFor(name); ok {
			switch color[next] {
			case gray:
				// back-edge: extract the cycle from stack
				for i, n := range stack {
					if n == next {
						cyclePath = append([]string(nil), stack[i:]...)
						break
					}
				}
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[name] = black
		return false
	}

	for _, name := range e.participantOrder {
		if color[name] == white {
			if visit(name) {
				return &DeadlockReport{Kind: DeadlockCycle, Participants: cyclePath, Detail: "waiting-graph cycle"}
			}
		}
	}
	return nil
}

// detectTimeout flags any participant idle for at least a fixed 5-second
// threshold whose next operations are all awaits.
func (e *Engine) detectTimeout(now time.Time) *DeadlockReport {
	const threshold = 5 * time.Second
	for _, name := range e.participantOrder {
		p := e.participants[name]
		if p.Compliance.IsComplete {
			continue
		}
		if !p.AwaitsExternalInput() {
			continue
		}
		if now.Sub(p.LastActivity()) >= threshold {
			return &DeadlockReport{Kind: DeadlockTimeout, Participants: []string{name}, Detail: "no activity past threshold while awaiting input"}
		}
	}
	return nil
}

// detectResourceConflict flags two participants each blocked on a Send (i.e.
// both hold an outbound message the other is meant to consume, but neither
// has a populated inbox) — a bidirectional-send conflict.
func (e *Engine) detectResourceConflict() *DeadlockReport {
	for i, a := range e.participantOrder {
		pa := e.participants[a]
		if pa.Compliance.IsComplete || len(pa.NextOperations) == 0 {
			continue
		}
		if pa.NextOperations[0].Kind != OpKindSend {
			continue
		}
		for _, b := range e.participantOrder[i+1:] {
			pb := e.participants[b]
			if pb.Compliance.IsComplete || len(pb.NextOperations) == 0 {
				continue
			}
			if pb.NextOperations[0].Kind == OpKindSend && !pa.PendingInbox() && !pb.PendingInbox() {
				return &DeadlockReport{Kind: DeadlockResourceConflict, Participants: []string{a, b}, Detail: "bidirectional send with neither inbox populated"}
			}
		}
	}
	return nil
}

// detectLiveLock flags a participant whose last liveLockThreshold executed
// operations are all the same kind, indicating repetition without progress
// toward session completion.
func (e *Engine) detectLiveLock() *DeadlockReport {
	for _, name := range e.participantOrder {
		hist := e.opHistory[name]
		if len(hist) < e.liveLockThreshold {
			continue
		}
		first := hist[0]
		allSame := true
		for _, k := range hist[1:] {
			if k != first {
				allSame = false
				break
			}
		}
		if allSame && !e.participants[name].Compliance.IsComplete {
			return &DeadlockReport{Kind: DeadlockLiveLock, Participants: []string{name}, Detail: "repeated operation kind with no session progress"}
		}
	}
	return nil
}
