package core

// A single-threaded cooperative scheduler driving a fixed program (the
// code-generator's output) and zero or more session participants through
// discrete steps (§4.6). Branching/snapshots let a caller explore multiple
// continuations of one simulation without re-running it from scratch.

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// RunOutcome is the terminal result of run_with_timeout.
type RunOutcome int

const (
	OutcomeSuccess RunOutcome = iota
	OutcomeTimeout
	OutcomeDeadlock
	OutcomeMaxStepsReached
)

func (o RunOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "Success"
	case OutcomeTimeout:
		return "Timeout"
	case OutcomeDeadlock:
		return "Deadlock"
	case OutcomeMaxStepsReached:
		return "MaxStepsReached"
	default:
		return "?"
	}
}

// RunResult is returned by RunWithTimeout.
type RunResult struct {
	Outcome RunOutcome
	Report  *DeadlockReport // non-nil iff Outcome == OutcomeDeadlock
	Steps   int
	Gas     uint64
}

// snapshot is the cloneable portion of engine state captured by a branch.
type snapshot struct {
	pc           int
	gas          uint64
	participants map[string]*Participant
}

// Engine drives one program plus its session participants through steps,
// per §4.6's cooperative single-threaded model. It is the sole mutator of
// participant state during a step (§5).
type Engine struct {
	program []Instruction
	pc      int
	gas     uint64

	participants     map[string]*Participant
	participantOrder []string // insertion order, for deterministic stepping (§4.6)

	clock              *SimClock
	deadlockCheckEvery int
	snapshotsEnabled   bool

	branches      map[string]snapshot
	currentBranch string

	liveLockThreshold int
	opHistory         map[string][]OpKind // per-participant recent op kinds, for live-lock detection
}

// EngineOption configures an Engine at construction.
type EngineOption func(*Engine)

// WithSnapshots enables create_branch/switch_to_branch.
func WithSnapshots(enabled bool) EngineOption {
	return func(e *Engine) { e.snapshotsEnabled = enabled }
}

// WithDeadlockCheckInterval overrides the default N=10 steps between
// deadlock analyses.
func WithDeadlockCheckInterval(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.deadlockCheckEvery = n
		}
	}
}

// NewEngine constructs a scheduler over program, starting the simulated
// clock at epoch.
func NewEngine(program []Instruction, epoch time.Time, opts ...EngineOption) *Engine {
	e := &Engine{
		program:            program,
		participants:       make(map[string]*Participant),
		clock:              NewSimClock(epoch),
		deadlockCheckEvery: 10,
		branches:           make(map[string]snapshot),
		liveLockThreshold:  4,
		opHistory:          make(map[string][]OpKind),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// AddParticipant registers a session participant under name, in insertion
// order (§4.6's ordering guarantee).
func (e *Engine) AddParticipant(name string, p *Participant) {
	if _, exists := e.participants[name]; !exists {
		e.participantOrder = append(e.participantOrder, name)
	}
	e.participants[name] = p
}

// Clock exposes the engine's simulated clock.
func (e *Engine) Clock() *SimClock { return e.clock }

// Deliver routes an operation emitted by sender to the named recipient's
// inbox, the mechanism by which one participant's Send becomes visible to
// another's Receive or ExternalChoice.
func (e *Engine) Deliver(recipient string, op Op) {
	if p, ok := e.participants[recipient]; ok {
		p.Enqueue(op)
	}
}

// Step processes at most one session operation per participant, in
// insertion order; if no participants exist, it executes one traditional
// instruction from program instead (§4.6). It returns false when the step
// suspended without making progress (end of program, or all participants
// await external input).
func (e *Engine) Step(ts time.Time) (progressed bool, suspended bool) {
	if len(e.participantOrder) == 0 {
		return e.stepInstruction()
	}
	return e.stepParticipants(ts)
}

func (e *Engine) stepInstruction() (bool, bool) {
	if e.pc >= len(e.program) {
		return false, true
	}
	instr := e.program[e.pc]
	e.gas += InstructionGasCost(instr.Op)
	e.pc++
	return true, false
}

func (e *Engine) stepParticipants(ts time.Time) (bool, bool) {
	progressed := false
	allAwaiting := true

	for _, name := range e.participantOrder {
		p := e.participants[name]
		if p.Compliance.IsComplete {
			continue
		}
		if p.AwaitsExternalInput() {
			continue
		}
		allAwaiting = false

		op, ok := e.nextExecutableOp(p)
		if !ok {
			continue
		}
		if err := p.ExecuteOperation(op, ts); err != nil {
			log.WithError(err).WithField("participant", name).Warn("scheduler: protocol violation")
			continue
		}
		e.gas += 0 // gas already charged inside ExecuteOperation via opGasCost
		e.recordOpHistory(name, op.Kind)
		e.propagate(name, op)
		progressed = true
	}

	if allAwaiting && len(e.participantOrder) > 0 {
		return false, true
	}
	return progressed, !progressed
}

// nextExecutableOp picks the operation a participant performs this step: for
// Receive/ExternalChoice it consumes its queued inbox entry; otherwise (Send,
// InternalChoice, End) it deterministically takes the first offered op.
func (e *Engine) nextExecutableOp(p *Participant) (Op, bool) {
	if len(p.NextOperations) == 0 {
		return Op{}, false
	}
	head := p.NextOperations[0]
	if head.Kind == OpKindReceive || head.Kind == OpKindExternalChoice {
		queued, ok := p.PeekInbox()
		if !ok {
			return Op{}, false
		}
		return queued, true
	}
	return head, true
}

// propagate delivers the peer-visible counterpart of a just-executed Send or
// InternalChoice into op.Peer's inbox, so a local two-party simulation
// completes without an external transport: a Send(T) becomes a queued
// Receive(T), and a chosen InternalChoice label becomes a queued
// ExternalChoice selecting that label.
func (e *Engine) propagate(sender string, op Op) {
	if op.Peer == "" {
		return
	}
	switch op.Kind {
	case OpKindSend:
		e.Deliver(op.Peer, Op{Kind: OpKindReceive, PayloadType: op.PayloadType, Peer: sender})
	case OpKindInternalChoice:
		e.Deliver(op.Peer, Op{Kind: OpKindExternalChoice, Label: op.Label, Peer: sender})
	}
}

func (e *Engine) recordOpHistory(name string, k OpKind) {
	hist := append(e.opHistory[name], k)
	if len(hist) > e.liveLockThreshold {
		hist = hist[len(hist)-e.liveLockThreshold:]
	}
	e.opHistory[name] = hist
}

// RunWithTimeout steps the engine until the program/protocol completes,
// maxSteps is reached, timeoutMS of simulated time elapses, or a deadlock is
// detected (checked every deadlockCheckEvery steps), per §4.6. A step that
// suspends before the run is terminal triggers an immediate deadlock check;
// if that finds nothing, the run ends with OutcomeTimeout at that step.
func (e *Engine) RunWithTimeout(timeoutMS int64, maxSteps int) RunResult {
	start := e.clock.Now()
	steps := 0

	for steps < maxSteps {
		ts := e.clock.Advance(time.Millisecond)
		_, suspended := e.Step(ts)
		steps++

		if steps%e.deadlockCheckEvery == 0 {
			if report := e.DetectDeadlock(ts); report != nil {
				return RunResult{Outcome: OutcomeDeadlock, Report: report, Steps: steps, Gas: e.gas}
			}
		}

		if e.clock.Now().Sub(start) >= time.Duration(timeoutMS)*time.Millisecond {
			return RunResult{Outcome: OutcomeTimeout, Steps: steps, Gas: e.gas}
		}

		if suspended && e.isTerminal() {
			return RunResult{Outcome: OutcomeSuccess, Steps: steps, Gas: e.gas}
		}
		if suspended && !e.isTerminal() {
			if report := e.DetectDeadlock(ts); report != nil {
				return RunResult{Outcome: OutcomeDeadlock, Report: report, Steps: steps, Gas: e.gas}
			}
			return RunResult{Outcome: OutcomeTimeout, Steps: steps, Gas: e.gas}
		}
	}
	return RunResult{Outcome: OutcomeMaxStepsReached, Steps: steps, Gas: e.gas}
}

func (e *Engine) isTerminal() bool {
	if len(e.participantOrder) == 0 {
		return e.pc >= len(e.program)
	}
	for _, name := range e.participantOrder {
		if !e.participants[name].Compliance.IsComplete {
			return false
		}
	}
	return true
}

// CreateBranch clones the engine's mutable state under a new branch id.
func (e *Engine) CreateBranch(name string) error {
	if !e.snapshotsEnabled {
		return fmt.Errorf("%w: cannot create branch %q", ErrSnapshotsDisabled, name)
	}
	clonedParticipants := make(map[string]*Participant, len(e.participants))
	for k, p := range e.participants {
		cp := *p
		clonedParticipants[k] = &cp
	}
	e.branches[name] = snapshot{pc: e.pc, gas: e.gas, participants: clonedParticipants}
	return nil
}

// SwitchToBranch restores previously captured branch state.
func (e *Engine) SwitchToBranch(name string) error {
	snap, ok := e.branches[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrBranchNotFound, name)
	}
	e.pc = snap.pc
	e.gas = snap.gas
	e.participants = snap.participants
	e.currentBranch = name
	return nil
}

// CurrentBranch reports the name of the branch last switched to, or "" if
// running on the original timeline.
func (e *Engine) CurrentBranch() string { return e.currentBranch }

// ProgramCounter and Gas expose read-only engine state for callers (e.g. CLI
// inspection commands).
func (e *Engine) ProgramCounter() int { return e.pc }
func (e *Engine) Gas() uint64         { return e.gas }
