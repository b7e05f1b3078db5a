package core

import (
	"testing"
	"time"
)

func TestEngineRunsTraditionalProgramToSuccess(t *testing.T) {
	program := []Instruction{
		{Op: OpWitness, Out: 1},
		{Op: OpWitness, Out: 2},
	}
	e := NewEngine(program, time.Now())
	result := e.RunWithTimeout(10_000, 100)
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("expected Success, got %s", result.Outcome)
	}
	// one step per instruction, plus the final step that finds the program
	// counter at the end and suspends
	if result.Steps != len(program)+1 {
		t.Fatalf("expected %d steps, got %d", len(program)+1, result.Steps)
	}
}

func TestEngineTwoPartySessionCompletesViaPropagation(t *testing.T) {
	now := time.Now()
	alice := NewParticipant("alice", Send("Payload", Receive("Ack", End())), now)
	bob := NewParticipant("bob", Receive("Payload", Send("Ack", End())), now)
	alice.SetPeer("bob")
	bob.SetPeer("alice")

	e := NewEngine(nil, now)
	e.AddParticipant("alice", alice)
	e.AddParticipant("bob", bob)

	result := e.RunWithTimeout(60_000, 1000)
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("expected the two-party demo protocol to reach Success, got %s (report=%v)", result.Outcome, result.Report)
	}
}

func TestEngineMaxStepsReached(t *testing.T) {
	program := make([]Instruction, 50)
	for i := range program {
		program[i] = Instruction{Op: OpWitness, Out: Reg(i + 1)}
	}
	e := NewEngine(program, time.Now())
	result := e.RunWithTimeout(1_000_000, 5)
	if result.Outcome != OutcomeMaxStepsReached {
		t.Fatalf("expected MaxStepsReached, got %s", result.Outcome)
	}
	if result.Steps != 5 {
		t.Fatalf("expected exactly 5 steps to have run, got %d", result.Steps)
	}
}

func TestEngineClientServerSessionCompletesWithoutViolationOrDeadlock(t *testing.T) {
	now := time.Now()
	client := NewParticipant("client", Send("Int", Receive("Bool", End())), now)
	server := NewParticipant("server", Receive("Int", Send("Bool", End())), now)
	client.SetPeer("server")
	server.SetPeer("client")

	e := NewEngine(nil, now)
	e.AddParticipant("client", client)
	e.AddParticipant("server", server)

	result := e.RunWithTimeout(60_000, 1000)
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("expected the client/server session to reach Success, got %s (report=%v)", result.Outcome, result.Report)
	}
	if !client.Compliance.IsValid || !server.Compliance.IsValid {
		t.Fatal("expected both participants to remain protocol-compliant")
	}
}

func TestEngineMutualReceiveCycleIsDetectedAsDeadlock(t *testing.T) {
	now := time.Now()
	a := NewParticipant("a", Receive("Unit", End()), now)
	b := NewParticipant("b", Receive("Unit", End()), now)
	a.SetPeer("b")
	b.SetPeer("a")

	e := NewEngine(nil, now, WithDeadlockCheckInterval(1))
	e.AddParticipant("a", a)
	e.AddParticipant("b", b)

	result := e.RunWithTimeout(60_000, 1000)
	if result.Outcome != OutcomeDeadlock {
		t.Fatalf("expected a mutual-receive cycle to be reported as Deadlock, got %s", result.Outcome)
	}
	if result.Report == nil || result.Report.Kind != DeadlockCycle {
		t.Fatalf("expected a DeadlockCycle report, got %+v", result.Report)
	}
	if len(result.Report.Participants) != 2 {
		t.Fatalf("expected the cycle to name both participants, got %v", result.Report.Participants)
	}
}

func TestEngineTimesOutWhenParticipantNeverReceivesInput(t *testing.T) {
	now := time.Now()
	bob := NewParticipant("bob", Receive("Payload", End()), now)
	e := NewEngine(nil, now, WithDeadlockCheckInterval(2))
	e.AddParticipant("bob", bob)

	result := e.RunWithTimeout(5, 1000)
	if result.Outcome != OutcomeTimeout && result.Outcome != OutcomeDeadlock {
		t.Fatalf("expected Timeout or Deadlock for a participant with nothing ever delivered, got %s", result.Outcome)
	}
}

func TestEngineBranchSnapshotIsolatesState(t *testing.T) {
	now := time.Now()
	alice := NewParticipant("alice", Send("Payload", End()), now)
	e := NewEngine(nil, now, WithSnapshots(true))
	e.AddParticipant("alice", alice)

	if err := e.CreateBranch("before"); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	e.Step(now)
	if len(alice.ProtocolHistory) != 1 {
		t.Fatalf("expected the step to record one operation, got %d", len(alice.ProtocolHistory))
	}
	if err := e.SwitchToBranch("before"); err != nil {
		t.Fatalf("SwitchToBranch: %v", err)
	}
	if e.CurrentBranch() != "before" {
		t.Fatalf("expected CurrentBranch to report 'before', got %q", e.CurrentBranch())
	}
	if got := len(e.participants["alice"].ProtocolHistory); got != 0 {
		t.Fatalf("expected the restored branch to predate the step, got %d history entries", got)
	}
}

func TestEngineCreateBranchDisabledByDefault(t *testing.T) {
	e := NewEngine(nil, time.Now())
	if err := e.CreateBranch("x"); err == nil {
		t.Fatal("expected CreateBranch to fail when snapshots were never enabled")
	}
}

func TestEngineDeliverRoutesToRecipientInbox(t *testing.T) {
	now := time.Now()
	bob := NewParticipant("bob", Receive("Payload", End()), now)
	e := NewEngine(nil, now)
	e.AddParticipant("bob", bob)

	e.Deliver("bob", Op{Kind: OpKindReceive, PayloadType: "Payload"})
	if !bob.PendingInbox() {
		t.Fatal("expected Deliver to enqueue into bob's inbox")
	}
}
