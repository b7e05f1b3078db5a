package core

import (
	"testing"
	"time"
)

func TestParticipantExecuteOperationRejectsWrongTag(t *testing.T) {
	now := time.Now()
	p := NewParticipant("alice", Send("Payload", End()), now)
	err := p.ExecuteOperation(Op{Kind: OpKindReceive, PayloadType: "Payload"}, now)
	if err == nil {
		t.Fatal("expected a protocol violation for an op not offered next")
	}
	if p.Compliance.IsValid {
		t.Fatal("expected Compliance.IsValid to flip false after a violation")
	}
	if len(p.Compliance.Violations) != 1 {
		t.Fatalf("expected exactly one recorded violation, got %d", len(p.Compliance.Violations))
	}
}

func TestParticipantAdvancesThroughSendReceiveEnd(t *testing.T) {
	now := time.Now()
	p := NewParticipant("alice", Send("Payload", Receive("Ack", End())), now)
	if err := p.ExecuteOperation(Op{Kind: OpKindSend, PayloadType: "Payload"}, now); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := p.ExecuteOperation(Op{Kind: OpKindReceive, PayloadType: "Ack"}, now); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if err := p.ExecuteOperation(Op{Kind: OpKindEnd}, now); err != nil {
		t.Fatalf("End: %v", err)
	}
	if !p.Compliance.IsComplete {
		t.Fatal("expected the participant to be complete after reaching End")
	}
	if p.Gas == 0 {
		t.Fatal("expected gas to accumulate across the three operations")
	}
}

func TestParticipantInternalChoiceSelectsBranch(t *testing.T) {
	now := time.Now()
	protocol := InternalChoice(
		Branch{Label: "yes", Cont: End()},
		Branch{Label: "no", Cont: End()},
	)
	p := NewParticipant("alice", protocol, now)
	if err := p.ExecuteOperation(Op{Kind: OpKindInternalChoice, Label: "no"}, now); err != nil {
		t.Fatalf("InternalChoice: %v", err)
	}
	if err := p.ExecuteOperation(Op{Kind: OpKindEnd}, now); err != nil {
		t.Fatalf("End: %v", err)
	}
}

func TestParticipantAwaitsExternalInput(t *testing.T) {
	now := time.Now()
	p := NewParticipant("bob", Receive("Payload", End()), now)
	if !p.AwaitsExternalInput() {
		t.Fatal("expected a bare Receive with an empty inbox to await external input")
	}
	p.Enqueue(Op{Kind: OpKindReceive, PayloadType: "Payload"})
	if p.AwaitsExternalInput() {
		t.Fatal("expected a queued inbox entry to unblock AwaitsExternalInput")
	}
}

func TestRecursiveSessionUnfolds(t *testing.T) {
	loop := Recursive("X", InternalChoice(
		Branch{Label: "again", Cont: Variable("X")},
		Branch{Label: "done", Cont: End()},
	))
	now := time.Now()
	p := NewParticipant("alice", loop, now)
	if err := p.ExecuteOperation(Op{Kind: OpKindInternalChoice, Label: "again"}, now); err != nil {
		t.Fatalf("first loop iteration: %v", err)
	}
	if err := p.ExecuteOperation(Op{Kind: OpKindInternalChoice, Label: "done"}, now); err != nil {
		t.Fatalf("loop exit: %v", err)
	}
	if err := p.ExecuteOperation(Op{Kind: OpKindEnd}, now); err != nil {
		t.Fatalf("End: %v", err)
	}
	if !p.Compliance.IsComplete {
		t.Fatal("expected completion after exiting the recursive loop")
	}
}
