package core

import "testing"

func TestGenerateUnitProducesWitness(t *testing.T) {
	prog, err := Generate(Unit())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(prog.Instructions) != 1 || prog.Instructions[0].Op != OpWitness {
		t.Fatalf("expected a single Witness instruction, got %v", prog.Instructions)
	}
}

func TestGenerateVariableUnbound(t *testing.T) {
	_, err := Generate(Var("x"))
	if err == nil {
		t.Fatal("expected ErrUnknownSymbol for unbound variable")
	}
}

func TestGenerateLetTensorBindsBothHalves(t *testing.T) {
	expr := LetTensorExpr(TensorExpr(Unit(), Unit()), "l", "r", TensorExpr(Var("l"), Var("r")))
	prog, err := Generate(expr)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if prog.RegisterCount == 0 {
		t.Fatal("expected registers to be allocated")
	}
	// Two witnesses for the inner tensor's operands, one for the inner
	// tensor itself, two more witnesses unpacking LetTensor's halves, and a
	// final witness for the outer tensor.
	var witnesses int
	for _, in := range prog.Instructions {
		if in.Op == OpWitness {
			witnesses++
		}
	}
	if witnesses < 5 {
		t.Fatalf("expected at least 5 Witness instructions, got %d", witnesses)
	}
}

func TestGenerateCaseEmitsMatchAndMoves(t *testing.T) {
	expr := CaseExpr(InlExpr(Unit()), "a", Var("a"), "b", Var("b"))
	prog, err := Generate(expr)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var sawMatch, moves int
	for _, in := range prog.Instructions {
		switch in.Op {
		case OpMatch:
			sawMatch = 1
		case OpMove:
			moves++
		}
	}
	if sawMatch == 0 {
		t.Fatal("expected a Match instruction")
	}
	if moves != 2 {
		t.Fatalf("expected 2 result-joining moves, got %d", moves)
	}
}

func TestGenerateLambdaRejectsMultipleParams(t *testing.T) {
	expr := LambdaExpr([]string{"a", "b"}, Unit())
	_, err := Generate(expr)
	if err == nil {
		t.Fatal("expected ErrUnsupportedLiteral for a multi-parameter lambda")
	}
}

func TestGenerateApplyChainsRegisters(t *testing.T) {
	expr := ApplyExpr(LambdaExpr([]string{"x"}, Var("x")), Unit(), Unit())
	prog, err := Generate(expr)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var applies int
	for _, in := range prog.Instructions {
		if in.Op == OpApply {
			applies++
		}
	}
	if applies != 2 {
		t.Fatalf("expected 2 Apply instructions for a 2-arg application, got %d", applies)
	}
}

func TestGenerateAllocAndConsume(t *testing.T) {
	expr := ConsumeExpr(AllocExpr(Unit()))
	prog, err := Generate(expr)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	last := prog.Instructions[len(prog.Instructions)-1]
	if last.Op != OpConsume {
		t.Fatalf("expected final instruction to be Consume, got %s", last.Op)
	}
}

func TestGenerateNilExpression(t *testing.T) {
	if _, err := Generate(nil); err == nil {
		t.Fatal("expected an error generating a nil expression")
	}
}
