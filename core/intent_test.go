package core

import "testing"

func TestSelectStrategyConservationAloneIsTransfer(t *testing.T) {
	intent := Intent{Constraint: Conservation(
		ResourceBinding{Name: "in", Type: "token"},
		ResourceBinding{Name: "out", Type: "token"},
	)}
	strategy, _ := SelectStrategy(intent)
	if strategy != StrategyTransfer {
		t.Fatalf("expected Transfer, got %s", strategy)
	}
}

func TestSelectStrategyExistsAloneIsTransform(t *testing.T) {
	intent := Intent{Constraint: Exists(ResourceBinding{Name: "r", Type: "token"})}
	strategy, _ := SelectStrategy(intent)
	if strategy != StrategyTransform {
		t.Fatalf("expected Transform, got %s", strategy)
	}
}

func TestSelectStrategyAndWithConservationAndExistsIsTransfer(t *testing.T) {
	intent := Intent{Constraint: And(
		Conservation(ResourceBinding{Name: "in", Type: "token"}, ResourceBinding{Name: "out", Type: "token"}),
		Exists(ResourceBinding{Name: "fee", Type: "token"}),
	)}
	strategy, _ := SelectStrategy(intent)
	if strategy != StrategyTransfer {
		t.Fatalf("expected Transfer for And(Conservation, Exists), got %s", strategy)
	}
}

func TestSelectStrategyExplicitTemplateNameIsCustom(t *testing.T) {
	intent := Intent{TemplateName: "my.custom.template", Constraint: Exists(ResourceBinding{Name: "r"})}
	strategy, name := SelectStrategy(intent)
	if strategy != StrategyCustom || name != "my.custom.template" {
		t.Fatalf("expected Custom(my.custom.template), got %s(%s)", strategy, name)
	}
}

func TestSynthesizeEmitsLoadMainProduceInOrder(t *testing.T) {
	templates := NewTemplateLibrary()
	intent := Intent{
		Domain: "default",
		Inputs: []ResourceBinding{{Name: "source", Type: "token", MinQuantity: 1}},
		Constraint: Conservation(
			ResourceBinding{Name: "source", Type: "token", MinQuantity: 1},
			ResourceBinding{Name: "dest", Type: "token", MinQuantity: 1},
		),
	}
	effects, err := Synthesize(intent, templates)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(effects) != 3 {
		t.Fatalf("expected load + main + produce = 3 effects, got %d: %+v", len(effects), effects)
	}
	if effects[0].Kind != EffectLoadResource || effects[0].ResourceName != "source" {
		t.Fatalf("expected first effect to load 'source', got %+v", effects[0])
	}
	if effects[1].Kind != EffectCustom {
		t.Fatalf("expected second effect to be the strategy's main effect, got %+v", effects[1])
	}
	if effects[2].Kind != EffectProduceResource || effects[2].ResourceName != "dest" {
		t.Fatalf("expected third effect to produce 'dest', got %+v", effects[2])
	}
}

func TestSynthesizeUnknownCustomTemplateFails(t *testing.T) {
	templates := NewTemplateLibrary()
	intent := Intent{TemplateName: "does.not.exist", Constraint: Exists(ResourceBinding{Name: "r"})}
	if _, err := Synthesize(intent, templates); err == nil {
		t.Fatal("expected ErrTemplateNotFound for an unregistered custom template")
	}
}

func TestValidateFlowDetectsMissingConservationOutput(t *testing.T) {
	intent := Intent{Constraint: Conservation(
		ResourceBinding{Name: "in", Type: "token"},
		ResourceBinding{Name: "out", Type: "token"},
	)}
	flow := []Effect{LoadResource("in", "token")} // never produces "out"
	if err := ValidateFlow(flow, intent); err == nil {
		t.Fatal("expected ValidateFlow to reject a flow missing its conservation output")
	}
}

func TestValidateFlowAcceptsBalancedFlow(t *testing.T) {
	intent := Intent{Constraint: Conservation(
		ResourceBinding{Name: "in", Type: "token"},
		ResourceBinding{Name: "out", Type: "token"},
	)}
	flow := []Effect{LoadResource("in", "token"), CustomEffect("transfer.basic", nil), ProduceResource("out", "token", nil)}
	if err := ValidateFlow(flow, intent); err != nil {
		t.Fatalf("expected a balanced flow to validate, got %v", err)
	}
}

func TestValidateFlowRejectsEmptyFlow(t *testing.T) {
	intent := Intent{Constraint: Exists(ResourceBinding{Name: "r"})}
	if err := ValidateFlow(nil, intent); err == nil {
		t.Fatal("expected an empty flow to be rejected")
	}
}
