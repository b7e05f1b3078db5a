package core

// An Intent declares what a caller wants (inputs, a constraint tree over
// them, and any session requirements) without naming how to achieve it;
// synthesis picks a strategy and emits an effect sequence (§4.9).

import "fmt"

// ConstraintKind tags one node of a ConstraintTree.
type ConstraintKind int

const (
	ConstraintAnd ConstraintKind = iota
	ConstraintOr
	ConstraintNot
	ConstraintConservation
	ConstraintExists
	ConstraintExistsAll
)

// ResourceBinding names a resource an intent consumes or requires, with an
// optional capability/quantity constraint used by template matching (§4.9).
type ResourceBinding struct {
	Name         string
	Type         string // "" or "Any" matches any type
	MinQuantity  uint64
	Capabilities []string
}

// ConstraintTree is the flat-struct sum for And/Or/Not/Conservation/
// Exists/ExistsAll (§3).
type ConstraintTree struct {
	Kind ConstraintKind

	// And / Or
	Children []ConstraintTree

	// Not
	Child *ConstraintTree

	// Conservation
	In, Out *ResourceBinding

	// Exists
	Binding *ResourceBinding

	// ExistsAll
	Bindings []ResourceBinding
}

func And(children ...ConstraintTree) ConstraintTree {
	return ConstraintTree{Kind: ConstraintAnd, Children: children}
}
func Or(children ...ConstraintTree) ConstraintTree {
	return ConstraintTree{Kind: ConstraintOr, Children: children}
}
func Not(child ConstraintTree) ConstraintTree {
	return ConstraintTree{Kind: ConstraintNot, Child: &child}
}
func Conservation(in, out ResourceBinding) ConstraintTree {
	return ConstraintTree{Kind: ConstraintConservation, In: &in, Out: &out}
}
func Exists(binding ResourceBinding) ConstraintTree {
	return ConstraintTree{Kind: ConstraintExists, Binding: &binding}
}
func ExistsAll(bindings ...ResourceBinding) ConstraintTree {
	return ConstraintTree{Kind: ConstraintExistsAll, Bindings: bindings}
}

// SessionRequirement names a protocol an intent's effects must be wrapped
// under, with the role the synthesized effects play in it.
type SessionRequirement struct {
	Decl     string
	Role     string
	Protocol *SessionType
}

// Intent is the caller-facing declaration synthesis consumes.
type Intent struct {
	Domain              DomainID
	Inputs              []ResourceBinding
	Constraint          ConstraintTree
	SessionRequirements []SessionRequirement
	TemplateName        string // non-empty selects Custom(name) explicitly
}

// Strategy names the synthesis approach chosen for an intent.
type Strategy int

const (
	StrategyTransfer Strategy = iota
	StrategyTransform
	StrategyCustom
)

func (s Strategy) String() string {
	switch s {
	case StrategyTransfer:
		return "Transfer"
	case StrategyTransform:
		return "Transform"
	case StrategyCustom:
		return "Custom"
	default:
		return "?"
	}
}

// SelectStrategy scans intent's constraint per §4.9:
//   And([...]) containing both Conservation and any Exists* => Transfer
//   Conservation alone => Transfer
//   Exists or ExistsAll alone => Transform
//   otherwise recurse into the first matching child; default Transform
//   an explicit TemplateName on the intent selects Custom(name)
func SelectStrategy(intent Intent) (Strategy, string) {
	if intent.TemplateName != "" {
		return StrategyCustom, intent.TemplateName
	}
	return selectFromConstraint(intent.Constraint), ""
}

func selectFromConstraint(c ConstraintTree) Strategy {
	switch c.Kind {
	case ConstraintAnd:
		hasConservation, hasExists := false, false
		for _, child := range c.Children {
			if child.Kind == ConstraintConservation {
				hasConservation = true
			}
			if child.Kind == ConstraintExists || child.Kind == ConstraintExistsAll {
				hasExists = true
			}
		}
		if hasConservation && hasExists {
			return StrategyTransfer
		}
		for _, child := range c.Children {
			return selectFromConstraint(child)
		}
		return StrategyTransform
	case ConstraintConservation:
		return StrategyTransfer
	case ConstraintExists, ConstraintExistsAll:
		return StrategyTransform
	case ConstraintOr:
		for _, child := range c.Children {
			return selectFromConstraint(child)
		}
		return StrategyTransform
	case ConstraintNot:
		if c.Child != nil {
			return selectFromConstraint(*c.Child)
		}
		return StrategyTransform
	default:
		return StrategyTransform
	}
}

// outputBindings walks the constraint tree collecting every binding that
// names an intent's produced resources: the Out side of Conservation, plus
// every Exists/ExistsAll binding. Bindings are not filtered against the
// intent's inputs or de-duplicated by name.
func outputBindings(c ConstraintTree) []ResourceBinding {
	var out []ResourceBinding
	switch c.Kind {
	case ConstraintConservation:
		if c.Out != nil {
			out = append(out, *c.Out)
		}
	case ConstraintExists:
		if c.Binding != nil {
			out = append(out, *c.Binding)
		}
	case ConstraintExistsAll:
		out = append(out, c.Bindings...)
	case ConstraintAnd, ConstraintOr:
		for _, child := range c.Children {
			out = append(out, outputBindings(child)...)
		}
	case ConstraintNot:
		if c.Child != nil {
			out = append(out, outputBindings(*c.Child)...)
		}
	}
	return out
}

// Synthesize compiles intent into an effect sequence per §4.9's emission
// order: optional session setup, one load_resource per input, the
// strategy's main effect, then one produce_resource per output binding.
func Synthesize(intent Intent, templates *TemplateLibrary) ([]Effect, error) {
	strategy, customName := SelectStrategy(intent)

	var mainEffect Effect
	switch strategy {
	case StrategyCustom:
		tmpl, ok := templates.Get(customName)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, customName)
		}
		mainEffect = CustomEffect(tmpl.Name, nil)
	default:
		tmpl, err := templates.Match(intent, strategy)
		if err != nil {
			return nil, err
		}
		mainEffect = CustomEffect(tmpl.Name, nil)
	}

	var effects []Effect
	for _, req := range intent.SessionRequirements {
		var body []Effect
		if req.Protocol != nil {
			body = append(body, CustomEffect("session:"+req.Decl, map[string]string{"role": req.Role}))
		}
		effects = append(effects, WithSession(req.Decl, req.Role, body))
	}

	for _, in := range intent.Inputs {
		effects = append(effects, LoadResource(in.Name, in.Type))
	}

	effects = append(effects, mainEffect)

	for _, out := range outputBindings(intent.Constraint) {
		var qty *uint64
		if out.MinQuantity > 0 {
			q := out.MinQuantity
			qty = &q
		}
		effects = append(effects, ProduceResource(out.Name, out.Type, qty))
	}

	return effects, nil
}

// ValidateFlow checks that flow is non-empty, structurally satisfies
// intent's constraint tree, and that any Conservation constraint balances
// in/out bindings by type (§4.9).
func ValidateFlow(flow []Effect, intent Intent) error {
	if len(flow) == 0 {
		return fmt.Errorf("%w: empty effect flow", ErrUnsatisfiableConstraint)
	}
	return checkConstraint(intent.Constraint, flow)
}

func checkConstraint(c ConstraintTree, flow []Effect) error {
	switch c.Kind {
	case ConstraintAnd:
		for _, child := range c.Children {
			if err := checkConstraint(child, flow); err != nil {
				return err
			}
		}
		return nil
	case ConstraintOr:
		var lastErr error
		for _, child := range c.Children {
			if err := checkConstraint(child, flow); err == nil {
				return nil
			} else {
				lastErr = err
			}
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: empty Or constraint", ErrUnsatisfiableConstraint)
		}
		return lastErr
	case ConstraintNot:
		if c.Child != nil && checkConstraint(*c.Child, flow) == nil {
			return fmt.Errorf("%w: negated constraint satisfied", ErrUnsatisfiableConstraint)
		}
		return nil
	case ConstraintConservation:
		if c.In == nil || c.Out == nil {
			return fmt.Errorf("%w: malformed conservation constraint", ErrUnsatisfiableConstraint)
		}
		if !flowHasLoad(flow, *c.In) {
			return fmt.Errorf("%w: conservation input %q not loaded", ErrMissingResource, c.In.Name)
		}
		if !flowHasProduce(flow, *c.Out) {
			return fmt.Errorf("%w: conservation output %q not produced", ErrMissingResource, c.Out.Name)
		}
		return nil
	case ConstraintExists:
		if c.Binding != nil && !flowHasProduce(flow, *c.Binding) && !flowHasLoad(flow, *c.Binding) {
			return fmt.Errorf("%w: %q", ErrMissingResource, c.Binding.Name)
		}
		return nil
	case ConstraintExistsAll:
		for _, b := range c.Bindings {
			if !flowHasProduce(flow, b) && !flowHasLoad(flow, b) {
				return fmt.Errorf("%w: %q", ErrMissingResource, b.Name)
			}
		}
		return nil
	default:
		return nil
	}
}

func flowHasLoad(flow []Effect, b ResourceBinding) bool {
	for _, e := range flow {
		if e.Kind == EffectLoadResource && e.ResourceName == b.Name {
			return true
		}
	}
	return false
}

func flowHasProduce(flow []Effect, b ResourceBinding) bool {
	for _, e := range flow {
		if e.Kind == EffectProduceResource && e.ResourceName == b.Name {
			return true
		}
	}
	return false
}
