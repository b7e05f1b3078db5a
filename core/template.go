package core

// A small library of named strategy implementations an intent can bind to,
// selected by input/output pattern matching and cost (§4.9).

import "fmt"

// TemplatePattern is one input or output slot a template offers or
// requires.
type TemplatePattern struct {
	Type         string // "Any" matches every input type
	MinQuantity  uint64
	Capabilities []string
}

// Template is a named, costed implementation a Transfer/Transform intent
// can be matched against.
type Template struct {
	Name    string
	Inputs  []TemplatePattern
	Outputs []TemplatePattern
	Cost    uint64
	Applies Strategy
}

// TemplateLibrary is a registry of templates, keyed by name, following the
// teacher's explicit-registration convention (summary.go's SummaryManager,
// cmd/cli's sync.Once singleton registries).
type TemplateLibrary struct {
	byName map[string]Template
}

// NewTemplateLibrary returns a library seeded with the built-in Transfer and
// Transform templates.
func NewTemplateLibrary() *TemplateLibrary {
	l := &TemplateLibrary{byName: make(map[string]Template)}
	l.Register(Template{
		Name:    "transfer.basic",
		Inputs:  []TemplatePattern{{Type: "Any", MinQuantity: 1}},
		Outputs: []TemplatePattern{{Type: "Any", MinQuantity: 1}},
		Cost:    1,
		Applies: StrategyTransfer,
	})
	l.Register(Template{
		Name:    "transform.identity",
		Inputs:  []TemplatePattern{{Type: "Any"}},
		Outputs: []TemplatePattern{{Type: "Any"}},
		Cost:    1,
		Applies: StrategyTransform,
	})
	return l
}

// Register binds name, overwriting any prior template of the same name.
func (l *TemplateLibrary) Register(t Template) { l.byName[t.Name] = t }

// Get looks up a template by exact name, for the explicit Custom(name)
// strategy.
func (l *TemplateLibrary) Get(name string) (Template, bool) {
	t, ok := l.byName[name]
	return t, ok
}

// Match finds every template applicable to strategy whose patterns are
// satisfied by intent, and returns the lowest-cost match (§4.9).
func (l *TemplateLibrary) Match(intent Intent, strategy Strategy) (Template, error) {
	var best *Template
	outputs := outputBindings(intent.Constraint)

	for name, t := range l.byName {
		if t.Applies != strategy {
			continue
		}
		if !inputsSatisfied(t.Inputs, intent.Inputs) {
			continue
		}
		if !outputsSatisfied(t.Outputs, outputs) {
			continue
		}
		candidate := l.byName[name]
		if best == nil || candidate.Cost < best.Cost {
			best = &candidate
		}
	}
	if best == nil {
		return Template{}, fmt.Errorf("%w: no template matches strategy %s", ErrTemplateNotFound, strategy)
	}
	return *best, nil
}

// inputsSatisfied reports whether every template input pattern finds a
// satisfying binding among available: type matches (or pattern is "Any"),
// quantity >= min, and required capabilities are a subset of the binding's.
func inputsSatisfied(patterns []TemplatePattern, available []ResourceBinding) bool {
	for _, pat := range patterns {
		if !anyBindingSatisfies(pat, available) {
			return false
		}
	}
	return true
}

// outputsSatisfied reports whether every required output can be produced by
// some template output pattern.
func outputsSatisfied(patterns []TemplatePattern, required []ResourceBinding) bool {
	for _, req := range required {
		satisfied := false
		for _, pat := range patterns {
			if patternMatchesBinding(pat, req) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

func anyBindingSatisfies(pat TemplatePattern, available []ResourceBinding) bool {
	for _, b := range available {
		if patternMatchesBinding(pat, b) {
			return true
		}
	}
	return false
}

func patternMatchesBinding(pat TemplatePattern, b ResourceBinding) bool {
	if pat.Type != "Any" && pat.Type != "" && pat.Type != b.Type {
		return false
	}
	if b.MinQuantity < pat.MinQuantity {
		return false
	}
	for _, need := range pat.Capabilities {
		found := false
		for _, have := range b.Capabilities {
			if have == need {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
