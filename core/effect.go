package core

// Effects are the concrete, executable steps an intent compiles down to
// (§4.9) and that a session participant accumulates while running a
// protocol (§4.5, §3).

// EffectKind tags one concrete step of an effect sequence.
type EffectKind int

const (
	EffectLoadResource EffectKind = iota
	EffectProduceResource
	EffectWithSession
	EffectCustom
)

// Effect is one step of a synthesized effect sequence.
type Effect struct {
	Kind EffectKind

	// LoadResource / ProduceResource
	ResourceName string
	ResourceType string
	Quantity     *uint64 // ProduceResource only; nil means unspecified

	// WithSession
	SessionDecl string
	Role        string
	Body        []Effect

	// Custom / template "implementation" effects
	TemplateName string
	Params       map[string]string
}

func LoadResource(name, typ string) Effect {
	return Effect{Kind: EffectLoadResource, ResourceName: name, ResourceType: typ}
}

func ProduceResource(name, typ string, quantity *uint64) Effect {
	return Effect{Kind: EffectProduceResource, ResourceName: name, ResourceType: typ, Quantity: quantity}
}

func WithSession(decl, role string, body []Effect) Effect {
	return Effect{Kind: EffectWithSession, SessionDecl: decl, Role: role, Body: body}
}

func CustomEffect(templateName string, params map[string]string) Effect {
	return Effect{Kind: EffectCustom, TemplateName: templateName, Params: params}
}
