// Package span defines the core data model shared across the masking
// pipeline: entity spans, the closed set of entity type tags, and the
// masking policy that governs detection and rewriting.
package span

// Type classifies the kind of sensitive data a span carries.
// The set is closed — detectors and policies only ever speak these tags.
type Type string

// Entity type tags. "metadata" is a roll-up for device, network, and
// location identifiers; each such span keeps its originating sub-rule in
// Source (e.g. "ipv4", "gps", "vin") for provenance.
const (
	TypeEmail        Type = "email"
	TypePhone        Type = "phone"
	TypePostalCode   Type = "postal_code"
	TypePersonName   Type = "person_name"
	TypeAddress      Type = "address"
	TypeOrganization Type = "organization"
	TypeGovernmentID Type = "government_id"
	TypeFinancial    Type = "financial"
	TypeCredentials  Type = "credentials"
	TypeHealth       Type = "health"
	TypeMetadata     Type = "metadata"
)

// Entity is a contiguous, typed region of the input with confidence and
// provenance. Start/End are half-open byte offsets:
// 0 <= Start < End <= len(input).
type Entity struct {
	Type   Type
	Start  int
	End    int
	Text   string
	Score  float64
	Source string
}

// Action is what the rewriter does with a retained span.
type Action string

// Allowed rewriter actions.
const (
	ActionRemove       Action = "remove"
	ActionPlaceholder  Action = "placeholder"
	ActionPseudonymize Action = "pseudonymize"
	ActionFormat       Action = "format"
)

// KeepParts controls how much of the original value survives an action
// that would otherwise discard it entirely.
type KeepParts struct {
	Last int // keep the last N characters of the original value
}

// ActionConfig is the per-type rewriter configuration.
type ActionConfig struct {
	Action    Action
	Template  string // only meaningful for placeholder/pseudonymize/format
	KeepParts *KeepParts
}

// Policy is the declarative configuration selecting entity types,
// confidence thresholds, and masking actions. A validated Policy is
// immutable; construct one via internal/policy.ParseAndValidate.
type Policy struct {
	MaskAll        bool
	Entities       map[Type]bool
	Thresholds     map[Type]float64
	Actions        map[Type]ActionConfig
	PreserveLength bool
}

// HasEntity reports whether t is selected by the policy.
func (p *Policy) HasEntity(t Type) bool {
	if p == nil || p.Entities == nil {
		return false
	}
	return p.Entities[t]
}

// Threshold returns the configured score threshold for t, defaulting to 0.
func (p *Policy) Threshold(t Type) float64 {
	if p == nil || p.Thresholds == nil {
		return 0
	}
	return p.Thresholds[t]
}

// ActionFor returns the configured action for t and whether one was set.
func (p *Policy) ActionFor(t Type) (ActionConfig, bool) {
	if p == nil || p.Actions == nil {
		return ActionConfig{}, false
	}
	cfg, ok := p.Actions[t]
	return cfg, ok
}
