// Package policy normalizes an arbitrary policy document (typically decoded
// from JSON via DOCMASK_ENTITY_POLICY) into the canonical span.Policy shape,
// silently coercing invalid fields to safe defaults rather than rejecting
// the input. Unknown keys are never an error — see spec §4.6/§7.
package policy

import (
	"encoding/json"
	"strconv"
	"strings"

	"ai-anonymizing-proxy/internal/span"
)

// echoTokens are template placeholders that would leak the original value
// into the rewritten output. Any template containing one is stripped.
var echoTokens = []string{"{orig}", "{text}"}

// raw mirrors the informal JSON schema from spec §6. Thresholds is loosely
// typed so a non-numeric entry is dropped on its own; a type mismatch in any
// other field fails the decode, and ParseAndValidate then returns the empty
// policy.
type raw struct {
	MaskAll        bool                       `json:"mask_all"`
	Entities       []string                   `json:"entities"`
	Thresholds     map[string]any             `json:"thresholds"`
	Actions        map[string]rawActionConfig `json:"actions"`
	PreserveLength *bool                      `json:"preserve_length"`
}

type rawActionConfig struct {
	Action    string         `json:"action"`
	Template  *string        `json:"template"`
	KeepParts *rawKeepParts  `json:"keep_parts"`
}

type rawKeepParts struct {
	Last *int `json:"last"`
}

// allowedActions is the closed set a normalized policy may select; anything
// else defaults to remove.
var allowedActions = map[string]span.Action{
	"remove":       span.ActionRemove,
	"placeholder":  span.ActionPlaceholder,
	"pseudonymize": span.ActionPseudonymize,
	"format":       span.ActionFormat,
}

// ParseAndValidate decodes raw JSON policy bytes and returns the normalized
// canonical Policy. Empty input and decode failures produce the empty
// policy (mask_all=false, no entities selected) rather than an error, and
// missing containers are coerced to empty — a policy is never rejected for
// being malformed (spec §7).
func ParseAndValidate(data []byte) *span.Policy {
	var r raw
	if len(data) == 0 {
		return emptyPolicy()
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return emptyPolicy()
	}
	return Validate(r)
}

func emptyPolicy() *span.Policy {
	return &span.Policy{
		Entities:   map[span.Type]bool{},
		Thresholds: map[span.Type]float64{},
		Actions:    map[span.Type]span.ActionConfig{},
		// preserve_length defaults to true when actions are absent (spec §3).
		PreserveLength: true,
	}
}

// Validate normalizes a decoded raw policy into the canonical shape.
func Validate(r raw) *span.Policy {
	p := &span.Policy{
		MaskAll:    r.MaskAll,
		Entities:   map[span.Type]bool{},
		Thresholds: map[span.Type]float64{},
		Actions:    map[span.Type]span.ActionConfig{},
	}
	for _, e := range r.Entities {
		p.Entities[span.Type(e)] = true
	}
	for k, v := range r.Thresholds {
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				continue // non-numeric threshold entries are dropped
			}
			f = parsed
		default:
			continue // non-numeric threshold entries are dropped
		}
		p.Thresholds[span.Type(k)] = f
	}
	for k, cfg := range r.Actions {
		p.Actions[span.Type(k)] = normalizeAction(cfg)
	}

	if r.PreserveLength != nil {
		p.PreserveLength = *r.PreserveLength
	} else {
		// Default true when unset, UNLESS actions are configured (spec §3).
		p.PreserveLength = len(p.Actions) == 0
	}
	return p
}

func normalizeAction(cfg rawActionConfig) span.ActionConfig {
	action, ok := allowedActions[strings.ToLower(cfg.Action)]
	if !ok {
		action = span.ActionRemove
	}
	out := span.ActionConfig{Action: action}

	if cfg.Template != nil && actionUsesTemplate(action) {
		tmpl := *cfg.Template
		if !containsEchoToken(tmpl) {
			out.Template = tmpl
		}
		// An unsafe template is stripped entirely; the rewriter falls back
		// to its default for the action: "[<type>]" for placeholder, the
		// type's default template for pseudonymize (spec §4.6/§9).
	}

	if cfg.KeepParts != nil && cfg.KeepParts.Last != nil && *cfg.KeepParts.Last >= 0 {
		out.KeepParts = &span.KeepParts{Last: *cfg.KeepParts.Last}
	}

	return out
}

func actionUsesTemplate(a span.Action) bool {
	return a == span.ActionPseudonymize || a == span.ActionPlaceholder || a == span.ActionFormat
}

func containsEchoToken(tmpl string) bool {
	for _, tok := range echoTokens {
		if strings.Contains(tmpl, tok) {
			return true
		}
	}
	return false
}
