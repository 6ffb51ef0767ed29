package compliance

import (
	"fmt"
	"regexp"

	"github.com/fyrsmithlabs/complyd/internal/catalogue"
	"github.com/fyrsmithlabs/complyd/internal/gate"
)

// GatesFromCatalogue compiles the config-defined gate specs of a catalogue
// snapshot into runnable gates.
func GatesFromCatalogue(specs []catalogue.GateSpec) ([]gate.Gate, error) {
	gates := make([]gate.Gate, 0, len(specs))
	for _, spec := range specs {
		g, err := gateFromSpec(spec)
		if err != nil {
			return nil, err
		}
		gates = append(gates, g)
	}
	return gates, nil
}

func gateFromSpec(spec catalogue.GateSpec) (gate.Gate, error) {
	severity, err := gate.ParseSeverity(spec.Severity)
	if err != nil {
		return nil, fmt.Errorf("gate %s: %w", spec.ID, err)
	}

	rules := make([]gate.PatternRule, 0, len(spec.Rules))
	for i, r := range spec.Rules {
		kind, err := parseRuleKind(r.Kind)
		if err != nil {
			return nil, fmt.Errorf("gate %s rule %d: %w", spec.ID, i, err)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("gate %s rule %d: invalid pattern: %w", spec.ID, i, err)
		}
		ruleSeverity := severity
		if r.Severity != "" {
			ruleSeverity, err = gate.ParseSeverity(r.Severity)
			if err != nil {
				return nil, fmt.Errorf("gate %s rule %d: %w", spec.ID, i, err)
			}
		}
		rules = append(rules, gate.PatternRule{
			Kind:     kind,
			Category: r.Category,
			Pattern:  re,
			Reason:   r.Reason,
			Severity: ruleSeverity,
		})
	}

	return gate.NewPatternGate(gate.PatternGateSpec{
		ID:        spec.ID,
		Module:    spec.Module,
		Severity:  severity,
		Rules:     rules,
		DocTypes:  spec.DocTypes,
		Relevance: spec.Relevance,
	})
}

func parseRuleKind(s string) (gate.RuleKind, error) {
	switch gate.RuleKind(s) {
	case gate.RuleForbid, gate.RuleRequire:
		return gate.RuleKind(s), nil
	}
	return "", fmt.Errorf("unknown rule kind %q", s)
}
