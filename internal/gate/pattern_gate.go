package gate

import (
	"context"
	"fmt"
	"regexp"
)

// RuleKind selects how a pattern rule interprets matches.
type RuleKind string

const (
	// RuleForbid reports a violation for every match of the pattern.
	RuleForbid RuleKind = "forbid"

	// RuleRequire reports a single violation at the end of the document
	// when the pattern does not match at all (something mandatory is
	// missing, e.g. a risk warning).
	RuleRequire RuleKind = "require"
)

// PatternRule is one detection rule inside a PatternGate.
type PatternRule struct {
	// Kind is forbid or require.
	Kind RuleKind

	// Category links findings to correction patterns of the same category.
	Category string

	// Pattern is the regex applied to the document text.
	Pattern *regexp.Regexp

	// Reason explains the finding to a human reviewer.
	Reason string

	// Severity of findings from this rule; defaults to the gate severity.
	Severity Severity
}

// PatternGate is a gate whose check is a set of regex rules over the
// document text. Both the built-in gate set and gates defined in the
// catalogue configuration are PatternGates; only their rules and relevance
// predicates differ.
type PatternGate struct {
	id       string
	module   string
	severity Severity
	rules    []PatternRule

	// Exactly one of these decides relevance; both nil means always
	// relevant.
	types     *TypeRelevance
	relevance *Relevance
}

// PatternGateSpec describes a PatternGate to construct.
type PatternGateSpec struct {
	ID       string
	Module   string
	Severity Severity
	Rules    []PatternRule

	// DocTypes lists document types this gate applies to (fast path).
	DocTypes []string

	// Relevance is an optional CEL expression; when set it takes
	// precedence over DocTypes.
	Relevance string
}

// NewPatternGate builds a gate from a spec, compiling its relevance
// expression if present.
func NewPatternGate(spec PatternGateSpec) (*PatternGate, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("pattern gate: id is required")
	}
	if len(spec.Rules) == 0 {
		return nil, fmt.Errorf("pattern gate %s: at least one rule is required", spec.ID)
	}
	for i, r := range spec.Rules {
		if r.Pattern == nil {
			return nil, fmt.Errorf("pattern gate %s: rule %d has no pattern", spec.ID, i)
		}
		if r.Category == "" {
			return nil, fmt.Errorf("pattern gate %s: rule %d has no category", spec.ID, i)
		}
	}

	g := &PatternGate{
		id:       spec.ID,
		module:   spec.Module,
		severity: spec.Severity,
		rules:    spec.Rules,
	}
	if g.severity == "" {
		g.severity = SeverityMedium
	}

	if spec.Relevance != "" {
		rel, err := NewRelevance(spec.Relevance)
		if err != nil {
			return nil, fmt.Errorf("pattern gate %s: %w", spec.ID, err)
		}
		g.relevance = rel
	} else if len(spec.DocTypes) > 0 {
		g.types = &TypeRelevance{Types: spec.DocTypes}
	}

	return g, nil
}

// ID returns the module-qualified gate identifier.
func (g *PatternGate) ID() string { return g.id }

// Module returns the owning module name.
func (g *PatternGate) Module() string { return g.module }

// Severity returns the gate severity.
func (g *PatternGate) Severity() Severity { return g.severity }

// Relevant applies the gate's relevance predicate.
func (g *PatternGate) Relevant(doc *Document, ec *EvalContext) bool {
	switch {
	case g.relevance != nil:
		return g.relevance.Eval(doc, ec)
	case g.types != nil:
		return g.types.Matches(doc, ec)
	default:
		return true
	}
}

// Evaluate runs every rule against the document text. The document is
// never mutated; findings carry spans into the original text.
func (g *PatternGate) Evaluate(ctx context.Context, doc *Document, ec *EvalContext) ([]Violation, error) {
	violations := []Violation{}

	for _, rule := range g.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		severity := rule.Severity
		if severity == "" {
			severity = g.severity
		}

		switch rule.Kind {
		case RuleRequire:
			if !rule.Pattern.MatchString(doc.Text) {
				violations = append(violations, Violation{
					GateID:   g.id,
					Category: rule.Category,
					Span:     Span{Start: len(doc.Text), End: len(doc.Text)},
					Reason:   rule.Reason,
					Severity: severity,
				})
			}
		default: // RuleForbid
			for _, m := range rule.Pattern.FindAllStringIndex(doc.Text, -1) {
				violations = append(violations, Violation{
					GateID:   g.id,
					Category: rule.Category,
					Span:     Span{Start: m[0], End: m[1]},
					Reason:   rule.Reason,
					Severity: severity,
				})
			}
		}
	}

	return violations, nil
}

var _ Gate = (*PatternGate)(nil)
