package gate

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternGate_Evaluate_ForbidRule(t *testing.T) {
	g, err := NewPatternGate(PatternGateSpec{
		ID:       "financial-promotions/guaranteed-returns",
		Module:   ModuleFinancialPromotions,
		Severity: SeverityCritical,
		Rules: []PatternRule{
			{
				Kind:     RuleForbid,
				Category: "guaranteed-returns",
				Pattern:  regexp.MustCompile(`(?i)guaranteed\s+\d+%\s+returns`),
				Reason:   "no guaranteed returns",
			},
		},
	})
	require.NoError(t, err)

	doc := NewDocument("Guaranteed 15% returns! Invest now.", "financial-promotion", nil)
	violations, err := g.Evaluate(context.Background(), doc, nil)

	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "guaranteed-returns", violations[0].Category)
	assert.Equal(t, Span{Start: 0, End: 22}, violations[0].Span)
	assert.Equal(t, "Guaranteed 15% returns", doc.Text[violations[0].Span.Start:violations[0].Span.End])
	assert.Equal(t, SeverityCritical, violations[0].Severity)
}

func TestPatternGate_Evaluate_RequireRule_Missing(t *testing.T) {
	g, err := NewPatternGate(PatternGateSpec{
		ID:       "financial-promotions/risk-warning-present",
		Module:   ModuleFinancialPromotions,
		Severity: SeverityHigh,
		Rules: []PatternRule{
			{
				Kind:     RuleRequire,
				Category: "missing-risk-warning",
				Pattern:  regexp.MustCompile(`(?i)capital is at risk`),
				Reason:   "no risk warning",
			},
		},
	})
	require.NoError(t, err)

	doc := NewDocument("Invest today.", "financial-promotion", nil)
	violations, err := g.Evaluate(context.Background(), doc, nil)

	require.NoError(t, err)
	require.Len(t, violations, 1)
	// Zero-width span at the end of the document marks the insertion point.
	assert.Equal(t, Span{Start: len(doc.Text), End: len(doc.Text)}, violations[0].Span)
}

func TestPatternGate_Evaluate_RequireRule_Present(t *testing.T) {
	g, err := NewPatternGate(PatternGateSpec{
		ID:       "financial-promotions/risk-warning-present",
		Module:   ModuleFinancialPromotions,
		Severity: SeverityHigh,
		Rules: []PatternRule{
			{
				Kind:     RuleRequire,
				Category: "missing-risk-warning",
				Pattern:  regexp.MustCompile(`(?i)capital is at risk`),
				Reason:   "no risk warning",
			},
		},
	})
	require.NoError(t, err)

	doc := NewDocument("Invest today. Your capital is at risk.", "financial-promotion", nil)
	violations, err := g.Evaluate(context.Background(), doc, nil)

	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestPatternGate_Relevant_DocTypes(t *testing.T) {
	g, err := NewPatternGate(PatternGateSpec{
		ID:       "financial-promotions/test",
		Module:   ModuleFinancialPromotions,
		DocTypes: []string{"financial-promotion"},
		Rules: []PatternRule{
			{Kind: RuleForbid, Category: "x", Pattern: regexp.MustCompile(`x`)},
		},
	})
	require.NoError(t, err)

	assert.True(t, g.Relevant(NewDocument("", "financial-promotion", nil), nil))
	assert.False(t, g.Relevant(NewDocument("", "privacy-notice", nil), nil))

	// Detected classification counts even when the declared type does not.
	ec := &EvalContext{Classification: "financial-promotion"}
	assert.True(t, g.Relevant(NewDocument("", "unknown", nil), ec))
}

func TestPatternGate_Relevant_CELExpression(t *testing.T) {
	g, err := NewPatternGate(PatternGateSpec{
		ID:        "financial-promotions/cel",
		Module:    ModuleFinancialPromotions,
		Relevance: `doc_type == "financial-promotion" && context["jurisdiction"] == "UK"`,
		Rules: []PatternRule{
			{Kind: RuleForbid, Category: "x", Pattern: regexp.MustCompile(`x`)},
		},
	})
	require.NoError(t, err)

	uk := NewDocument("", "financial-promotion", map[string]string{"jurisdiction": "UK"})
	us := NewDocument("", "financial-promotion", map[string]string{"jurisdiction": "US"})
	assert.True(t, g.Relevant(uk, nil))
	assert.False(t, g.Relevant(us, nil))
}

func TestNewRelevance_RejectsNonBoolean(t *testing.T) {
	_, err := NewRelevance(`doc_type`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be boolean")
}

func TestNewRelevance_RejectsBadSyntax(t *testing.T) {
	_, err := NewRelevance(`doc_type ==`)
	require.Error(t, err)
}

func TestDefaultGates_AllRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterAll(DefaultGates()))
	assert.Equal(t, 6, r.Len())
}
