package synthesis

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/complyd/internal/catalogue"
	"github.com/fyrsmithlabs/complyd/internal/gate"
	"github.com/fyrsmithlabs/complyd/internal/orchestrator"
)

// fixture builds a catalogue, registry, and orchestrator wired for the
// financial-promotions module.
func fixtureCatalogue(t *testing.T, specs ...catalogue.PatternSpec) *catalogue.Catalogue {
	t.Helper()
	c, err := catalogue.New("2026-01", specs, nil)
	require.NoError(t, err)
	return c
}

func validate(t *testing.T, doc *gate.Document) *orchestrator.ValidationResult {
	t.Helper()
	reg := gate.NewRegistry()
	require.NoError(t, reg.RegisterAll(gate.DefaultGates()))
	o, err := orchestrator.New(reg, orchestrator.Config{}, nil)
	require.NoError(t, err)
	vr, err := o.Evaluate(context.Background(), doc, []string{gate.ModuleFinancialPromotions}, nil)
	require.NoError(t, err)
	return vr
}

func guaranteedReturnsSpec() catalogue.PatternSpec {
	return catalogue.PatternSpec{
		ID:          "fin-guaranteed-returns",
		Category:    "guaranteed-returns",
		Strategy:    "regex_replace",
		Match:       `(?i)Guaranteed (\d+(?:\.\d+)?)% returns`,
		Replacement: "Targeted $1% returns",
		Priority:    10,
		Citation:    "FP-4.2.1",
		Module:      "financial-promotions",
	}
}

func riskWarningSpec() catalogue.PatternSpec {
	return catalogue.PatternSpec{
		ID:       "fin-risk-warning",
		Category: "missing-risk-warning",
		Strategy: "template_insert",
		Template: "Capital is at risk. The value of investments can go down as well as up.",
		Anchor:   "end",
		Priority: 10,
		Citation: "FP-4.5.2",
		Module:   "financial-promotions",
	}
}

func TestSynthesize_EndToEndScenario(t *testing.T) {
	text := "Guaranteed 15% returns! Invest now."
	doc := gate.NewDocument(text, "financial-promotion", nil)
	cat := fixtureCatalogue(t, guaranteedReturnsSpec(), riskWarningSpec())

	s := New(nil)
	result, err := s.Synthesize(context.Background(), doc, validate(t, doc), cat)
	require.NoError(t, err)

	assert.Contains(t, result.Corrected, "Targeted 15% returns")
	assert.True(t, strings.HasSuffix(result.Corrected,
		"Capital is at risk. The value of investments can go down as well as up."))

	require.Len(t, result.Corrections, 2)
	assert.Equal(t, "fin-guaranteed-returns", result.Corrections[0].PatternID)
	assert.Equal(t, catalogue.TierRegexReplace, result.Corrections[0].Tier)
	assert.Equal(t, "Guaranteed 15% returns", result.Corrections[0].Before)
	assert.Equal(t, "Targeted 15% returns", result.Corrections[0].After)
	assert.Equal(t, "fin-risk-warning", result.Corrections[1].PatternID)
	assert.Equal(t, catalogue.TierTemplateInsert, result.Corrections[1].Tier)

	assert.Equal(t, text, result.Original, "the input document is never mutated")
	assert.NotEmpty(t, result.Fingerprint)
	assert.NotEmpty(t, result.Diff)
	assert.Equal(t, "2026-01", result.CatalogueVersion)
}

func TestSynthesize_Idempotence(t *testing.T) {
	doc := gate.NewDocument("Guaranteed 15% returns for all investors.", "financial-promotion", nil)
	cat := fixtureCatalogue(t, guaranteedReturnsSpec(), riskWarningSpec())
	s := New(nil)

	first, err := s.Synthesize(context.Background(), doc, validate(t, doc), cat)
	require.NoError(t, err)
	require.NotEmpty(t, first.Corrections)

	second := gate.NewDocument(first.Corrected, "financial-promotion", nil)
	again, err := s.Synthesize(context.Background(), second, validate(t, second), cat)
	require.NoError(t, err)

	assert.Empty(t, again.Corrections, "a corrected document is stable under re-synthesis")
	assert.Equal(t, first.Corrected, again.Corrected)
}

func TestSynthesize_Determinism(t *testing.T) {
	doc := gate.NewDocument("Guaranteed 15% returns! This is risk-free. Invest now.", "financial-promotion", nil)
	cat := fixtureCatalogue(t, guaranteedReturnsSpec(), riskWarningSpec(), catalogue.PatternSpec{
		ID:          "fin-risk-free",
		Category:    "risk-free-claim",
		Strategy:    "regex_replace",
		Match:       `(?i)This is risk-free\.`,
		Replacement: "All investments carry risk.",
		Priority:    10,
		Module:      "financial-promotions",
	})
	s := New(nil)

	first, err := s.Synthesize(context.Background(), doc, validate(t, doc), cat)
	require.NoError(t, err)
	second, err := s.Synthesize(context.Background(), doc, validate(t, doc), cat)
	require.NoError(t, err)

	assert.Equal(t, first.Corrected, second.Corrected)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Corrections, second.Corrections)
}

func TestSynthesize_NoOverlapInvariant(t *testing.T) {
	doc := gate.NewDocument("Guaranteed 15% returns are guaranteed here. Guaranteed 9% returns too.", "financial-promotion", nil)
	cat := fixtureCatalogue(t, guaranteedReturnsSpec(), riskWarningSpec())
	s := New(nil)

	result, err := s.Synthesize(context.Background(), doc, validate(t, doc), cat)
	require.NoError(t, err)

	for i := 0; i < len(result.Corrections); i++ {
		for j := i + 1; j < len(result.Corrections); j++ {
			assert.False(t, result.Corrections[i].Span.Overlaps(result.Corrections[j].Span),
				"corrections %d and %d overlap", i, j)
		}
	}
}

func TestSynthesize_NegationSuppression(t *testing.T) {
	doc := gate.NewDocument("This is not a risk-free investment.", "financial-promotion", nil)
	cat := fixtureCatalogue(t, riskWarningSpec(), catalogue.PatternSpec{
		ID:          "fin-risk-free",
		Category:    "risk-free-claim",
		Strategy:    "regex_replace",
		Match:       `(?i)risk-free`,
		Replacement: "higher-risk",
		Priority:    10,
		Module:      "financial-promotions",
	})
	s := New(nil)

	result, err := s.Synthesize(context.Background(), doc, validate(t, doc), cat)
	require.NoError(t, err)

	// The negated claim must not be rewritten, and the suppression is on
	// the audit record.
	assert.NotContains(t, result.Corrected, "higher-risk")
	require.NotEmpty(t, result.Suppressed)
	assert.Equal(t, "fin-risk-free", result.Suppressed[0].PatternID)
	assert.Equal(t, "negated", result.Suppressed[0].Reason)
	assert.Equal(t, "risk-free", result.Suppressed[0].Text)
	for _, c := range result.Corrections {
		assert.NotEqual(t, "fin-risk-free", c.PatternID)
	}
}

func TestSynthesize_TierPrecedence(t *testing.T) {
	doc := gate.NewDocument("Guaranteed 15% returns for everyone.", "financial-promotion", nil)
	cat := fixtureCatalogue(t, riskWarningSpec(),
		guaranteedReturnsSpec(),
		catalogue.PatternSpec{
			ID:          "fin-guaranteed-reform",
			Category:    "guaranteed-returns",
			Strategy:    "structural_reform",
			Match:       `(?i)Guaranteed \d+% returns for everyone\.`,
			Replacement: "Returns depend on market performance and are not guaranteed.",
			Priority:    99,
			Module:      "financial-promotions",
		})
	s := New(nil)

	result, err := s.Synthesize(context.Background(), doc, validate(t, doc), cat)
	require.NoError(t, err)

	var ids []string
	for _, c := range result.Corrections {
		ids = append(ids, c.PatternID)
	}
	assert.Contains(t, ids, "fin-guaranteed-reform", "structural reform beats regex replace on the same span")
	assert.NotContains(t, ids, "fin-guaranteed-returns")
	assert.Contains(t, result.Corrected, "not guaranteed")
}

func TestSynthesize_IndependentInsertsShareAnchor(t *testing.T) {
	// Two distinct mandatory statements are both missing; their inserts
	// land at the same end anchor and must both apply, in pattern id
	// order, with both on the lineage.
	g, err := gate.NewPatternGate(gate.PatternGateSpec{
		ID:       "financial-promotions/mandatory-statements",
		Module:   "financial-promotions",
		Severity: gate.SeverityHigh,
		DocTypes: []string{"financial-promotion"},
		Rules: []gate.PatternRule{
			{
				Kind:     gate.RuleRequire,
				Category: "missing-risk-warning",
				Pattern:  regexp.MustCompile(`(?i)at\s+risk`),
				Reason:   "promotions must carry a risk warning",
			},
			{
				Kind:     gate.RuleRequire,
				Category: "missing-fees-note",
				Pattern:  regexp.MustCompile(`(?i)fees\s+apply`),
				Reason:   "promotions must disclose fees",
			},
		},
	})
	require.NoError(t, err)
	reg := gate.NewRegistry()
	require.NoError(t, reg.Register(g))
	o, err := orchestrator.New(reg, orchestrator.Config{}, nil)
	require.NoError(t, err)

	cat := fixtureCatalogue(t, riskWarningSpec(), catalogue.PatternSpec{
		ID:       "fin-fees-note",
		Category: "missing-fees-note",
		Strategy: "template_insert",
		Template: "Fees apply; see the fee schedule.",
		Anchor:   "end",
		Priority: 10,
		Module:   "financial-promotions",
	})
	s := New(nil)

	doc := gate.NewDocument("A steady growth fund.", "financial-promotion", nil)
	vr, err := o.Evaluate(context.Background(), doc, []string{"financial-promotions"}, nil)
	require.NoError(t, err)

	result, err := s.Synthesize(context.Background(), doc, vr, cat)
	require.NoError(t, err)

	require.Len(t, result.Corrections, 2)
	assert.Equal(t, "fin-fees-note", result.Corrections[0].PatternID)
	assert.Equal(t, "fin-risk-warning", result.Corrections[1].PatternID)
	assert.Contains(t, result.Corrected, "Fees apply; see the fee schedule.")
	assert.Contains(t, result.Corrected, "Capital is at risk.")
	assert.Empty(t, result.Unmatched, "every violation is accounted for on the lineage")

	// A fully corrected document is stable under re-synthesis.
	second := gate.NewDocument(result.Corrected, "financial-promotion", nil)
	vr2, err := o.Evaluate(context.Background(), second, []string{"financial-promotions"}, nil)
	require.NoError(t, err)
	again, err := s.Synthesize(context.Background(), second, vr2, cat)
	require.NoError(t, err)
	assert.Empty(t, again.Corrections)
}

func TestSynthesize_SuggestionsNeverAlterText(t *testing.T) {
	doc := gate.NewDocument("A great fund. Invest now.", "financial-promotion", nil)
	cat := fixtureCatalogue(t, riskWarningSpec(), catalogue.PatternSpec{
		ID:       "fin-tone",
		Category: "pressure-language",
		Strategy: "suggestion",
		Match:    `(?i)Invest now`,
		Note:     "consider removing time-pressure phrasing",
		Priority: 50,
		Module:   "financial-promotions",
	})
	s := New(nil)

	result, err := s.Synthesize(context.Background(), doc, validate(t, doc), cat)
	require.NoError(t, err)

	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "fin-tone", result.Suggestions[0].PatternID)
	assert.Equal(t, "Invest now", result.Suggestions[0].Text)
	assert.Contains(t, result.Corrected, "Invest now.", "suggestions never alter text")
	assert.Equal(t, StatusNeedsReview, result.Status)
}

func TestSynthesize_FailedCorrectionIsIsolated(t *testing.T) {
	doc := gate.NewDocument("Guaranteed 15% returns! This is risk-free.", "financial-promotion", nil)
	cat := fixtureCatalogue(t, riskWarningSpec(), guaranteedReturnsSpec(), catalogue.PatternSpec{
		ID:          "fin-bad-replacement",
		Category:    "risk-free-claim",
		Strategy:    "regex_replace",
		Match:       `(?i)risk-free`,
		Replacement: "see group $3", // pattern has no capture groups
		Priority:    10,
		Module:      "financial-promotions",
	})
	s := New(nil)

	result, err := s.Synthesize(context.Background(), doc, validate(t, doc), cat)
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, "fin-bad-replacement", result.Failed[0].PatternID)
	assert.Contains(t, result.Failed[0].Reason, "capture group")

	// The other corrections still applied.
	assert.Contains(t, result.Corrected, "Targeted 15% returns")
	assert.Equal(t, StatusNeedsReview, result.Status)
}

func TestSynthesize_CleanDocument(t *testing.T) {
	doc := gate.NewDocument("Our fund targets steady growth. Capital is at risk.", "financial-promotion", nil)
	cat := fixtureCatalogue(t, guaranteedReturnsSpec(), riskWarningSpec())
	s := New(nil)

	result, err := s.Synthesize(context.Background(), doc, validate(t, doc), cat)
	require.NoError(t, err)

	assert.Equal(t, StatusClean, result.Status)
	assert.Equal(t, doc.Text, result.Corrected)
	assert.Empty(t, result.Corrections)
	assert.NotEmpty(t, result.Fingerprint, "a clean run still has a reproducible fingerprint")
	assert.Empty(t, result.Diff)
}

func TestSynthesize_ViolationWithoutPatternGoesToReview(t *testing.T) {
	// pressure-language has no correction pattern in this catalogue.
	doc := gate.NewDocument("Invest now. Capital is at risk.", "financial-promotion", nil)
	cat := fixtureCatalogue(t, guaranteedReturnsSpec(), riskWarningSpec())
	s := New(nil)

	result, err := s.Synthesize(context.Background(), doc, validate(t, doc), cat)
	require.NoError(t, err)

	assert.Equal(t, StatusNeedsReview, result.Status)
	require.NotEmpty(t, result.Unmatched)
	assert.Equal(t, "pressure-language", result.Unmatched[0].Category)
}

func TestSplice_MultiEditOffsets(t *testing.T) {
	original := "aaa bbb ccc"
	edits := []edit{
		{span: gate.Span{Start: 8, End: 11}, after: "CCCC", patternID: "p2"},
		{span: gate.Span{Start: 0, End: 3}, after: "A", patternID: "p1"},
	}

	out, err := splice(original, edits)
	require.NoError(t, err)
	assert.Equal(t, "A bbb CCCC", out, "edits apply against original offsets, not drifted ones")
}

func TestSplice_RejectsOverlap(t *testing.T) {
	_, err := splice("abcdef", []edit{
		{span: gate.Span{Start: 0, End: 4}, after: "x", patternID: "p1"},
		{span: gate.Span{Start: 2, End: 6}, after: "y", patternID: "p2"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlapping")
}
