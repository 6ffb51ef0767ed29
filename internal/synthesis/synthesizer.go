package synthesis

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/complyd/internal/catalogue"
	"github.com/fyrsmithlabs/complyd/internal/fingerprint"
	"github.com/fyrsmithlabs/complyd/internal/gate"
	"github.com/fyrsmithlabs/complyd/internal/metrics"
	"github.com/fyrsmithlabs/complyd/internal/orchestrator"
	"github.com/fyrsmithlabs/complyd/internal/textctx"
)

// Synthesizer selects and applies correction patterns for the violations
// of one validation result. Synthesis is single-threaded per request;
// correctness here is offset bookkeeping, not throughput.
type Synthesizer struct {
	analyzer *textctx.Analyzer
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New creates a synthesizer.
func New(logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		analyzer: textctx.New(),
		logger:   logger,
	}
}

// SetMetrics sets the metrics tracker; optional.
func (s *Synthesizer) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// candidate is one potential correction before conflict resolution.
type candidate struct {
	pattern  *catalogue.CorrectionPattern
	span     gate.Span
	before   string
	gateID   string
	severity gate.Severity
	// match holds the FindStringSubmatchIndex result for capture group
	// expansion; nil for template inserts.
	match []int
	// insertAfter is the precomputed insertion text for template inserts.
	insertAfter string
}

// Synthesize produces the corrected text and full lineage for a document
// and its validation result, against one immutable catalogue snapshot.
func (s *Synthesizer) Synthesize(ctx context.Context, doc *gate.Document, vr *orchestrator.ValidationResult, cat *catalogue.Catalogue) (*Result, error) {
	if doc == nil || vr == nil || cat == nil {
		return nil, fmt.Errorf("synthesis: document, validation result, and catalogue are required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Original:         doc.Text,
		Corrected:        doc.Text,
		Corrections:      []Correction{},
		CatalogueVersion: cat.Version(),
	}

	violations := vr.Violations()
	if len(violations) == 0 {
		result.Status = StatusClean
		return s.finalize(result)
	}

	// Step 1: collect candidates per violation from same-category patterns.
	candidates, covered := s.collect(doc, violations, cat)

	// Step 2: context analysis drops suppressed candidates; they stay in
	// the audit record with their reason.
	survivors := candidates[:0]
	suppressedSeen := make(map[string]bool)
	for _, c := range candidates {
		if c.span.Width() == 0 {
			survivors = append(survivors, c) // insertions have no context to negate
			continue
		}
		analysis := s.analyzer.Analyze(doc.Text, c.span.Start, c.span.End)
		if !analysis.Suppressed() {
			survivors = append(survivors, c)
			continue
		}
		key := c.pattern.ID + "@" + strconv.Itoa(c.span.Start)
		if !suppressedSeen[key] {
			suppressedSeen[key] = true
			result.Suppressed = append(result.Suppressed, SuppressedMatch{
				PatternID: c.pattern.ID,
				Span:      c.span,
				Text:      c.before,
				Reason:    analysis.Reason(),
			})
			if s.metrics != nil {
				s.metrics.SuppressedMatchesTotal.WithLabelValues(analysis.Reason()).Inc()
			}
		}
	}

	// Step 3: conflict resolution between overlapping candidates.
	winners := resolveConflicts(survivors)

	// Step 4/5: apply winners; suggestion-tier winners are surfaced, not
	// applied, and a pattern that fails to expand never blocks the rest.
	var edits []edit
	for _, c := range winners {
		p := c.pattern

		if p.Tier == catalogue.TierSuggestion {
			result.Suggestions = append(result.Suggestions, Suggestion{
				PatternID: p.ID,
				Span:      c.span,
				Text:      c.before,
				Note:      p.Note,
				Citation:  p.Citation,
			})
			if s.metrics != nil {
				s.metrics.SuggestionsSurfacedTotal.Inc()
			}
			continue
		}

		after, err := expandCorrection(doc.Text, c)
		if err != nil {
			s.logger.Warn("correction failed",
				zap.String("pattern", p.ID),
				zap.Error(err))
			result.Failed = append(result.Failed, FailedCorrection{
				PatternID: p.ID,
				Span:      c.span,
				Reason:    err.Error(),
			})
			if s.metrics != nil {
				s.metrics.FailedCorrectionsTotal.Inc()
			}
			continue
		}

		edits = append(edits, edit{span: c.span, after: after, patternID: p.ID})
		result.Corrections = append(result.Corrections, Correction{
			PatternID:  p.ID,
			Tier:       p.Tier,
			Span:       c.span,
			Before:     c.before,
			After:      after,
			GateID:     c.gateID,
			Severity:   c.severity,
			Citation:   p.Citation,
			Confidence: tierConfidence[p.Tier],
		})
		if s.metrics != nil {
			s.metrics.CorrectionsAppliedTotal.WithLabelValues(p.Tier.String()).Inc()
		}
	}

	corrected, err := splice(doc.Text, edits)
	if err != nil {
		// Conflict resolution guarantees non-overlap; reaching this is a
		// bug, not a data condition.
		return nil, fmt.Errorf("synthesis: %w", err)
	}
	result.Corrected = corrected

	// The lineage order is the application order.
	sort.Slice(result.Corrections, func(i, j int) bool {
		a, b := result.Corrections[i], result.Corrections[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		if a.Span.End != b.Span.End {
			return a.Span.End < b.Span.End
		}
		return a.PatternID < b.PatternID
	})

	// Violations nothing could address go to manual review.
	for i, v := range violations {
		if !covered[i] {
			result.Unmatched = append(result.Unmatched, v)
		}
	}

	switch {
	case len(result.Failed) > 0 || len(result.Suggestions) > 0 || len(result.Unmatched) > 0:
		result.Status = StatusNeedsReview
	default:
		result.Status = StatusCorrected
	}

	return s.finalize(result)
}

// collect gathers candidate corrections for every violation. covered[i]
// reports whether violation i found at least one same-category pattern
// (including patterns whose template text is already present).
func (s *Synthesizer) collect(doc *gate.Document, violations []gate.Violation, cat *catalogue.Catalogue) ([]candidate, []bool) {
	var out []candidate
	covered := make([]bool, len(violations))
	seen := make(map[string]bool)

	for vi, v := range violations {
		for _, p := range cat.ByCategory(v.Category) {
			switch p.Tier {
			case catalogue.TierTemplateInsert:
				if strings.Contains(doc.Text, strings.TrimSpace(p.Template)) {
					// Already compliant; inserting again would break
					// idempotence.
					covered[vi] = true
					continue
				}
				span, after := insertionFor(p, doc.Text)
				key := p.ID + "@" + strconv.Itoa(span.Start) + ":" + strconv.Itoa(span.End)
				if seen[key] {
					covered[vi] = true
					continue
				}
				seen[key] = true
				covered[vi] = true
				out = append(out, candidate{
					pattern:     p,
					span:        span,
					gateID:      v.GateID,
					severity:    v.Severity,
					insertAfter: after,
				})

			default:
				if v.Span.Width() == 0 {
					// An absence violation has no text for a match-based
					// pattern to rewrite.
					continue
				}
				for _, m := range p.Match.FindAllStringSubmatchIndex(doc.Text, -1) {
					span := gate.Span{Start: m[0], End: m[1]}
					if !span.Overlaps(v.Span) {
						continue
					}
					key := p.ID + "@" + strconv.Itoa(span.Start) + ":" + strconv.Itoa(span.End)
					if seen[key] {
						covered[vi] = true
						continue
					}
					seen[key] = true
					covered[vi] = true
					out = append(out, candidate{
						pattern:  p,
						span:     span,
						before:   doc.Text[span.Start:span.End],
						gateID:   v.GateID,
						severity: v.Severity,
						match:    m,
					})
				}
			}
		}
	}
	return out, covered
}

// finalize computes the fingerprint and diff.
func (s *Synthesizer) finalize(result *Result) (*Result, error) {
	records := make([]fingerprint.Record, len(result.Corrections))
	for i, c := range result.Corrections {
		records[i] = fingerprint.Record{
			PatternID: c.PatternID,
			Tier:      int(c.Tier),
			Start:     c.Span.Start,
			End:       c.Span.End,
			Before:    c.Before,
			After:     c.After,
		}
	}
	fp, err := fingerprint.Compute(records, result.CatalogueVersion)
	if err != nil {
		return nil, err
	}
	result.Fingerprint = fp
	result.Diff = renderDiff(result.Original, result.Corrected)
	return result, nil
}

// conflicts reports whether two candidates compete for the same text.
// Zero-width insertions occupy no bytes, so two at the same anchor compete
// only when they correct the same category; independent mandatory
// statements each get their own insert, ordered by pattern id in splice.
func conflicts(a, b candidate) bool {
	if a.span == b.span && a.span.Width() == 0 {
		return a.pattern.Category == b.pattern.Category
	}
	return a.span.Overlaps(b.span)
}

// resolveConflicts groups transitively overlapping candidates and keeps
// exactly one winner per group, ordered by: higher strategy tier, higher
// originating-violation severity, lower pattern priority value, lexical
// pattern id.
func resolveConflicts(candidates []candidate) []candidate {
	var groups [][]candidate
	for _, c := range candidates {
		merged := -1
		for gi := range groups {
			inConflict := false
			for _, member := range groups[gi] {
				if conflicts(c, member) {
					inConflict = true
					break
				}
			}
			if !inConflict {
				continue
			}
			if merged == -1 {
				groups[gi] = append(groups[gi], c)
				merged = gi
			} else {
				// c bridges two groups; fold them together.
				groups[merged] = append(groups[merged], groups[gi]...)
				groups[gi] = nil
			}
		}
		if merged == -1 {
			groups = append(groups, []candidate{c})
		}
	}

	var winners []candidate
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if a.pattern.Tier != b.pattern.Tier {
				return a.pattern.Tier > b.pattern.Tier
			}
			if a.severity.Rank() != b.severity.Rank() {
				return a.severity.Rank() > b.severity.Rank()
			}
			if a.pattern.Priority != b.pattern.Priority {
				return a.pattern.Priority < b.pattern.Priority
			}
			return a.pattern.ID < b.pattern.ID
		})
		winners = append(winners, group[0])
	}
	return winners
}

// insertionFor computes the zero-width span and insertion text for a
// template-insert pattern.
func insertionFor(p *catalogue.CorrectionPattern, text string) (gate.Span, string) {
	if p.Anchor == catalogue.AnchorStart {
		after := p.Template
		if text != "" {
			after += "\n\n"
		}
		return gate.Span{Start: 0, End: 0}, after
	}
	after := p.Template
	if text != "" {
		after = "\n\n" + after
	}
	return gate.Span{Start: len(text), End: len(text)}, after
}

// groupRef finds $N capture references in a replacement template.
var groupRef = regexp.MustCompile(`\$(\d+)|\$\{(\d+)\}`)

// expandCorrection produces the after-text for one winning candidate.
// A malformed replacement is an application error isolated to this one
// correction.
func expandCorrection(text string, c candidate) (string, error) {
	p := c.pattern
	if p.Tier == catalogue.TierTemplateInsert {
		return c.insertAfter, nil
	}

	for _, ref := range groupRef.FindAllStringSubmatch(p.Replacement, -1) {
		digits := ref[1]
		if digits == "" {
			digits = ref[2]
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		if n > p.Match.NumSubexp() {
			return "", fmt.Errorf("replacement references capture group %d but pattern has %d", n, p.Match.NumSubexp())
		}
	}

	after := string(p.Match.ExpandString(nil, p.Replacement, text, c.match))
	if after == c.before {
		return "", fmt.Errorf("replacement leaves text unchanged")
	}
	return after, nil
}
