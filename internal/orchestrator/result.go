package orchestrator

import (
	"sort"

	"github.com/fyrsmithlabs/complyd/internal/gate"
)

// Summary counts gate results by status and severity.
type Summary struct {
	Total         int                   `json:"total"`
	Passed        int                   `json:"passed"`
	Failed        int                   `json:"failed"`
	Warnings      int                   `json:"warnings"`
	NotApplicable int                   `json:"not_applicable"`
	Errors        int                   `json:"errors"`
	BySeverity    map[gate.Severity]int `json:"by_severity"`
}

// ValidationResult aggregates every gate result for one request. Every
// requested, relevant gate has exactly one entry; a partially failed run is
// distinguishable from a clean pass by non-empty ERROR entries, never by an
// absent one.
type ValidationResult struct {
	// Results maps gate id to the gate's result.
	Results map[string]*gate.Result `json:"results"`

	// Summary counts results by status and violation severity.
	Summary Summary `json:"summary"`

	// Degraded is true when the semantic collaborator's annotation was
	// unavailable and gates ran in pattern-only mode.
	Degraded bool `json:"degraded,omitempty"`
}

// newValidationResult builds the aggregate from collected gate results.
func newValidationResult(results map[string]*gate.Result, degraded bool) *ValidationResult {
	vr := &ValidationResult{
		Results:  results,
		Degraded: degraded,
		Summary:  Summary{BySeverity: make(map[gate.Severity]int)},
	}
	for _, r := range results {
		vr.Summary.Total++
		switch r.Status {
		case gate.StatusPass:
			vr.Summary.Passed++
		case gate.StatusFail:
			vr.Summary.Failed++
		case gate.StatusWarning:
			vr.Summary.Warnings++
		case gate.StatusNotApplicable:
			vr.Summary.NotApplicable++
		case gate.StatusError:
			vr.Summary.Errors++
		}
		for _, v := range r.Violations {
			vr.Summary.BySeverity[v.Severity]++
		}
	}
	return vr
}

// Violations returns every violation across all gates in a fixed order:
// by gate id, then by span start. Downstream synthesis depends on this
// order being stable across runs.
func (vr *ValidationResult) Violations() []gate.Violation {
	ids := make([]string, 0, len(vr.Results))
	for id := range vr.Results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []gate.Violation
	for _, id := range ids {
		violations := append([]gate.Violation(nil), vr.Results[id].Violations...)
		sort.Slice(violations, func(i, j int) bool {
			if violations[i].Span.Start != violations[j].Span.Start {
				return violations[i].Span.Start < violations[j].Span.Start
			}
			return violations[i].Category < violations[j].Category
		})
		out = append(out, violations...)
	}
	return out
}

// Filter returns a copy containing only gate results whose severity meets
// the threshold, plus every non-PASS status regardless of severity. It
// changes what is surfaced to the caller, never which gates executed.
func (vr *ValidationResult) Filter(threshold gate.Severity) *ValidationResult {
	if threshold == "" {
		return vr
	}
	min := threshold.Rank()
	filtered := make(map[string]*gate.Result)
	for id, r := range vr.Results {
		if r.Severity.Rank() >= min || r.Status == gate.StatusError {
			filtered[id] = r
		}
	}
	return newValidationResult(filtered, vr.Degraded)
}

// Clean reports whether every executed gate passed or was not applicable.
func (vr *ValidationResult) Clean() bool {
	return vr.Summary.Failed == 0 && vr.Summary.Warnings == 0 && vr.Summary.Errors == 0
}
