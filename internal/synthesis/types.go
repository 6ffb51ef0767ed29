package synthesis

import (
	"github.com/fyrsmithlabs/complyd/internal/catalogue"
	"github.com/fyrsmithlabs/complyd/internal/gate"
)

// Status summarizes a synthesis run.
type Status string

const (
	// StatusClean means no gate reported a correctable violation.
	StatusClean Status = "CLEAN"

	// StatusCorrected means every correctable violation was corrected or
	// suppressed as a false positive.
	StatusCorrected Status = "CORRECTED"

	// StatusNeedsReview means something remains for a human: a violation
	// with no applicable pattern, a failed correction, or an unapplied
	// suggestion.
	StatusNeedsReview Status = "NEEDS_REVIEW"
)

// Correction is one applied edit: the audit record of what changed, why,
// and under which rule.
type Correction struct {
	// PatternID names the catalogue pattern that produced the edit.
	PatternID string `json:"pattern_id"`

	// Tier is the strategy tier the pattern used.
	Tier catalogue.StrategyTier `json:"tier"`

	// Span is the edited range in the original text. Zero-width spans are
	// insertions.
	Span gate.Span `json:"span"`

	// Before is the original text of the span.
	Before string `json:"before"`

	// After is the replacement text.
	After string `json:"after"`

	// GateID names the gate whose violation triggered the correction.
	GateID string `json:"gate_id"`

	// Severity of the originating violation.
	Severity gate.Severity `json:"severity"`

	// Citation references the regulatory rule behind the pattern.
	Citation string `json:"citation,omitempty"`

	// Confidence in the correction, fixed per strategy tier.
	Confidence float64 `json:"confidence"`
}

// Suggestion is a suggestion-tier match: surfaced, never applied.
type Suggestion struct {
	PatternID string    `json:"pattern_id"`
	Span      gate.Span `json:"span"`
	Text      string    `json:"text"`
	Note      string    `json:"note"`
	Citation  string    `json:"citation,omitempty"`
}

// SuppressedMatch is a candidate correction the context analyzer excluded,
// kept for audit with its suppression reason.
type SuppressedMatch struct {
	PatternID string    `json:"pattern_id"`
	Span      gate.Span `json:"span"`
	Text      string    `json:"text"`
	Reason    string    `json:"reason"`
}

// FailedCorrection is a selected correction that could not be applied. It
// never blocks the rest of the run.
type FailedCorrection struct {
	PatternID string    `json:"pattern_id"`
	Span      gate.Span `json:"span"`
	Reason    string    `json:"reason"`
}

// Result is the audit artifact of one synthesis run.
type Result struct {
	// Original is the input text, unchanged.
	Original string `json:"original"`

	// Corrected is the output text with all selected corrections applied.
	Corrected string `json:"corrected"`

	// Corrections lists applied edits in application order (ascending
	// original-text offset). This order is what the fingerprint hashes.
	Corrections []Correction `json:"corrections"`

	// Suggestions are suggestion-tier matches surfaced to the caller.
	Suggestions []Suggestion `json:"suggestions,omitempty"`

	// Suppressed are candidates excluded by context analysis.
	Suppressed []SuppressedMatch `json:"suppressed,omitempty"`

	// Failed are corrections that could not be applied, with reasons.
	Failed []FailedCorrection `json:"failed,omitempty"`

	// Unmatched are violations with no applicable correction pattern.
	Unmatched []gate.Violation `json:"unmatched,omitempty"`

	// Status summarizes whether manual review is still required.
	Status Status `json:"status"`

	// CatalogueVersion is the pattern catalogue version used.
	CatalogueVersion string `json:"catalogue_version"`

	// Fingerprint is the deterministic hash over Corrections and
	// CatalogueVersion.
	Fingerprint string `json:"fingerprint"`

	// Diff is the unified patch from Original to Corrected.
	Diff string `json:"diff,omitempty"`
}

// tierConfidence fixes the confidence score per strategy tier; part of the
// deterministic output.
var tierConfidence = map[catalogue.StrategyTier]float64{
	catalogue.TierSuggestion:       0.5,
	catalogue.TierRegexReplace:     0.9,
	catalogue.TierTemplateInsert:   0.95,
	catalogue.TierStructuralReform: 0.75,
}
