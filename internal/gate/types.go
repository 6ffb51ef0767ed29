package gate

import (
	"fmt"
	"time"
)

// Severity classifies how serious a gate or violation is.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// severityRanks orders severities for comparison; higher is more severe.
var severityRanks = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// Rank returns a comparable rank for the severity (higher = more severe).
// Unknown severities rank below SeverityLow.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// ParseSeverity converts a string into a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if _, ok := severityRanks[sev]; !ok {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// Status is the outcome of one gate evaluation.
type Status string

const (
	StatusPass          Status = "PASS"
	StatusFail          Status = "FAIL"
	StatusWarning       Status = "WARNING"
	StatusNotApplicable Status = "NOT_APPLICABLE"
	StatusError         Status = "ERROR"
)

// Span is a half-open byte range [Start, End) into the original document
// text. A zero-width span (Start == End) marks an insertion point, used by
// gates that report something as missing rather than present.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Width returns the span length in bytes.
func (s Span) Width() int { return s.End - s.Start }

// Overlaps reports whether two spans intersect. Zero-width spans never
// overlap anything; they occupy no bytes of the original text.
func (s Span) Overlaps(other Span) bool {
	if s.Width() == 0 || other.Width() == 0 {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

// Violation is a single finding reported by a gate.
type Violation struct {
	// GateID identifies the gate that reported the violation.
	GateID string `json:"gate_id"`

	// Category links the violation to correction patterns of the same
	// category in the pattern catalogue.
	Category string `json:"category"`

	// Span locates the offending text in the original document.
	Span Span `json:"span"`

	// Reason is a human-readable explanation.
	Reason string `json:"reason"`

	// Severity of this specific finding.
	Severity Severity `json:"severity"`
}

// Result is the outcome of evaluating one gate against one document.
// Produced exactly once per gate per request; immutable afterwards.
type Result struct {
	GateID     string        `json:"gate_id"`
	Module     string        `json:"module"`
	Status     Status        `json:"status"`
	Severity   Severity      `json:"severity"`
	Violations []Violation   `json:"violations,omitempty"`
	Duration   time.Duration `json:"duration"`

	// Err holds the failure description when Status is StatusError.
	Err string `json:"error,omitempty"`
}
