// Package textctx answers whether a candidate match is negated,
// conditional, or quoted in its surrounding text. Matches for which any of
// these hold are suppressed from correction: "this is not a risk-free
// investment" is compliant as written, and rewriting it would be an
// over-correction worse than the violation it claims to fix.
package textctx

import (
	"regexp"
	"strings"
)

// DefaultWindow bounds how far around a match the analyzer looks.
const DefaultWindow = 200

// Suppression reasons, recorded into the audit record for every suppressed
// match.
const (
	ReasonNegated     = "negated"
	ReasonConditional = "conditional"
	ReasonQuoted      = "quoted"
)

// negationCues precede a match within the same clause.
var negationCues = regexp.MustCompile(`(?i)\b(?:not|no|never|none|neither|nor|without|isn'?t|aren'?t|wasn'?t|weren'?t|don'?t|doesn'?t|didn'?t|cannot|can'?t|won'?t|wouldn'?t|shouldn'?t)\b`)

// conditionalCues govern the clause containing a match.
var conditionalCues = regexp.MustCompile(`(?i)\b(?:if|unless|should|in\s+case|provided\s+that|assuming|were\s+it|where\s+applicable|subject\s+to)\b`)

// clauseBoundary splits text into clauses for cue scoping. A cue in a
// previous sentence does not negate the current one.
var clauseBoundary = regexp.MustCompile(`[.;!?]|\n\n`)

// Analysis is the answer for one candidate match span.
type Analysis struct {
	Negated     bool `json:"negated"`
	Conditional bool `json:"conditional"`
	Quoted      bool `json:"quoted"`
}

// Suppressed reports whether any predicate held.
func (a Analysis) Suppressed() bool {
	return a.Negated || a.Conditional || a.Quoted
}

// Reason returns the first applicable suppression reason, in the fixed
// order negated, conditional, quoted, or empty when not suppressed.
func (a Analysis) Reason() string {
	switch {
	case a.Negated:
		return ReasonNegated
	case a.Conditional:
		return ReasonConditional
	case a.Quoted:
		return ReasonQuoted
	default:
		return ""
	}
}

// Analyzer inspects a bounded window around candidate match offsets.
type Analyzer struct {
	window int
}

// New creates an analyzer with the default window.
func New() *Analyzer {
	return &Analyzer{window: DefaultWindow}
}

// NewWithWindow creates an analyzer with a custom window size.
func NewWithWindow(window int) *Analyzer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Analyzer{window: window}
}

// Analyze inspects the text around the half-open byte range [start, end).
// Offsets outside the text yield a zero Analysis.
func (a *Analyzer) Analyze(text string, start, end int) Analysis {
	if start < 0 || end > len(text) || start > end {
		return Analysis{}
	}

	// Every predicate looks backwards from the match: cues and opening
	// quotes precede the text they govern.
	windowStart := start - a.window
	if windowStart < 0 {
		windowStart = 0
	}
	before := text[windowStart:start]

	// The clause prefix runs from the last clause boundary before the
	// match to the match itself; negation and conditional cues only count
	// inside it.
	prefix := clausePrefix(before)

	return Analysis{
		Negated:     negationCues.MatchString(prefix),
		Conditional: conditionalCues.MatchString(prefix),
		Quoted:      isQuoted(before),
	}
}

// clausePrefix returns the portion of s after its last clause boundary.
func clausePrefix(s string) string {
	bounds := clauseBoundary.FindAllStringIndex(s, -1)
	if len(bounds) == 0 {
		return s
	}
	last := bounds[len(bounds)-1]
	return s[last[1]:]
}

// isQuoted reports whether the match sits inside quotation or citation
// markers. An odd number of straight double quotes before the offset means
// the offset is inside a quote; typographic quotes are matched as
// open/close pairs.
func isQuoted(before string) bool {
	if strings.Count(before, `"`)%2 == 1 {
		return true
	}
	if strings.Count(before, "“") > strings.Count(before, "”") { // “ vs ”
		return true
	}

	// Markdown blockquote: the line containing the match starts with '>'.
	lineStart := strings.LastIndexByte(before, '\n')
	line := before[lineStart+1:]
	if strings.HasPrefix(strings.TrimSpace(line), ">") {
		return true
	}

	return false
}
