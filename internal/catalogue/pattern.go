package catalogue

import (
	"fmt"
	"regexp"
)

// StrategyTier is the priority class of a correction method. A larger-scope
// rewrite supersedes a narrower one touching the same text, so higher tiers
// win conflict resolution.
type StrategyTier int

const (
	TierSuggestion       StrategyTier = 20
	TierRegexReplace     StrategyTier = 30
	TierTemplateInsert   StrategyTier = 40
	TierStructuralReform StrategyTier = 60
)

// tierNames maps the YAML strategy names to tiers.
var tierNames = map[string]StrategyTier{
	"suggestion":        TierSuggestion,
	"regex_replace":     TierRegexReplace,
	"template_insert":   TierTemplateInsert,
	"structural_reform": TierStructuralReform,
}

// ParseTier converts a strategy name from the catalogue file into a tier.
func ParseTier(name string) (StrategyTier, error) {
	t, ok := tierNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown strategy %q", name)
	}
	return t, nil
}

// String returns the strategy name for the tier.
func (t StrategyTier) String() string {
	for name, tier := range tierNames {
		if tier == t {
			return name
		}
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Anchor positions for template insertion.
const (
	AnchorEnd   = "end"
	AnchorStart = "start"
)

// PatternSpec is the on-disk form of a correction pattern, decoded from the
// catalogue YAML by koanf.
type PatternSpec struct {
	ID          string `koanf:"id"`
	Category    string `koanf:"category"`
	Strategy    string `koanf:"strategy"`
	Match       string `koanf:"match"`
	Replacement string `koanf:"replacement"`
	Template    string `koanf:"template"`
	Anchor      string `koanf:"anchor"`
	Priority    int    `koanf:"priority"`
	Citation    string `koanf:"citation"`
	Module      string `koanf:"module"`
	Note        string `koanf:"note"`
}

// CorrectionPattern is a compiled, validated correction pattern. Immutable
// at request time; replaced only by loading a new catalogue snapshot.
type CorrectionPattern struct {
	// ID uniquely identifies the pattern across the whole catalogue.
	ID string

	// Category links the pattern to violations of the same category.
	Category string

	// Tier is the strategy tier used for conflict resolution.
	Tier StrategyTier

	// Match locates the text the pattern corrects. Unused for
	// template-insert patterns, which target an anchor instead.
	Match *regexp.Regexp

	// Replacement is the substitution text for regex-replace and
	// structural-reform patterns. $1-style references expand to capture
	// groups of Match.
	Replacement string

	// Template is the body inserted by template-insert patterns.
	Template string

	// Anchor positions template insertion (AnchorEnd or AnchorStart).
	Anchor string

	// Priority breaks ties within a tier; lower value wins.
	Priority int

	// Citation references the regulatory rule the pattern enforces.
	Citation string

	// Module is the owning module name.
	Module string

	// Note is the recommendation text surfaced by suggestion patterns.
	Note string
}

// compile validates a spec and compiles it into a CorrectionPattern.
func (s PatternSpec) compile() (*CorrectionPattern, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("pattern: id is required")
	}
	if s.Category == "" {
		return nil, fmt.Errorf("pattern %s: category is required", s.ID)
	}

	tier, err := ParseTier(s.Strategy)
	if err != nil {
		return nil, fmt.Errorf("pattern %s: %w", s.ID, err)
	}

	p := &CorrectionPattern{
		ID:          s.ID,
		Category:    s.Category,
		Tier:        tier,
		Replacement: s.Replacement,
		Template:    s.Template,
		Anchor:      s.Anchor,
		Priority:    s.Priority,
		Citation:    s.Citation,
		Module:      s.Module,
		Note:        s.Note,
	}

	switch tier {
	case TierTemplateInsert:
		if s.Template == "" {
			return nil, fmt.Errorf("pattern %s: template_insert requires a template", s.ID)
		}
		if p.Anchor == "" {
			p.Anchor = AnchorEnd
		}
		if p.Anchor != AnchorEnd && p.Anchor != AnchorStart {
			return nil, fmt.Errorf("pattern %s: unknown anchor %q", s.ID, s.Anchor)
		}
	default:
		if s.Match == "" {
			return nil, fmt.Errorf("pattern %s: %s requires a match pattern", s.ID, s.Strategy)
		}
		re, err := regexp.Compile(s.Match)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: invalid match pattern: %w", s.ID, err)
		}
		p.Match = re
	}

	return p, nil
}
