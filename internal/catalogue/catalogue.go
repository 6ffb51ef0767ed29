package catalogue

import (
	"fmt"
	"sort"
)

// GateSpec is the on-disk form of a config-defined gate shipped alongside
// the catalogue's patterns. The gate package builds PatternGates from these.
type GateSpec struct {
	ID        string         `koanf:"id"`
	Module    string         `koanf:"module"`
	Severity  string         `koanf:"severity"`
	Relevance string         `koanf:"relevance"`
	DocTypes  []string       `koanf:"doc_types"`
	Rules     []GateRuleSpec `koanf:"rules"`
}

// GateRuleSpec is one rule of a config-defined gate.
type GateRuleSpec struct {
	Kind     string `koanf:"kind"`
	Category string `koanf:"category"`
	Pattern  string `koanf:"pattern"`
	Reason   string `koanf:"reason"`
	Severity string `koanf:"severity"`
}

// Catalogue is one immutable, versioned snapshot of correction patterns and
// config-defined gate specs.
type Catalogue struct {
	version    string
	byID       map[string]*CorrectionPattern
	byCategory map[string][]*CorrectionPattern
	gateSpecs  []GateSpec
}

// New validates pattern specs and builds a catalogue snapshot. Two patterns
// with the same id are rejected: with different strategy tiers the priority
// ordering would be ambiguous, and even at the same tier the lineage could
// not name which pattern produced a correction.
func New(version string, specs []PatternSpec, gateSpecs []GateSpec) (*Catalogue, error) {
	if version == "" {
		return nil, fmt.Errorf("catalogue: version is required")
	}

	c := &Catalogue{
		version:    version,
		byID:       make(map[string]*CorrectionPattern, len(specs)),
		byCategory: make(map[string][]*CorrectionPattern),
		gateSpecs:  gateSpecs,
	}

	for _, spec := range specs {
		p, err := spec.compile()
		if err != nil {
			return nil, err
		}
		if prev, exists := c.byID[p.ID]; exists {
			if prev.Tier != p.Tier {
				return nil, fmt.Errorf("pattern %s: declared with strategy tiers %s and %s, priority would be ambiguous", p.ID, prev.Tier, p.Tier)
			}
			return nil, fmt.Errorf("pattern %s: duplicate id", p.ID)
		}
		c.byID[p.ID] = p
		c.byCategory[p.Category] = append(c.byCategory[p.Category], p)
	}

	// Fixed iteration order per category keeps candidate collection
	// deterministic.
	for _, patterns := range c.byCategory {
		sort.Slice(patterns, func(i, j int) bool { return patterns[i].ID < patterns[j].ID })
	}

	return c, nil
}

// Version returns the catalogue version, recorded into every lineage entry.
func (c *Catalogue) Version() string { return c.version }

// ByCategory returns the patterns of a category, sorted by id.
func (c *Catalogue) ByCategory(category string) []*CorrectionPattern {
	return c.byCategory[category]
}

// Pattern looks up a pattern by id.
func (c *Catalogue) Pattern(id string) (*CorrectionPattern, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// GateSpecs returns the config-defined gate specs shipped with this
// catalogue version.
func (c *Catalogue) GateSpecs() []GateSpec { return c.gateSpecs }

// Len returns the number of patterns in the snapshot.
func (c *Catalogue) Len() int { return len(c.byID) }

// Categories returns the sorted list of pattern categories.
func (c *Catalogue) Categories() []string {
	out := make([]string, 0, len(c.byCategory))
	for cat := range c.byCategory {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}
