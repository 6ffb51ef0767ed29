package synthesis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/complyd/internal/gate"
)

// edit is one splice against the original text's immutable offsets.
type edit struct {
	span  gate.Span
	after string
	// patternID breaks ordering ties between zero-width edits at the same
	// offset.
	patternID string
}

// splice applies edits to the original text in a single left-to-right
// pass. Offsets always address the original snapshot, never the partially
// rewritten string, so earlier edits cannot drift the later ones.
func splice(original string, edits []edit) (string, error) {
	if len(edits) == 0 {
		return original, nil
	}

	sorted := append([]edit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].span.Start != sorted[j].span.Start {
			return sorted[i].span.Start < sorted[j].span.Start
		}
		if sorted[i].span.End != sorted[j].span.End {
			return sorted[i].span.End < sorted[j].span.End
		}
		return sorted[i].patternID < sorted[j].patternID
	})

	var b strings.Builder
	cursor := 0
	for _, e := range sorted {
		if e.span.Start < cursor {
			return "", fmt.Errorf("overlapping edits at offset %d (pattern %s)", e.span.Start, e.patternID)
		}
		if e.span.End > len(original) {
			return "", fmt.Errorf("edit past end of text: %d > %d (pattern %s)", e.span.End, len(original), e.patternID)
		}
		b.WriteString(original[cursor:e.span.Start])
		b.WriteString(e.after)
		cursor = e.span.End
	}
	b.WriteString(original[cursor:])
	return b.String(), nil
}
