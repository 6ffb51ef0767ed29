// Package synthesis turns gate violations into a corrected document.
//
// For every violation it collects candidate correction patterns of the
// same category from the catalogue snapshot, drops candidates the context
// analyzer finds negated, conditional, or quoted, resolves conflicts
// between overlapping candidates by strategy tier, and splices the winners
// into the original text in a single left-to-right pass. The ordered
// correction list is the lineage the determinism layer hashes; identical
// input and catalogue version always produce identical output.
package synthesis
