package synthesis

import "github.com/sergi/go-diff/diffmatchpatch"

// renderDiff produces the unified patch text from original to corrected
// for the audit record.
func renderDiff(original, corrected string) string {
	if original == corrected {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, corrected, false)
	patches := dmp.PatchMake(original, diffs)
	return dmp.PatchToText(patches)
}

// RefreshDiff re-renders the diff after the caller adjusts the corrected
// text, such as trailing-whitespace normalization. The fingerprint is
// unaffected; it covers the correction lineage, not the formatting.
func (r *Result) RefreshDiff() {
	r.Diff = renderDiff(r.Original, r.Corrected)
}
