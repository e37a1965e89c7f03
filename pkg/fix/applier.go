// Package fix turns findings that carry fix edits into a rewritten text
// buffer. Edits are applied in a single pass against the original
// buffer, so every offset stays valid; overlapping edits are resolved in
// favor of the earlier-starting one and the loser is reported as
// skipped, not as an error.
package fix

import (
	"sort"

	"github.com/treelint/treelint/pkg/finding"
)

// Result is the outcome of applying fixes to one buffer.
type Result struct {
	NewText []byte

	// AppliedIDs and SkippedIDs list the rule ids of applied and
	// conflicting-or-invalid edits, in edit order.
	AppliedIDs []string
	SkippedIDs []string
}

// Changed reports whether any edit was applied.
func (r *Result) Changed() bool { return len(r.AppliedIDs) > 0 }

// Apply rewrites original with the fix edits of the given findings.
// Only findings carrying a fix edit are candidates. Candidates are
// sorted by ascending start offset; two edits starting at the same
// offset are ordered by rule id, lexically, so conflict resolution stays
// deterministic. An edit is applied only if its range does not overlap
// any previously accepted edit and lies within the buffer; everything
// else lands in SkippedIDs.
func Apply(findings []finding.Finding, original []byte) Result {
	var candidates []finding.Finding
	for _, f := range findings {
		if f.FixEdit != nil {
			candidates = append(candidates, f)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].FixEdit, candidates[j].FixEdit
		if a.StartByte != b.StartByte {
			return a.StartByte < b.StartByte
		}
		return candidates[i].RuleID < candidates[j].RuleID
	})

	res := Result{}
	var accepted []*finding.FixEdit
	nextStart := uint32(0)
	for _, f := range candidates {
		e := f.FixEdit
		if e.EndByte < e.StartByte || int(e.EndByte) > len(original) {
			res.SkippedIDs = append(res.SkippedIDs, f.RuleID)
			continue
		}
		if len(accepted) > 0 && e.StartByte < nextStart {
			res.SkippedIDs = append(res.SkippedIDs, f.RuleID)
			continue
		}
		accepted = append(accepted, e)
		res.AppliedIDs = append(res.AppliedIDs, f.RuleID)
		if e.EndByte > nextStart {
			nextStart = e.EndByte
		}
	}

	// Single pass over the original buffer: copy the untouched segments
	// and splice in replacements.
	var out []byte
	cursor := uint32(0)
	for _, e := range accepted {
		out = append(out, original[cursor:e.StartByte]...)
		out = append(out, e.Text...)
		cursor = e.EndByte
	}
	out = append(out, original[cursor:]...)
	res.NewText = out
	return res
}
