// Package finding defines the shared result contract produced by the
// query runner and consumed by rendering and fix application. Findings
// are immutable once produced.
package finding

import (
	"sort"

	"github.com/treelint/treelint/pkg/rule"
)

// Finding is one confirmed rule violation with location and optional fix.
type Finding struct {
	RuleID   string        `json:"rule_id"`
	Severity rule.Severity `json:"severity"`
	Message  string        `json:"message"`
	File     string        `json:"file"`

	// Byte offsets into the original file content.
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`

	// 1-based line/column span.
	StartLine   uint32 `json:"start_line"`
	StartColumn uint32 `json:"start_column"`
	EndLine     uint32 `json:"end_line"`
	EndColumn   uint32 `json:"end_column"`

	// FixEdit is the computed edit for rules that declare a fix;
	// nil when the rule offers none.
	FixEdit *FixEdit `json:"fix_edit,omitempty"`
}

// FixEdit is a byte-range replacement against the original buffer.
// An empty Text deletes the range.
type FixEdit struct {
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	Text      string `json:"text"`
}

// Summary aggregates finding counts by severity.
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

// Count returns the total number of findings summarized.
func (s Summary) Count() int { return s.Errors + s.Warnings + s.Infos }

// Summarize tallies findings by severity.
func Summarize(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case rule.SeverityError:
			s.Errors++
		case rule.SeverityWarning:
			s.Warnings++
		default:
			s.Infos++
		}
	}
	return s
}

// Sort orders findings by file path, then ascending start offset, then
// rule id. This is the deterministic aggregate order reported to renderers.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.StartByte != b.StartByte {
			return a.StartByte < b.StartByte
		}
		return a.RuleID < b.RuleID
	})
}
