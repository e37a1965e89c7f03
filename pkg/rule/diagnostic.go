package rule

import "fmt"

// Diagnostic stages.
const (
	StageLoad    = "load"
	StageCompile = "compile"
	StageRead    = "read"
)

// Diagnostic is a non-fatal problem encountered while loading rules or
// running them: a malformed rule file, a pattern that failed to compile,
// an unreadable input file. Diagnostics are collected and reported once
// at the end of a run, distinct from findings; they never abort the run.
type Diagnostic struct {
	Stage   string `json:"stage"`
	Path    string `json:"path,omitempty"`
	RuleID  string `json:"rule_id,omitempty"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	switch {
	case d.Path != "" && d.RuleID != "":
		return fmt.Sprintf("[%s] %s (%s): %s", d.Stage, d.RuleID, d.Path, d.Message)
	case d.Path != "":
		return fmt.Sprintf("[%s] %s: %s", d.Stage, d.Path, d.Message)
	case d.RuleID != "":
		return fmt.Sprintf("[%s] %s: %s", d.Stage, d.RuleID, d.Message)
	default:
		return fmt.Sprintf("[%s] %s", d.Stage, d.Message)
	}
}
