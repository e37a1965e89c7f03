// Package output renders findings, diagnostics, and rule listings.
// Text output is styled when stdout is a terminal; json output is a
// machine-readable report stamped with a run id.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/treelint/treelint/pkg/engine"
	"github.com/treelint/treelint/pkg/finding"
	"github.com/treelint/treelint/pkg/rule"
)

// Mode selects the output format.
type Mode string

// Output modes.
const (
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	pathStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// Renderer writes run results in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styled bool
}

// NewRenderer creates a renderer. ModeAuto resolves to text, styled when
// out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	r := &Renderer{out: out, errOut: errOut, mode: mode}
	if mode == ModeAuto || mode == "" {
		r.mode = ModeText
	}
	if f, ok := out.(*os.File); ok && mode != ModeJSON {
		r.styled = term.IsTerminal(int(f.Fd()))
	}
	return r
}

// JSON reports whether the renderer is in json mode.
func (r *Renderer) JSON() bool { return r.mode == ModeJSON }

// report is the json-mode run report.
type report struct {
	RunID       string            `json:"run_id"`
	Findings    []finding.Finding `json:"findings"`
	Diagnostics []rule.Diagnostic `json:"diagnostics,omitempty"`
	Summary     finding.Summary   `json:"summary"`
}

// Result writes a full run result: findings, then diagnostics, then the
// summary line.
func (r *Renderer) Result(res *engine.Result) error {
	if r.mode == ModeJSON {
		return json.NewEncoder(r.out).Encode(report{
			RunID:       uuid.NewString(),
			Findings:    res.Findings,
			Diagnostics: res.Diagnostics,
			Summary:     res.Summary,
		})
	}

	for _, f := range res.Findings {
		fmt.Fprintf(r.out, "%s:%d:%d: %s %s (%s)\n",
			r.style(pathStyle, f.File), f.StartLine, f.StartColumn,
			r.severity(f.Severity), f.Message, f.RuleID)
	}
	r.Diagnostics(res.Diagnostics)

	if res.Summary.Count() == 0 {
		fmt.Fprintln(r.out, "no issues found")
	} else {
		fmt.Fprintf(r.out, "%d issues (%d errors, %d warnings, %d info)\n",
			res.Summary.Count(), res.Summary.Errors, res.Summary.Warnings, res.Summary.Infos)
	}
	return nil
}

// Diagnostics writes load/compile/read diagnostics to stderr, once,
// distinct from findings.
func (r *Renderer) Diagnostics(diags []rule.Diagnostic) {
	if r.mode == ModeJSON {
		return
	}
	for _, d := range diags {
		fmt.Fprintln(r.errOut, r.style(dimStyle, d.String()))
	}
}

// FixReport writes the outcome of a fix run for one file.
func (r *Renderer) FixReport(path string, applied, skipped []string, dryRun bool) {
	if r.mode == ModeJSON {
		_ = json.NewEncoder(r.out).Encode(map[string]any{
			"file":    path,
			"applied": applied,
			"skipped": skipped,
			"dry_run": dryRun,
		})
		return
	}
	verb := "fixed"
	if dryRun {
		verb = "would fix"
	}
	if len(applied) > 0 {
		fmt.Fprintf(r.out, "%s %s: %s\n", verb, r.style(pathStyle, path), strings.Join(applied, ", "))
	}
	if len(skipped) > 0 {
		fmt.Fprintf(r.out, "skipped %s: %s (conflicting edits)\n", r.style(pathStyle, path), strings.Join(skipped, ", "))
	}
}

// RuleRow is one row of the rules listing.
type RuleRow struct {
	ID        string   `json:"id"`
	Severity  string   `json:"severity"`
	Languages []string `json:"languages"`
	Tier      string   `json:"tier"`
	Enabled   bool     `json:"enabled"`
	HasFix    bool     `json:"has_fix"`
	Source    string   `json:"source,omitempty"`
}

// Rules writes the effective rule listing as a table, or as json.
func (r *Renderer) Rules(rows []RuleRow) error {
	if r.mode == ModeJSON {
		return json.NewEncoder(r.out).Encode(rows)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"ID", "Severity", "Languages", "Tier", "Enabled", "Fix"})
	for _, row := range rows {
		fix := ""
		if row.HasFix {
			fix = "yes"
		}
		enabled := "yes"
		if !row.Enabled {
			enabled = "no"
		}
		t.AppendRow(table.Row{row.ID, row.Severity, strings.Join(row.Languages, ","), row.Tier, enabled, fix})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

// severity renders a severity label with its style.
func (r *Renderer) severity(s rule.Severity) string {
	label := s.String()
	switch s {
	case rule.SeverityError:
		return r.style(errorStyle, label)
	case rule.SeverityWarning:
		return r.style(warnStyle, label)
	default:
		return r.style(infoStyle, label)
	}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}
