// Package engine executes structural pattern rules against parsed
// syntax trees. Rules are compiled into one combined query per language
// so traversal cost per file stays proportional to tree size regardless
// of how many rules are loaded; files are processed by a bounded worker
// pool with no shared mutable state beyond the fact cache and the final
// aggregation.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/treelint/treelint/pkg/finding"
	"github.com/treelint/treelint/pkg/rule"
	"github.com/treelint/treelint/pkg/source"
)

// LanguageProvider supplies compiled grammars for language names. The
// engine does not manage grammar loading itself.
type LanguageProvider interface {
	Get(name string) (*sitter.Language, bool)
}

// FileInput is one candidate file as produced by the discovery layer.
// Content may be nil, in which case the runner reads the file itself and
// scopes any read error to that file.
type FileInput struct {
	Path     string
	Language string
	Content  []byte
}

// Result is the outcome of a run: findings in deterministic order plus
// the diagnostics collected along the way.
type Result struct {
	Findings    []finding.Finding
	Diagnostics []rule.Diagnostic
	Summary     finding.Summary
}

// Runner executes an effective rule set against files.
type Runner struct {
	langs    LanguageProvider
	sources  *source.Registry
	repoRoot string
	jobs     int
	log      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithJobs bounds the worker pool. Values below one fall back to the
// number of CPUs.
func WithJobs(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.jobs = n
		}
	}
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRepoRoot anchors repository-scoped fact resolution.
func WithRepoRoot(root string) Option {
	return func(r *Runner) { r.repoRoot = root }
}

// NewRunner creates a runner over the given grammar provider and fact
// registry.
func NewRunner(langs LanguageProvider, sources *source.Registry, opts ...Option) *Runner {
	r := &Runner{
		langs:   langs,
		sources: sources,
		jobs:    runtime.NumCPU(),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run compiles the enabled rules and executes them against every file.
// Per-rule compile failures and per-file read failures become
// diagnostics; the run itself only fails on cancellation. For a fixed
// rule set, file contents and fact values the produced finding list is
// identical across runs.
func (r *Runner) Run(ctx context.Context, set *rule.Set, files []FileInput) (*Result, error) {
	batches, diags := compileBatches(set.Enabled(), r.langs)
	defer closeBatches(batches)

	r.log.Debug("compiled rule batches", "languages", len(batches), "rules", len(set.Enabled()))

	// Per-file slots keep aggregation deterministic and lock-free:
	// workers write disjoint indexes, the flatten below runs after Wait.
	perFile := make([][]finding.Finding, len(files))
	perFileDiags := make([][]rule.Diagnostic, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)

	for i, f := range files {
		if gctx.Err() != nil {
			// Coarse-grained cancellation: stop scheduling between files.
			break
		}
		b, ok := batches[f.Language]
		if !ok {
			continue
		}
		i, f := i, f
		g.Go(func() error {
			findings, fdiags := r.runFile(gctx, b, f)
			perFile[i] = findings
			perFileDiags[i] = fdiags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Diagnostics: diags}
	for i := range files {
		res.Findings = append(res.Findings, perFile[i]...)
		res.Diagnostics = append(res.Diagnostics, perFileDiags[i]...)
	}
	finding.Sort(res.Findings)
	res.Summary = finding.Summarize(res.Findings)
	return res, nil
}

// runFile parses one file and collects findings for every rule in the
// language batch in a single traversal.
func (r *Runner) runFile(ctx context.Context, b *batch, f FileInput) ([]finding.Finding, []rule.Diagnostic) {
	content := f.Content
	if content == nil {
		var err error
		content, err = os.ReadFile(f.Path)
		if err != nil {
			return nil, []rule.Diagnostic{{Stage: rule.StageRead, Path: f.Path, Message: err.Error()}}
		}
	}

	parser := sitter.NewParser()
	parser.SetLanguage(b.grammar)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, []rule.Diagnostic{{Stage: rule.StageRead, Path: f.Path,
			Message: fmt.Sprintf("parse failed: %v", err)}}
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(b.query, tree.RootNode())

	evalCtx := &source.Context{RepoRoot: r.repoRoot, FilePath: f.Path}
	allowPath := r.relToRoot(f.Path)

	var findings []finding.Finding
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		// Inline query predicates (#eq?, #match?) are evaluated by the
		// query engine here; external requires clauses come after.
		m = qc.FilterPredicates(m, content)
		if len(m.Captures) == 0 {
			continue
		}

		rl, ok := b.ruleFor(m.PatternIndex)
		if !ok {
			continue
		}
		if rl.Allowed(allowPath) {
			continue
		}
		if len(rl.Requires) > 0 && !source.Evaluate(ctx, rl.Requires, r.sources, evalCtx) {
			continue
		}

		findings = append(findings, r.buildFinding(b, m, rl, f.Path, content))
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].StartByte != findings[j].StartByte {
			return findings[i].StartByte < findings[j].StartByte
		}
		return findings[i].RuleID < findings[j].RuleID
	})
	return findings, nil
}

// relToRoot rewrites an absolute path inside the repository root to its
// root-relative form, so allow globs see the same path regardless of how
// the file was addressed on the command line. Paths outside the root and
// already-relative paths pass through unchanged.
func (r *Runner) relToRoot(path string) string {
	if r.repoRoot == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(r.repoRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// buildFinding turns one predicate-filtered match into an immutable
// finding, substituting captures into the message and computing the fix
// edit when the rule declares one.
func (r *Runner) buildFinding(b *batch, m *sitter.QueryMatch, rl rule.Rule, path string, content []byte) finding.Finding {
	captures := make(map[string]string, len(m.Captures))
	var start, end *sitter.Node
	for _, c := range m.Captures {
		name := b.query.CaptureNameForId(c.Index)
		captures[name] = c.Node.Content(content)
		if start == nil || c.Node.StartByte() < start.StartByte() {
			start = c.Node
		}
		if end == nil || c.Node.EndByte() > end.EndByte() {
			end = c.Node
		}
	}

	f := finding.Finding{
		RuleID:      rl.ID,
		Severity:    rl.Severity,
		Message:     substituteCaptures(rl.Message, captures),
		File:        path,
		StartByte:   start.StartByte(),
		EndByte:     end.EndByte(),
		StartLine:   start.StartPoint().Row + 1,
		StartColumn: start.StartPoint().Column + 1,
		EndLine:     end.EndPoint().Row + 1,
		EndColumn:   end.EndPoint().Column + 1,
	}

	if rl.HasFix() {
		text := ""
		if *rl.Fix != "" {
			text = substituteCaptures(*rl.Fix, captures)
		}
		f.FixEdit = &finding.FixEdit{StartByte: f.StartByte, EndByte: f.EndByte, Text: text}
	}
	return f
}
