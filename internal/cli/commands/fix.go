package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/treelint/treelint/internal/cli/output"
	"github.com/treelint/treelint/pkg/finding"
	"github.com/treelint/treelint/pkg/fix"
)

// FixOptions holds options for the fix command.
type FixOptions struct {
	Paths  []string
	Format string
	DryRun bool
}

// NewFixCommand creates the fix command.
func NewFixCommand() *cobra.Command {
	opts := &FixOptions{}
	cmd := &cobra.Command{
		Use:   "fix [path...]",
		Short: "Apply auto-fixes for rules that declare a fix template",
		Long: `Run the rules and rewrite files with the computed fix edits.

Only findings from rules that declare a fix are candidates. When two
edits overlap, the earlier-starting edit wins and the other is skipped.
A file whose analysis did not complete is never rewritten.`,
		Example: `  # Fix the current project
  treelint fix

  # Show what would change without writing
  treelint fix --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Paths = args
			}
			return runFix(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "Report edits without writing files")
	return cmd
}

func runFix(cmd *cobra.Command, opts *FixOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	paths := opts.Paths
	if len(paths) == 0 {
		paths = cmdCtx.Cfg.Paths
	}
	if len(paths) == 0 {
		paths = []string{cmdCtx.Cfg.ProjectRoot}
	}

	res, err := checkOnce(cmd.Context(), cmdCtx, paths)
	if err != nil {
		return err
	}

	byFile := make(map[string][]finding.Finding)
	var order []string
	for _, f := range res.Findings {
		if f.FixEdit == nil {
			continue
		}
		if _, ok := byFile[f.File]; !ok {
			order = append(order, f.File)
		}
		byFile[f.File] = append(byFile[f.File], f)
	}

	var failed bool
	for _, path := range order {
		original, err := os.ReadFile(path)
		if err != nil {
			cmdCtx.Log.Warn("cannot read file for fixing", "path", path, "error", err)
			failed = true
			continue
		}
		result := fix.Apply(byFile[path], original)
		if !result.Changed() {
			continue
		}
		if !opts.DryRun {
			if err := writeInPlace(path, result.NewText); err != nil {
				cmdCtx.Log.Warn("cannot write fixed file", "path", path, "error", err)
				failed = true
				continue
			}
		}
		r.FixReport(path, result.AppliedIDs, result.SkippedIDs, opts.DryRun)
	}

	r.Diagnostics(res.Diagnostics)
	if failed {
		return fmt.Errorf("some files could not be fixed")
	}
	return nil
}

// writeInPlace rewrites a file preserving its permissions.
func writeInPlace(path string, content []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, info.Mode().Perm())
}
