package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/treelint/treelint/internal/cli/output"
	"github.com/treelint/treelint/pkg/engine"
	"github.com/treelint/treelint/pkg/finding"
	"github.com/treelint/treelint/pkg/rule"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Paths  []string
	Format string
	Watch  bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Run structural lint rules against source files",
		Long: `Analyze source files with the effective rule set.

Rules are loaded from three tiers: builtin rules embedded in the binary,
the user-global rule directory, and the project rule directory. Higher
tiers replace or override lower tiers by rule id.`,
		Example: `  # Check the current project
  treelint check

  # Check specific paths
  treelint check ./src ./lib

  # Machine-readable output
  treelint check --format json

  # Re-run on changes
  treelint check --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Paths = args
			}
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run on file changes")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions) error {
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

	if opts.Watch {
		return watchAndCheck(cmd.Context(), cmdCtx, r, paths)
	}

	res, err := checkOnce(cmd.Context(), cmdCtx, paths)
	if err != nil {
		return err
	}
	if err := r.Result(res); err != nil {
		return err
	}
	return exitPolicy(cmdCtx.Cfg.FailOn, res.Summary)
}

// checkOnce discovers files and runs the engine over them once.
func checkOnce(ctx context.Context, cmdCtx *CommandContext, paths []string) (*engine.Result, error) {
	files, diags := discoverFiles(paths, cmdCtx.Langs)
	cmdCtx.Log.Debug("discovered files", "count", len(files))

	runner := engine.NewRunner(cmdCtx.Langs, cmdCtx.Sources,
		engine.WithJobs(cmdCtx.Cfg.Jobs),
		engine.WithLogger(cmdCtx.Log),
		engine.WithRepoRoot(cmdCtx.Cfg.ProjectRoot),
	)
	res, err := runner.Run(ctx, cmdCtx.Rules, files)
	if err != nil {
		return nil, err
	}
	all := make([]rule.Diagnostic, 0, len(cmdCtx.LoadDiags)+len(diags)+len(res.Diagnostics))
	all = append(all, cmdCtx.LoadDiags...)
	all = append(all, diags...)
	all = append(all, res.Diagnostics...)
	res.Diagnostics = all
	return res, nil
}

// exitPolicy maps the summary onto the configured exit contract: an
// error-severity finding fails the run under "error" (the default),
// warnings also fail under "warning", and "never" always exits clean.
func exitPolicy(failOn string, s finding.Summary) error {
	switch failOn {
	case "never":
		return nil
	case "warning":
		if s.Errors > 0 || s.Warnings > 0 {
			return fmt.Errorf("found %d errors, %d warnings", s.Errors, s.Warnings)
		}
	default: // "error"
		if s.Errors > 0 {
			return fmt.Errorf("found %d errors", s.Errors)
		}
	}
	return nil
}

// watchAndCheck re-runs the check whenever a watched path or the project
// rule directory changes. Events are debounced so editor write bursts
// trigger one run.
func watchAndCheck(ctx context.Context, cmdCtx *CommandContext, r *output.Renderer, paths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, p := range paths {
		if err := watcher.Add(p); err != nil {
			cmdCtx.Log.Warn("cannot watch path", "path", p, "error", err)
		}
	}
	if _, err := os.Stat(cmdCtx.Cfg.RulesDir); err == nil {
		if err := watcher.Add(cmdCtx.Cfg.RulesDir); err != nil {
			cmdCtx.Log.Warn("cannot watch rules dir", "path", cmdCtx.Cfg.RulesDir, "error", err)
		}
	}

	run := func() {
		res, err := checkOnce(ctx, cmdCtx, paths)
		if err != nil {
			cmdCtx.Log.Error("check failed", "error", err)
			return
		}
		_ = r.Result(res)
	}
	run()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(250*time.Millisecond, run)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmdCtx.Log.Warn("watch error", "error", err)
		}
	}
}
