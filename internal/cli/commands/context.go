// Package commands implements the treelint subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/treelint/treelint/internal/cli/config"
	"github.com/treelint/treelint/internal/cli/output"
	"github.com/treelint/treelint/internal/lang"
	"github.com/treelint/treelint/pkg/rule"
	"github.com/treelint/treelint/pkg/rule/builtin"
	"github.com/treelint/treelint/pkg/source"
)

// configKey stores the loaded config in command context.
type configKey struct{}

// rendererKey stores the renderer in command context.
type rendererKey struct{}

// WithConfig stores the config in a context. Called by the root command
// after loading.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithRenderer stores the renderer in a context.
func WithRenderer(ctx context.Context, r *output.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// CommandContext bundles everything a command needs: configuration,
// renderer, logger, the effective rule set with its load diagnostics,
// and the grammar/fact registries.
type CommandContext struct {
	Cfg       *config.Config
	Renderer  *output.Renderer
	Log       *slog.Logger
	Rules     *rule.Set
	LoadDiags []rule.Diagnostic
	Langs     *lang.Registry
	Sources   *source.Registry
}

// NewCommandContext assembles the command context, loading the three
// rule tiers. Load problems are diagnostics, not errors; only a missing
// config or broken builtin table fails here.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	ctx := cmd.Context()
	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	renderer, ok := ctx.Value(rendererKey{}).(*output.Renderer)
	if !ok || renderer == nil {
		renderer = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto)
	}

	assets, err := builtin.Assets()
	if err != nil {
		return nil, fmt.Errorf("failed to load builtin rules: %w", err)
	}
	set, diags := rule.LoadAll(assets, cfg.UserRulesDir, cfg.RulesDir)

	sources := source.NewDefaultRegistry()
	sources.SetTimeout(cfg.ParsedSourceTimeout())

	return &CommandContext{
		Cfg:       cfg,
		Renderer:  renderer,
		Log:       config.GetLogger(ctx),
		Rules:     set,
		LoadDiags: diags,
		Langs:     lang.NewRegistry(),
		Sources:   sources,
	}, nil
}
