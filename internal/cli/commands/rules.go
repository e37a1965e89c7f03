package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treelint/treelint/internal/cli/output"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Format   string
	Language string
	All      bool
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List the effective rule set",
		Long: `List the rules that would execute, after tier resolution.

Each rule shows the tier its effective definition came from: builtin,
user, or project. Disabled rules are hidden unless --all is given.`,
		Example: `  # List enabled rules
  treelint rules

  # Include disabled rules
  treelint rules --all

  # Show one rule in full
  treelint rules no-todo-comment

  # JSON listing
  treelint rules --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")
	cmd.Flags().StringVarP(&opts.Language, "language", "l", "", "Only rules for a language")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Include disabled rules")
	return cmd
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	var rows []output.RuleRow
	for _, rl := range cmdCtx.Rules.All() {
		if !opts.All && !rl.Enabled {
			continue
		}
		if opts.Language != "" && !rl.AppliesTo(opts.Language) {
			continue
		}
		rows = append(rows, output.RuleRow{
			ID:        rl.ID,
			Severity:  rl.Severity.String(),
			Languages: rl.Languages,
			Tier:      rl.Tier.String(),
			Enabled:   rl.Enabled,
			HasFix:    rl.HasFix(),
			Source:    rl.SourcePath,
		})
	}
	r.Diagnostics(cmdCtx.LoadDiags)
	return r.Rules(rows)
}

func showRule(cmd *cobra.Command, id string, opts *RulesOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	rl, ok := cmdCtx.Rules.Get(id)
	if !ok {
		return fmt.Errorf("unknown rule id %q", id)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:        %s\n", rl.ID)
	fmt.Fprintf(out, "severity:  %s\n", rl.Severity)
	fmt.Fprintf(out, "languages: %s\n", strings.Join(rl.Languages, ", "))
	fmt.Fprintf(out, "tier:      %s\n", rl.Tier)
	fmt.Fprintf(out, "enabled:   %v\n", rl.Enabled)
	fmt.Fprintf(out, "message:   %s\n", rl.Message)
	if len(rl.Allow) > 0 {
		globs := make([]string, len(rl.Allow))
		for i, g := range rl.Allow {
			globs[i] = g.Source
		}
		fmt.Fprintf(out, "allow:     %s\n", strings.Join(globs, ", "))
	}
	if len(rl.Requires) > 0 {
		fmt.Fprintln(out, "requires:")
		for key, req := range rl.Requires {
			fmt.Fprintf(out, "  %s %s %s\n", key, req.Op, req.Value)
		}
	}
	if rl.HasFix() {
		if *rl.Fix == "" {
			fmt.Fprintln(out, "fix:       delete matched span")
		} else {
			fmt.Fprintf(out, "fix:       %s\n", *rl.Fix)
		}
	}
	if rl.SourcePath != "" {
		fmt.Fprintf(out, "source:    %s\n", rl.SourcePath)
	}
	fmt.Fprintf(out, "pattern:\n%s\n", rl.Pattern)
	return nil
}
