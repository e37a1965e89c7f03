package source

import (
	"context"
	"os/exec"
	"strings"
)

// GitSource resolves version-control facts by invoking the git CLI at
// the repository root. Supported keys: "branch" (current branch name)
// and "dirty" ("true"/"false" for uncommitted changes). Any git failure
// or timeout yields an absent fact; the registry caches the outcome per
// repository root so git runs at most once per key per run.
type GitSource struct{}

// Name returns the namespace this source registers under.
func (GitSource) Name() string { return "git" }

// Resolve computes the requested version-control fact.
func (GitSource) Resolve(ctx context.Context, key string, ec *Context) (string, bool) {
	switch key {
	case "branch":
		out, err := gitOutput(ctx, ec.RepoRoot, "rev-parse", "--abbrev-ref", "HEAD")
		if err != nil {
			return "", false
		}
		return out, true
	case "dirty":
		out, err := gitOutput(ctx, ec.RepoRoot, "status", "--porcelain")
		if err != nil {
			return "", false
		}
		if out == "" {
			return "false", true
		}
		return "true", true
	default:
		return "", false
	}
}

func gitOutput(ctx context.Context, root string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", root}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
