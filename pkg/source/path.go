package source

import (
	"context"
	"path/filepath"
	"strings"
)

// PathSource resolves filesystem facts about the file under analysis.
// Supported keys: "base" (file name), "dir" (directory relative to the
// repository root), "ext" (extension without the dot). These facts are
// scoped per file, not per repository.
type PathSource struct{}

// Name returns the namespace this source registers under.
func (PathSource) Name() string { return "path" }

// Scope caches path facts per file.
func (PathSource) Scope(_ string, ec *Context) string { return ec.FilePath }

// Resolve computes the requested path fact.
func (PathSource) Resolve(_ context.Context, key string, ec *Context) (string, bool) {
	if ec.FilePath == "" {
		return "", false
	}
	switch key {
	case "base":
		return filepath.Base(ec.FilePath), true
	case "dir":
		dir := filepath.Dir(ec.FilePath)
		if ec.RepoRoot != "" {
			if rel, err := filepath.Rel(ec.RepoRoot, dir); err == nil {
				dir = rel
			}
		}
		return filepath.ToSlash(dir), true
	case "ext":
		return strings.TrimPrefix(filepath.Ext(ec.FilePath), "."), true
	default:
		return "", false
	}
}
