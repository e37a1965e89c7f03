// Package builtin ships the rule definitions embedded in the binary.
// The embedded table is loaded once and passed to the rule loader by
// reference, never consulted as ambient global state.
package builtin

import (
	"embed"
	"io/fs"
	"path"

	"github.com/treelint/treelint/pkg/rule"
)

//go:embed rules/*.rule
var rulesFS embed.FS

// Assets returns the builtin name-to-content rule table.
func Assets() (rule.Assets, error) {
	assets := make(rule.Assets)
	entries, err := fs.ReadDir(rulesFS, "rules")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		content, err := fs.ReadFile(rulesFS, path.Join("rules", e.Name()))
		if err != nil {
			return nil, err
		}
		assets[e.Name()] = string(content)
	}
	return assets, nil
}
