package commands

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/treelint/treelint/internal/lang"
	"github.com/treelint/treelint/pkg/engine"
	"github.com/treelint/treelint/pkg/rule"
)

// skipDirs are directory names never descended into during discovery.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
}

// discoverFiles walks the given paths and returns candidate inputs for
// every file whose language is supported. Unreadable paths produce
// diagnostics, never abort discovery. Results are sorted by path.
func discoverFiles(paths []string, langs *lang.Registry) ([]engine.FileInput, []rule.Diagnostic) {
	var files []engine.FileInput
	var diags []rule.Diagnostic
	seen := make(map[string]bool)

	add := func(path string) {
		if seen[path] {
			return
		}
		language, ok := langs.Detect(path)
		if !ok {
			return
		}
		seen[path] = true
		files = append(files, engine.FileInput{Path: path, Language: language})
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			diags = append(diags, rule.Diagnostic{Stage: rule.StageRead, Path: p, Message: err.Error()})
			continue
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				diags = append(diags, rule.Diagnostic{Stage: rule.StageRead, Path: path, Message: err.Error()})
				return nil
			}
			if d.IsDir() {
				name := d.Name()
				if skipDirs[name] || (strings.HasPrefix(name, ".") && path != p) {
					return filepath.SkipDir
				}
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			diags = append(diags, rule.Diagnostic{Stage: rule.StageRead, Path: p, Message: err.Error()})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, diags
}
