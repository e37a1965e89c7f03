// Package lang maps language names and file extensions to tree-sitter
// grammars. The engine consumes this through a small provider interface;
// adding a language means adding one entry here.
package lang

import (
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Registry holds the supported grammars keyed by language name.
type Registry struct {
	languages  map[string]*sitter.Language
	extensions map[string]string
}

// NewRegistry creates a registry with all supported languages.
func NewRegistry() *Registry {
	return &Registry{
		languages: map[string]*sitter.Language{
			"go":         golang.GetLanguage(),
			"javascript": javascript.GetLanguage(),
			"typescript": typescript.GetLanguage(),
			"python":     python.GetLanguage(),
			"rust":       rust.GetLanguage(),
			"java":       java.GetLanguage(),
			"ruby":       ruby.GetLanguage(),
		},
		extensions: map[string]string{
			".go":   "go",
			".js":   "javascript",
			".jsx":  "javascript",
			".mjs":  "javascript",
			".cjs":  "javascript",
			".ts":   "typescript",
			".py":   "python",
			".rs":   "rust",
			".java": "java",
			".rb":   "ruby",
		},
	}
}

// Get returns the grammar for a language name.
func (r *Registry) Get(name string) (*sitter.Language, bool) {
	l, ok := r.languages[name]
	return l, ok
}

// Detect infers the language of a file from its extension. Returns the
// language name and true, or false for unsupported files.
func (r *Registry) Detect(path string) (string, bool) {
	name, ok := r.extensions[strings.ToLower(filepath.Ext(path))]
	return name, ok
}

// Supported returns the supported language names, sorted.
func (r *Registry) Supported() []string {
	out := make([]string, 0, len(r.languages))
	for name := range r.languages {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
