package source

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Ecosystem sources resolve declared language metadata from the project
// manifest at the repository root. A missing or unparseable manifest
// yields absent facts.

// GoSource resolves facts from go.mod. Supported keys: "version" (the
// go directive) and "module" (the module path).
type GoSource struct{}

// Name returns the namespace this source registers under.
func (GoSource) Name() string { return "go" }

// Resolve reads the requested directive from go.mod.
func (GoSource) Resolve(_ context.Context, key string, ec *Context) (string, bool) {
	content, err := os.ReadFile(filepath.Join(ec.RepoRoot, "go.mod"))
	if err != nil {
		return "", false
	}
	var directive string
	switch key {
	case "version":
		directive = "go"
	case "module":
		directive = "module"
	default:
		return "", false
	}
	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == directive {
			return fields[1], true
		}
	}
	return "", false
}

// NodeSource resolves facts from package.json. Supported keys: "name",
// "version", and "engine" (the declared engines.node constraint).
type NodeSource struct{}

// Name returns the namespace this source registers under.
func (NodeSource) Name() string { return "node" }

// Resolve reads the requested field from package.json.
func (NodeSource) Resolve(_ context.Context, key string, ec *Context) (string, bool) {
	content, err := os.ReadFile(filepath.Join(ec.RepoRoot, "package.json"))
	if err != nil {
		return "", false
	}
	var manifest struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Engines struct {
			Node string `json:"node"`
		} `json:"engines"`
	}
	if err := json.Unmarshal(content, &manifest); err != nil {
		return "", false
	}
	switch key {
	case "name":
		return manifest.Name, manifest.Name != ""
	case "version":
		return manifest.Version, manifest.Version != ""
	case "engine":
		return manifest.Engines.Node, manifest.Engines.Node != ""
	default:
		return "", false
	}
}

// RustSource resolves facts from Cargo.toml. Supported keys: "name",
// "version", and "edition".
type RustSource struct{}

// Name returns the namespace this source registers under.
func (RustSource) Name() string { return "rust" }

// Resolve reads the requested field from the [package] table.
func (RustSource) Resolve(_ context.Context, key string, ec *Context) (string, bool) {
	var manifest struct {
		Package struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
			Edition string `toml:"edition"`
		} `toml:"package"`
	}
	if _, err := toml.DecodeFile(filepath.Join(ec.RepoRoot, "Cargo.toml"), &manifest); err != nil {
		return "", false
	}
	switch key {
	case "name":
		return manifest.Package.Name, manifest.Package.Name != ""
	case "version":
		return manifest.Package.Version, manifest.Package.Version != ""
	case "edition":
		return manifest.Package.Edition, manifest.Package.Edition != ""
	default:
		return "", false
	}
}

// PythonSource resolves facts from pyproject.toml. Supported keys:
// "name", "version", and "requires" (the requires-python constraint).
type PythonSource struct{}

// Name returns the namespace this source registers under.
func (PythonSource) Name() string { return "python" }

// Resolve reads the requested field from the [project] table.
func (PythonSource) Resolve(_ context.Context, key string, ec *Context) (string, bool) {
	var manifest struct {
		Project struct {
			Name           string `toml:"name"`
			Version        string `toml:"version"`
			RequiresPython string `toml:"requires-python"`
		} `toml:"project"`
	}
	if _, err := toml.DecodeFile(filepath.Join(ec.RepoRoot, "pyproject.toml"), &manifest); err != nil {
		return "", false
	}
	switch key {
	case "name":
		return manifest.Project.Name, manifest.Project.Name != ""
	case "version":
		return manifest.Project.Version, manifest.Project.Version != ""
	case "requires":
		return manifest.Project.RequiresPython, manifest.Project.RequiresPython != ""
	default:
		return "", false
	}
}
