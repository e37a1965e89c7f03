package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
}

func TestGoSource(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "go.mod", `module example.com/demo

go 1.22.0

require gopkg.in/yaml.v3 v3.0.1
`)
	ec := &Context{RepoRoot: root}
	src := GoSource{}

	v, ok := src.Resolve(context.Background(), "version", ec)
	require.True(t, ok)
	assert.Equal(t, "1.22.0", v)

	v, ok = src.Resolve(context.Background(), "module", ec)
	require.True(t, ok)
	assert.Equal(t, "example.com/demo", v)

	_, ok = src.Resolve(context.Background(), "unknown", ec)
	assert.False(t, ok)
}

func TestGoSource_MissingManifest(t *testing.T) {
	ec := &Context{RepoRoot: t.TempDir()}
	_, ok := GoSource{}.Resolve(context.Background(), "version", ec)
	assert.False(t, ok)
}

func TestNodeSource(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "package.json", `{
  "name": "demo-app",
  "version": "2.1.0",
  "engines": {"node": ">=20"}
}`)
	ec := &Context{RepoRoot: root}
	src := NodeSource{}

	v, ok := src.Resolve(context.Background(), "name", ec)
	require.True(t, ok)
	assert.Equal(t, "demo-app", v)

	v, ok = src.Resolve(context.Background(), "version", ec)
	require.True(t, ok)
	assert.Equal(t, "2.1.0", v)

	v, ok = src.Resolve(context.Background(), "engine", ec)
	require.True(t, ok)
	assert.Equal(t, ">=20", v)
}

func TestNodeSource_BadJSON(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "package.json", `{not json`)
	_, ok := NodeSource{}.Resolve(context.Background(), "name", &Context{RepoRoot: root})
	assert.False(t, ok)
}

func TestRustSource(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "Cargo.toml", `[package]
name = "demo"
version = "0.3.1"
edition = "2021"
`)
	ec := &Context{RepoRoot: root}
	src := RustSource{}

	v, ok := src.Resolve(context.Background(), "edition", ec)
	require.True(t, ok)
	assert.Equal(t, "2021", v)

	v, ok = src.Resolve(context.Background(), "version", ec)
	require.True(t, ok)
	assert.Equal(t, "0.3.1", v)

	_, ok = src.Resolve(context.Background(), "authors", ec)
	assert.False(t, ok)
}

func TestPythonSource(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "pyproject.toml", `[project]
name = "demo"
version = "1.0.0"
requires-python = ">=3.11"
`)
	ec := &Context{RepoRoot: root}
	src := PythonSource{}

	v, ok := src.Resolve(context.Background(), "requires", ec)
	require.True(t, ok)
	assert.Equal(t, ">=3.11", v)

	v, ok = src.Resolve(context.Background(), "name", ec)
	require.True(t, ok)
	assert.Equal(t, "demo", v)
}

func TestPythonSource_AbsentField(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "pyproject.toml", `[project]
name = "demo"
`)
	_, ok := PythonSource{}.Resolve(context.Background(), "requires", &Context{RepoRoot: root})
	assert.False(t, ok)
}
