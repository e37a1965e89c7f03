package source

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource records how many times Resolve runs.
type countingSource struct {
	calls atomic.Int64
	value string
}

func (c *countingSource) Name() string { return "count" }

func (c *countingSource) Resolve(_ context.Context, key string, _ *Context) (string, bool) {
	c.calls.Add(1)
	if key == "missing" {
		return "", false
	}
	return c.value, true
}

func TestRegistry_CachesResolution(t *testing.T) {
	src := &countingSource{value: "42"}
	reg := NewRegistry()
	reg.Register(src)
	ec := &Context{RepoRoot: "/repo"}

	for i := 0; i < 5; i++ {
		v, ok := reg.Resolve(context.Background(), "count.answer", ec)
		require.True(t, ok)
		assert.Equal(t, "42", v)
	}
	assert.Equal(t, int64(1), src.calls.Load(), "cached after first resolution")
}

func TestRegistry_CachesAbsence(t *testing.T) {
	src := &countingSource{}
	reg := NewRegistry()
	reg.Register(src)
	ec := &Context{RepoRoot: "/repo"}

	for i := 0; i < 3; i++ {
		_, ok := reg.Resolve(context.Background(), "count.missing", ec)
		assert.False(t, ok)
	}
	assert.Equal(t, int64(1), src.calls.Load(), "absence is cached, not retried")
}

func TestRegistry_ConcurrentSingleResolution(t *testing.T) {
	src := &countingSource{value: "x"}
	reg := NewRegistry()
	reg.Register(src)
	ec := &Context{RepoRoot: "/repo"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, ok := reg.Resolve(context.Background(), "count.answer", ec)
			assert.True(t, ok)
			assert.Equal(t, "x", v)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), src.calls.Load(), "concurrent lookups share one resolution")
}

func TestRegistry_UnknownNamespace(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Resolve(context.Background(), "nope.key", &Context{})
	assert.False(t, ok)
}

func TestRegistry_MalformedKey(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&countingSource{value: "x"})
	for _, key := range []string{"nodot", ".leading", "trailing.", ""} {
		_, ok := reg.Resolve(context.Background(), key, &Context{})
		assert.False(t, ok, "key %q", key)
	}
}

func TestRegistry_ReplaceNamespace(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&countingSource{value: "first"})
	reg.Register(&countingSource{value: "second"})

	v, ok := reg.Resolve(context.Background(), "count.answer", &Context{})
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestRegistry_SetTimeoutIgnoresNonPositive(t *testing.T) {
	reg := NewRegistry()
	reg.SetTimeout(0)
	assert.Equal(t, DefaultTimeout, reg.timeout)
	reg.SetTimeout(-time.Second)
	assert.Equal(t, DefaultTimeout, reg.timeout)
	reg.SetTimeout(5 * time.Second)
	assert.Equal(t, 5*time.Second, reg.timeout)
}

func TestPathSource_PerFileScope(t *testing.T) {
	reg := NewRegistry()
	reg.Register(PathSource{})

	a := &Context{RepoRoot: "/repo", FilePath: "/repo/src/a.go"}
	b := &Context{RepoRoot: "/repo", FilePath: "/repo/src/util/b.py"}

	v, ok := reg.Resolve(context.Background(), "path.ext", a)
	require.True(t, ok)
	assert.Equal(t, "go", v)

	// A second file must not hit the first file's cached value.
	v, ok = reg.Resolve(context.Background(), "path.ext", b)
	require.True(t, ok)
	assert.Equal(t, "py", v)

	v, ok = reg.Resolve(context.Background(), "path.base", b)
	require.True(t, ok)
	assert.Equal(t, "b.py", v)

	v, ok = reg.Resolve(context.Background(), "path.dir", b)
	require.True(t, ok)
	assert.Equal(t, "src/util", v)
}

func TestEnvSource(t *testing.T) {
	t.Setenv("TREELINT_TEST_FACT", "on")

	src := EnvSource{}
	v, ok := src.Resolve(context.Background(), "TREELINT_TEST_FACT", &Context{})
	require.True(t, ok)
	assert.Equal(t, "on", v)

	_, ok = src.Resolve(context.Background(), "TREELINT_TEST_FACT_UNSET", &Context{})
	assert.False(t, ok)
}

func TestNewDefaultRegistry_Namespaces(t *testing.T) {
	reg := NewDefaultRegistry()
	for _, ns := range []string{"env", "git", "path", "go", "node", "rust", "python"} {
		_, ok := reg.Lookup(ns)
		assert.True(t, ok, "missing namespace %s", ns)
	}
}
