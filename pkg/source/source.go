// Package source provides named fact providers consulted by rules'
// requires clauses. Each provider registers under a namespace; dotted
// fact keys ("git.branch") route to the provider owning the prefix.
// Resolution is lazy and cached for the lifetime of an evaluation
// context so that repeated lookups never re-invoke external processes.
package source

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds external-process fact resolution. On timeout the
// fact is treated as absent rather than aborting the run.
const DefaultTimeout = 2 * time.Second

// Context is the evaluation context facts are resolved against.
type Context struct {
	// RepoRoot anchors repository-scoped facts (version control state,
	// project manifests).
	RepoRoot string

	// FilePath is the file currently under analysis, for per-file facts.
	FilePath string
}

// Source is a named fact provider. Resolve returns the fact value and
// true, or false when the fact is absent or could not be determined.
// A failed resolution is absence, never an error.
type Source interface {
	Name() string
	Resolve(ctx context.Context, key string, ec *Context) (string, bool)
}

// Scoper is an optional capability: a source that caches at a finer
// scope than the repository root (e.g. per file) returns a distinct
// scope token per cache unit.
type Scoper interface {
	Scope(key string, ec *Context) string
}

// cached is a resolved fact value; ok=false records a cached absence.
type cached struct {
	value string
	ok    bool
}

// Registry routes fact keys to sources by namespace prefix and caches
// resolved values per (key, scope). Population is synchronized per key:
// the first resolver computes while concurrent lookups of the same key
// wait, so external processes run at most once per evaluation scope.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source

	timeout time.Duration
	cache   sync.Map // cacheKey -> cached
	group   singleflight.Group
}

// NewRegistry creates an empty registry with the default resolution timeout.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]Source),
		timeout: DefaultTimeout,
	}
}

// NewDefaultRegistry creates a registry with all standard providers:
// environment, version control, path facts, and per-ecosystem metadata.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(EnvSource{})
	r.Register(GitSource{})
	r.Register(PathSource{})
	r.Register(GoSource{})
	r.Register(NodeSource{})
	r.Register(RustSource{})
	r.Register(PythonSource{})
	return r
}

// SetTimeout overrides the external-process resolution timeout.
func (r *Registry) SetTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

// Register adds a source under its namespace. Later registrations of the
// same namespace replace earlier ones.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.Name()] = s
}

// Lookup returns the source registered for a namespace.
func (r *Registry) Lookup(namespace string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[namespace]
	return s, ok
}

// Namespaces returns the registered namespaces.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sources))
	for ns := range r.sources {
		out = append(out, ns)
	}
	return out
}

// Resolve routes a dotted fact key to its source and returns the cached
// or freshly computed value. An unknown namespace, a failed resolution,
// or a timeout all yield absence.
func (r *Registry) Resolve(ctx context.Context, dottedKey string, ec *Context) (string, bool) {
	namespace, key, ok := splitKey(dottedKey)
	if !ok {
		return "", false
	}
	src, ok := r.Lookup(namespace)
	if !ok {
		return "", false
	}

	scope := ec.RepoRoot
	if sc, ok := src.(Scoper); ok {
		scope = sc.Scope(key, ec)
	}
	ck := namespace + "\x00" + key + "\x00" + scope

	if v, ok := r.cache.Load(ck); ok {
		c := v.(cached)
		return c.value, c.ok
	}

	v, _, _ := r.group.Do(ck, func() (any, error) {
		// Re-check: a concurrent resolver may have stored the value
		// between the cache miss and entering the group.
		if v, ok := r.cache.Load(ck); ok {
			return v.(cached), nil
		}
		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		value, ok := src.Resolve(rctx, key, ec)
		c := cached{value: value, ok: ok}
		r.cache.Store(ck, c)
		return c, nil
	})
	c := v.(cached)
	return c.value, c.ok
}

// splitKey splits "namespace.key" at the first dot.
func splitKey(dottedKey string) (namespace, key string, ok bool) {
	for i := 0; i < len(dottedKey); i++ {
		if dottedKey[i] == '.' {
			if i == 0 || i == len(dottedKey)-1 {
				return "", "", false
			}
			return dottedKey[:i], dottedKey[i+1:], true
		}
	}
	return "", "", false
}
