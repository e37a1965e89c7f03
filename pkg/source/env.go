package source

import (
	"context"
	"os"
)

// EnvSource resolves facts from process environment variables.
// Keys map directly to variable names: "env.CI" reads $CI.
type EnvSource struct{}

// Name returns the namespace this source registers under.
func (EnvSource) Name() string { return "env" }

// Resolve looks up the environment variable named by key. An unset
// variable is an absent fact.
func (EnvSource) Resolve(_ context.Context, key string, _ *Context) (string, bool) {
	return os.LookupEnv(key)
}
