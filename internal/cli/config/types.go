// Package config provides configuration management for the treelint CLI.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	// RulesDir is the project rule tier, resolved relative to the
	// project root.
	RulesDir string `koanf:"rules_dir"`

	// UserRulesDir is the user-global rule tier. Defaults to
	// <user config dir>/treelint/rules.
	UserRulesDir string `koanf:"user_rules_dir"`

	// Paths are the files or directories to analyze when none are given
	// on the command line.
	Paths []string `koanf:"paths"`

	// Jobs bounds the per-file worker pool; zero means one per CPU.
	Jobs int `koanf:"jobs"`

	// FailOn selects which finding severity causes a non-zero exit:
	// "error", "warning", or "never".
	FailOn string `koanf:"fail_on"`

	// OutputFormat is one of auto, text, json.
	OutputFormat string `koanf:"output"`

	Verbose bool `koanf:"verbose"`

	// SourceTimeout bounds external fact resolution (e.g. "2s").
	SourceTimeout string `koanf:"source_timeout"`

	// ProjectRoot anchors relative paths and repository-scoped facts.
	// Inferred, never read from the config file.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultRulesDir      = ".treelint/rules"
	DefaultFailOn        = "error"
	DefaultOutput        = "auto"
	DefaultSourceTimeout = "2s"
)

// ParsedSourceTimeout returns the source timeout as a duration, falling
// back to the default on a malformed value (validation reports it).
func (c *Config) ParsedSourceTimeout() time.Duration {
	d, err := time.ParseDuration(c.SourceTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultSourceTimeout)
	}
	return d
}
