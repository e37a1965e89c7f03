package config

import (
	"fmt"
	"time"
)

var validFailOn = map[string]bool{"error": true, "warning": true, "never": true}

var validOutput = map[string]bool{"auto": true, "text": true, "json": true}

// Validate checks a loaded configuration for contradictions before any
// command runs with it.
func Validate(cfg *Config) error {
	if !validFailOn[cfg.FailOn] {
		return fmt.Errorf("invalid fail_on %q, must be one of: error, warning, never", cfg.FailOn)
	}
	if !validOutput[cfg.OutputFormat] {
		return fmt.Errorf("invalid output %q, must be one of: auto, text, json", cfg.OutputFormat)
	}
	if cfg.Jobs < 0 {
		return fmt.Errorf("jobs must be zero or positive, got %d", cfg.Jobs)
	}
	if cfg.SourceTimeout != "" {
		if d, err := time.ParseDuration(cfg.SourceTimeout); err != nil || d <= 0 {
			return fmt.Errorf("invalid source_timeout %q", cfg.SourceTimeout)
		}
	}
	return nil
}
