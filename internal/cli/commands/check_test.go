package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/treelint/treelint/pkg/finding"
)

func TestExitPolicy(t *testing.T) {
	errorsOnly := finding.Summary{Errors: 2}
	warningsOnly := finding.Summary{Warnings: 3}
	infosOnly := finding.Summary{Infos: 1}
	clean := finding.Summary{}

	tests := []struct {
		name     string
		failOn   string
		summary  finding.Summary
		wantFail bool
	}{
		{"error threshold fails on errors", "error", errorsOnly, true},
		{"error threshold passes warnings", "error", warningsOnly, false},
		{"error threshold passes infos", "error", infosOnly, false},
		{"error threshold passes clean", "error", clean, false},
		{"warning threshold fails on errors", "warning", errorsOnly, true},
		{"warning threshold fails on warnings", "warning", warningsOnly, true},
		{"warning threshold passes infos", "warning", infosOnly, false},
		{"warning threshold passes clean", "warning", clean, false},
		{"never passes errors", "never", errorsOnly, false},
		{"never passes warnings", "never", warningsOnly, false},
		{"never passes clean", "never", clean, false},
		{"mixed counts under warning", "warning", finding.Summary{Errors: 1, Warnings: 1, Infos: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exitPolicy(tt.failOn, tt.summary)
			if tt.wantFail {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
