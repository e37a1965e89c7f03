package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteCaptures(t *testing.T) {
	captures := map[string]string{"fn": "fmt.Println", "arg": "x"}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"single token", "replace ${fn}", "replace fmt.Println"},
		{"multiple tokens", "${fn}(${arg})", "fmt.Println(x)"},
		{"no tokens", "plain message", "plain message"},
		{"unknown token kept", "found ${nope} here", "found ${nope} here"},
		{"adjacent tokens", "${fn}${arg}", "fmt.Printlnx"},
		{"empty template", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, substituteCaptures(tt.template, captures))
		})
	}
}

func TestSubstituteCaptures_NoCaptures(t *testing.T) {
	assert.Equal(t, "kept ${fn} as-is", substituteCaptures("kept ${fn} as-is", nil))
}
