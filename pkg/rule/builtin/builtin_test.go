package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treelint/treelint/pkg/rule"
)

func TestAssets_LoadCleanly(t *testing.T) {
	assets, err := Assets()
	require.NoError(t, err)
	require.NotEmpty(t, assets)

	set, diags := rule.LoadAll(assets, "", "")
	assert.Empty(t, diags, "every embedded rule must parse without diagnostics")
	assert.Equal(t, len(assets), set.Len())

	for _, r := range set.All() {
		assert.True(t, r.Builtin, "%s: embedded rules carry the builtin flag", r.ID)
		assert.NotEmpty(t, r.Languages, "%s: rule declares no languages", r.ID)
		assert.NotEmpty(t, r.Pattern, "%s: rule has no pattern body", r.ID)
	}
}

func TestAssets_ExpectedRules(t *testing.T) {
	assets, err := Assets()
	require.NoError(t, err)

	set, _ := rule.LoadAll(assets, "", "")
	for _, id := range []string{
		"no-todo-comment",
		"no-fixme-comment",
		"no-fmt-println",
		"no-console-log",
		"no-print-call",
		"empty-catch",
	} {
		_, ok := set.Get(id)
		assert.True(t, ok, "missing builtin rule %s", id)
	}
}

func TestAssets_ConsoleLogHasDeletionFix(t *testing.T) {
	assets, err := Assets()
	require.NoError(t, err)

	set, _ := rule.LoadAll(assets, "", "")
	r, ok := set.Get("no-console-log")
	require.True(t, ok)
	require.True(t, r.HasFix())
	assert.Equal(t, "", *r.Fix, "empty fix template deletes the matched span")
}
