package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treelint/treelint/internal/lang"
	"github.com/treelint/treelint/pkg/finding"
	"github.com/treelint/treelint/pkg/rule"
	"github.com/treelint/treelint/pkg/source"
)

func loadSet(t *testing.T, assets rule.Assets) *rule.Set {
	t.Helper()
	set, diags := rule.LoadAll(assets, "", "")
	require.Empty(t, diags)
	return set
}

func newTestRunner(opts ...Option) *Runner {
	return NewRunner(lang.NewRegistry(), source.NewRegistry(), opts...)
}

const todoRule = `---
id: no-todo-comment
severity: warning
message: comment contains a TODO marker
languages: [go]
---
((comment) @comment (#match? @comment "TODO"))`

const goFile = `package main

// TODO: remove this before release
func main() {}
`

func TestRun_SingleFinding(t *testing.T) {
	set := loadSet(t, rule.Assets{"todo.rule": todoRule})
	runner := newTestRunner()

	res, err := runner.Run(context.Background(), set, []FileInput{
		{Path: "main.go", Language: "go", Content: []byte(goFile)},
	})
	require.NoError(t, err)
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Findings, 1)

	f := res.Findings[0]
	assert.Equal(t, "no-todo-comment", f.RuleID)
	assert.Equal(t, rule.SeverityWarning, f.Severity)
	assert.Equal(t, "main.go", f.File)
	assert.Equal(t, uint32(3), f.StartLine)
	assert.Equal(t, uint32(1), f.StartColumn)
	assert.Nil(t, f.FixEdit)
	assert.Equal(t, finding.Summary{Warnings: 1}, res.Summary)

	span := goFile[f.StartByte:f.EndByte]
	assert.Equal(t, "// TODO: remove this before release", span)
}

func TestRun_CleanFileNoFindings(t *testing.T) {
	set := loadSet(t, rule.Assets{"todo.rule": todoRule})
	runner := newTestRunner()

	res, err := runner.Run(context.Background(), set, []FileInput{
		{Path: "clean.go", Language: "go", Content: []byte("package main\n\nfunc main() {}\n")},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Findings)
	assert.Equal(t, 0, res.Summary.Count())
}

func TestRun_PatternIndexMapsToCorrectRule(t *testing.T) {
	// One rule carries two patterns; a second rule carries one. Matches
	// from the combined query must attribute back to the right rule.
	multiPattern := `---
id: no-task-markers
severity: info
message: task marker
languages: [go]
---
((comment) @c (#match? @c "TODO"))
((comment) @c (#match? @c "HACK"))`
	printlnRule := `---
id: no-fmt-println
severity: warning
message: use a logger
languages: [go]
---
(call_expression
  function: (selector_expression) @fn
  (#eq? @fn "fmt.Println"))`

	set := loadSet(t, rule.Assets{"markers.rule": multiPattern, "println.rule": printlnRule})
	runner := newTestRunner()

	content := `package main

import "fmt"

// HACK: temporary workaround
func main() {
	// TODO: clean up
	fmt.Println("hi")
}
`
	res, err := runner.Run(context.Background(), set, []FileInput{
		{Path: "main.go", Language: "go", Content: []byte(content)},
	})
	require.NoError(t, err)
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Findings, 3)

	byRule := map[string]int{}
	for _, f := range res.Findings {
		byRule[f.RuleID]++
	}
	assert.Equal(t, 2, byRule["no-task-markers"])
	assert.Equal(t, 1, byRule["no-fmt-println"])
}

func TestRun_AllowGlobSuppresses(t *testing.T) {
	allowed := `---
id: no-todo-comment
severity: warning
message: comment contains a TODO marker
languages: [go]
allow:
  - "**/*_test.go"
---
((comment) @comment (#match? @comment "TODO"))`
	set := loadSet(t, rule.Assets{"todo.rule": allowed})
	runner := newTestRunner()

	res, err := runner.Run(context.Background(), set, []FileInput{
		{Path: "pkg/a/main.go", Language: "go", Content: []byte(goFile)},
		{Path: "pkg/a/main_test.go", Language: "go", Content: []byte(goFile)},
	})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "pkg/a/main.go", res.Findings[0].File)
}

func TestRun_AllowGlobIgnoresPathSpelling(t *testing.T) {
	// The same file must be suppressed whether it was discovered from
	// the project root (absolute path) or addressed relatively.
	allowed := `---
id: no-todo-comment
severity: warning
message: comment contains a TODO marker
languages: [go]
allow:
  - "**/tests/**"
---
((comment) @comment (#match? @comment "TODO"))`
	set := loadSet(t, rule.Assets{"todo.rule": allowed})
	runner := newTestRunner(WithRepoRoot("/proj"))

	res, err := runner.Run(context.Background(), set, []FileInput{
		{Path: "/proj/tests/foo.go", Language: "go", Content: []byte(goFile)},
		{Path: "tests/foo.go", Language: "go", Content: []byte(goFile)},
		{Path: "src/main.go", Language: "go", Content: []byte(goFile)},
	})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1, "both spellings of tests/foo.go are suppressed")
	assert.Equal(t, "src/main.go", res.Findings[0].File)
}

func TestRun_RequiresFiltersFindings(t *testing.T) {
	gated := `---
id: gated
severity: warning
message: gated finding
languages: [go]
requires:
  stub.mode: "= strict"
---
((comment) @comment (#match? @comment "TODO"))`
	set := loadSet(t, rule.Assets{"gated.rule": gated})

	files := []FileInput{{Path: "main.go", Language: "go", Content: []byte(goFile)}}

	// Fact does not satisfy the clause: no findings.
	reg := source.NewRegistry()
	reg.Register(factSource{"mode": "lenient"})
	res, err := NewRunner(lang.NewRegistry(), reg).Run(context.Background(), set, files)
	require.NoError(t, err)
	assert.Empty(t, res.Findings)

	// Fact satisfies the clause: the finding surfaces.
	reg = source.NewRegistry()
	reg.Register(factSource{"mode": "strict"})
	res, err = NewRunner(lang.NewRegistry(), reg).Run(context.Background(), set, files)
	require.NoError(t, err)
	assert.Len(t, res.Findings, 1)
}

// factSource is a fixed fact table under the "stub" namespace.
type factSource map[string]string

func (factSource) Name() string { return "stub" }

func (s factSource) Resolve(_ context.Context, key string, _ *source.Context) (string, bool) {
	v, ok := s[key]
	return v, ok
}

func TestRun_MessageCaptureSubstitution(t *testing.T) {
	named := `---
id: no-fmt-println
severity: warning
message: "replace ${fn} with a logger call"
languages: [go]
---
(call_expression
  function: (selector_expression) @fn
  (#eq? @fn "fmt.Println"))`
	set := loadSet(t, rule.Assets{"println.rule": named})
	runner := newTestRunner()

	content := "package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println(1) }\n"
	res, err := runner.Run(context.Background(), set, []FileInput{
		{Path: "main.go", Language: "go", Content: []byte(content)},
	})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "replace fmt.Println with a logger call", res.Findings[0].Message)
}

func TestRun_FixEditFromTemplate(t *testing.T) {
	fixed := `---
id: no-console-log
severity: warning
message: no console.log
languages: [javascript]
fix: ""
---
(call_expression
  function: (member_expression) @fn
  (#eq? @fn "console.log")) @call`
	set := loadSet(t, rule.Assets{"console.rule": fixed})
	runner := newTestRunner()

	content := "console.log(x);\n"
	res, err := runner.Run(context.Background(), set, []FileInput{
		{Path: "app.js", Language: "javascript", Content: []byte(content)},
	})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)

	e := res.Findings[0].FixEdit
	require.NotNil(t, e)
	assert.Equal(t, "", e.Text, "empty template deletes the span")
	assert.Equal(t, "console.log(x)", content[e.StartByte:e.EndByte])
}

func TestRun_Deterministic(t *testing.T) {
	set := loadSet(t, rule.Assets{"todo.rule": todoRule})
	files := []FileInput{
		{Path: "b.go", Language: "go", Content: []byte(goFile)},
		{Path: "a.go", Language: "go", Content: []byte(goFile)},
		{Path: "c.go", Language: "go", Content: []byte("package main\n// TODO one\n// TODO two\n")},
	}

	runner := newTestRunner(WithJobs(4))
	first, err := runner.Run(context.Background(), set, files)
	require.NoError(t, err)
	second, err := runner.Run(context.Background(), set, files)
	require.NoError(t, err)

	assert.Equal(t, first.Findings, second.Findings)

	// Global order: file path, then start offset, then rule id.
	require.Len(t, first.Findings, 4)
	assert.Equal(t, "a.go", first.Findings[0].File)
	assert.Equal(t, "b.go", first.Findings[1].File)
	assert.Equal(t, "c.go", first.Findings[2].File)
	assert.Less(t, first.Findings[2].StartByte, first.Findings[3].StartByte)
}

func TestRun_ReadsFileWhenContentNil(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte(goFile), 0o644))

	set := loadSet(t, rule.Assets{"todo.rule": todoRule})
	res, err := newTestRunner().Run(context.Background(), set, []FileInput{
		{Path: path, Language: "go"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Findings, 1)
}

func TestRun_ReadFailureIsDiagnostic(t *testing.T) {
	set := loadSet(t, rule.Assets{"todo.rule": todoRule})
	res, err := newTestRunner().Run(context.Background(), set, []FileInput{
		{Path: filepath.Join(t.TempDir(), "missing.go"), Language: "go"},
		{Path: "ok.go", Language: "go", Content: []byte(goFile)},
	})
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, rule.StageRead, res.Diagnostics[0].Stage)
	assert.Len(t, res.Findings, 1, "a failed read never discards other files")
}

func TestRun_BadPatternIsCompileDiagnostic(t *testing.T) {
	bad := `---
id: broken
severity: warning
message: never fires
languages: [go]
---
((nonsense_node_kind) @x)`
	set := loadSet(t, rule.Assets{"bad.rule": bad, "todo.rule": todoRule})
	res, err := newTestRunner().Run(context.Background(), set, []FileInput{
		{Path: "main.go", Language: "go", Content: []byte(goFile)},
	})
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, rule.StageCompile, res.Diagnostics[0].Stage)
	assert.Equal(t, "broken", res.Diagnostics[0].RuleID)
	assert.Len(t, res.Findings, 1, "remaining rules still execute")
}

func TestRun_UnsupportedLanguageDiagnostic(t *testing.T) {
	obscure := `---
id: obscure
severity: warning
message: m
languages: [cobol]
---
(comment) @c`
	set := loadSet(t, rule.Assets{"obscure.rule": obscure})
	res, err := newTestRunner().Run(context.Background(), set, nil)
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, rule.StageCompile, res.Diagnostics[0].Stage)
}

func TestRun_Cancellation(t *testing.T) {
	set := loadSet(t, rule.Assets{"todo.rule": todoRule})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRunner().Run(ctx, set, []FileInput{
		{Path: "main.go", Language: "go", Content: []byte(goFile)},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
