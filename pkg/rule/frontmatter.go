package rule

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontMatter is the raw YAML front matter of a rule file.
// Unknown fields cause parse errors so that typos surface as diagnostics
// instead of silently producing a misconfigured rule.
type frontMatter struct {
	ID        string            `yaml:"id"`
	Severity  string            `yaml:"severity"`
	Message   string            `yaml:"message"`
	Allow     []string          `yaml:"allow"`
	Languages []string          `yaml:"languages"`
	Enabled   *bool             `yaml:"enabled"`
	Requires  map[string]string `yaml:"requires"`
	Fix       *string           `yaml:"fix"`
}

var knownFields = map[string]bool{
	"id":        true,
	"severity":  true,
	"message":   true,
	"allow":     true,
	"languages": true,
	"enabled":   true,
	"requires":  true,
	"fix":       true,
}

// frontMatterPattern matches a leading "---" delimited block followed by
// the pattern body.
var frontMatterPattern = regexp.MustCompile(`(?s)^\s*---\s*\n(.*?)\n---\s*\n?(.*)$`)

// ParseRuleFile parses a rule file: a front-matter block followed by the
// structural pattern body. The returned rule has its allow globs compiled
// and its requires clauses parsed; any failure is scoped to this rule.
func ParseRuleFile(content, sourcePath string, tier Tier) (Rule, error) {
	matches := frontMatterPattern.FindStringSubmatch(content)
	if matches == nil {
		return Rule{}, &ParseError{File: sourcePath, Message: "missing front-matter block"}
	}
	fm, err := parseFrontMatter(matches[1], sourcePath)
	if err != nil {
		return Rule{}, err
	}

	if fm.ID == "" {
		return Rule{}, &ParseError{File: sourcePath, Message: "missing required field \"id\""}
	}

	r := Rule{
		ID:         fm.ID,
		Pattern:    strings.TrimSpace(matches[2]),
		Severity:   SeverityWarning,
		Message:    fm.Message,
		Languages:  fm.Languages,
		Enabled:    true,
		SourcePath: sourcePath,
		Tier:       tier,
		Fix:        fm.Fix,
	}

	if fm.Severity != "" {
		sev, ok := ParseSeverity(fm.Severity)
		if !ok {
			return Rule{}, &ParseError{File: sourcePath, Message: fmt.Sprintf("unrecognized severity %q", fm.Severity)}
		}
		r.Severity = sev
	}
	if fm.Enabled != nil {
		r.Enabled = *fm.Enabled
	}
	if r.Pattern == "" {
		return Rule{}, &ParseError{File: sourcePath, Message: "missing pattern body"}
	}
	if len(r.Languages) == 0 {
		return Rule{}, &ParseError{File: sourcePath, Message: "rule declares no languages"}
	}

	r.Allow, err = CompileAllow(fm.Allow)
	if err != nil {
		return Rule{}, &ParseError{File: sourcePath, Message: fmt.Sprintf("invalid allow glob: %v", err)}
	}

	r.Requires, err = parseRequires(fm.Requires, sourcePath)
	if err != nil {
		return Rule{}, err
	}

	return r, nil
}

// ParseOverrideFile parses a rule file that carries only override fields
// (no pattern body). Used by the loader when a higher tier redefines part
// of an existing rule without redeclaring the pattern.
func ParseOverrideFile(content, sourcePath string, tier Tier) (Override, bool, error) {
	matches := frontMatterPattern.FindStringSubmatch(content)
	if matches == nil {
		return Override{}, false, &ParseError{File: sourcePath, Message: "missing front-matter block"}
	}
	if strings.TrimSpace(matches[2]) != "" {
		// Has a pattern body: not an override, a full redefinition.
		return Override{}, false, nil
	}
	fm, err := parseFrontMatter(matches[1], sourcePath)
	if err != nil {
		return Override{}, false, err
	}
	if fm.ID == "" {
		return Override{}, false, &ParseError{File: sourcePath, Message: "missing required field \"id\""}
	}

	o := Override{
		ID:         fm.ID,
		Enabled:    fm.Enabled,
		Fix:        fm.Fix,
		SourcePath: sourcePath,
		Tier:       tier,
	}
	// Known fields that only a full redefinition can set are collected
	// so the loader can tell the author they had no effect.
	if fm.Message != "" {
		o.Ignored = append(o.Ignored, "message")
	}
	if len(fm.Allow) > 0 {
		o.Ignored = append(o.Ignored, "allow")
	}
	if len(fm.Languages) > 0 {
		o.Ignored = append(o.Ignored, "languages")
	}
	if len(fm.Requires) > 0 {
		o.Ignored = append(o.Ignored, "requires")
	}
	if fm.Severity != "" {
		sev, ok := ParseSeverity(fm.Severity)
		if !ok {
			return Override{}, false, &ParseError{File: sourcePath, Message: fmt.Sprintf("unrecognized severity %q", fm.Severity)}
		}
		o.Severity = &sev
	}
	return o, true, nil
}

// parseFrontMatter parses YAML content with strict field validation.
func parseFrontMatter(yamlContent, sourcePath string) (*frontMatter, error) {
	// First decode into a map to check for unknown fields.
	var rawMap map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &rawMap); err != nil {
		return nil, &ParseError{File: sourcePath, Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	for field := range rawMap {
		if !knownFields[field] {
			return nil, &UnknownFieldError{File: sourcePath, Field: field}
		}
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(yamlContent), &fm); err != nil {
		return nil, &ParseError{File: sourcePath, Message: fmt.Sprintf("failed to parse front matter: %v", err)}
	}
	return &fm, nil
}

// requiresPattern splits a comparison expression into operator and value.
// Two-character operators must be tried before their one-character prefixes.
var requiresOps = []string{">=", "<=", "!=", ">", "<", "="}

// parseRequires parses "op value" comparison expressions into Requirement
// triples. Malformed operators fail here, at load time, not at evaluation.
func parseRequires(raw map[string]string, sourcePath string) (map[string]Requirement, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]Requirement, len(raw))
	for key, expr := range raw {
		expr = strings.TrimSpace(expr)
		var parsed *Requirement
		for _, op := range requiresOps {
			if strings.HasPrefix(expr, op) {
				value := strings.TrimSpace(strings.TrimPrefix(expr, op))
				if value == "" {
					return nil, &ParseError{File: sourcePath, Message: fmt.Sprintf("requires %q: missing value in %q", key, expr)}
				}
				parsed = &Requirement{Op: Op(op), Value: value}
				break
			}
		}
		if parsed == nil {
			return nil, &ParseError{File: sourcePath, Message: fmt.Sprintf("requires %q: missing comparison operator in %q", key, expr)}
		}
		if !strings.Contains(key, ".") {
			return nil, &ParseError{File: sourcePath, Message: fmt.Sprintf("requires key %q is not a dotted namespace.key", key)}
		}
		out[key] = *parsed
	}
	return out, nil
}

// ParseError represents a rule file parsing error.
type ParseError struct {
	File    string
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError reports an unrecognized front-matter field.
type UnknownFieldError struct {
	File  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in front matter", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
