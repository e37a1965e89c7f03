package engine

import "regexp"

// capturePattern matches ${name} substitution tokens in message and fix
// templates.
var capturePattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteCaptures replaces ${name} tokens with the corresponding
// captured text. Unknown capture names are left as-is so a typo stays
// visible in the rendered message.
func substituteCaptures(template string, captures map[string]string) string {
	if len(captures) == 0 {
		return template
	}
	return capturePattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := captures[name]; ok {
			return val
		}
		return match
	})
}
