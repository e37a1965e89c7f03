package rule

import "github.com/gobwas/glob"

// AllowGlob pairs a compiled path glob with its source text. Globs use
// '/' as the separator so that "**/tests/**" does not cross into path
// components the pattern did not name.
type AllowGlob struct {
	Source   string
	Compiled glob.Glob
}

// CompileAllow compiles a list of glob sources. The first compilation
// failure aborts; the loader treats that as a load error for the rule.
func CompileAllow(patterns []string) ([]AllowGlob, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	out := make([]AllowGlob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		out = append(out, AllowGlob{Source: p, Compiled: g})
	}
	return out, nil
}
