package rule

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RuleFileExt is the extension rule files are discovered by.
const RuleFileExt = ".rule"

// Assets is the compile-time-embedded builtin rule table: file name to
// content. It is constructed once at process start and passed into the
// loader by reference so that loading stays fully testable with injected
// tiers.
type Assets map[string]string

// Set is the effective rule set after override resolution. Rule ids are
// unique within a Set; the Set is immutable after loading.
type Set struct {
	rules map[string]Rule
}

// Get returns the effective rule for an id.
func (s *Set) Get(id string) (Rule, bool) {
	r, ok := s.rules[id]
	return r, ok
}

// All returns every effective rule, enabled or not, sorted by id.
func (s *Set) All() []Rule {
	out := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Enabled returns the effective rules that will execute, sorted by id.
func (s *Set) Enabled() []Rule {
	var out []Rule
	for _, r := range s.rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of effective rules.
func (s *Set) Len() int { return len(s.rules) }

// LoadAll discovers rule definitions from the three tiers, resolves
// overrides, and returns the effective set plus load-time diagnostics.
// Builtins load first, then the user-global directory, then the project
// directory; a higher tier replaces a lower-tier rule by id entirely
// unless its entry is a partial override, in which case only the declared
// fields are applied on top of the base rule. A single bad file never
// discards partial progress.
func LoadAll(builtins Assets, userGlobalDir, projectDir string) (*Set, []Diagnostic) {
	set := &Set{rules: make(map[string]Rule)}
	var diags []Diagnostic

	// Builtin tier: embedded name -> content table, stable name order.
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r, err := ParseRuleFile(builtins[name], name, TierBuiltin)
		if err != nil {
			diags = append(diags, Diagnostic{Stage: StageLoad, Path: name, Message: err.Error()})
			continue
		}
		r.Builtin = true
		r.SourcePath = "" // builtins have no origin file
		set.rules[r.ID] = r
	}

	diags = append(diags, loadTier(set, userGlobalDir, TierUserGlobal)...)
	diags = append(diags, loadTier(set, projectDir, TierProject)...)

	if len(set.rules) == 0 {
		diags = append(diags, Diagnostic{Stage: StageLoad, Message: "no rules loaded"})
	}
	return set, diags
}

// loadTier loads one directory tier into the set, resolving replacements
// and partial overrides against whatever earlier tiers produced.
func loadTier(set *Set, dir string, tier Tier) []Diagnostic {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	var diags []Diagnostic
	paths, err := discoverRuleFiles(dir)
	if err != nil {
		return []Diagnostic{{Stage: StageLoad, Path: dir, Message: err.Error()}}
	}

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			diags = append(diags, Diagnostic{Stage: StageRead, Path: path, Message: err.Error()})
			continue
		}

		o, isOverride, err := ParseOverrideFile(string(content), path, tier)
		if err != nil {
			diags = append(diags, Diagnostic{Stage: StageLoad, Path: path, Message: err.Error()})
			continue
		}
		if isOverride {
			base, ok := set.rules[o.ID]
			if !ok {
				diags = append(diags, Diagnostic{Stage: StageLoad, Path: path, RuleID: o.ID,
					Message: "override for unknown rule id"})
				continue
			}
			if len(o.Ignored) > 0 {
				diags = append(diags, Diagnostic{Stage: StageLoad, Path: path, RuleID: o.ID,
					Message: fmt.Sprintf("fields have no effect in an override: %s", strings.Join(o.Ignored, ", "))})
			}
			set.rules[o.ID] = o.Apply(base)
			continue
		}

		r, err := ParseRuleFile(string(content), path, tier)
		if err != nil {
			diags = append(diags, Diagnostic{Stage: StageLoad, Path: path, Message: err.Error()})
			continue
		}
		if prev, ok := set.rules[r.ID]; ok && prev.Tier == tier {
			diags = append(diags, Diagnostic{Stage: StageLoad, Path: path, RuleID: r.ID,
				Message: fmt.Sprintf("rule id already defined in %s tier by %s", tier, prev.SourcePath)})
		}
		set.rules[r.ID] = r
	}
	return diags
}

// discoverRuleFiles returns all *.rule files under dir, sorted for
// deterministic load order.
func discoverRuleFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), RuleFileExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
