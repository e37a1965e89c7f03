package engine

import (
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/treelint/treelint/pkg/rule"
)

// batch is the combined query for one language: every applicable rule's
// pattern merged into a single compiled query, so one tree traversal per
// file yields matches for all rules at once.
type batch struct {
	language string
	grammar  *sitter.Language
	query    *sitter.Query
	rules    []rule.Rule

	// patternRule maps the combined query's pattern index to an index
	// into rules. A rule's pattern body may itself contain several
	// patterns, so consecutive entries can point at the same rule.
	patternRule []int
}

// ruleFor resolves a combined pattern index back to its originating rule.
func (b *batch) ruleFor(patternIndex uint16) (rule.Rule, bool) {
	i := int(patternIndex)
	if i < 0 || i >= len(b.patternRule) {
		return rule.Rule{}, false
	}
	return b.rules[b.patternRule[i]], true
}

// compileBatches groups enabled rules by language and compiles one
// combined query per language. Each rule's pattern is first compiled
// alone: this validates it in isolation and yields its pattern count,
// which is what keeps the index-to-rule table correct once the sources
// are concatenated. A rule whose pattern fails to compile is excluded
// from that language with a diagnostic; the batch carries on without it.
func compileBatches(rules []rule.Rule, langs LanguageProvider) (map[string]*batch, []rule.Diagnostic) {
	byLanguage := make(map[string][]rule.Rule)
	for _, r := range rules {
		for _, l := range r.Languages {
			byLanguage[l] = append(byLanguage[l], r)
		}
	}

	batches := make(map[string]*batch, len(byLanguage))
	var diags []rule.Diagnostic

	languages := make([]string, 0, len(byLanguage))
	for l := range byLanguage {
		languages = append(languages, l)
	}
	sort.Strings(languages)

	for _, language := range languages {
		grammar, ok := langs.Get(language)
		if !ok {
			for _, r := range byLanguage[language] {
				diags = append(diags, rule.Diagnostic{Stage: rule.StageCompile, RuleID: r.ID,
					Message: fmt.Sprintf("unsupported language %q", language)})
			}
			continue
		}

		langRules := byLanguage[language]
		sort.Slice(langRules, func(i, j int) bool { return langRules[i].ID < langRules[j].ID })

		b := &batch{language: language, grammar: grammar}
		var combined strings.Builder
		for _, r := range langRules {
			q, err := sitter.NewQuery([]byte(r.Pattern), grammar)
			if err != nil {
				diags = append(diags, rule.Diagnostic{Stage: rule.StageCompile, RuleID: r.ID, Path: r.SourcePath,
					Message: fmt.Sprintf("pattern does not compile for %s: %v", language, err)})
				continue
			}
			patterns := int(q.PatternCount())
			q.Close()

			ruleIdx := len(b.rules)
			b.rules = append(b.rules, r)
			for i := 0; i < patterns; i++ {
				b.patternRule = append(b.patternRule, ruleIdx)
			}
			combined.WriteString(r.Pattern)
			combined.WriteString("\n")
		}
		if len(b.rules) == 0 {
			continue
		}

		q, err := sitter.NewQuery([]byte(combined.String()), grammar)
		if err != nil {
			// Every part compiled alone, so the merge itself failed;
			// surface it and skip the language rather than guess.
			diags = append(diags, rule.Diagnostic{Stage: rule.StageCompile,
				Message: fmt.Sprintf("combined query for %s does not compile: %v", language, err)})
			continue
		}
		b.query = q
		batches[language] = b
	}
	return batches, diags
}

// close releases the compiled queries.
func closeBatches(batches map[string]*batch) {
	for _, b := range batches {
		if b.query != nil {
			b.query.Close()
		}
	}
}
