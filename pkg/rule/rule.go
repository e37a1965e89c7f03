// Package rule defines the structural lint rule model and the tiered
// rule loader. Rules are loaded once per invocation and are immutable
// afterwards; the loader resolves overrides across the builtin,
// user-global and project tiers into a single effective set.
package rule

import "strings"

// =============================================================================
// Severity
// =============================================================================

// Severity indicates the importance of a finding produced by a rule.
type Severity int

// Severity levels for findings.
const (
	// SeverityError indicates a critical issue that should be fixed.
	SeverityError Severity = iota
	// SeverityWarning indicates a potential issue that should be reviewed.
	SeverityWarning
	// SeverityInfo indicates informational feedback.
	SeverityInfo
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the severity as its string form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ParseSeverity converts a string to a Severity value. Matching is
// case-insensitive; "warn" is accepted for "warning" and "note" for "info".
// Returns the severity and true if valid, or SeverityWarning and false if not.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(s) {
	case "error":
		return SeverityError, true
	case "warning", "warn":
		return SeverityWarning, true
	case "info", "note":
		return SeverityInfo, true
	default:
		return SeverityWarning, false
	}
}

// =============================================================================
// Comparison operators
// =============================================================================

// Op is a comparison operator used in a rule's requires clause.
type Op string

// Operators accepted in requires clauses.
const (
	OpEq Op = "="
	OpNe Op = "!="
	OpGe Op = ">="
	OpLe Op = "<="
	OpGt Op = ">"
	OpLt Op = "<"
)

// ParseOp converts a string to an Op. Returns the operator and true if
// valid, or empty and false if not.
func ParseOp(s string) (Op, bool) {
	switch Op(s) {
	case OpEq, OpNe, OpGe, OpLe, OpGt, OpLt:
		return Op(s), true
	default:
		return "", false
	}
}

// Requirement is one parsed requires clause: a comparison of an externally
// sourced fact against an expected value. The fact key is the map key on
// the owning rule, so only the operator and expected value live here.
type Requirement struct {
	Op    Op
	Value string
}

// =============================================================================
// Rule
// =============================================================================

// Tier identifies where a rule definition came from. Higher tiers take
// precedence during override resolution.
type Tier int

// Tiers in ascending precedence order.
const (
	TierBuiltin Tier = iota
	TierUserGlobal
	TierProject
)

// String returns the string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierBuiltin:
		return "builtin"
	case TierUserGlobal:
		return "user"
	case TierProject:
		return "project"
	default:
		return "unknown"
	}
}

// Rule is a named structural pattern definition.
// The Pattern field holds a query in the grammar's native pattern syntax;
// the engine treats it as opaque beyond compilation.
type Rule struct {
	ID       string
	Pattern  string
	Severity Severity
	Message  string

	// Allow holds compiled path-glob exclusions paired with their sources.
	// A match under an allowed path produces no finding.
	Allow []AllowGlob

	// Languages the rule applies to, e.g. "go", "python".
	Languages []string

	// Enabled rules are executed; disabled rules are loaded but skipped.
	Enabled bool

	// Builtin is true only for rules embedded in the binary.
	Builtin bool

	// Requires maps dotted fact keys ("git.branch") to parsed comparisons.
	// All entries must hold for a structural match to become a finding.
	Requires map[string]Requirement

	// Fix is the textual fix template. nil means no auto-fix is offered;
	// an empty string means "delete the matched span"; non-empty templates
	// may reference captures as ${name}.
	Fix *string

	// SourcePath is the origin file; empty for builtins.
	SourcePath string

	// Tier records which tier the effective definition came from.
	Tier Tier
}

// HasFix reports whether the rule offers an auto-fix.
func (r *Rule) HasFix() bool { return r.Fix != nil }

// AppliesTo reports whether the rule targets the given language.
// A rule with no languages applies to none; the loader rejects such rules.
func (r *Rule) AppliesTo(language string) bool {
	for _, l := range r.Languages {
		if l == language {
			return true
		}
	}
	return false
}

// Allowed reports whether path matches one of the rule's allow globs.
// Paths are matched with forward slashes regardless of platform. A
// relative path is additionally tried with a leading separator so that
// anchored patterns like "**/tests/**" suppress a top-level "tests/"
// directory the same way they suppress a nested one.
func (r *Rule) Allowed(path string) bool {
	path = strings.ReplaceAll(path, "\\", "/")
	rooted := path
	if !strings.HasPrefix(path, "/") {
		rooted = "/" + path
	}
	for _, g := range r.Allow {
		if g.Compiled.Match(path) || g.Compiled.Match(rooted) {
			return true
		}
	}
	return false
}

// =============================================================================
// Overrides
// =============================================================================

// Override is a partial rule keyed by id, sourced from a higher-priority
// tier. Only the declared fields are applied on top of the base rule.
type Override struct {
	ID       string
	Enabled  *bool
	Severity *Severity
	Fix      *string

	// Ignored lists declared fields an override cannot carry (message,
	// allow, languages, requires); the loader reports them as diagnostics.
	Ignored []string

	SourcePath string
	Tier       Tier
}

// Apply returns a copy of base with the override's declared fields applied.
func (o *Override) Apply(base Rule) Rule {
	out := base
	if o.Enabled != nil {
		out.Enabled = *o.Enabled
	}
	if o.Severity != nil {
		out.Severity = *o.Severity
	}
	if o.Fix != nil {
		out.Fix = o.Fix
	}
	return out
}
