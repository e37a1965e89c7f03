package source

import (
	"context"
	"strconv"
	"strings"

	"github.com/treelint/treelint/pkg/rule"
)

// Evaluate checks a rule's requires clauses against the registry,
// AND-combined: every clause must hold, and an empty map trivially
// holds. An absent fact fails its clause — and with it the whole
// predicate — except under "!=", where absence satisfies "not equal".
func Evaluate(ctx context.Context, requires map[string]rule.Requirement, reg *Registry, ec *Context) bool {
	for key, req := range requires {
		actual, ok := reg.Resolve(ctx, key, ec)
		if !ok {
			if req.Op == rule.OpNe {
				continue
			}
			return false
		}
		if !Compare(req.Op, actual, req.Value) {
			return false
		}
	}
	return true
}

// Compare applies a comparison operator to a fact value and an expected
// value. When both sides parse as dotted numeric sequences ("2024",
// "1.12.3") they compare component-wise numerically; otherwise equality
// operators compare as strings and ordering operators are false.
func Compare(op rule.Op, actual, expected string) bool {
	aSeq, aNum := parseNumericSequence(actual)
	eSeq, eNum := parseNumericSequence(expected)

	if aNum && eNum {
		c := compareSequences(aSeq, eSeq)
		switch op {
		case rule.OpEq:
			return c == 0
		case rule.OpNe:
			return c != 0
		case rule.OpGe:
			return c >= 0
		case rule.OpLe:
			return c <= 0
		case rule.OpGt:
			return c > 0
		case rule.OpLt:
			return c < 0
		}
		return false
	}

	switch op {
	case rule.OpEq:
		return actual == expected
	case rule.OpNe:
		return actual != expected
	default:
		// Ordering requires numeric-sequence parseability on both sides.
		return false
	}
}

// parseNumericSequence parses a dotted numeric sequence like "1.12.3".
func parseNumericSequence(s string) ([]int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	parts := strings.Split(s, ".")
	seq := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, false
		}
		seq[i] = n
	}
	return seq, true
}

// compareSequences compares component-wise; missing components count as
// zero, so "1.12" equals "1.12.0".
func compareSequences(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
