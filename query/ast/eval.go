package ast

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher compiles the spec's predicate set into a row predicate. ILIKE
// patterns are translated once here rather than per row.
//
// A row matches when every regular condition holds and, if an OR group is
// present, at least one of its subconditions holds. The empty-IN
// short-circuit is the executor's responsibility and is checked once per
// query, not here.
func (s *Spec) Matcher() func(Row) bool {
	regular := make([]func(Row) bool, 0, len(s.Conditions))
	for _, c := range s.Conditions {
		regular = append(regular, conditionMatcher(c))
	}
	group := make([]func(Row) bool, 0, len(s.OrGroup))
	for _, c := range s.OrGroup {
		group = append(group, conditionMatcher(c))
	}

	return func(row Row) bool {
		for _, m := range regular {
			if !m(row) {
				return false
			}
		}
		if len(group) == 0 {
			return true
		}
		for _, m := range group {
			if m(row) {
				return true
			}
		}
		return false
	}
}

func conditionMatcher(c Condition) func(Row) bool {
	switch c.Op {
	case OpEq:
		return func(row Row) bool { return Equal(row[c.Field], c.Value) }
	case OpNeq:
		return func(row Row) bool { return !Equal(row[c.Field], c.Value) }
	case OpIn:
		values := c.Values
		return func(row Row) bool {
			for _, v := range values {
				if Equal(row[c.Field], v) {
					return true
				}
			}
			return false
		}
	case OpILike:
		re := ILikeRegexp(fmt.Sprint(c.Value))
		return func(row Row) bool {
			s, ok := row[c.Field].(string)
			if !ok {
				return false
			}
			return re.MatchString(s)
		}
	default:
		return func(Row) bool { return false }
	}
}

// ILikeRegexp translates a SQL LIKE pattern into a case-insensitive,
// fully-anchored regular expression: % matches any run of characters and _
// matches exactly one. Everything else is literal.
func ILikeRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?is)^`)
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(`.*`)
		case '_':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`$`)
	return regexp.MustCompile(b.String())
}

// Equal compares two field values after normalization, so that e.g. an int
// seeded into a table compares equal to the float64 the JSON decoder
// produces for the same number.
func Equal(a, b any) bool {
	na, aNum := asFloat(a)
	nb, bNum := asFloat(b)
	if aNum && bNum {
		return na == nb
	}
	if aNum != bNum {
		return false
	}
	if a == nil || b == nil {
		return a == b
	}
	return normalize(a) == normalize(b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func normalize(v any) any {
	switch s := v.(type) {
	case []byte:
		return string(s)
	case string:
		return s
	case bool:
		return s
	}
	return fmt.Sprint(v)
}
