package builder

import (
	"regexp"
	"strings"

	"github.com/satishbabariya/iestagram/query/ast"
)

// relationRe matches the relation-expansion projection mini-language:
// "<relatedTable>:<foreignKeyField>(<field1>, <field2>, ...)".
var relationRe = regexp.MustCompile(`^\s*(\w+):(\w+)\(([^)]*)\)\s*$`)

// orClauseRe matches one "field.op.value" clause of an or() string. The
// value is captured verbatim; a value containing a literal comma has already
// been split apart by the clause separator before this regexp runs.
var orClauseRe = regexp.MustCompile(`^(\w+)\.(eq|neq|in)\.(.+)$`)

// parseProjection interprets the Select argument. A string containing both
// "(" and ":" is treated as a relation expansion; anything else is the
// wildcard or a comma-separated field list.
func parseProjection(fields string) ast.Projection {
	trimmed := strings.TrimSpace(fields)
	if trimmed == "" || trimmed == "*" {
		return ast.Projection{Star: true}
	}

	if strings.Contains(trimmed, "(") && strings.Contains(trimmed, ":") {
		if m := relationRe.FindStringSubmatch(trimmed); m != nil {
			return ast.Projection{
				Star: true,
				Relation: &ast.Relation{
					Table:      m[1],
					ForeignKey: m[2],
					Fields:     splitList(m[3]),
				},
			}
		}
		// Unsupported expansion syntax (nested or multi-level) degrades to
		// the wildcard rather than erroring.
		return ast.Projection{Star: true}
	}

	return ast.Projection{Fields: splitList(trimmed)}
}

// ParseOr parses a comma-joined list of "field.op.value" clauses. Only eq,
// neq and in are recognized; clauses with any other operator, and clauses
// that do not match the grammar at all, are silently dropped. Values are
// taken as raw strings with no type coercion.
func ParseOr(conditions string) []ast.Condition {
	var out []ast.Condition
	for _, clause := range strings.Split(conditions, ",") {
		m := orClauseRe.FindStringSubmatch(strings.TrimSpace(clause))
		if m == nil {
			continue
		}
		field, op, value := m[1], m[2], m[3]
		switch op {
		case "eq":
			out = append(out, ast.Condition{Field: field, Op: ast.OpEq, Value: value})
		case "neq":
			out = append(out, ast.Condition{Field: field, Op: ast.OpNeq, Value: value})
		case "in":
			values := strings.TrimSuffix(strings.TrimPrefix(value, "("), ")")
			var set []any
			for _, v := range splitList(values) {
				set = append(set, v)
			}
			if len(set) > 0 {
				out = append(out, ast.Condition{Field: field, Op: ast.OpIn, Values: set})
			}
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
