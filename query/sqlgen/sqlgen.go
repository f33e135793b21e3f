// Package sqlgen compiles a query spec into one parameterized SQL statement
// for the configured database provider.
package sqlgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/satishbabariya/iestagram/query/ast"
)

// Query represents a compiled SQL statement with its positional arguments.
type Query struct {
	SQL  string
	Args []any
}

// Generator compiles specs for a specific provider. Placeholder style and
// identifier quoting are the only dialect differences this layer carries.
type Generator struct {
	provider string
}

// NewGenerator creates a generator for the given provider. Unknown providers
// fall back to PostgreSQL conventions.
func NewGenerator(provider string) *Generator {
	return &Generator{provider: provider}
}

// Provider returns the provider this generator compiles for.
func (g *Generator) Provider() string {
	return g.provider
}

func (g *Generator) placeholder(i int) string {
	switch g.provider {
	case "mysql", "sqlite", "sqlite3":
		return "?"
	default:
		return fmt.Sprintf("$%d", i)
	}
}

func (g *Generator) quote(name string) string {
	if g.provider == "mysql" {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// Compile translates the spec into one statement plus its argument list.
// Dispatch follows the spec's mode priority: delete, then update, then
// insert, then select.
func (g *Generator) Compile(spec *ast.Spec) (*Query, error) {
	switch spec.Mode() {
	case ast.ModeDelete:
		return g.compileDelete(spec), nil
	case ast.ModeUpdate:
		return g.compileUpdate(spec), nil
	case ast.ModeInsert:
		return g.compileInsert(spec), nil
	default:
		if spec.CountOnly {
			return g.compileCount(spec), nil
		}
		return g.compileSelect(spec)
	}
}

func (g *Generator) compileInsert(spec *ast.Spec) *Query {
	// Go map iteration is randomized; sorting keys keeps the emitted
	// statement deterministic for a given payload.
	keys := sortedKeys(spec.InsertData)

	cols := make([]string, len(keys))
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		cols[i] = g.quote(k)
		placeholders[i] = g.placeholder(i + 1)
		args[i] = spec.InsertData[k]
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		g.quote(spec.Table), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return &Query{SQL: sql, Args: args}
}

func (g *Generator) compileUpdate(spec *ast.Spec) *Query {
	keys := sortedKeys(spec.UpdateData)

	var args []any
	argIndex := 1
	setParts := make([]string, len(keys))
	for i, k := range keys {
		setParts[i] = fmt.Sprintf("%s = %s", g.quote(k), g.placeholder(argIndex))
		args = append(args, spec.UpdateData[k])
		argIndex++
	}

	parts := []string{
		fmt.Sprintf("UPDATE %s SET %s", g.quote(spec.Table), strings.Join(setParts, ", ")),
	}
	// No predicates means a full-table update. That is deliberate
	// pass-through; single-entity callers always supply an eq.
	if where, whereArgs := g.whereClause(spec, "", &argIndex); where != "" {
		parts = append(parts, "WHERE "+where)
		args = append(args, whereArgs...)
	}
	parts = append(parts, "RETURNING *")
	return &Query{SQL: strings.Join(parts, " "), Args: args}
}

func (g *Generator) compileDelete(spec *ast.Spec) *Query {
	var args []any
	argIndex := 1

	parts := []string{fmt.Sprintf("DELETE FROM %s", g.quote(spec.Table))}
	if where, whereArgs := g.whereClause(spec, "", &argIndex); where != "" {
		parts = append(parts, "WHERE "+where)
		args = append(args, whereArgs...)
	}
	parts = append(parts, "RETURNING *")
	return &Query{SQL: strings.Join(parts, " "), Args: args}
}

func (g *Generator) compileCount(spec *ast.Spec) *Query {
	var args []any
	argIndex := 1

	parts := []string{fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", g.quote(spec.Table))}
	if where, whereArgs := g.whereClause(spec, "", &argIndex); where != "" {
		parts = append(parts, "WHERE "+where)
		args = append(args, whereArgs...)
	}
	return &Query{SQL: strings.Join(parts, " "), Args: args}
}

func (g *Generator) compileSelect(spec *ast.Spec) (*Query, error) {
	var args []any
	argIndex := 1

	table := g.quote(spec.Table)
	rel := spec.Projection.Relation

	var parts []string
	var qualify string
	if rel != nil {
		// Relation expansion compiles to a LEFT JOIN with the related
		// fields aliased <relTable>_<field>; the executor reassembles
		// them into a nested object.
		if len(rel.Fields) == 0 {
			return nil, fmt.Errorf("relation expansion for %q names no fields", rel.Table)
		}
		qualify = table + "."
		selectList := []string{table + ".*"}
		for _, f := range rel.Fields {
			selectList = append(selectList, fmt.Sprintf("%s.%s AS %s",
				g.quote(rel.Table), g.quote(f), g.quote(rel.Table+"_"+f)))
		}
		parts = append(parts, "SELECT "+strings.Join(selectList, ", "))
		parts = append(parts, "FROM "+table)
		parts = append(parts, fmt.Sprintf("LEFT JOIN %s ON %s.%s = %s.%s",
			g.quote(rel.Table), table, g.quote(rel.ForeignKey), g.quote(rel.Table), g.quote("id")))
	} else {
		if spec.Projection.Star || len(spec.Projection.Fields) == 0 {
			parts = append(parts, "SELECT *")
		} else {
			cols := make([]string, len(spec.Projection.Fields))
			for i, f := range spec.Projection.Fields {
				cols[i] = g.quote(f)
			}
			parts = append(parts, "SELECT "+strings.Join(cols, ", "))
		}
		parts = append(parts, "FROM "+table)
	}

	if where, whereArgs := g.whereClause(spec, qualify, &argIndex); where != "" {
		parts = append(parts, "WHERE "+where)
		args = append(args, whereArgs...)
	}

	if spec.Order != nil {
		dir := "ASC"
		if !spec.Order.Ascending {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("ORDER BY %s%s %s", qualify, g.quote(spec.Order.Field), dir))
	}

	if spec.Limit > 0 {
		parts = append(parts, "LIMIT "+g.placeholder(argIndex))
		args = append(args, spec.Limit)
		argIndex++
	}

	return &Query{SQL: strings.Join(parts, " "), Args: args}, nil
}

// whereClause renders the regular conditions joined by AND, with the OR
// group appended as one parenthesized disjunction so it conjoins correctly.
// qualify prefixes field references when the statement carries a join.
func (g *Generator) whereClause(spec *ast.Spec, qualify string, argIndex *int) (string, []any) {
	var clauses []string
	var args []any

	for _, c := range spec.Conditions {
		clause, clauseArgs := g.condition(c, qualify, argIndex)
		if clause == "" {
			continue
		}
		clauses = append(clauses, clause)
		args = append(args, clauseArgs...)
	}

	if len(spec.OrGroup) > 0 {
		var orParts []string
		for _, c := range spec.OrGroup {
			clause, clauseArgs := g.condition(c, qualify, argIndex)
			if clause == "" {
				continue
			}
			orParts = append(orParts, clause)
			args = append(args, clauseArgs...)
		}
		if len(orParts) > 0 {
			clauses = append(clauses, "("+strings.Join(orParts, " OR ")+")")
		}
	}

	return strings.Join(clauses, " AND "), args
}

func (g *Generator) condition(c ast.Condition, qualify string, argIndex *int) (string, []any) {
	field := qualify + g.quote(c.Field)
	switch c.Op {
	case ast.OpEq:
		clause := fmt.Sprintf("%s = %s", field, g.placeholder(*argIndex))
		(*argIndex)++
		return clause, []any{c.Value}
	case ast.OpNeq:
		clause := fmt.Sprintf("%s != %s", field, g.placeholder(*argIndex))
		(*argIndex)++
		return clause, []any{c.Value}
	case ast.OpIn:
		if len(c.Values) == 0 {
			return "", nil
		}
		placeholders := make([]string, len(c.Values))
		for i := range c.Values {
			placeholders[i] = g.placeholder(*argIndex)
			(*argIndex)++
		}
		return fmt.Sprintf("%s IN (%s)", field, strings.Join(placeholders, ", ")), c.Values
	case ast.OpILike:
		if g.provider == "mysql" || g.provider == "sqlite" || g.provider == "sqlite3" {
			// Neither dialect has ILIKE; lowering both sides gives the
			// same case-insensitive semantics.
			clause := fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", field, g.placeholder(*argIndex))
			(*argIndex)++
			return clause, []any{c.Value}
		}
		clause := fmt.Sprintf("%s ILIKE %s", field, g.placeholder(*argIndex))
		(*argIndex)++
		return clause, []any{c.Value}
	}
	return "", nil
}

func sortedKeys(row ast.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
