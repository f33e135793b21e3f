// Package builder provides the fluent query API.
//
// A Builder is obtained per logical query, configured through chained calls,
// and consumed exactly once by Exec, which dispatches to the executor the
// builder was constructed with. The builder itself never fails: every
// backend problem is reported through Result.Err.
package builder

import (
	"context"

	"github.com/satishbabariya/iestagram/query/ast"
)

// Executor runs one accumulated query spec against a backend.
type Executor interface {
	Exec(ctx context.Context, spec *ast.Spec) Result
}

// Result is the uniform outcome of a query. Data holds a single Row (or nil)
// in single-row mode and a []Row otherwise. Count is set only in count mode,
// in which case Data is nil. A non-nil Err makes Data and Count unreliable.
type Result struct {
	Data  any
	Err   error
	Count *int64
}

// Rows returns Data as a row slice, or nil when the result is not one.
func (r Result) Rows() []ast.Row {
	rows, _ := r.Data.([]ast.Row)
	return rows
}

// Row returns Data as a single row, or nil when the result is not one.
func (r Result) Row() ast.Row {
	row, _ := r.Data.(ast.Row)
	return row
}

// Builder accumulates one query spec. All configuration methods return the
// receiver to permit chaining.
type Builder struct {
	exec Executor
	spec ast.Spec
}

// New creates a builder for one query against the given table.
func New(exec Executor, table string) *Builder {
	return &Builder{
		exec: exec,
		spec: ast.Spec{Table: table, Projection: ast.Projection{Star: true}},
	}
}

// SelectOption configures a Select call.
type SelectOption func(*Builder)

// WithCount switches the query to count mode: the result carries only the
// cardinality of the matching set and no rows are materialized.
func WithCount() SelectOption {
	return func(b *Builder) {
		b.spec.CountOnly = true
	}
}

// Select sets the projection: "*" or "" for everything, a comma-separated
// field list, or a relation expansion of the form "table:fk(f1, f2)".
func (b *Builder) Select(fields string, opts ...SelectOption) *Builder {
	b.spec.Projection = parseProjection(fields)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Eq appends an equality predicate.
func (b *Builder) Eq(field string, value any) *Builder {
	b.spec.Conditions = append(b.spec.Conditions, ast.Condition{Field: field, Op: ast.OpEq, Value: value})
	return b
}

// Neq appends an inequality predicate.
func (b *Builder) Neq(field string, value any) *Builder {
	b.spec.Conditions = append(b.spec.Conditions, ast.Condition{Field: field, Op: ast.OpNeq, Value: value})
	return b
}

// In appends a set-membership predicate. An empty value set forces the query
// to match zero rows regardless of any other predicate: an empty candidate
// list means no candidates, never "match all".
func (b *Builder) In(field string, values []any) *Builder {
	if len(values) == 0 {
		b.spec.EmptyIn = true
		return b
	}
	b.spec.Conditions = append(b.spec.Conditions, ast.Condition{Field: field, Op: ast.OpIn, Values: values})
	return b
}

// Or parses a comma-joined list of "field.op.value" clauses into one
// disjunction group that conjoins with all other predicates. See ParseOr for
// the accepted grammar.
func (b *Builder) Or(conditions string) *Builder {
	b.spec.OrGroup = append(b.spec.OrGroup, ParseOr(conditions)...)
	return b
}

// ILike appends a case-insensitive pattern predicate with SQL LIKE
// wildcards: % for any run of characters, _ for exactly one.
func (b *Builder) ILike(field, pattern string) *Builder {
	b.spec.Conditions = append(b.spec.Conditions, ast.Condition{Field: field, Op: ast.OpILike, Value: pattern})
	return b
}

// Order sets the order clause. Only one clause is retained; the last call
// wins.
func (b *Builder) Order(field string, ascending bool) *Builder {
	b.spec.Order = &ast.OrderBy{Field: field, Ascending: ascending}
	return b
}

// Limit caps the number of returned rows. It has no effect in count mode.
func (b *Builder) Limit(n int) *Builder {
	b.spec.Limit = n
	return b
}

// Single switches the result shape from array to scalar-or-nil and caps the
// effective limit at 1.
func (b *Builder) Single() *Builder {
	b.spec.Single = true
	b.spec.Limit = 1
	return b
}

// Insert switches the query to insert mode. Server-generated defaults (id,
// created_at) are attached here so both backends observe the same payload.
func (b *Builder) Insert(payload ast.Row) *Builder {
	b.spec.InsertData = withInsertDefaults(b.spec.Table, payload)
	return b
}

// Update switches the query to update mode. With no predicates the update
// applies to every row in the table.
func (b *Builder) Update(payload ast.Row) *Builder {
	b.spec.UpdateData = payload.Clone()
	return b
}

// Delete switches the query to delete mode.
func (b *Builder) Delete() *Builder {
	b.spec.DeleteMode = true
	return b
}

// Spec exposes the accumulated state. Executors consume it; tests inspect it.
func (b *Builder) Spec() *ast.Spec {
	return &b.spec
}

// Exec forces evaluation, dispatching the spec to the builder's executor
// exactly once. Calling Exec a second time on a mutating query is undefined.
func (b *Builder) Exec(ctx context.Context) Result {
	return b.exec.Exec(ctx, &b.spec)
}
