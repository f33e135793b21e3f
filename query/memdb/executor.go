package memdb

import (
	"context"
	"sort"

	"github.com/satishbabariya/iestagram/query/ast"
	"github.com/satishbabariya/iestagram/query/builder"
)

// Executor interprets query specs against a Store. Each Exec call holds the
// store lock for its full duration, so mutations are atomic relative to any
// read issued after the call returns.
type Executor struct {
	store *Store
}

// NewExecutor creates an executor over the given store.
func NewExecutor(store *Store) *Executor {
	return &Executor{store: store}
}

// Exec interprets one spec. This backend performs no I/O, so Err is nil on
// every path; failures can only come from the caller's own handling of the
// result.
func (e *Executor) Exec(_ context.Context, spec *ast.Spec) builder.Result {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	mode := spec.Mode()

	// Empty IN forces zero matches for every mode that filters.
	if spec.EmptyIn && mode != ast.ModeInsert {
		if spec.CountOnly && mode == ast.ModeSelect {
			zero := int64(0)
			return builder.Result{Count: &zero}
		}
		return shape(spec, nil)
	}

	switch mode {
	case ast.ModeDelete:
		return e.execDelete(spec)
	case ast.ModeUpdate:
		return e.execUpdate(spec)
	case ast.ModeInsert:
		return e.execInsert(spec)
	default:
		return e.execSelect(spec)
	}
}

func (e *Executor) execDelete(spec *ast.Spec) builder.Result {
	matches := spec.Matcher()
	table := e.store.tables[spec.Table]

	// Partition in one pass so the table never holds a partial view.
	var kept, removed []ast.Row
	for _, row := range table {
		if matches(row) {
			removed = append(removed, row)
		} else {
			kept = append(kept, row)
		}
	}
	e.store.tables[spec.Table] = kept
	return shape(spec, removed)
}

func (e *Executor) execUpdate(spec *ast.Spec) builder.Result {
	matches := spec.Matcher()
	table := e.store.tables[spec.Table]

	var updated []ast.Row
	for i, row := range table {
		if !matches(row) {
			continue
		}
		merged := row.Clone()
		for k, v := range spec.UpdateData {
			merged[k] = v
		}
		table[i] = merged
		updated = append(updated, merged)
	}
	return shape(spec, updated)
}

func (e *Executor) execInsert(spec *ast.Spec) builder.Result {
	row := spec.InsertData.Clone()
	e.store.tables[spec.Table] = append(e.store.tables[spec.Table], row)
	return shape(spec, []ast.Row{row})
}

func (e *Executor) execSelect(spec *ast.Spec) builder.Result {
	matches := spec.Matcher()

	var rows []ast.Row
	for _, row := range e.store.tables[spec.Table] {
		if matches(row) {
			rows = append(rows, row.Clone())
		}
	}

	if spec.CountOnly {
		n := int64(len(rows))
		return builder.Result{Count: &n}
	}

	if rel := spec.Projection.Relation; rel != nil {
		related := e.store.tables[rel.Table]
		for _, row := range rows {
			row[rel.Table] = attachRelation(row, rel, related)
		}
	} else if fields := spec.Projection.Fields; len(fields) > 0 && !spec.Projection.Star {
		for i, row := range rows {
			projected := make(ast.Row, len(fields))
			for _, f := range fields {
				if v, ok := row[f]; ok {
					projected[f] = v
				}
			}
			rows[i] = projected
		}
	}

	if spec.Order != nil {
		sortRows(rows, spec.Order)
	}

	if spec.Limit > 0 && len(rows) > spec.Limit {
		rows = rows[:spec.Limit]
	}

	return shape(spec, rows)
}

// attachRelation looks up the single related row by foreign key and returns
// the nested object to store under the relation name, or nil when the
// foreign key resolves to nothing.
func attachRelation(row ast.Row, rel *ast.Relation, related []ast.Row) any {
	fk := row[rel.ForeignKey]
	if fk == nil {
		return nil
	}
	for _, r := range related {
		if !sameKey(r["id"], fk) {
			continue
		}
		if len(rel.Fields) == 0 {
			return r.Clone()
		}
		nested := make(ast.Row, len(rel.Fields))
		for _, f := range rel.Fields {
			nested[f] = r[f]
		}
		return nested
	}
	return nil
}

// shape converts a row set to the result contract: scalar-or-nil in
// single-row mode, array otherwise. An empty array, not nil, stands for "no
// rows" so callers can range over Data unconditionally.
func shape(spec *ast.Spec, rows []ast.Row) builder.Result {
	if spec.Single {
		if len(rows) == 0 {
			return builder.Result{Data: nil}
		}
		return builder.Result{Data: rows[0]}
	}
	if rows == nil {
		rows = []ast.Row{}
	}
	return builder.Result{Data: rows}
}

func sortRows(rows []ast.Row, order *ast.OrderBy) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareValues(rows[i][order.Field], rows[j][order.Field])
		if order.Ascending {
			return c < 0
		}
		return c > 0
	})
}
