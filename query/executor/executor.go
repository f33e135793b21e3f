// Package executor runs compiled queries against a SQL database and
// reshapes the raw rows to the same result contract the in-memory backend
// produces.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/satishbabariya/iestagram/query/ast"
	"github.com/satishbabariya/iestagram/query/builder"
	"github.com/satishbabariya/iestagram/query/sqlgen"
)

// Executor compiles specs through a dialect-aware generator and executes
// them over database/sql. Statement failures never escape as errors from
// Exec; they are folded into the result.
type Executor struct {
	db  *sql.DB
	gen *sqlgen.Generator
}

// New creates an executor for the given connection and provider.
func New(db *sql.DB, provider string) *Executor {
	return &Executor{db: db, gen: sqlgen.NewGenerator(provider)}
}

// Exec compiles and runs one spec.
func (e *Executor) Exec(ctx context.Context, spec *ast.Spec) builder.Result {
	mode := spec.Mode()

	// Empty IN short-circuits before any statement is issued, for every
	// mode that filters.
	if spec.EmptyIn && mode != ast.ModeInsert {
		if spec.CountOnly && mode == ast.ModeSelect {
			zero := int64(0)
			return builder.Result{Count: &zero}
		}
		return shape(spec, nil)
	}

	query, err := e.gen.Compile(spec)
	if err != nil {
		return builder.Result{Err: err}
	}

	if spec.CountOnly && mode == ast.ModeSelect {
		var count int64
		row := e.db.QueryRowContext(ctx, query.SQL, query.Args...)
		if err := row.Scan(&count); err != nil {
			return builder.Result{Err: fmt.Errorf("count query failed: %w", err)}
		}
		return builder.Result{Count: &count}
	}

	rows, err := e.db.QueryContext(ctx, query.SQL, query.Args...)
	if err != nil {
		return builder.Result{Err: fmt.Errorf("query execution failed: %w", err)}
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return builder.Result{Err: err}
	}

	if rel := spec.Projection.Relation; rel != nil && mode == ast.ModeSelect {
		for i, row := range out {
			out[i] = nestRelation(row, rel)
		}
	}

	return shape(spec, out)
}

// scanRows reads every row into an open record, normalizing driver values so
// both backends expose the same shapes: byte slices become strings and
// timestamps become RFC 3339 strings.
func scanRows(rows *sql.Rows) ([]ast.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var out []ast.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		row := make(ast.Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

// nestRelation reassembles the <relTable>_<field> aliases emitted by the
// compiler into a nested object keyed by the relation name, stripping the
// aliased columns from the flat row. A related row whose aliased values are
// all NULL means the LEFT JOIN found nothing; the relation is nil then.
func nestRelation(row ast.Row, rel *ast.Relation) ast.Row {
	prefix := rel.Table + "_"
	nested := make(ast.Row)
	anyValue := false

	out := make(ast.Row, len(row))
	for k, v := range row {
		if strings.HasPrefix(k, prefix) {
			nested[strings.TrimPrefix(k, prefix)] = v
			if v != nil {
				anyValue = true
			}
			continue
		}
		out[k] = v
	}

	if anyValue {
		out[rel.Table] = nested
	} else {
		out[rel.Table] = nil
	}
	return out
}

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
