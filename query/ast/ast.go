// Package ast defines the query model accumulated by the fluent builder and
// the row-matching semantics shared by both executors.
package ast

// Row is an open record: field name to value. Values are strings, numbers,
// booleans, nil, or a nested Row produced by relation expansion.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CompareOp represents a filter operator.
type CompareOp string

const (
	OpEq    CompareOp = "eq"
	OpNeq   CompareOp = "neq"
	OpIn    CompareOp = "in"
	OpILike CompareOp = "ilike"
)

// Condition represents a single filter condition. Values is used by OpIn,
// Value by everything else.
type Condition struct {
	Field  string
	Op     CompareOp
	Value  any
	Values []any
}

// Mode represents the operation a query performs.
type Mode int

const (
	ModeSelect Mode = iota
	ModeInsert
	ModeUpdate
	ModeDelete
)

// OrderBy represents the single retained order clause.
type OrderBy struct {
	Field     string
	Ascending bool
}

// Relation represents a single-level foreign-key expansion: the related
// table's row is looked up through ForeignKey and nested under the table
// name. Fields limits which related fields are attached; empty means all.
type Relation struct {
	Table      string
	ForeignKey string
	Fields     []string
}

// Projection represents the requested result shape: the wildcard, an explicit
// field list, or one relation expansion.
type Projection struct {
	Star     bool
	Fields   []string
	Relation *Relation
}

// Spec is the accumulated, mutable state of one query. It is created fresh
// per query, filled in by the builder, consumed exactly once by an executor,
// then discarded.
type Spec struct {
	Table      string
	Projection Projection
	Conditions []Condition
	OrGroup    []Condition
	// EmptyIn records that an In predicate was given no values. The whole
	// query then matches zero rows regardless of other predicates.
	EmptyIn   bool
	Order     *OrderBy
	Limit     int // 0 means no limit
	Single    bool
	CountOnly bool

	DeleteMode bool
	UpdateData Row
	InsertData Row
}

// Mode resolves the operation mode. Delete and update are checked before
// insert so that the last destructive call wins over an earlier insert.
func (s *Spec) Mode() Mode {
	switch {
	case s.DeleteMode:
		return ModeDelete
	case s.UpdateData != nil:
		return ModeUpdate
	case s.InsertData != nil:
		return ModeInsert
	default:
		return ModeSelect
	}
}
