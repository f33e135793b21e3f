// Package memdb provides the in-memory backend: a table store and an
// executor that interprets query specs directly against it, with no SQL in
// between. It exists for hermetic testing and must stay behaviorally
// equivalent to the SQL backend over the predicate, order and limit subset
// both support.
package memdb

import (
	"sync"

	"github.com/satishbabariya/iestagram/query/ast"
)

// Store holds the in-memory tables. It is an explicit handle, not ambient
// state, so independent tests can run against independent stores.
type Store struct {
	mu     sync.Mutex
	tables map[string][]ast.Row
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{tables: make(map[string][]ast.Row)}
}

// Seed appends rows to a table, preserving insertion order.
func (s *Store) Seed(table string, rows ...ast.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], rows...)
}

// Reset clears every table. Intended for test setup and teardown.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string][]ast.Row)
}

// Len reports the number of rows currently in a table.
func (s *Store) Len(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table])
}

// Rows returns a copy of a table's rows in insertion order.
func (s *Store) Rows(table string) []ast.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ast.Row, len(s.tables[table]))
	for i, r := range s.tables[table] {
		out[i] = r.Clone()
	}
	return out
}
