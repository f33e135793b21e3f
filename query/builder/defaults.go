package builder

import (
	"time"

	"github.com/google/uuid"

	"github.com/satishbabariya/iestagram/query/ast"
)

// Tables keyed by a synthetic id. follows and likes are keyed by the
// composite of their two foreign-id fields and get no generated id.
var syntheticID = map[string]bool{
	"users":    true,
	"posts":    true,
	"comments": true,
}

// Tables that carry a creation timestamp.
var timestamped = map[string]bool{
	"posts":    true,
	"comments": true,
}

// withInsertDefaults copies the payload and attaches server-generated
// defaults the caller left out: a unique id for synthetic-id tables and an
// ISO-8601 created_at for timestamped tables.
func withInsertDefaults(table string, payload ast.Row) ast.Row {
	row := payload.Clone()
	if syntheticID[table] {
		if v, ok := row["id"]; !ok || v == nil || v == "" {
			row["id"] = uuid.NewString()
		}
	}
	if timestamped[table] {
		if v, ok := row["created_at"]; !ok || v == nil || v == "" {
			row["created_at"] = time.Now().UTC().Format(time.RFC3339)
		}
	}
	return row
}
