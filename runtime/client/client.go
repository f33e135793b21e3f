// Package client provides the database client for IEstagram.
//
// A Client hands out one fluent builder per logical query. The backend is
// fixed at construction: a SQL connection for one of the supported providers
// or an in-memory store for hermetic tests. Both backends honor the same
// result contract, so callers never branch on which one they hold.
package client

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/satishbabariya/iestagram/query/builder"
	"github.com/satishbabariya/iestagram/query/executor"
	"github.com/satishbabariya/iestagram/query/memdb"
)

// Client is the entry point for queries.
type Client struct {
	exec builder.Executor
	db   *sql.DB
}

// New opens a SQL-backed client for the given provider and connection
// string.
func New(provider, connectionString string) (*Client, error) {
	driverName := driverFor(provider)
	if driverName == "" {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	db, err := sql.Open(driverName, connectionString)
	if err != nil {
		return nil, err
	}

	return &Client{exec: executor.New(db, provider), db: db}, nil
}

// NewFromDB wraps an existing connection.
func NewFromDB(provider string, db *sql.DB) *Client {
	return &Client{exec: executor.New(db, provider), db: db}
}

// NewMem creates a client over an in-memory store.
func NewMem(store *memdb.Store) *Client {
	return &Client{exec: memdb.NewExecutor(store)}
}

// driverFor maps provider names to Go database driver names.
func driverFor(provider string) string {
	switch provider {
	case "postgresql", "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return ""
	}
}

// From starts a new query against a table.
func (c *Client) From(table string) *builder.Builder {
	return builder.New(c.exec, table)
}

// Connect verifies the underlying connection. In-memory clients have nothing
// to verify.
func (c *Client) Connect(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.PingContext(ctx)
}

// Close releases the underlying connection, if any.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB returns the underlying database connection, or nil for the in-memory
// backend.
func (c *Client) DB() *sql.DB {
	return c.db
}
