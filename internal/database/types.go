package database

import (
	"context"
	"time"

	"github.com/surrealdb/surrealdb.go"
)

// DBConnection defines the interface for a managed database connection.
// It abstracts the underlying driver and handles connection logic so that
// stores never hold a raw *surrealdb.DB across reconnects.
type DBConnection interface {
	WithConnection(ctx context.Context, fn func(*surrealdb.DB) error) error
	// Session opens a fresh, unauthenticated connection scoped to the
	// configured namespace/database. The caller must close it. Record-user
	// auth (signup, signin, token checks) runs on sessions so it never
	// changes the credentials of the shared connection.
	Session(ctx context.Context) (*surrealdb.DB, error)
	Close(ctx context.Context) error
	IsHealthy() bool
	GetDBNs() string
	GetDBDb() string
	GetDBQueryTimeout() time.Duration
	GetDBExecuteTimeout() time.Duration
}

// Client is a typed client for the records of one table.
type Client[T any] interface {
	// Create inserts a new record into table and returns it with generated fields.
	Create(ctx context.Context, table string, data any) (*T, error)

	// Select retrieves a record by its full id (e.g. "message:123").
	// Returns ErrNotFound if no record exists with the given id.
	Select(ctx context.Context, id string) (*T, error)

	// Query executes a raw query and returns multiple results.
	Query(ctx context.Context, query string, params map[string]any) ([]T, error)

	// QueryOne executes a raw query and returns a single result, or (nil, nil).
	QueryOne(ctx context.Context, query string, params map[string]any) (*T, error)

	// Execute runs a query whose rows are not needed.
	Execute(ctx context.Context, query string, params map[string]any) error
}

// QueryExecutor handles the execution of database queries.
// It is the seam the Client uses, replaced in tests.
type QueryExecutor[T any] interface {
	Query(ctx context.Context, query string, params map[string]any) ([]T, error)
	QueryOne(ctx context.Context, query string, params map[string]any) (*T, error)
	Execute(ctx context.Context, query string, params map[string]any) error
}

// ClientOption configures a Client.
type ClientOption[T any] func(*client[T])

// WithExecutor configures the client to use a custom QueryExecutor.
func WithExecutor[T any](executor QueryExecutor[T]) ClientOption[T] {
	return func(c *client[T]) {
		c.executor = executor
	}
}
