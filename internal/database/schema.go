package database

import (
	"context"
	_ "embed"
	"log/slog"

	"github.com/surrealdb/surrealdb.go"
)

//go:embed schema/schema.surql
var schemaSQL string

// ApplySchema defines the tables, indexes and access method used by the
// stores. Every statement is IF NOT EXISTS, so it is safe on every start.
func ApplySchema(ctx context.Context, conn DBConnection) error {
	err := conn.WithConnection(ctx, func(db *surrealdb.DB) error {
		return Execute(ctx, db, schemaSQL, nil)
	})
	if err != nil {
		return WrapError(err, "failed to apply schema")
	}
	slog.InfoContext(ctx, "Database schema applied", "event", "db_schema_applied")
	return nil
}
