// Package postgres provides a state store in a PostgreSQL database reached
// through the pgx stdlib driver.
package postgres

import (
	"context"

	"feedreader/internal/infra/adapter/persistence/sqlstore"
	"feedreader/internal/infra/db"
)

// New connects to dsn and creates the schema if needed. SetPath accepts
// another DSN.
func New(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	return sqlstore.Open(ctx, db.Postgres, db.OpenPostgres, dsn)
}
