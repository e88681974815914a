// Package sqlite provides the reference state store, an SQLite file opened
// through modernc.org/sqlite.
package sqlite

import (
	"context"

	"feedreader/internal/infra/adapter/persistence/sqlstore"
	"feedreader/internal/infra/db"
)

// DefaultPath is the store file used when none is configured.
const DefaultPath = "feedreader.db"

// New opens the SQLite store at path, creating the file and schema if
// needed. SetPath relocates it to another file.
func New(ctx context.Context, path string) (*sqlstore.Store, error) {
	if path == "" {
		path = DefaultPath
	}
	return sqlstore.Open(ctx, db.SQLite, db.OpenSQLite, path)
}
