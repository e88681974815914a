package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Table names are fixed. View names and URLs only ever travel as query
// parameters.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS views (
    name           TEXT PRIMARY KEY,
    position       INTEGER NOT NULL,
    sort_criterion TEXT NOT NULL,
    sort_direction TEXT NOT NULL,
    display        INTEGER NOT NULL DEFAULT 1
)`,
	`CREATE TABLE IF NOT EXISTS view_sources (
    view_name  TEXT NOT NULL REFERENCES views(name) ON DELETE CASCADE,
    source_url TEXT NOT NULL,
    position   INTEGER NOT NULL,
    PRIMARY KEY (view_name, source_url)
)`,
	`CREATE TABLE IF NOT EXISTS entry_flags (
    view_name  TEXT NOT NULL REFERENCES views(name) ON DELETE CASCADE,
    source_url TEXT NOT NULL,
    entry_id   TEXT NOT NULL,
    visited    INTEGER NOT NULL DEFAULT 0,
    starred    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (view_name, source_url, entry_id)
)`,
	`CREATE TABLE IF NOT EXISTS store_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS views (
    name           TEXT PRIMARY KEY,
    position       INTEGER NOT NULL,
    sort_criterion TEXT NOT NULL,
    sort_direction TEXT NOT NULL,
    display        BOOLEAN NOT NULL DEFAULT TRUE
)`,
	`CREATE TABLE IF NOT EXISTS view_sources (
    view_name  TEXT NOT NULL REFERENCES views(name) ON DELETE CASCADE,
    source_url TEXT NOT NULL,
    position   INTEGER NOT NULL,
    PRIMARY KEY (view_name, source_url)
)`,
	`CREATE TABLE IF NOT EXISTS entry_flags (
    view_name  TEXT NOT NULL REFERENCES views(name) ON DELETE CASCADE,
    source_url TEXT NOT NULL,
    entry_id   TEXT NOT NULL,
    visited    BOOLEAN NOT NULL DEFAULT FALSE,
    starred    BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (view_name, source_url, entry_id)
)`,
	`CREATE TABLE IF NOT EXISTS store_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
}

// MigrateUp creates the state store tables if they do not exist yet.
func MigrateUp(ctx context.Context, db *sql.DB, dialect Dialect) error {
	schema := sqliteSchema
	if dialect == Postgres {
		schema = postgresSchema
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", dialect, err)
		}
	}
	return nil
}
