// Package sqlstore implements repository.StateStore over database/sql. The
// sqlite and postgres packages configure it for their driver.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"feedreader/internal/domain/entity"
	"feedreader/internal/infra/db"
	"feedreader/internal/repository"
	"feedreader/internal/resilience/circuitbreaker"
	"feedreader/internal/resilience/retry"
)

// Opener opens and verifies the database at path.
type Opener func(ctx context.Context, path string) (*sql.DB, error)

const (
	metaLastSaved = "last_saved"
	openTimeout   = 10 * time.Second
)

// Store is a relational state store. All methods are safe for concurrent use;
// operations are serialized.
type Store struct {
	mu      sync.Mutex
	path    string
	db      *sql.DB
	dialect db.Dialect
	open    Opener

	breaker *circuitbreaker.CircuitBreaker
	retry   retry.Config
	logger  *slog.Logger
}

var _ repository.StateStore = (*Store)(nil)

// Open opens the database at path, creates the schema and returns a Store.
func Open(ctx context.Context, dialect db.Dialect, open Opener, path string) (*Store, error) {
	conn, err := openMigrated(ctx, dialect, open, path)
	if err != nil {
		return nil, err
	}
	s := New(conn, dialect, path)
	s.open = open
	return s, nil
}

// New wraps an already opened and migrated database. SetPath is unsupported
// on such a store.
func New(conn *sql.DB, dialect db.Dialect, path string) *Store {
	return &Store{
		path:    path,
		db:      conn,
		dialect: dialect,
		breaker: circuitbreaker.New(circuitbreaker.StoreConfig()),
		retry:   retry.StoreConfig(),
		logger:  slog.Default(),
	}
}

// WithLogger sets the store logger.
func (s *Store) WithLogger(logger *slog.Logger) *Store {
	s.logger = logger
	return s
}

func openMigrated(ctx context.Context, dialect db.Dialect, open Opener, path string) (*sql.DB, error) {
	conn, err := open(ctx, path)
	if err != nil {
		return nil, entity.NewPersistenceError("open", err)
	}
	if err := db.MigrateUp(ctx, conn, dialect); err != nil {
		_ = conn.Close()
		return nil, entity.NewPersistenceError("migrate", err)
	}
	return conn, nil
}

// Path returns the current location.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// SetPath opens path, creates the schema there and closes the previous
// database. On failure the store keeps using the previous database.
func (s *Store) SetPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path == s.path {
		return nil
	}
	if s.open == nil {
		return entity.NewPersistenceError("set path", errors.New("store does not support relocation"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()
	conn, err := openMigrated(ctx, s.dialect, s.open, path)
	if err != nil {
		return err
	}

	prev := s.db
	s.db = conn
	s.path = path
	if prev != nil {
		if err := prev.Close(); err != nil {
			s.logger.Warn("failed to close previous store", slog.Any("error", err))
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Load reads the whole state inside one transaction. An empty database
// yields an empty State.
func (s *Store) Load(ctx context.Context) (*entity.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state *entity.State
	err := s.do(ctx, func() error {
		var err error
		state, err = s.load(ctx)
		return err
	})
	if err != nil {
		return nil, entity.NewPersistenceError("load", err)
	}
	return state, nil
}

// Save replaces the stored state inside one transaction. The write is
// skipped when the stored last-saved time is not before state.LastChanged.
func (s *Store) Save(ctx context.Context, state *entity.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.do(ctx, func() error {
		return s.save(ctx, state)
	})
	if err != nil {
		return entity.NewPersistenceError("save", err)
	}
	return nil
}

func (s *Store) do(ctx context.Context, fn func() error) error {
	if s.db == nil {
		return sql.ErrConnDone
	}
	return retry.WithBackoff(ctx, s.retry, func() error {
		return circuitbreaker.Run(s.breaker, fn)
	})
}

func (s *Store) q(query string) string {
	return s.dialect.Rebind(query)
}

func (s *Store) load(ctx context.Context) (_ *entity.State, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	state := &entity.State{Views: []entity.ViewState{}}

	saved, ok, err := lastSaved(ctx, tx, s.q)
	if err != nil {
		return nil, err
	}
	if ok {
		state.LastChanged = fromNanos(saved)
	}

	rows, err := tx.QueryContext(ctx, `
SELECT name, sort_criterion, sort_direction, display
FROM views
ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query views: %w", err)
	}
	index := make(map[string]int)
	for rows.Next() {
		var vs entity.ViewState
		var crit, dir string
		if err := rows.Scan(&vs.Name, &crit, &dir, &vs.Display); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan view: %w", err)
		}
		vs.Sort = entity.SortRule{Criterion: entity.Criterion(crit), Direction: entity.Direction(dir)}
		vs.Sources = []string{}
		index[vs.Name] = len(state.Views)
		state.Views = append(state.Views, vs)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("query views: %w", err)
	}

	rows, err = tx.QueryContext(ctx, `
SELECT view_name, source_url
FROM view_sources
ORDER BY view_name ASC, position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query view sources: %w", err)
	}
	for rows.Next() {
		var name, url string
		if err := rows.Scan(&name, &url); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan view source: %w", err)
		}
		if i, ok := index[name]; ok {
			state.Views[i].Sources = append(state.Views[i].Sources, url)
		}
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("query view sources: %w", err)
	}

	rows, err = tx.QueryContext(ctx, `
SELECT view_name, source_url, entry_id, visited, starred
FROM entry_flags
ORDER BY view_name ASC, source_url ASC, entry_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query entry flags: %w", err)
	}
	for rows.Next() {
		var name string
		var f entity.EntryFlags
		if err := rows.Scan(&name, &f.SourceURL, &f.EntryID, &f.Visited, &f.Starred); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan entry flags: %w", err)
		}
		if i, ok := index[name]; ok {
			state.Views[i].Flags = append(state.Views[i].Flags, f)
		}
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("query entry flags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return state, nil
}

func (s *Store) save(ctx context.Context, state *entity.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	saved, ok, err := lastSaved(ctx, tx, s.q)
	if err != nil {
		return err
	}
	next := toNanos(state.LastChanged)
	if ok && saved >= next {
		s.logger.Debug("state store is up to date, skipping save",
			slog.Time("stored", fromNanos(saved)),
			slog.Time("last_changed", state.LastChanged))
		return nil
	}

	for _, table := range []string{"entry_flags", "view_sources", "views"} {
		// table comes from the fixed list above
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	insertView := s.q(`INSERT INTO views (name, position, sort_criterion, sort_direction, display) VALUES (?, ?, ?, ?, ?)`)
	insertSource := s.q(`INSERT INTO view_sources (view_name, source_url, position) VALUES (?, ?, ?)`)
	insertFlags := s.q(`INSERT INTO entry_flags (view_name, source_url, entry_id, visited, starred) VALUES (?, ?, ?, ?, ?)`)

	for i, vs := range state.Views {
		rule := vs.Sort.Normalize()
		if _, err := tx.ExecContext(ctx, insertView,
			vs.Name, i, string(rule.Criterion), string(rule.Direction), vs.Display); err != nil {
			return fmt.Errorf("insert view %q: %w", vs.Name, err)
		}
		for j, url := range vs.Sources {
			if _, err := tx.ExecContext(ctx, insertSource, vs.Name, url, j); err != nil {
				return fmt.Errorf("insert view source %q: %w", vs.Name, err)
			}
		}
		for _, f := range vs.Flags {
			if !f.Visited && !f.Starred {
				continue
			}
			if _, err := tx.ExecContext(ctx, insertFlags,
				vs.Name, f.SourceURL, f.EntryID, f.Visited, f.Starred); err != nil {
				return fmt.Errorf("insert entry flags %q: %w", vs.Name, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, s.q(`
INSERT INTO store_meta (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`),
		metaLastSaved, strconv.FormatInt(next, 10)); err != nil {
		return fmt.Errorf("update last saved: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func lastSaved(ctx context.Context, tx *sql.Tx, q func(string) string) (int64, bool, error) {
	var raw string
	err := tx.QueryRowContext(ctx, q(`SELECT value FROM store_meta WHERE key = ?`), metaLastSaved).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query last saved: %w", err)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse last saved %q: %w", raw, err)
	}
	return n, true, nil
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	return err
}

// toNanos maps the zero time to 0; UnixNano is undefined for it.
func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
