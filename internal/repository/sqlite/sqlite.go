// Package sqlite implements the repository interfaces on SQLite.
//
// modernc.org/sqlite is a pure Go port of SQLite, so the binary needs no C
// toolchain. The store keeps a single open connection: SQLite serialises
// writers anyway, and an in-memory database (":memory:") only exists on the
// connection that created it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/gossip-stories/gossip/internal/repository"
)

// querier is the subset of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps the sql.DB connection pool and hands out repositories bound to it.
type DB struct {
	conn *sql.DB
}

var _ repository.Store = (*DB)(nil)

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/gossip.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Users() repository.UserRepository     { return &UserDB{q: db.conn} }
func (db *DB) Events() repository.EventRepository   { return &EventDB{q: db.conn} }
func (db *DB) Stories() repository.StoryRepository { return &StoryDB{q: db.conn} }

// WithTx runs fn against repositories bound to a single transaction.
func (db *DB) WithTx(ctx context.Context, fn func(repository.Repositories) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(txRepos{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlite: rolling back after %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

type txRepos struct {
	tx *sql.Tx
}

func (r txRepos) Users() repository.UserRepository     { return &UserDB{q: r.tx} }
func (r txRepos) Events() repository.EventRepository   { return &EventDB{q: r.tx} }
func (r txRepos) Stories() repository.StoryRepository { return &StoryDB{q: r.tx} }

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id          TEXT PRIMARY KEY,
			provider_id TEXT NOT NULL UNIQUE,
			email       TEXT NOT NULL UNIQUE,
			username    TEXT NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id),
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			slug        TEXT NOT NULL UNIQUE,
			is_active   INTEGER NOT NULL DEFAULT 1,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_events_user_id ON events(user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	// No ON DELETE CASCADE: stories are removed explicitly before their event.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS stories (
			id                 TEXT PRIMARY KEY,
			event_id           TEXT NOT NULL REFERENCES events(id),
			title              TEXT NOT NULL,
			content            TEXT NOT NULL,
			submitter_email    TEXT NOT NULL DEFAULT '',
			submitter_username TEXT NOT NULL DEFAULT '',
			anonymous          INTEGER NOT NULL DEFAULT 0,
			tags               TEXT NOT NULL DEFAULT '[]',
			status             TEXT NOT NULL DEFAULT 'PENDING_REVIEW'
				CHECK (status IN ('PENDING_REVIEW', 'APPROVED', 'REJECTED', 'READ')),
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_stories_event_id ON stories(event_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating stories table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE"))
	}
	return false
}
