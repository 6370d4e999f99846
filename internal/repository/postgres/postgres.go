// Package postgres implements the repository interfaces on PostgreSQL using
// pgx directly, without an ORM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/repository"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second

	uniqueViolation = "23505"
)

// querier is the subset of *pgxpool.Pool and pgx.Tx the repositories use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps a pgx connection pool.
type DB struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*DB)(nil)

// New connects to databaseURL and runs migrations. It retries the initial
// connection a few times to accommodate a database container that is still
// starting.
func New(ctx context.Context, databaseURL string, logger *slog.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing database url: %w", err)
	}

	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
			pool = nil
		}
		logger.Warn("postgres connect failed",
			"attempt", attempt,
			"max_attempts", connectAttempts,
			"error", err,
		)
		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("postgres: connecting: %w", ctx.Err())
		case <-time.After(connectBackoff):
		}
	}
	if pool == nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func (db *DB) Users() repository.UserRepository     { return &UserDB{q: db.pool} }
func (db *DB) Events() repository.EventRepository   { return &EventDB{q: db.pool} }
func (db *DB) Stories() repository.StoryRepository { return &StoryDB{q: db.pool} }

// WithTx runs fn against repositories bound to a single transaction.
func (db *DB) WithTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		return fn(txRepos{tx: tx})
	})
}

type txRepos struct {
	tx pgx.Tx
}

func (r txRepos) Users() repository.UserRepository     { return &UserDB{q: r.tx} }
func (r txRepos) Events() repository.EventRepository   { return &EventDB{q: r.tx} }
func (r txRepos) Stories() repository.StoryRepository { return &StoryDB{q: r.tx} }

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL UNIQUE,
		email       TEXT NOT NULL UNIQUE,
		username    TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id),
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		slug        TEXT NOT NULL UNIQUE,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_user_id ON events(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS stories (
		id                 TEXT PRIMARY KEY,
		event_id           TEXT NOT NULL REFERENCES events(id),
		title              TEXT NOT NULL,
		content            TEXT NOT NULL,
		submitter_email    TEXT NOT NULL DEFAULT '',
		submitter_username TEXT NOT NULL DEFAULT '',
		anonymous          BOOLEAN NOT NULL DEFAULT FALSE,
		tags               TEXT[] NOT NULL DEFAULT '{}',
		status             TEXT NOT NULL DEFAULT 'PENDING_REVIEW'
			CHECK (status IN ('PENDING_REVIEW', 'APPROVED', 'REJECTED', 'READ')),
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stories_event_id ON stories(event_id, created_at)`,
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// requireAffected turns a zero-row UPDATE/DELETE into a NotFound error.
func requireAffected(tag pgconn.CommandTag, resource, id string) error {
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
