package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/repository"
)

// UserDB implements repository.UserRepository.
type UserDB struct {
	q querier
}

var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, provider_id, email, username, created_at, updated_at`

// Create inserts a new user, filling in ID and timestamps.
// A duplicate provider id or email returns apperror.ErrConflict.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.ProviderID,
		user.Email,
		user.Username,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.ProviderID)
		}
		return fmt.Errorf("sqlite: inserting user (providerID=%s): %w", user.ProviderID, err)
	}

	return nil
}

func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return u.getOne(ctx, "id", id)
}

func (u *UserDB) GetByProviderID(ctx context.Context, providerID string) (*model.User, error) {
	return u.getOne(ctx, "provider_id", providerID)
}

func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.getOne(ctx, "email", email)
}

// getOne loads a user by a unique column. column is always a constant from
// this file, never caller input.
func (u *UserDB) getOne(ctx context.Context, column, value string) (*model.User, error) {
	var user model.User

	err := u.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`,
		value,
	).Scan(
		&user.ID,
		&user.ProviderID,
		&user.Email,
		&user.Username,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, err)
	}

	return &user, nil
}

func (u *UserDB) UpdateProviderID(ctx context.Context, id, providerID string) error {
	result, err := u.q.ExecContext(ctx,
		`UPDATE users SET provider_id = ?, updated_at = ? WHERE id = ?`,
		providerID, time.Now().UTC(), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", providerID)
		}
		return fmt.Errorf("sqlite: updating provider id of user %s: %w", id, err)
	}

	return requireAffected(result, "user", id)
}

// requireAffected turns a zero-row UPDATE/DELETE into a NotFound error.
func requireAffected(result sql.Result, resource, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
