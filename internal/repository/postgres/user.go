package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gossip-stories/gossip/internal/apperror"
	"github.com/gossip-stories/gossip/internal/model"
	"github.com/gossip-stories/gossip/internal/repository"
)

type UserDB struct {
	q querier
}

var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, provider_id, email, username, created_at, updated_at`

func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = uuid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.q.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.ProviderID, user.Email, user.Username, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.ProviderID)
		}
		return fmt.Errorf("postgres: inserting user (providerID=%s): %w", user.ProviderID, err)
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

// column is always a constant from this file.
func (u *UserDB) getOne(ctx context.Context, column, value string) (*model.User, error) {
	var user model.User
	err := u.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value,
	).Scan(&user.ID, &user.ProviderID, &user.Email, &user.Username, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("postgres: getting user by %s: %w", column, err)
	}
	return &user, nil
}

func (u *UserDB) UpdateProviderID(ctx context.Context, id, providerID string) error {
	tag, err := u.q.Exec(ctx,
		`UPDATE users SET provider_id = $1, updated_at = $2 WHERE id = $3`,
		providerID, time.Now().UTC(), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", providerID)
		}
		return fmt.Errorf("postgres: updating provider id of user %s: %w", id, err)
	}
	return requireAffected(tag, "user", id)
}
