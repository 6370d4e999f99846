// Package service holds the business rules of Gossip.
//
//	Handler (HTTP) → Service (rules, authorization) → Repository (storage)
//
// Every owner-scoped operation goes through the Guard first. Services return
// apperror values for expected failures; anything else is a persistence
// failure, logged here and surfaced by handlers as a generic 500.
package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gossip-stories/gossip/internal/apperror"
)

// persistenceError passes apperror values through untouched and logs and
// wraps everything else.
func persistenceError(logger *slog.Logger, op string, err error, attrs ...any) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	logger.Error(op+" failed", append(attrs, "error", err)...)
	return fmt.Errorf("service: %s: %w", op, err)
}
