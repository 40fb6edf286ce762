package apitoken

import (
	"context"
	"time"

	domain "workouts/internal/domain/account"
)

// Store persists issued API tokens.
type Store interface {
	Save(ctx context.Context, token domain.APIToken) error
	GetByID(ctx context.Context, id string) (domain.APIToken, error)
	Revoke(ctx context.Context, id string, now time.Time) error
	RevokeAllForAccount(ctx context.Context, accountID string, now time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
