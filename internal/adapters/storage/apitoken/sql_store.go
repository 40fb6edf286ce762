package apitoken

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"workouts/internal/adapters/storage"
	domain "workouts/internal/domain/account"
)

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new token store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// Save records an issued token.
// PRE: token.ID is unique, token.AccountID exists
func (s *SQLStore) Save(ctx context.Context, token domain.APIToken) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO api_token (id, account_id, created_at, expires_at, revoked_at) VALUES (?, ?, ?, ?, ?)",
		token.ID,
		token.AccountID,
		storage.FormatTime(token.CreatedAt),
		storage.FormatTime(token.ExpiresAt),
		storage.FormatNullTime(token.RevokedAt),
	)
	if err != nil {
		return fmt.Errorf("save api token: %w", err)
	}
	return nil
}

// GetByID retrieves a token by its identifier.
// POST: Returns the token or an error wrapping domain.ErrTokenNotFound
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.APIToken, error) {
	var token domain.APIToken
	var createdAt, expiresAt string
	var revokedAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, account_id, created_at, expires_at, revoked_at FROM api_token WHERE id = ?", id,
	).Scan(&token.ID, &token.AccountID, &createdAt, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.APIToken{}, fmt.Errorf("%w: %s", domain.ErrTokenNotFound, id)
	}
	if err != nil {
		return domain.APIToken{}, fmt.Errorf("get api token: %w", err)
	}
	token.CreatedAt, _ = storage.ParseTime(createdAt)
	token.ExpiresAt, _ = storage.ParseTime(expiresAt)
	token.RevokedAt, _ = storage.ParseNullTime(revokedAt)
	return token, nil
}

// Revoke marks a single token revoked. Revoking twice keeps the first timestamp.
func (s *SQLStore) Revoke(ctx context.Context, id string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE api_token SET revoked_at = COALESCE(revoked_at, ?) WHERE id = ?",
		storage.FormatTime(now), id)
	if err != nil {
		return fmt.Errorf("revoke api token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTokenNotFound, id)
	}
	return nil
}

// RevokeAllForAccount revokes every live token of an account.
func (s *SQLStore) RevokeAllForAccount(ctx context.Context, accountID string, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE api_token SET revoked_at = ? WHERE account_id = ? AND revoked_at IS NULL",
		storage.FormatTime(now), accountID)
	if err != nil {
		return fmt.Errorf("revoke api tokens: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens that expired before now and reports how many went.
func (s *SQLStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM api_token WHERE expires_at < ?", storage.FormatTime(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired api tokens: %w", err)
	}
	return res.RowsAffected()
}
