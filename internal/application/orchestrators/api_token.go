package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"workouts/internal/adapters/token"
	"workouts/internal/domain/account"
)

// TokenIssuer signs and verifies API tokens.
type TokenIssuer interface {
	Issue(accountID, role string, now time.Time) (string, token.Claims, error)
	Parse(raw string, now time.Time) (token.Claims, error)
}

// TokenStore records issued tokens so they can be revoked.
type TokenStore interface {
	Save(ctx context.Context, t account.APIToken) error
	GetByID(ctx context.Context, id string) (account.APIToken, error)
	Revoke(ctx context.Context, id string, now time.Time) error
}

// AccountLookup loads the account behind a token.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// --- Issue Token ---

// IssueTokenDeps holds dependencies for IssueToken.
type IssueTokenDeps struct {
	Issuer     TokenIssuer
	TokenStore TokenStore
	Now        func() time.Time
}

// IssuedToken is a signed bearer token and its expiry.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// ExecuteIssueToken signs a bearer token for acct and records it.
// POST: an api_token row exists for the token's ID
func ExecuteIssueToken(ctx context.Context, acct account.Account, deps IssueTokenDeps) (IssuedToken, error) {
	now := deps.Now().UTC()
	raw, claims, err := deps.Issuer.Issue(acct.ID, acct.Role, now)
	if err != nil {
		return IssuedToken{}, err
	}
	if err := deps.TokenStore.Save(ctx, account.APIToken{
		ID:        claims.ID,
		AccountID: acct.ID,
		CreatedAt: claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	}); err != nil {
		return IssuedToken{}, err
	}
	slog.Info("auth_event", "event", "token_issued", "account_id", acct.ID, "token_id", claims.ID)
	return IssuedToken{Token: raw, ExpiresAt: claims.ExpiresAt}, nil
}

// --- Authenticate Token ---

// AuthenticateTokenDeps holds dependencies for AuthenticateToken.
type AuthenticateTokenDeps struct {
	Issuer       TokenIssuer
	TokenStore   TokenStore
	AccountStore AccountLookup
	Now          func() time.Time
}

// AuthenticatedToken is the identity resolved from a bearer token.
type AuthenticatedToken struct {
	Account account.Account
	TokenID string
}

// ExecuteAuthenticateToken resolves a raw bearer token to its account.
// POST: any signature, expiry, revocation or lookup failure reports ErrUnauthenticated
func ExecuteAuthenticateToken(ctx context.Context, raw string, deps AuthenticateTokenDeps) (AuthenticatedToken, error) {
	now := deps.Now().UTC()
	claims, err := deps.Issuer.Parse(raw, now)
	if err != nil {
		return AuthenticatedToken{}, ErrUnauthenticated
	}
	stored, err := deps.TokenStore.GetByID(ctx, claims.ID)
	if err != nil || stored.AccountID != claims.Subject || !stored.IsUsable(now) {
		return AuthenticatedToken{}, ErrUnauthenticated
	}
	acct, err := deps.AccountStore.GetByID(ctx, claims.Subject)
	if err != nil {
		return AuthenticatedToken{}, ErrUnauthenticated
	}
	return AuthenticatedToken{Account: acct, TokenID: claims.ID}, nil
}

// --- Revoke Token ---

// RevokeTokenDeps holds dependencies for RevokeToken.
type RevokeTokenDeps struct {
	TokenStore TokenStore
	Now        func() time.Time
}

// ExecuteRevokeToken revokes the token presented on logout.
// POST: the token can no longer authenticate
func ExecuteRevokeToken(ctx context.Context, tokenID string, deps RevokeTokenDeps) error {
	if tokenID == "" {
		return ErrUnauthenticated
	}
	if err := deps.TokenStore.Revoke(ctx, tokenID, deps.Now().UTC()); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "token_revoked", "token_id", tokenID)
	return nil
}
