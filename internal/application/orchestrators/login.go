package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"workouts/internal/adapters/metrics"
	"workouts/internal/domain/account"
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForLogin
	Now          func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
)

// ExecuteLogin validates credentials and returns the account for session or token creation.
// PRE: none
// POST: Returns the account on success, records failed login on failure
// INVARIANT: Account must not be locked
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (account.Account, error) {
	if input.Email == "" || input.Password == "" {
		return account.Account{}, ErrInvalidCredentials
	}
	now := deps.Now()

	acct, err := deps.AccountStore.GetByEmail(ctx, input.Email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "reason", "not_found")
		metrics.RecordAuthEvent("login_failed")
		return account.Account{}, ErrInvalidCredentials
	}

	if acct.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "account_id", acct.ID, "reason", "locked")
		metrics.RecordAuthEvent("login_blocked")
		return account.Account{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin(now)
		_ = deps.AccountStore.Save(ctx, acct)
		slog.Info("auth_event", "event", "login_failed", "account_id", acct.ID, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		metrics.RecordAuthEvent("login_failed")
		return account.Account{}, ErrInvalidCredentials
	}

	if acct.FailedLogins > 0 || !acct.LockedUntil.IsZero() {
		acct.ResetFailedLogins()
		_ = deps.AccountStore.Save(ctx, acct)
	}

	slog.Info("auth_event", "event", "login_success", "account_id", acct.ID, "role", acct.Role)
	metrics.RecordAuthEvent("login")
	return acct, nil
}
