package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	emailAdapter "workouts/internal/adapters/email"
	"workouts/internal/adapters/metrics"
	"workouts/internal/domain/account"
)

// AccountStoreForCreate defines the store interface needed by CreateAccount.
type AccountStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	Name     string
	Email    string
	Password string
	Role     string // RoleUser when empty
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStoreForCreate
	Sender       emailAdapter.Sender // optional; welcome email skipped when nil
	GenerateID   func() string
	Now          func() time.Time
}

var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// FieldError reports one invalid registration field in the shape the API returns.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

// Error implements error.
func (e *FieldError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying domain error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// ExecuteCreateAccount coordinates account registration.
// PRE: none; every field is checked here
// POST: Account created with hashed password; welcome email attempted
// INVARIANT: Email must be unique (case-insensitive)
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (account.Account, error) {
	role := input.Role
	if role == "" {
		role = account.RoleUser
	}

	acct := account.Account{
		ID:        deps.GenerateID(),
		Name:      input.Name,
		Email:     account.NormalizeEmail(input.Email),
		Role:      role,
		CreatedAt: deps.Now().UTC().Truncate(time.Second),
	}

	if err := acct.Validate(); err != nil {
		return account.Account{}, accountFieldError(err)
	}

	// Check if email already exists
	if _, err := deps.AccountStore.GetByEmail(ctx, acct.Email); err == nil {
		return account.Account{}, &FieldError{Field: "email", Message: "The email has already been taken.", Err: ErrEmailAlreadyExists}
	} else if !errors.Is(err, account.ErrNotFound) {
		return account.Account{}, err
	}

	// Set password (handles hashing and length validation)
	if err := acct.SetPassword(input.Password); err != nil {
		return account.Account{}, accountFieldError(err)
	}

	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "account_created", "account_id", acct.ID, "role", acct.Role)
	metrics.RecordAuthEvent("account_created")

	if deps.Sender != nil {
		sendWelcome(ctx, deps.Sender, acct)
	}
	return acct, nil
}

// sendWelcome is best-effort: a provider failure never undoes a registration.
func sendWelcome(ctx context.Context, sender emailAdapter.Sender, acct account.Account) {
	_, err := sender.Send(ctx, emailAdapter.SendRequest{
		To:      []string{acct.Email},
		Subject: "Welcome to Workouts",
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>Your account is ready. Sign in to start scheduling workouts.</p>",
			html.EscapeString(acct.Name)),
	})
	if err != nil {
		slog.Warn("auth_event", "event", "welcome_email_failed", "account_id", acct.ID, "error", err)
	}
}

// accountFieldError maps domain validation errors onto request fields.
func accountFieldError(err error) error {
	switch {
	case errors.Is(err, account.ErrEmptyName):
		return &FieldError{Field: "name", Message: "The name field is required.", Err: err}
	case errors.Is(err, account.ErrNameTooLong):
		return &FieldError{Field: "name", Message: "The name field must not be greater than 255 characters.", Err: err}
	case errors.Is(err, account.ErrEmptyEmail):
		return &FieldError{Field: "email", Message: "The email field is required.", Err: err}
	case errors.Is(err, account.ErrInvalidEmail), errors.Is(err, account.ErrEmailTooLong):
		return &FieldError{Field: "email", Message: "The email field must be a valid email address.", Err: err}
	case errors.Is(err, account.ErrEmptyPassword):
		return &FieldError{Field: "password", Message: "The password field is required.", Err: err}
	case errors.Is(err, account.ErrPasswordTooShort):
		return &FieldError{Field: "password", Message: "The password field must be at least 8 characters.", Err: err}
	}
	return err
}

// AccountStoreForSeed defines the store interface needed by SeedAdmin.
type AccountStoreForSeed interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ExecuteSeedAdmin creates the configured admin account unless it already exists.
// PRE: Database is migrated
// POST: an admin account with the email exists
func ExecuteSeedAdmin(ctx context.Context, deps CreateAccountDeps, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := deps.AccountStore.GetByEmail(ctx, email); err == nil {
		return nil
	}

	deps.Sender = nil
	_, err := ExecuteCreateAccount(ctx, CreateAccountInput{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     account.RoleAdmin,
	}, deps)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	slog.Info("auth_event", "event", "admin_seeded", "email", email)
	return nil
}
