package apitoken

import (
	"context"
	"errors"
	"testing"
	"time"

	"workouts/internal/adapters/storage"
	domain "workouts/internal/domain/account"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := storage.Open(storage.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db, storage.DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	_, err = db.Exec("INSERT INTO account (id, name, email, role, created_at) VALUES ('a1', 'Jane', 'jane@example.com', 'user', ?)",
		storage.FormatTime(now))
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return NewSQLStore(db)
}

func TestSQLStore_SaveGetRevoke(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tok := domain.APIToken{ID: "jti-1", AccountID: "a1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := s.Save(ctx, tok); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.GetByID(ctx, "jti-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AccountID != "a1" || !got.ExpiresAt.Equal(now.Add(time.Hour)) || !got.IsUsable(now) {
		t.Errorf("unexpected token: %+v", got)
	}

	if err := s.Revoke(ctx, "jti-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := s.Revoke(ctx, "jti-1", now.Add(2*time.Minute)); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
	got, _ = s.GetByID(ctx, "jti-1")
	if !got.RevokedAt.Equal(now.Add(time.Minute)) || got.IsUsable(now) {
		t.Errorf("revoked token = %+v, want first revocation time kept", got)
	}

	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
	if err := s.Revoke(ctx, "missing", now); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound on revoke, got %v", err)
	}
}

func TestSQLStore_RevokeAllAndDeleteExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Save(ctx, domain.APIToken{ID: "old", AccountID: "a1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)})
	s.Save(ctx, domain.APIToken{ID: "live", AccountID: "a1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})

	if err := s.RevokeAllForAccount(ctx, "a1", now); err != nil {
		t.Fatalf("RevokeAllForAccount: %v", err)
	}
	live, _ := s.GetByID(ctx, "live")
	if live.IsUsable(now) {
		t.Error("expected live token to be revoked")
	}

	n, err := s.DeleteExpired(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired = %d, %v; want 1", n, err)
	}
	if _, err := s.GetByID(ctx, "old"); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("expected expired token to be gone, got %v", err)
	}
}
