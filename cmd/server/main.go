package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	emailPkg "workouts/internal/adapters/email"
	web "workouts/internal/adapters/http"
	"workouts/internal/adapters/storage"
	accountStore "workouts/internal/adapters/storage/account"
	apiTokenStore "workouts/internal/adapters/storage/apitoken"
	workoutStore "workouts/internal/adapters/storage/workout"
	"workouts/internal/adapters/token"
	"workouts/internal/application/orchestrators"
	"workouts/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// maintenanceInterval is how often expired tokens and idle UI state are purged.
const maintenanceInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	setupLogger(cfg)

	dialect, err := storage.ParseDialect(cfg.DBDriver)
	if err != nil {
		log.Fatalf("invalid database driver: %v", err)
	}
	db, err := storage.Open(dialect, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := storage.Migrate(db, dialect); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	schema, _, _ := storage.SchemaVersion(db, dialect)
	slog.Info("database_ready", "driver", dialect, "schema", schema)

	// Query instrumentation: slow queries log at WARN and feed the query histogram
	timedDB := storage.NewTimedDB(db, dialect, cfg.SlowQuery)

	stores := &web.Stores{
		AccountStore: accountStore.NewSQLStore(timedDB),
		WorkoutStore: workoutStore.NewSQLStore(timedDB),
		TokenStore:   apiTokenStore.NewSQLStore(timedDB),
	}

	// Seed the admin account when configured (idempotent)
	seedDeps := orchestrators.CreateAccountDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   func() string { return uuid.New().String() },
		Now:          time.Now,
	}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedDeps, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	// Configure email sender
	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.ReplyTo)
		slog.Info("email_sender_configured", "provider", "resend")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_sender_configured", "provider", "noop", "detail", "WORKOUTS_RESEND_KEY is not set; welcome emails are disabled")
		} else {
			slog.Info("email_sender_configured", "provider", "noop")
		}
	}

	issuer, err := token.NewIssuer(token.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.TokenTTL})
	if err != nil {
		log.Fatalf("failed to configure tokens: %v", err)
	}
	if cfg.CSRFKeyGenerated {
		slog.Warn("csrf_key_generated", "detail", "sessions won't survive restart; set WORKOUTS_CSRF_KEY")
	}

	handler, err := web.NewMux(stores, web.Options{
		CSRFKey:        cfg.CSRFKey,
		SecureCookies:  cfg.IsProduction(),
		TrustedOrigins: cfg.TrustedOrigins,
		Issuer:         issuer,
		Sender:         sender,
		RateLimit:      cfg.RateLimit,
		SlowRequest:    cfg.SlowRequest,
		DB:             timedDB,
	})
	if err != nil {
		log.Fatalf("failed to build handler: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runMaintenance(ctx, stores.TokenStore)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err.Error())
	}
}

// setupLogger installs the default slog handler: JSON in production, text otherwise.
func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

// runMaintenance purges expired API tokens and idle UI state until ctx is done.
func runMaintenance(ctx context.Context, tokens apiTokenStore.Store) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tokens.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				slog.Error("maintenance_failed", "task", "delete_expired_tokens", "error", err.Error())
			}
			swept := web.SweepIdleViews()
			slog.Info("maintenance_done", "expired_tokens", n, "idle_views", swept)
		}
	}
}
