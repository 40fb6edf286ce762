package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"workouts/internal/adapters/email"
	"workouts/internal/adapters/http/middleware"
	"workouts/internal/adapters/metrics"
	accountStore "workouts/internal/adapters/storage/account"
	apiTokenStore "workouts/internal/adapters/storage/apitoken"
	workoutStore "workouts/internal/adapters/storage/workout"
	"workouts/internal/adapters/token"
	"workouts/internal/application/orchestrators"
	"workouts/internal/application/viewstate"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore accountStore.Store
	WorkoutStore workoutStore.Store
	TokenStore   apiTokenStore.Store
}

// Pinger reports datastore health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options configures NewMux.
type Options struct {
	CSRFKey        []byte // 32 bytes
	SecureCookies  bool
	TrustedOrigins []string
	Issuer         *token.Issuer
	Sender         email.Sender // optional
	RateLimit      int          // requests per second per IP; 0 disables
	SlowRequest    time.Duration
	DB             Pinger // optional; /healthz reports ok without one
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// UI state, one per session and surface
var views *viewstate.Registry

var (
	dashboardUI *viewstate.Controller
	managerUI   *viewstate.Controller
)

var tokenIssuer *token.Issuer

// Global email sender instance (nil skips welcome emails)
var emailSender email.Sender

var healthDB Pinger

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, opts Options) (http.Handler, error) {
	if len(opts.CSRFKey) != 32 {
		return nil, errors.New("csrf key must be 32 bytes")
	}
	if opts.Issuer == nil {
		return nil, errors.New("token issuer is required")
	}

	stores = s
	sessions = middleware.NewSessionStore()
	views = viewstate.NewRegistry()
	tokenIssuer = opts.Issuer
	emailSender = opts.Sender
	healthDB = opts.DB
	middleware.SecureCookies = opts.SecureCookies

	uiDeps := viewstate.Deps{
		WorkoutStore: s.WorkoutStore,
		GenerateID:   generateID,
		Now:          func() time.Time { return timeNow() },
	}
	dashboardUI = viewstate.NewController(viewstate.Dashboard, uiDeps)
	managerUI = viewstate.NewController(viewstate.Manager, uiDeps)

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(opts.RateLimit, time.Second)

	// Apply middleware: Timing -> RateLimit -> Bearer -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(middleware.CSRFOptions{
			Key:            opts.CSRFKey,
			Secure:         opts.SecureCookies,
			TrustedOrigins: opts.TrustedOrigins,
		}),
		middleware.Auth(sessions),
		middleware.Bearer(authenticateBearer),
		middleware.RateLimit(limiter),
		middleware.Timing(opts.SlowRequest),
	), nil
}

// registerRoutes maps every route onto its handler.
func registerRoutes(mux *http.ServeMux) {
	api := func(h http.HandlerFunc) http.Handler { return middleware.RequireAPIAuth(h) }
	page := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return middleware.RequireRole("admin")(h) }

	// Operational
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.Handle("GET /metrics", metrics.Handler())

	// JSON API
	mux.HandleFunc("POST /api/register", handleAPIRegister)
	mux.HandleFunc("POST /api/login", handleAPILogin)
	mux.Handle("POST /api/logout", api(handleAPILogout))
	mux.Handle("GET /api/user", api(handleAPIUser))
	mux.Handle("GET /api/workouts", api(handleAPIListWorkouts))
	mux.Handle("POST /api/workouts", api(handleAPICreateWorkout))
	mux.Handle("GET /api/workouts/{id}", api(handleAPIShowWorkout))
	mux.Handle("PUT /api/workouts/{id}", api(handleAPIUpdateWorkout))
	mux.Handle("PATCH /api/workouts/{id}", api(handleAPIUpdateWorkout))
	mux.Handle("DELETE /api/workouts/{id}", api(handleAPIDeleteWorkout))
	mux.HandleFunc("/api/", handleAPINotFound)

	// Auth pages
	mux.HandleFunc("GET /{$}", handleHome)
	mux.HandleFunc("GET /login", handleLoginPage)
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("GET /register", handleRegisterPage)
	mux.HandleFunc("POST /register", handleRegister)
	mux.HandleFunc("POST /logout", handleLogout)

	// Interactive surfaces
	for _, ui := range []*viewstate.Controller{dashboardUI, managerUI} {
		registerSurface(mux, ui, page)
	}

	// Admin
	mux.Handle("GET /admin/workouts", admin(handleAdminWorkouts))
	mux.Handle("POST /admin/workouts/action", admin(handleAdminWorkoutAction))
	mux.Handle("GET /admin/workouts/{id}/edit", admin(handleAdminEditWorkoutPage))
	mux.Handle("POST /admin/workouts/{id}/edit", admin(handleAdminEditWorkout))
}

// authenticateBearer resolves API bearer tokens for middleware.Bearer.
func authenticateBearer(ctx context.Context, raw string) (middleware.Session, error) {
	auth, err := orchestrators.ExecuteAuthenticateToken(ctx, raw, orchestrators.AuthenticateTokenDeps{
		Issuer:       tokenIssuer,
		TokenStore:   stores.TokenStore,
		AccountStore: stores.AccountStore,
		Now:          func() time.Time { return timeNow() },
	})
	if err != nil {
		return middleware.Session{}, err
	}
	return middleware.Session{
		AccountID: auth.Account.ID,
		Name:      auth.Account.Name,
		Email:     auth.Account.Email,
		Role:      auth.Account.Role,
		TokenID:   auth.TokenID,
	}, nil
}

// SweepIdleViews drops interactive state for sessions idle past viewstate.IdleTimeout.
func SweepIdleViews() int {
	if views == nil {
		return 0
	}
	return views.Sweep()
}
