package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domainAccount "workouts/internal/domain/account"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestSessionStore_Expiry verifies sessions expire after SessionTTL.
func TestSessionStore_Expiry(t *testing.T) {
	ss := NewSessionStore()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return clock }

	token, err := ss.Create(domainAccount.Account{ID: "a1", Email: "a@example.com", Role: "user"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s, ok := ss.Get(token)
	if !ok || s.AccountID != "a1" || s.Token != token {
		t.Fatalf("expected session for a1, got %+v", s)
	}

	clock = clock.Add(SessionTTL + time.Second)
	if _, ok := ss.Get(token); ok {
		t.Error("expected expired session")
	}
}

// TestAuth_CookieSession verifies a cookie session reaches the handler.
func TestAuth_CookieSession(t *testing.T) {
	ss := NewSessionStore()
	token, _ := ss.Create(domainAccount.Account{ID: "a1", Role: "user"})

	var got Session
	h := Auth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetSessionFromContext(r.Context())
	}))
	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got.AccountID != "a1" {
		t.Errorf("expected a1 in context, got %+v", got)
	}

	// API paths never authenticate from cookies.
	got = Session{}
	req = httptest.NewRequest("GET", "/api/workouts", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got.AccountID != "" {
		t.Errorf("expected no session for API path, got %+v", got)
	}
}

// TestBearer verifies bearer tokens authenticate /api/ paths only.
func TestBearer(t *testing.T) {
	authn := func(_ context.Context, raw string) (Session, error) {
		if raw == "good" {
			return Session{AccountID: "a1", TokenID: "t1"}, nil
		}
		return Session{}, errors.New("bad token")
	}
	var got Session
	h := Bearer(authn)(RequireAPIAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetSessionFromContext(r.Context())
	})))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/workouts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized {
				var body map[string]string
				if err := json.NewDecoder(rr.Body).Decode(&body); err != nil || body["message"] != "Unauthenticated." {
					t.Errorf("unexpected body %v (%v)", body, err)
				}
			}
		})
	}
	if got.TokenID != "t1" {
		t.Errorf("expected token id in session, got %+v", got)
	}
}

// TestRequireRole verifies role gating.
func TestRequireRole(t *testing.T) {
	h := RequireRole(domainAccount.RoleAdmin)(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/admin/workouts", nil))
	if rr.Code != http.StatusSeeOther {
		t.Errorf("anonymous status = %d, want 303", rr.Code)
	}

	req := httptest.NewRequest("GET", "/admin/workouts", nil)
	req = req.WithContext(ContextWithSession(req.Context(), Session{AccountID: "u", Role: "user"}))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("user status = %d, want 403", rr.Code)
	}

	req = httptest.NewRequest("GET", "/admin/workouts", nil)
	req = req.WithContext(ContextWithSession(req.Context(), Session{AccountID: "a", Role: "admin"}))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rr.Code)
	}
}

// TestRateLimiter verifies the bucket empties and refills.
func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Second)
	defer rl.Stop()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("expected first two requests allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("expected third request limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("expected other IP unaffected")
	}
	clock = clock.Add(time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("expected refill after interval")
	}
}

// TestRateLimiter_SteadyTrafficBelowLimit verifies requests spaced under the
// configured rate keep being allowed, and a faster client is throttled to the rate.
func TestRateLimiter_SteadyTrafficBelowLimit(t *testing.T) {
	rl := NewRateLimiter(10, time.Second)
	defer rl.Stop()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	denied := 0
	for i := 0; i < 50; i++ {
		if !rl.Allow("1.2.3.4") {
			denied++
		}
		clock = clock.Add(200 * time.Millisecond)
	}
	if denied != 0 {
		t.Errorf("denied %d of 50 requests at 5 req/s against a 10 req/s limit", denied)
	}

	// 20 req/s for 5s: the initial burst of 10 plus about 10 per second.
	allowed := 0
	for i := 0; i < 100; i++ {
		if rl.Allow("9.9.9.9") {
			allowed++
		}
		clock = clock.Add(50 * time.Millisecond)
	}
	if allowed < 55 || allowed > 62 {
		t.Errorf("allowed %d of 100 requests at 20 req/s, want about 60", allowed)
	}
}

// TestRateLimit_Disabled verifies a non-positive rate never limits.
func TestRateLimit_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Second)
	defer rl.Stop()
	h := RateLimit(rl)(okHandler())
	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rr.Code)
		}
	}
}

// TestCSRF verifies forms need a token and API paths are exempt.
func TestCSRF(t *testing.T) {
	h := CSRF(CSRFOptions{Key: []byte(strings.Repeat("k", 32))})(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/dashboard/create", nil))
	if rr.Code != http.StatusForbidden {
		t.Errorf("form POST without token status = %d, want 403", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/api/workouts", strings.NewReader("{}")))
	if rr.Code != http.StatusOK {
		t.Errorf("API POST status = %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/dashboard", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", rr.Code)
	}
}

// TestSecurityHeaders verifies the OWASP headers are set.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}
