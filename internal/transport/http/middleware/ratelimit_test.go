package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"timekeep/internal/domain/auth"
	"timekeep/internal/platform/ratelimit"
	"timekeep/internal/transport/http/shared"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis: connection refused")
}

func noContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRateLimitUsesUserKeyBeforeIPFallback(t *testing.T) {
	limited := RateLimit(ratelimit.NewMemory(1, time.Minute))(noContent())
	userCtx := WithUser(context.Background(), auth.UserContext{UserID: "user-1", Role: auth.RoleEmployee})

	first := httptest.NewRequest(http.MethodPost, "/clock-in", nil).WithContext(userCtx)
	first.RemoteAddr = "198.51.100.11:2222"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/clock-out", nil).WithContext(userCtx)
	second.RemoteAddr = "198.51.100.12:3333"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by user key, got %d", secondRec.Code)
	}
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	limited := RateLimit(ratelimit.NewMemory(1, time.Minute))(noContent())

	first := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	first.RemoteAddr = "203.0.113.10:4444"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	second.RemoteAddr = "203.0.113.10:5555"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by ip key, got %d", secondRec.Code)
	}

	other := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	other.RemoteAddr = "203.0.113.99:5555"
	otherRec := httptest.NewRecorder()
	limited.ServeHTTP(otherRec, other)
	if otherRec.Code != http.StatusNoContent {
		t.Fatalf("expected a different client to pass, got %d", otherRec.Code)
	}
}

func TestRateLimitWindowSlides(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)}
	limited := RateLimit(ratelimit.NewMemory(2, time.Minute, ratelimit.WithClock(clock.Now)))(noContent())

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/my-records", nil)
		req.RemoteAddr = "192.0.2.20:1111"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	clock.Advance(30 * time.Second)
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected second request to pass, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be throttled, got %d", code)
	}
	clock.Advance(31 * time.Second)
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected request after the oldest left the window to pass, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected window to still hold one recent request, got %d", code)
	}
}

func TestRateLimitReturnsRetryMetadata(t *testing.T) {
	limited := RateLimit(ratelimit.NewMemory(1, time.Minute))(noContent())

	req1 := httptest.NewRequest(http.MethodGet, "/overtime-report", nil)
	req1.RemoteAddr = "192.0.2.30:1234"
	rec1 := httptest.NewRecorder()
	limited.ServeHTTP(rec1, req1)
	if rec1.Header().Get("X-RateLimit-Limit") != "1" || rec1.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected limit headers: %v", rec1.Header())
	}

	req2 := httptest.NewRequest(http.MethodGet, "/overtime-report", nil)
	req2.RemoteAddr = "192.0.2.30:1234"
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, req2)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected throttled response, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("expected X-RateLimit-Reset header")
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"rate_limited"`)) {
		t.Fatalf("expected rate_limited code, got %s", rec.Body.String())
	}
}

func TestRateLimitFailsOpenOnLimiterError(t *testing.T) {
	limited := RateLimit(failingLimiter{})(noContent())
	req := httptest.NewRequest(http.MethodGet, "/my-records", nil)
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected request to pass when limiter fails, got %d", rec.Code)
	}
}

func TestCredentialRateLimitCountsPerEmail(t *testing.T) {
	limited := CredentialRateLimit(ratelimit.NewMemory(2, time.Minute))(noContent())

	login := func(email, addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"email":"`+email+`","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := login("a@example.com", "192.0.2.1:1"); code != http.StatusNoContent {
		t.Fatalf("expected first login to pass, got %d", code)
	}
	if code := login("A@example.com", "192.0.2.2:1"); code != http.StatusNoContent {
		t.Fatalf("expected second login to pass, got %d", code)
	}
	if code := login("a@example.com", "192.0.2.3:1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected third login for the same email to be throttled, got %d", code)
	}
	if code := login("b@example.com", "192.0.2.4:1"); code != http.StatusNoContent {
		t.Fatalf("expected other email to pass, got %d", code)
	}
}

func TestCredentialRateLimitPreservesBody(t *testing.T) {
	var got string
	limited := CredentialRateLimit(ratelimit.NewMemory(5, time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		got = buf.String()
	}))

	body := `{"email":"a@example.com","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	limited.ServeHTTP(httptest.NewRecorder(), req)
	if got != body {
		t.Fatalf("expected body to reach handler intact, got %q", got)
	}
}

func TestCredentialRateLimitKeepsBodyBeyondPeek(t *testing.T) {
	var got int
	limited := CredentialRateLimit(ratelimit.NewMemory(5, time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		got = buf.Len()
	}))

	body := `{"email":"a@example.com","name":"` + strings.Repeat("x", 100*1024) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	limited.ServeHTTP(httptest.NewRecorder(), req)
	if got != len(body) {
		t.Fatalf("expected %d bytes at handler, got %d", len(body), got)
	}
}

func TestCredentialRateLimitSurfacesOversizeBody(t *testing.T) {
	limited := BodyLimit(80 * 1024)(CredentialRateLimit(ratelimit.NewMemory(5, time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var dst map[string]any
		shared.Bind(w, r, &dst, "")
	})))

	body := `{"email":"a@example.com","name":"` + strings.Repeat("x", 100*1024) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}
