package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"timekeep/internal/platform/ratelimit"
	"timekeep/internal/transport/http/api"
	"timekeep/internal/transport/http/shared"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*rateEnforcer)

type rateEnforcer struct {
	limiter ratelimit.Limiter
	keyFn   RateLimitKeyFunc
	scope   string
}

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(e *rateEnforcer) {
		if fn != nil {
			e.keyFn = fn
		}
	}
}

// WithScope prefixes every key so one backend can serve several limiters.
func WithScope(scope string) RateLimitOption {
	return func(e *rateEnforcer) {
		e.scope = strings.TrimSpace(scope)
	}
}

// RateLimit counts every request against limiter, keyed by the authenticated
// user or else the client address.
func RateLimit(limiter ratelimit.Limiter, opts ...RateLimitOption) func(http.Handler) http.Handler {
	enforcer := newRateEnforcer(limiter, actorOrIPKey, opts...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enforcer.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CredentialRateLimit applies a tighter budget to login and register, counted
// both per client address and per submitted email.
func CredentialRateLimit(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	byIP := newRateEnforcer(limiter, clientIPKey, WithScope("cred-ip"))
	byEmail := newRateEnforcer(limiter, EmailOrIPKey("email"), WithScope("cred-email"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if !byIP.enforce(w, r) || !byEmail.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func EmailOrIPKey(field string) RateLimitKeyFunc {
	normalizedField := strings.TrimSpace(field)
	if normalizedField == "" {
		normalizedField = "email"
	}
	return func(r *http.Request) string {
		email := extractJSONField(r, normalizedField)
		if email == "" {
			return clientIPKey(r)
		}
		return "email:" + strings.ToLower(email)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	return "ip:" + shared.ClientIP(r)
}

func newRateEnforcer(limiter ratelimit.Limiter, keyFn RateLimitKeyFunc, opts ...RateLimitOption) *rateEnforcer {
	e := &rateEnforcer{limiter: limiter, keyFn: keyFn}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *rateEnforcer) enforce(w http.ResponseWriter, r *http.Request) bool {
	if e.limiter == nil {
		return true
	}

	key := e.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	if e.scope != "" {
		key = e.scope + ":" + key
	}

	decision, err := e.limiter.Allow(r.Context(), key)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
		return true
	}
	if decision.Limit <= 0 {
		return true
	}

	resetIn := durationSeconds(decision.ResetAfter)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(decision.Remaining, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetIn))

	if !decision.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
		zerolog.Ctx(r.Context()).Warn().
			Str("key", key).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Int("limit", decision.Limit).
			Msg("rate limit exceeded")
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
		return false
	}
	return true
}

// durationSeconds rounds up so clients never retry before the window moves.
func durationSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

const maxPeekBytes = 64 * 1024

type peekedBody struct {
	io.Reader
	io.Closer
}

func extractJSONField(r *http.Request, field string) string {
	if r == nil || r.Body == nil {
		return ""
	}
	contentType := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	if !strings.Contains(contentType, "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	// whatever was not peeked still reaches the handler, including a
	// MaxBytesReader overflow error
	r.Body = peekedBody{Reader: io.MultiReader(bytes.NewReader(raw), r.Body), Closer: r.Body}
	if err != nil || len(raw) == 0 || len(raw) >= maxPeekBytes {
		return ""
	}
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}
