package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timekeep/internal/platform/metrics"
)

// Metrics records every request under its route pattern.
func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := recorderFor(w)
			next.ServeHTTP(recorder, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			if route != "" {
				route = r.Method + " " + route
			}
			collector.Record(route, recorder.status, time.Since(start))
		})
	}
}
