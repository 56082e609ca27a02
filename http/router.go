package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loan-eligibility/metrics"
)

// NewRouter wires the eligibility API:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /api/v1/eligibility/criteria
//	POST /api/v1/eligibility/evaluate
//	POST /api/v1/eligibility/predict
//
// limiter may be nil to disable rate limiting.
func NewRouter(h *EligibilityHandler, limiter *RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/eligibility", func(r chi.Router) {
		if limiter != nil {
			r.Use(RateLimitMiddleware(limiter))
		}
		r.Get("/criteria", h.Criteria)
		r.Post("/evaluate", h.Evaluate)
		r.Post("/predict", h.Predict)
	})

	return r
}

// metricsMiddleware records request counts and latency per route pattern, so
// path parameters never blow up label cardinality.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordAPIRequest(r.Method, route, status, time.Since(start))
	})
}
