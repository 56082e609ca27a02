package http

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"loan-eligibility/logging"
	"loan-eligibility/metrics"
)

// RateLimitMiddleware rejects clients over their budget with a 429. The
// client is identified by the host part of RemoteAddr, which RealIP has
// already rewritten when behind a proxy.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.Allow(ip) {
				metrics.RateLimitedTotal.Inc()
				logging.Debug().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")
				secs := int(math.Ceil(limiter.RetryAfter(ip).Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
