package middleware

import (
	"net"
	"net/http"
	"strconv"

	"github.com/bappa-ai/gateway/internal/metrics"
	"github.com/bappa-ai/gateway/internal/quota"
)

// RateLimit enforces the global per-address request cap. It runs before any
// authentication work, so the key is always the client address.
func RateLimit(limiter *quota.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := limiter.Allow(r.Context(), "ip:"+ClientIP(r))
			SetRateLimitHeaders(w, d)
			if !d.Allowed {
				metrics.RateLimitDeniedTotal.WithLabelValues("global").Inc()
				writeJSONError(w, http.StatusTooManyRequests,
					"Too many requests from this IP, please try again later.", "RATE_LIMIT_EXCEEDED")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetRateLimitHeaders writes the standard rate-limit headers for d.
func SetRateLimitHeaders(w http.ResponseWriter, d quota.Decision) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
	if !d.Allowed {
		h.Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds()))
	}
}

// ClientIP extracts the caller's address, honoring the reverse proxy
// headers set by the hosting platform.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the originating client.
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
