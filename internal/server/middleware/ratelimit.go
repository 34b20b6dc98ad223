package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// FloodGuardOptions configures the per-client token buckets that sit in
// front of the bump pipeline. This is transport flood protection; the
// protocol-level cooldown gate is separate and authoritative.
type FloodGuardOptions struct {
	RPS                float64
	Burst              int
	TrustXForwardedFor bool
	RetryAfterSeconds  int
}

// FloodGuard returns a middleware rejecting clients that exceed their token
// bucket with 429. RPS <= 0 disables the guard.
func FloodGuard(opts FloodGuardOptions) func(next http.Handler) http.Handler {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.RetryAfterSeconds <= 0 {
		opts.RetryAfterSeconds = 1
	}

	var limiters sync.Map // client key -> *rate.Limiter

	getLimiter := func(key string) *rate.Limiter {
		if val, ok := limiters.Load(key); ok {
			return val.(*rate.Limiter)
		}
		limiter := rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst)
		actual, _ := limiters.LoadOrStore(key, limiter)
		return actual.(*rate.Limiter)
	}

	return func(next http.Handler) http.Handler {
		if opts.RPS <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r, opts.TrustXForwardedFor)

			if !getLimiter(key).Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(opts.RetryAfterSeconds))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller, preferring the first X-Forwarded-For hop
// when the deployment trusts its proxy.
func clientKey(r *http.Request, trustXFF bool) string {
	if trustXFF {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
