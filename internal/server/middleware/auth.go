// Bearer-token authentication for the bump endpoints.
//
// When an auth token is configured, protected requests MUST carry:
//
//	Authorization: Bearer <token>
//
// or:
//
//	Authorization: <token>
//
// (the bare form is what existing SBLP peers send). Health, liveness and
// version endpoints stay public. Auth rejections happen before the cooldown
// gate, so a rejected-for-auth request never consumes the cooldown.
//
// When the token is empty, the middleware is a pass-through and a warning is
// logged once at startup.
package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/sblp/sblpd/internal/observability"
)

// Auth wraps a handler with bearer token checking.
func Auth(token string, next http.Handler) http.Handler {
	if token == "" {
		if observability.ServerLogger != nil {
			observability.ServerLogger.Warn("Bump endpoint auth DISABLED, no auth token configured")
		}
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := extractToken(r)

		if !tokenValid(provided, token) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="sblpd"`)
			envelope := errors.NewErrorEnvelope("UNAUTHORIZED", "bearer token required").
				WithCorrelationID(GetRequestID(r.Context()))
			writeAuthError(w, envelope)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractToken pulls the token from the Authorization header, accepting both
// the Bearer form and the bare token SBLP peers send.
func extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(auth)
}

// tokenValid does a constant-time comparison to prevent timing attacks.
func tokenValid(provided, expected string) bool {
	if provided == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

func writeAuthError(w http.ResponseWriter, envelope *errors.ErrorEnvelope) {
	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			RequestID: envelope.CorrelationID,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(response)
}
