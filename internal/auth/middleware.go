package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sachima/sachima/internal/logging"
	"github.com/sachima/sachima/internal/metrics"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Middleware rejects requests without a valid bearer token. The response
// never says why.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractToken(r)
		if tokenStr == "" {
			metrics.RecordAuthAttempt("bearer", false)
			sendUnauthorized(w)
			return
		}

		id, err := a.Authenticate(tokenStr)
		if err != nil {
			metrics.RecordAuthAttempt("bearer", false)
			logging.WithContext(r.Context()).Debug("bearer rejected", zap.Error(err))
			sendUnauthorized(w)
			return
		}

		metrics.RecordAuthAttempt("bearer", true)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// WithIdentity injects the caller's identity into a context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFrom returns the identity stored by Middleware.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(*Identity)
	return id, ok && id != nil
}

func extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func sendUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": "unauthorized",
		"code":  http.StatusUnauthorized,
	})
}
