package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	httputil "parkspot/pkg/http"
	"parkspot/pkg/logger"
	"parkspot/pkg/token"
)

type principalKey struct{}

// Principal is the authenticated caller extracted from the bearer token.
type Principal struct {
	UserID string
	Admin  bool
}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Authenticate wraps a route with bearer-token validation and attaches
// the principal to the request context. Routes without this wrapper stay
// public.
func Authenticate(tokens *token.Service, log *logger.Logger) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeUnauthorized(w, log, r, "Missing or malformed Authorization header")
				return
			}

			claims, err := tokens.Validate(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				writeUnauthorized(w, log, r, "Invalid or expired token")
				return
			}

			ctx := ContextWithPrincipal(r.Context(), Principal{
				UserID: claims.UserID,
				Admin:  claims.Admin,
			})
			next(w, r.WithContext(ctx), ps)
		}
	}
}

func writeUnauthorized(w http.ResponseWriter, log *logger.Logger, r *http.Request, message string) {
	log.Warn("Unauthorized request",
		"request_id", RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"method", r.Method,
	)
	if err := httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: message}); err != nil {
		log.Error("failed to write JSON response", "middleware", "Authenticate", "error", err)
	}
}
