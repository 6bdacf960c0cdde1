package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/tripsync/tripsync-api/internal/app/apperr"
	"github.com/tripsync/tripsync-api/internal/domain"
)

// Authenticator resolves a bearer token to the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

const codeTokenRequired = "TOKEN_REQUIRED"

func errTokenRequired(message string) *apperr.Error {
	return apperr.Unauthorized(codeTokenRequired, "Access token required", message)
}

// NewAuthMiddleware enforces Authorization: Bearer <token>.
//
// On success, it stores the authenticated user in request context. Missing, malformed, invalid and
// expired tokens are all 401.
func NewAuthMiddleware(authn Authenticator, production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" {
				writeAppError(w, r, errTokenRequired("missing Authorization header"))
				return
			}
			const prefix = "Bearer "
			if len(authz) < len(prefix) || !strings.EqualFold(authz[:len(prefix)], prefix) {
				writeAppError(w, r, errTokenRequired("malformed Authorization header"))
				return
			}
			raw := strings.TrimSpace(authz[len(prefix):])
			if raw == "" {
				writeAppError(w, r, errTokenRequired("missing bearer token"))
				return
			}

			u, err := authn.Authenticate(r.Context(), raw)
			if err != nil {
				writeError(w, r, err, production)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
