package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/clinic-booking/internal/http/render"
	"github.com/wolfman30/clinic-booking/internal/staff"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

type contextKey string

const identityKey contextKey = "staffIdentity"

// Authenticator verifies a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (staff.Identity, error)
}

// StaffJWT requires a valid staff bearer token. A store outage while
// resolving the token is reported as 503 rather than 401.
func StaffJWT(auth Authenticator, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				render.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			id, err := auth.Authenticate(r.Context(), strings.TrimPrefix(header, "Bearer "))
			switch {
			case err == nil:
			case errors.Is(err, staff.ErrStoreUnavailable):
				logger.WithContext(r.Context()).Error("staff auth store unavailable", "error", err)
				render.Error(w, http.StatusServiceUnavailable, "Database connection error. Please try again later.")
				return
			default:
				render.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole rejects authenticated callers whose role is not listed. It must
// run after StaffJWT.
func RequireRole(roles ...staff.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				render.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			render.Error(w, http.StatusForbidden, "forbidden")
		})
	}
}

func WithIdentity(ctx context.Context, id staff.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the authenticated staff identity if present.
func IdentityFromContext(ctx context.Context) (staff.Identity, bool) {
	id, ok := ctx.Value(identityKey).(staff.Identity)
	return id, ok
}
