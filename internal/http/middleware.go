package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ctam-data/internal/domain"
	"ctam-data/internal/service"
)

type ctxKey int

const profileKey ctxKey = iota

// profileFrom the profile attached by RequireAuth.
func profileFrom(ctx context.Context) *domain.Profile {
	p, _ := ctx.Value(profileKey).(*domain.Profile)
	return p
}

// AuthMiddleware verifies bearer tokens; roles are enforced by the services.
type AuthMiddleware struct {
	auth   service.AuthService
	logger *zap.Logger
}

func NewAuthMiddleware(auth service.AuthService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, logger: logger}
}

// RequireAuth answers 401 without a valid token and 403 for inactive accounts.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, m.logger, "Authenticate", service.ErrUnauthenticated)
			return
		}
		p, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, m.logger, "Authenticate", err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), profileKey, p)))
	}
}

// recoverer turns handler panics into 500s.
func recoverer(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Handler panic", zap.Any("panic", rec), zap.String("path", r.URL.Path))
				writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
