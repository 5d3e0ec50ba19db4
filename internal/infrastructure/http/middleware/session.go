package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/alchemorsel/kitchen/internal/infrastructure/security"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	userEmailKey contextKey = "user_email"
)

// Session resolves the session cookie into the request context. Requests
// without a valid session continue anonymously; a cookie that fails
// verification is cleared.
func Session(sessions *security.SessionManager, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := sessions.Parse(r)
			if err != nil {
				if !errors.Is(err, security.ErrNoSession) {
					logger.Debug("Discarding invalid session", zap.Error(err))
					sessions.Clear(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			userID, _ := claims.UserID()
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, claims.Email)))
		})
	}
}

// RequireAuth rejects anonymous requests with 401
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUserID(r.Context()); !ok {
			appErr := apperrors.NewUnauthorizedError("Authentication required")
			writeError(w, r, appErr, appErr.StatusCode())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser binds an authenticated identity to ctx
func WithUser(ctx context.Context, userID uuid.UUID, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userEmailKey, email)
}

// CurrentUserID returns the session user, if any
func CurrentUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}

// CurrentUserEmail returns the session user's email, if any
func CurrentUserEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userEmailKey).(string)
	return email, ok
}
