package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"stickygoals/internal/identity"
	"stickygoals/internal/models"
)

type ctxKey int

const userIDKey ctxKey = iota

// Provisioner records a verified caller before its first request is served.
type Provisioner interface {
	ProvisionUser(ctx context.Context, u *models.User) error
}

type AuthMiddleware struct {
	verifier    identity.Verifier
	provisioner Provisioner
	logger      *zap.Logger

	seen sync.Map // user ids already provisioned by this process
}

func NewAuthMiddleware(v identity.Verifier, p Provisioner, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: v, provisioner: p, logger: logger}
}

// RequireAuth rejects the request with 401 before any handler runs unless
// the bearer token verifies.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		id, err := m.verifier.Verify(r.Context(), tokenStr)
		if err != nil {
			m.logger.Debug("token rejected", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if _, ok := m.seen.Load(id.UserID); !ok && m.provisioner != nil {
			u := &models.User{ID: id.UserID, Email: id.Email, DisplayName: id.DisplayName, AvatarRef: id.AvatarRef}
			if err := m.provisioner.ProvisionUser(r.Context(), u); err != nil {
				m.logger.Error("provision user", zap.String("user_id", id.UserID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "could not provision user")
				return
			}
			m.seen.Store(id.UserID, struct{}{})
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id.UserID)))
	})
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the caller set by RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
