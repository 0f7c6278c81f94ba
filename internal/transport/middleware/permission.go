package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/auth"
	"github.com/frahmantamala/bookkeeping/internal/transport"
	"github.com/frahmantamala/bookkeeping/pkg/logger"
)

// RequirePermissions lets the request through when the authenticated user holds any of permissions.
// It must run after auth.Handler.AuthMiddleware.
func RequirePermissions(lg *slog.Logger, permissions ...string) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				base.WriteAppError(w, internal.NewUnauthorizedError("authentication required", internal.ErrCodeInvalidToken))
				return
			}

			if !user.HasAnyPermission(permissions) {
				logger.From(r.Context()).Warn("access denied: user lacks required permissions",
					"user_id", user.ID,
					"role", user.Role,
					"required_permissions", permissions)
				base.WriteAppError(w, internal.NewForbiddenError("insufficient permissions", internal.ErrCodeForbidden).
					WithDetails(map[string]interface{}{"required": permissions}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
