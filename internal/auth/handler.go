package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/transport"
	"github.com/frahmantamala/bookkeeping/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (*LoginResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithPermissions(ctx context.Context, userID int64) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.handleAuthError(w, "Login", err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	if dto.RefreshToken == "" {
		h.WriteAppError(w, internal.NewValidationFieldError("refresh_token", "refresh_token is required", internal.ErrCodeValidationFailed))
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.handleAuthError(w, "RefreshToken", err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"token":         tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

func (h *Handler) handleAuthError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		h.WriteAppError(w, internal.NewUnauthorizedError("invalid username or password", internal.ErrCodeInvalidCredentials))
	case errors.Is(err, ErrTokenExpired):
		h.WriteAppError(w, internal.NewUnauthorizedError("token expired", internal.ErrCodeTokenExpired))
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrUserNotFound):
		h.WriteAppError(w, internal.NewUnauthorizedError("invalid token", internal.ErrCodeInvalidToken))
	default:
		h.Logger.Error(op+": authentication failed", "error", err)
		h.HandleServiceError(w, err)
	}
}

// AuthMiddleware resolves the bearer token into a User and an internal.Actor on the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, internal.NewUnauthorizedError("missing authorization token", internal.ErrCodeInvalidToken))
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.Logger.Warn("auth middleware: token validation failed", "error", err)
			h.handleAuthError(w, "AuthMiddleware", err)
			return
		}

		u, err := h.Service.GetUserWithPermissions(r.Context(), claims.UserID)
		if err != nil {
			h.Logger.Warn("auth middleware: failed to load user", "user_id", claims.UserID, "error", err)
			h.handleAuthError(w, "AuthMiddleware", err)
			return
		}

		ctx := ContextWithUser(r.Context(), u)
		ctx = internal.ContextWithActor(ctx, internal.Actor{UserID: u.ID, Username: u.Username})
		ctx = logger.With(ctx, "user_id", u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
