package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/bookkeeping/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/user"
)

type RepositoryAPI interface {
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

type Service struct {
	repo   RepositoryAPI
	tokens TokenGeneratorAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, tokens TokenGeneratorAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger,
	}
}

// Authenticate validates credentials and returns a token pair together with the user.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*LoginResponse, error) {
	if appErr := validation.Struct(&dto); appErr != nil {
		return nil, appErr
	}

	username := strings.TrimSpace(dto.Username)
	row, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Warn("login attempt for unknown user", "username", username)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	if err := VerifyPassword(row.PasswordHash, dto.Password); err != nil {
		s.logger.Warn("login attempt with wrong password", "user_id", row.ID)
		return nil, ErrInvalidCredentials
	}

	u := toUser(row)
	tokens, err := s.issue(u)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", u.ID, "role", u.Role)
	return &LoginResponse{
		Success:      true,
		Token:        tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         u,
	}, nil
}

// RefreshTokens validates a refresh token and issues a new pair. The role is re-read
// so that role changes take effect on the next refresh.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	u, err := s.GetUserWithPermissions(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, err
	}
	return s.issue(u)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

func (s *Service) GetUserWithPermissions(ctx context.Context, userID int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUser(row), nil
}

func (s *Service) issue(u *User) (AuthTokens, error) {
	accessToken, err := s.tokens.GenerateAccessToken(u)
	if err != nil {
		return AuthTokens{}, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(u)
	if err != nil {
		return AuthTokens{}, err
	}
	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func toUser(row *userDatamodel.User) *User {
	return &User{
		ID:          row.ID,
		Username:    row.Username,
		Role:        row.Role,
		Permissions: PermissionsForRole(row.Role),
	}
}
