package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/auth"
	"github.com/frahmantamala/bookkeeping/internal/core/common/validation"
	employeeDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/user"
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetEmployeeByUserID(ctx context.Context, userID int64) (*employeeDatamodel.Employee, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo       RepositoryAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Me returns the user together with the linked employee profile.
func (s *Service) Me(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, s.mapError(err, userID)
	}

	e, err := s.repo.GetEmployeeByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load employee profile", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to load employee profile", err)
	}
	return FromDataModelWithEmployee(u, e), nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users, nil
}

func (s *Service) Create(ctx context.Context, dto *CreateUserDTO) (*User, error) {
	dto.Username = strings.TrimSpace(dto.Username)
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	row := &userDatamodel.User{Username: dto.Username, PasswordHash: hash, Role: dto.Role}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.mapError(err, 0)
	}

	s.logger.Info("user created",
		"user_id", row.ID,
		"role", row.Role,
		"actor", internal.ActorFromContext(ctx).Username)
	return FromDataModel(row), nil
}

// Delete removes a login and its employee profile. Users cannot delete themselves.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if actor := internal.ActorFromContext(ctx); actor.UserID == id {
		return internal.NewValidationError("you cannot delete your own account", internal.ErrCodeValidationFailed)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError(err, id)
	}
	s.logger.Info("user deleted", "user_id", id)
	return nil
}

func (s *Service) mapError(err error, id int64) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return internal.NewNotFoundError(fmt.Sprintf("user %d not found", id), internal.ErrCodeUserNotFound)
	case errors.Is(err, ErrUsernameTaken):
		return internal.NewConflictError("username already taken", internal.ErrCodeUsernameTaken)
	default:
		s.logger.Error("user store failure", "user_id", id, "error", err)
		return internal.NewInternalError("user store failure", err)
	}
}
