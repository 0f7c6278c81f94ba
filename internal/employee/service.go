package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/auth"
	"github.com/frahmantamala/bookkeeping/internal/core/common/validation"
	employeeDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/user"
	"github.com/frahmantamala/bookkeeping/internal/user"
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*employeeDatamodel.EmployeeWithUser, error)
	GetByID(ctx context.Context, id int64) (*employeeDatamodel.EmployeeWithUser, error)
	Create(ctx context.Context, e *employeeDatamodel.Employee, login *userDatamodel.User) error
	Update(ctx context.Context, e *employeeDatamodel.Employee, login LoginChanges) error
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

func (s *Service) List(ctx context.Context) ([]*Employee, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err)
		return nil, internal.NewInternalError("failed to list employees", err)
	}

	employees := make([]*Employee, 0, len(rows))
	for _, row := range rows {
		employees = append(employees, FromDataModel(row))
	}
	return employees, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Employee, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	return FromDataModel(row), nil
}

// Create stores the employee and its login in one transaction.
func (s *Service) Create(ctx context.Context, dto *CreateEmployeeDTO) (*Employee, error) {
	dto.normalize()
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	role := dto.Role
	if role == "" {
		role = auth.RoleEmployee
	}
	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	row := &employeeDatamodel.Employee{
		Name:     dto.Name,
		Position: dto.Position,
		Phone:    dto.Phone,
		Email:    dto.Email,
	}
	login := &userDatamodel.User{Username: dto.Username, PasswordHash: hash, Role: role}
	if err := s.repo.Create(ctx, row, login); err != nil {
		return nil, s.mapError(err, 0)
	}

	s.logger.Info("employee created", "employee_id", row.ID, "user_id", row.UserID, "role", role)
	return s.GetByID(ctx, row.ID)
}

func (s *Service) Update(ctx context.Context, id int64, dto *UpdateEmployeeDTO) (*Employee, error) {
	dto.normalize()
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}

	var changes LoginChanges
	if dto.Username != "" && dto.Username != existing.Username {
		changes.Username = &dto.Username
	}
	if dto.Role != "" && dto.Role != existing.Role {
		changes.Role = &dto.Role
	}
	if dto.Password != "" {
		hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		changes.PasswordHash = &hash
	}

	row := &employeeDatamodel.Employee{
		ID:       id,
		UserID:   existing.UserID,
		Name:     dto.Name,
		Position: dto.Position,
		Phone:    dto.Phone,
		Email:    dto.Email,
	}
	if err := s.repo.Update(ctx, row, changes); err != nil {
		return nil, s.mapError(err, id)
	}

	s.logger.Info("employee updated", "employee_id", id, "password_changed", changes.PasswordHash != nil)
	return s.GetByID(ctx, id)
}

// Delete removes the employee and its login.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError(err, id)
	}
	s.logger.Info("employee deleted", "employee_id", id)
	return nil
}

func (s *Service) mapError(err error, id int64) error {
	switch {
	case errors.Is(err, ErrEmployeeNotFound):
		return internal.NewNotFoundError(fmt.Sprintf("employee %d not found", id), internal.ErrCodeEmployeeNotFound)
	case errors.Is(err, user.ErrUsernameTaken):
		return internal.NewConflictError("username already taken", internal.ErrCodeUsernameTaken)
	default:
		s.logger.Error("employee store failure", "employee_id", id, "error", err)
		return internal.NewInternalError("employee store failure", err)
	}
}
