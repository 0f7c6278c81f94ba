package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/core/common/validation"
	companyDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/company"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*companyDatamodel.Company, error)
	GetByID(ctx context.Context, id int64) (*companyDatamodel.Company, error)
	Create(ctx context.Context, c *companyDatamodel.Company) error
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetAll(ctx context.Context) ([]*Company, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get companies", "error", err)
		return nil, internal.NewInternalError("failed to list companies", err)
	}

	companies := make([]*Company, 0, len(rows))
	for _, row := range rows {
		companies = append(companies, FromDataModel(row))
	}
	return companies, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Company, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto *CompanyDTO) (*Company, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	row := ToDataModel(&Company{Name: strings.TrimSpace(dto.Name)})
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.mapError(err, 0)
	}

	s.logger.Info("company created", "company_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto *CompanyDTO) (*Company, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	if err := s.repo.Rename(ctx, id, strings.TrimSpace(dto.Name)); err != nil {
		return nil, s.mapError(err, id)
	}

	s.logger.Info("company updated", "company_id", id)
	return s.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError(err, id)
	}
	s.logger.Info("company deleted", "company_id", id)
	return nil
}

func (s *Service) mapError(err error, id int64) error {
	if errors.Is(err, ErrCompanyNotFound) {
		return internal.NewNotFoundError(fmt.Sprintf("company %d not found", id), internal.ErrCodeCompanyNotFound)
	}
	s.logger.Error("company store failure", "company_id", id, "error", err)
	return internal.NewInternalError("company store failure", err)
}
