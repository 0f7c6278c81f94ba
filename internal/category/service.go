package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/core/common/validation"
	categoryDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/category"
)

type RepositoryAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*categoryDatamodel.CategoryWithCompany, error)
	GetByID(ctx context.Context, id int64) (*categoryDatamodel.CategoryWithCompany, error)
	Create(ctx context.Context, category *categoryDatamodel.Category) error
	Update(ctx context.Context, category *categoryDatamodel.Category) error
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

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Category, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err)
		return nil, internal.NewInternalError("failed to list categories", err)
	}

	s.logger.Debug("retrieved categories", "count", len(rows))
	return FromDataModelSlice(rows), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Category, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto *CategoryDTO) (*Category, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	row := ToDataModel(dto.ToDomain())
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.mapError(err, 0)
	}

	s.logger.Info("category created", "category_id", row.ID, "name", row.Name, "type", row.Type)
	return s.GetByID(ctx, row.ID)
}

func (s *Service) Update(ctx context.Context, id int64, dto *CategoryDTO) (*Category, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}

	c := dto.ToDomain()
	c.ID = id
	c.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, ToDataModel(c)); err != nil {
		return nil, s.mapError(err, id)
	}

	s.logger.Info("category updated", "category_id", id)
	return s.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError(err, id)
	}
	s.logger.Info("category deleted", "category_id", id)
	return nil
}

func (s *Service) mapError(err error, id int64) error {
	if errors.Is(err, ErrCategoryNotFound) {
		return internal.NewNotFoundError(fmt.Sprintf("category %d not found", id), internal.ErrCodeCategoryNotFound)
	}
	s.logger.Error("category store failure", "category_id", id, "error", err)
	return internal.NewInternalError("category store failure", err)
}
