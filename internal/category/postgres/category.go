package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/bookkeeping/internal/category"
	categoryDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/category"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.RepositoryAPI {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) withCompany(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("categories").
		Select("categories.*, companies.name AS company_name").
		Joins("LEFT JOIN companies ON companies.id = categories.company_id")
}

func (r *CategoryRepository) List(ctx context.Context, filter category.ListFilter) ([]*categoryDatamodel.CategoryWithCompany, error) {
	query := r.withCompany(ctx)
	if filter.Type != "" {
		query = query.Where("categories.type = ?", string(filter.Type))
	}
	if filter.CompanyID != 0 {
		// shared categories are visible to every company
		query = query.Where("categories.company_id = ? OR categories.company_id IS NULL", filter.CompanyID)
	}

	var rows []*categoryDatamodel.CategoryWithCompany
	err := query.Order("categories.name ASC").Find(&rows).Error
	return rows, err
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*categoryDatamodel.CategoryWithCompany, error) {
	var row categoryDatamodel.CategoryWithCompany
	err := r.withCompany(ctx).Where("categories.id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, category.ErrCategoryNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *CategoryRepository) Create(ctx context.Context, cat *categoryDatamodel.Category) error {
	return r.db.WithContext(ctx).Create(cat).Error
}

func (r *CategoryRepository) Update(ctx context.Context, cat *categoryDatamodel.Category) error {
	result := r.db.WithContext(ctx).Model(&categoryDatamodel.Category{}).
		Where("id = ?", cat.ID).
		Updates(map[string]interface{}{
			"name":       cat.Name,
			"type":       cat.Type,
			"company_id": cat.CompanyID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return category.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&categoryDatamodel.Category{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return category.ErrCategoryNotFound
	}
	return nil
}
