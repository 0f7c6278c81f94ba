package category

import (
	"errors"
	"time"

	categoryDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/category"
)

type Type string

const (
	TypeIncome  Type = "INCOME"
	TypeExpense Type = "EXPENSE"
)

var ErrCategoryNotFound = errors.New("category not found")

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        Type      `json:"type"`
	CompanyID   *int64    `json:"company_id"`
	CompanyName *string   `json:"company_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsShared reports whether the category is available to every company.
func (c *Category) IsShared() bool {
	return c.CompanyID == nil
}

func ToDataModel(c *Category) *categoryDatamodel.Category {
	return &categoryDatamodel.Category{
		ID:        c.ID,
		Name:      c.Name,
		Type:      string(c.Type),
		CompanyID: c.CompanyID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func FromDataModel(c *categoryDatamodel.CategoryWithCompany) *Category {
	return &Category{
		ID:          c.ID,
		Name:        c.Name,
		Type:        Type(c.Type),
		CompanyID:   c.CompanyID,
		CompanyName: c.CompanyName,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*categoryDatamodel.CategoryWithCompany) []*Category {
	categories := make([]*Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, FromDataModel(row))
	}
	return categories
}
