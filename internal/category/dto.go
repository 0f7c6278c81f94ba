package category

import "strings"

type CategoryDTO struct {
	Name      string `json:"name" validate:"required,max=255"`
	Type      Type   `json:"type" validate:"omitempty,oneof=INCOME EXPENSE"`
	CompanyID *int64 `json:"company_id" validate:"omitempty,min=1"`
}

func (d *CategoryDTO) ToDomain() *Category {
	t := d.Type
	if t == "" {
		t = TypeExpense
	}
	return &Category{
		Name:      strings.TrimSpace(d.Name),
		Type:      t,
		CompanyID: d.CompanyID,
	}
}

type ListFilter struct {
	Type      Type
	CompanyID int64
}
