package category

import "time"

type Category struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;size:255;not null"`
	Type      string    `gorm:"column:type;size:16;not null;default:EXPENSE"`
	CompanyID *int64    `gorm:"column:company_id;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// CategoryWithCompany is the listing row joined with the owning company's name.
type CategoryWithCompany struct {
	Category
	CompanyName *string `gorm:"column:company_name"`
}
