package transaction

import (
	"time"

	"github.com/frahmantamala/bookkeeping/internal/core/datamodel"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID           string             `gorm:"column:id;primaryKey;size:64"`
	Date         datamodel.Date     `gorm:"column:date;not null"`
	Type         string             `gorm:"column:type;size:16;not null"`
	ExpenseType  *string            `gorm:"column:expense_type;size:16"`
	Category     string             `gorm:"column:category;size:255"`
	CompanyID    int64              `gorm:"column:company_id;index"`
	ActivityName string             `gorm:"column:activity_name;size:255"`
	Description  string             `gorm:"column:description;type:text"`
	GrandTotal   decimal.Decimal    `gorm:"column:grand_total;type:decimal(18,2);not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime:false"`
	Items        []*TransactionItem `gorm:"foreignKey:TransactionID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Transaction) TableName() string {
	return "transactions"
}

type TransactionItem struct {
	ID            string          `gorm:"column:id;primaryKey;size:64"`
	TransactionID string          `gorm:"column:transaction_id;size:64;not null;index"`
	Position      int             `gorm:"column:position;not null;default:0"`
	Name          string          `gorm:"column:name;size:255"`
	Qty           decimal.Decimal `gorm:"column:qty;type:decimal(18,2);not null"`
	Price         decimal.Decimal `gorm:"column:price;type:decimal(18,2);not null"`
	Total         decimal.Decimal `gorm:"column:total;type:decimal(18,2);not null"`
	FileURL       *string         `gorm:"column:file_url;type:text"`
}

func (TransactionItem) TableName() string {
	return "transaction_items"
}
