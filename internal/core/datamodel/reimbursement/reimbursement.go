package reimbursement

import (
	"time"

	"github.com/frahmantamala/bookkeeping/internal/core/datamodel"
	"github.com/shopspring/decimal"
)

type Reimbursement struct {
	ID               string               `gorm:"column:id;primaryKey;size:64"`
	Date             datamodel.Date       `gorm:"column:date;not null"`
	RequestorName    string               `gorm:"column:requestor_name;size:255;not null"`
	Category         string               `gorm:"column:category;size:255"`
	CompanyID        int64                `gorm:"column:company_id;index"`
	ActivityName     string               `gorm:"column:activity_name;size:255"`
	Description      string               `gorm:"column:description;type:text"`
	GrandTotal       decimal.Decimal      `gorm:"column:grand_total;type:decimal(18,2);not null"`
	Status           string               `gorm:"column:status;size:16;not null;index"`
	TransferProofURL *string              `gorm:"column:transfer_proof_url;type:text"`
	RejectionReason  *string              `gorm:"column:rejection_reason;type:text"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime:false"`
	Items            []*ReimbursementItem `gorm:"foreignKey:ReimbursementID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Reimbursement) TableName() string {
	return "reimbursements"
}

type ReimbursementItem struct {
	ID              string          `gorm:"column:id;primaryKey;size:64"`
	ReimbursementID string          `gorm:"column:reimbursement_id;size:64;not null;index"`
	Position        int             `gorm:"column:position;not null;default:0"`
	Name            string          `gorm:"column:name;size:255"`
	Qty             decimal.Decimal `gorm:"column:qty;type:decimal(18,2);not null"`
	Price           decimal.Decimal `gorm:"column:price;type:decimal(18,2);not null"`
	Total           decimal.Decimal `gorm:"column:total;type:decimal(18,2);not null"`
	FileURL         *string         `gorm:"column:file_url;type:text"`
}

func (ReimbursementItem) TableName() string {
	return "reimbursement_items"
}
