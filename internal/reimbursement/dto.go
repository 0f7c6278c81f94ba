package reimbursement

import (
	"strings"
	"time"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/core/common/validation"
	"github.com/frahmantamala/bookkeeping/internal/core/datamodel"
	"github.com/frahmantamala/bookkeeping/internal/transaction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReimbursementDTO is the request body for create and for PUT /{id}/details.
// Status is ignored on both; new requests always start at PENDING.
type ReimbursementDTO struct {
	ID            string                `json:"id" validate:"max=64"`
	Date          datamodel.Date        `json:"date" validate:"required"`
	RequestorName string                `json:"requestorName" validate:"required,max=255"`
	Category      string                `json:"category" validate:"max=255"`
	CompanyID     int64                 `json:"companyId" validate:"required,min=1"`
	ActivityName  string                `json:"activityName" validate:"max=255"`
	Description   string                `json:"description"`
	Items         []transaction.ItemDTO `json:"items" validate:"required,min=1,dive"`
	GrandTotal    decimal.Decimal       `json:"grandTotal" validate:"nonnegative"`
	Timestamp     int64                 `json:"timestamp,omitempty"`
}

func (dto ReimbursementDTO) ToDomain(id string, status Status, createdAt time.Time) *Reimbursement {
	if dto.Timestamp > 0 {
		createdAt = time.UnixMilli(dto.Timestamp).UTC()
	}

	items := make([]transaction.ItemDetail, len(dto.Items))
	for i, it := range dto.Items {
		itemID := it.ID
		if itemID == "" {
			itemID = uuid.NewString()
		}
		items[i] = transaction.ItemDetail{
			ID:      itemID,
			Name:    it.Name,
			Qty:     it.Qty,
			Price:   it.Price,
			Total:   it.Total,
			FileURL: it.FileURL,
		}
	}

	return &Reimbursement{
		ID:            id,
		Date:          dto.Date,
		RequestorName: dto.RequestorName,
		Category:      dto.Category,
		CompanyID:     dto.CompanyID,
		ActivityName:  dto.ActivityName,
		Description:   dto.Description,
		Items:         items,
		GrandTotal:    dto.GrandTotal,
		Status:        status,
		CreatedAt:     createdAt,
		Timestamp:     createdAt.UnixMilli(),
	}
}

// UpdateStatusDTO is the body of the status update entrypoint.
type UpdateStatusDTO struct {
	Status           string  `json:"status" validate:"required,oneof=PENDING PROSES BERHASIL DITOLAK"`
	RejectionReason  *string `json:"rejectionReason,omitempty" validate:"omitempty,max=1000"`
	TransferProofURL *string `json:"transferProofUrl,omitempty" validate:"omitempty,max=2048"`
}

func (dto UpdateStatusDTO) Validate() *internal.AppError {
	if appErr := validation.Struct(dto); appErr != nil {
		return appErr
	}

	v := validation.NewValidator()
	if dto.Status == string(StatusDitolak) {
		v.Field("rejectionReason", dto.RejectionReason).Required(internal.ErrCodeReasonRequired)
	}
	return v.Validate()
}

// Reason returns the trimmed rejection reason, or nil when none was given.
func (dto UpdateStatusDTO) Reason() *string {
	if dto.RejectionReason == nil {
		return nil
	}
	reason := strings.TrimSpace(*dto.RejectionReason)
	if reason == "" {
		return nil
	}
	return &reason
}

type ListFilter struct {
	Status    Status
	CompanyID int64
}
