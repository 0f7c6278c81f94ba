package transaction

import (
	"errors"
	"time"

	"github.com/frahmantamala/bookkeeping/internal/core/datamodel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ItemDTO struct {
	ID      string          `json:"id" validate:"max=64"`
	Name    string          `json:"name" validate:"required,max=255"`
	Qty     decimal.Decimal `json:"qty" validate:"nonnegative"`
	Price   decimal.Decimal `json:"price" validate:"nonnegative"`
	Total   decimal.Decimal `json:"total" validate:"nonnegative"`
	FileURL *string         `json:"fileUrl,omitempty"`
}

// TransactionDTO is the payload for both create and full update of a ledger entry.
type TransactionDTO struct {
	ID           string          `json:"id" validate:"max=64"`
	Date         datamodel.Date  `json:"date" validate:"required"`
	Type         string          `json:"type" validate:"required,oneof=PEMASUKAN PENGELUARAN"`
	ExpenseType  *string         `json:"expenseType,omitempty" validate:"omitempty,oneof=NORMAL REIMBURSE"`
	Category     string          `json:"category" validate:"required,max=255"`
	CompanyID    int64           `json:"companyId" validate:"required,min=1"`
	ActivityName string          `json:"activityName" validate:"max=255"`
	Description  string          `json:"description"`
	Items        []ItemDTO       `json:"items" validate:"dive"`
	GrandTotal   decimal.Decimal `json:"grandTotal" validate:"nonnegative"`
	Timestamp    int64           `json:"timestamp,omitempty"`
}

type ListFilter struct {
	Type      string
	CompanyID int64
	From      *datamodel.Date
	To        *datamodel.Date
}

// ToDomain builds the ledger entry. Income entries never carry an expense type.
func (dto TransactionDTO) ToDomain(id string, now time.Time) *Transaction {
	createdAt := now
	if dto.Timestamp > 0 {
		createdAt = time.UnixMilli(dto.Timestamp).UTC()
	}

	var expenseType *string
	if dto.Type == TypeExpense {
		et := ExpenseTypeNormal
		if dto.ExpenseType != nil {
			et = *dto.ExpenseType
		}
		expenseType = &et
	}

	items := make([]ItemDetail, len(dto.Items))
	for i, it := range dto.Items {
		itemID := it.ID
		if itemID == "" {
			itemID = uuid.NewString()
		}
		items[i] = ItemDetail{
			ID:      itemID,
			Name:    it.Name,
			Qty:     it.Qty,
			Price:   it.Price,
			Total:   it.Total,
			FileURL: it.FileURL,
		}
	}

	return &Transaction{
		ID:           id,
		Date:         dto.Date,
		Type:         dto.Type,
		ExpenseType:  expenseType,
		Category:     dto.Category,
		CompanyID:    dto.CompanyID,
		ActivityName: dto.ActivityName,
		Description:  dto.Description,
		Items:        items,
		GrandTotal:   dto.GrandTotal,
		CreatedAt:    createdAt,
		Timestamp:    createdAt.UnixMilli(),
	}
}

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateID         = errors.New("transaction id already exists")
	ErrIDMismatch          = errors.New("transaction id in body does not match path")
)
