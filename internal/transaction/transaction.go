package transaction

import (
	"time"

	"github.com/frahmantamala/bookkeeping/internal/core/datamodel"
	transactionDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/transaction"
	"github.com/shopspring/decimal"
)

const (
	TypeIncome  = "PEMASUKAN"
	TypeExpense = "PENGELUARAN"

	ExpenseTypeNormal    = "NORMAL"
	ExpenseTypeReimburse = "REIMBURSE"
)

// ItemDetail is a ledger line. Reimbursements use the same shape so posting can copy lines verbatim.
type ItemDetail struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Qty     decimal.Decimal `json:"qty"`
	Price   decimal.Decimal `json:"price"`
	Total   decimal.Decimal `json:"total"`
	FileURL *string         `json:"fileUrl,omitempty"`
}

type Transaction struct {
	ID           string          `json:"id"`
	Date         datamodel.Date  `json:"date"`
	Type         string          `json:"type"`
	ExpenseType  *string         `json:"expenseType,omitempty"`
	Category     string          `json:"category"`
	CompanyID    int64           `json:"companyId"`
	ActivityName string          `json:"activityName"`
	Description  string          `json:"description"`
	Items        []ItemDetail    `json:"items"`
	GrandTotal   decimal.Decimal `json:"grandTotal"`
	CreatedAt    time.Time       `json:"createdAt"`
	Timestamp    int64           `json:"timestamp"`
}

func (t *Transaction) IsReimbursePosting() bool {
	return t.Type == TypeExpense && t.ExpenseType != nil && *t.ExpenseType == ExpenseTypeReimburse
}

func (t *Transaction) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range t.Items {
		sum = sum.Add(it.Total)
	}
	return sum
}

func ToDataModel(t *Transaction) *transactionDatamodel.Transaction {
	items := make([]*transactionDatamodel.TransactionItem, len(t.Items))
	for i, it := range t.Items {
		items[i] = &transactionDatamodel.TransactionItem{
			ID:            it.ID,
			TransactionID: t.ID,
			Position:      i,
			Name:          it.Name,
			Qty:           it.Qty,
			Price:         it.Price,
			Total:         it.Total,
			FileURL:       it.FileURL,
		}
	}
	return &transactionDatamodel.Transaction{
		ID:           t.ID,
		Date:         t.Date,
		Type:         t.Type,
		ExpenseType:  t.ExpenseType,
		Category:     t.Category,
		CompanyID:    t.CompanyID,
		ActivityName: t.ActivityName,
		Description:  t.Description,
		GrandTotal:   t.GrandTotal,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.CreatedAt,
		Items:        items,
	}
}

func FromDataModel(t *transactionDatamodel.Transaction) *Transaction {
	items := make([]ItemDetail, len(t.Items))
	for i, it := range t.Items {
		items[i] = ItemDetail{
			ID:      it.ID,
			Name:    it.Name,
			Qty:     it.Qty,
			Price:   it.Price,
			Total:   it.Total,
			FileURL: it.FileURL,
		}
	}
	return &Transaction{
		ID:           t.ID,
		Date:         t.Date,
		Type:         t.Type,
		ExpenseType:  t.ExpenseType,
		Category:     t.Category,
		CompanyID:    t.CompanyID,
		ActivityName: t.ActivityName,
		Description:  t.Description,
		Items:        items,
		GrandTotal:   t.GrandTotal,
		CreatedAt:    t.CreatedAt,
		Timestamp:    t.CreatedAt.UnixMilli(),
	}
}

func FromDataModelSlice(rows []*transactionDatamodel.Transaction) []*Transaction {
	result := make([]*Transaction, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}
