// Package report aggregates ledger and reimbursement totals.
package report

import (
	"github.com/frahmantamala/bookkeeping/internal/core/datamodel"
	"github.com/shopspring/decimal"
)

type Filter struct {
	From      *datamodel.Date
	To        *datamodel.Date
	CompanyID int64
}

type LedgerTotals struct {
	Income               decimal.Decimal `db:"income"`
	Expense              decimal.Decimal `db:"expense"`
	ReimbursementExpense decimal.Decimal `db:"reimbursement_expense"`
	Count                int             `db:"count"`
}

type StatusTotal struct {
	Status string          `db:"status" json:"status"`
	Count  int             `db:"count" json:"count"`
	Total  decimal.Decimal `db:"total" json:"total"`
}

type CategoryTotal struct {
	Category string          `db:"category" json:"category"`
	Type     string          `db:"type" json:"type"`
	Total    decimal.Decimal `db:"total" json:"total"`
}

type Summary struct {
	From                 *datamodel.Date `json:"from,omitempty"`
	To                   *datamodel.Date `json:"to,omitempty"`
	CompanyID            int64           `json:"companyId,omitempty"`
	TotalIncome          decimal.Decimal `json:"totalIncome"`
	TotalExpense         decimal.Decimal `json:"totalExpense"`
	ReimbursementExpense decimal.Decimal `json:"reimbursementExpense"`
	NetBalance           decimal.Decimal `json:"netBalance"`
	TransactionCount     int             `json:"transactionCount"`
	Reimbursements       []StatusTotal   `json:"reimbursements"`
	ByCategory           []CategoryTotal `json:"byCategory"`
}
