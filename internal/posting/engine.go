// Package posting copies an approved reimbursement into the transaction ledger exactly once.
package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	reimbursementDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/reimbursement"
	transactionDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/transaction"
)

const (
	TypeExpense          = "PENGELUARAN"
	ExpenseTypeReimburse = "REIMBURSE"

	descriptionLabel = "Reimburse oleh: "
)

type Outcome int

const (
	OutcomePosted Outcome = iota + 1
	OutcomeAlreadyPosted
)

func (o Outcome) String() string {
	switch o {
	case OutcomePosted:
		return "posted"
	case OutcomeAlreadyPosted:
		return "already_posted"
	default:
		return "unknown"
	}
}

var ErrSourceNotFound = errors.New("reimbursement to post not found")

// Store is the ledger view of one open database transaction.
type Store interface {
	TransactionExists(ctx context.Context, id string) (bool, error)
	GetReimbursement(ctx context.Context, id string) (*reimbursementDatamodel.Reimbursement, error)
	// InsertTransaction reports false when a row with the same id already exists.
	InsertTransaction(ctx context.Context, t *transactionDatamodel.Transaction) (bool, error)
	InsertTransactionItems(ctx context.Context, items []*transactionDatamodel.TransactionItem) error
}

// TxRunner opens one database transaction per call and rolls it back when fn fails.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Description is the ledger text of a posted reimbursement.
func Description(requestorName, description string) string {
	return descriptionLabel + requestorName + " - " + description
}

// Post writes the ledger entry for reimbursement id through store. Callers own the
// surrounding transaction and must roll it back on error.
func (e *Engine) Post(ctx context.Context, store Store, id string) (Outcome, error) {
	exists, err := store.TransactionExists(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("check ledger for %s: %w", id, err)
	}
	if exists {
		e.logger.Debug("reimbursement already posted", "reimbursement_id", id)
		return OutcomeAlreadyPosted, nil
	}

	src, err := store.GetReimbursement(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("load reimbursement %s: %w", id, err)
	}

	header := buildTransaction(src)
	inserted, err := store.InsertTransaction(ctx, header)
	if err != nil {
		return 0, fmt.Errorf("insert ledger header %s: %w", id, err)
	}
	if !inserted {
		e.logger.Info("reimbursement posted concurrently", "reimbursement_id", id)
		return OutcomeAlreadyPosted, nil
	}

	if err := store.InsertTransactionItems(ctx, header.Items); err != nil {
		return 0, fmt.Errorf("insert ledger items %s: %w", id, err)
	}

	e.logger.Info("reimbursement posted to ledger",
		"reimbursement_id", id,
		"grand_total", header.GrandTotal.String(),
		"items", len(header.Items))
	return OutcomePosted, nil
}

func buildTransaction(src *reimbursementDatamodel.Reimbursement) *transactionDatamodel.Transaction {
	expenseType := ExpenseTypeReimburse
	items := make([]*transactionDatamodel.TransactionItem, len(src.Items))
	for i, it := range src.Items {
		items[i] = &transactionDatamodel.TransactionItem{
			ID:            it.ID,
			TransactionID: src.ID,
			Position:      it.Position,
			Name:          it.Name,
			Qty:           it.Qty,
			Price:         it.Price,
			Total:         it.Total,
			FileURL:       it.FileURL,
		}
	}

	return &transactionDatamodel.Transaction{
		ID:           src.ID,
		Date:         src.Date,
		Type:         TypeExpense,
		ExpenseType:  &expenseType,
		Category:     src.Category,
		CompanyID:    src.CompanyID,
		ActivityName: src.ActivityName,
		Description:  Description(src.RequestorName, src.Description),
		GrandTotal:   src.GrandTotal,
		CreatedAt:    src.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
		Items:        items,
	}
}
