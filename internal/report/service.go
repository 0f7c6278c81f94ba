package report

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/bookkeeping/internal"
	"golang.org/x/sync/errgroup"
)

type RepositoryAPI interface {
	LedgerTotals(ctx context.Context, filter Filter) (LedgerTotals, error)
	ReimbursementTotals(ctx context.Context, filter Filter) ([]StatusTotal, error)
	CategoryTotals(ctx context.Context, filter Filter) ([]CategoryTotal, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Summary runs the aggregate queries concurrently and combines them.
func (s *Service) Summary(ctx context.Context, filter Filter) (*Summary, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(filter.From.Time) {
		return nil, internal.NewValidationFieldError("to", "to must not be before from", internal.ErrCodeInvalidDate)
	}

	var (
		ledger     LedgerTotals
		byStatus   []StatusTotal
		byCategory []CategoryTotal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ledger, err = s.repo.LedgerTotals(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		byStatus, err = s.repo.ReimbursementTotals(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		byCategory, err = s.repo.CategoryTotals(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to build summary report", "error", err)
		return nil, internal.NewInternalError("failed to build summary report", err)
	}

	if byStatus == nil {
		byStatus = []StatusTotal{}
	}
	if byCategory == nil {
		byCategory = []CategoryTotal{}
	}
	return &Summary{
		From:                 filter.From,
		To:                   filter.To,
		CompanyID:            filter.CompanyID,
		TotalIncome:          ledger.Income,
		TotalExpense:         ledger.Expense,
		ReimbursementExpense: ledger.ReimbursementExpense,
		NetBalance:           ledger.Income.Sub(ledger.Expense),
		TransactionCount:     ledger.Count,
		Reimbursements:       byStatus,
		ByCategory:           byCategory,
	}, nil
}
