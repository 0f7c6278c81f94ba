package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/core/common/validation"
	transactionDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/transaction"
	"github.com/google/uuid"
)

type RepositoryAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*transactionDatamodel.Transaction, error)
	GetByID(ctx context.Context, id string) (*transactionDatamodel.Transaction, error)
	Create(ctx context.Context, t *transactionDatamodel.Transaction) error
	Replace(ctx context.Context, t *transactionDatamodel.Transaction) error
	Delete(ctx context.Context, id string) error
}

// ReimbursementLookup reports whether an id belongs to an approved reimbursement.
type ReimbursementLookup interface {
	IsApproved(ctx context.Context, id string) (bool, error)
}

type Service struct {
	repo    RepositoryAPI
	lookup  ReimbursementLookup
	logger  *slog.Logger
	nowFunc func() time.Time
}

func NewService(repo RepositoryAPI, lookup ReimbursementLookup, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		lookup:  lookup,
		logger:  logger,
		nowFunc: time.Now,
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list transactions", "error", err)
		return nil, internal.NewInternalError("failed to list transactions", err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Transaction, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto *TransactionDTO) (*Transaction, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	id := dto.ID
	if id == "" {
		id = uuid.NewString()
	}
	t := dto.ToDomain(id, s.nowFunc().UTC())
	if !t.ItemsTotal().Equal(t.GrandTotal) && len(t.Items) > 0 {
		s.logger.Warn("transaction items do not add up to grand total",
			"transaction_id", t.ID,
			"items_total", t.ItemsTotal().String(),
			"grand_total", t.GrandTotal.String())
	}

	if err := s.repo.Create(ctx, ToDataModel(t)); err != nil {
		return nil, s.mapError(err, id)
	}

	s.logger.Info("transaction created", "transaction_id", t.ID, "type", t.Type, "grand_total", t.GrandTotal.String())
	return s.GetByID(ctx, id)
}

// Update replaces the header and the full item list. The original creation time is kept.
func (s *Service) Update(ctx context.Context, id string, dto *TransactionDTO) (*Transaction, error) {
	if dto.ID != "" && dto.ID != id {
		return nil, internal.NewValidationFieldError("id", ErrIDMismatch.Error(), internal.ErrCodeValidationFailed)
	}
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}

	t := dto.ToDomain(id, existing.CreatedAt)
	t.CreatedAt = existing.CreatedAt
	row := ToDataModel(t)
	row.UpdatedAt = s.nowFunc().UTC()

	if err := s.repo.Replace(ctx, row); err != nil {
		return nil, s.mapError(err, id)
	}

	s.logger.Info("transaction updated", "transaction_id", id, "items", len(t.Items))
	return s.GetByID(ctx, id)
}

// Delete removes a ledger entry. Deleting a posted reimbursement entry does not revert the
// reimbursement; the next reconciliation run posts it again.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.lookup != nil {
		approved, err := s.lookup.IsApproved(ctx, id)
		if err != nil {
			s.logger.Warn("failed to check reimbursement for transaction", "transaction_id", id, "error", err)
		} else if approved {
			s.logger.Warn("deleting ledger entry of an approved reimbursement",
				"transaction_id", id,
				"actor", internal.ActorFromContext(ctx).Username)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError(err, id)
	}
	s.logger.Info("transaction deleted", "transaction_id", id)
	return nil
}

func (s *Service) mapError(err error, id string) error {
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		return internal.NewNotFoundError(fmt.Sprintf("transaction %s not found", id), internal.ErrCodeTransactionNotFound)
	case errors.Is(err, ErrDuplicateID):
		return internal.NewConflictError(fmt.Sprintf("transaction %s already exists", id), internal.ErrCodeDuplicateID)
	default:
		s.logger.Error("transaction store failure", "transaction_id", id, "error", err)
		return internal.NewInternalError("transaction store failure", err)
	}
}
