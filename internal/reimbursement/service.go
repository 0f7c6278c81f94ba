package reimbursement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/core/common/validation"
	reimbursementDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/reimbursement"
	"github.com/frahmantamala/bookkeeping/internal/core/events"
	"github.com/frahmantamala/bookkeeping/internal/posting"
	"github.com/google/uuid"
)

// StatusChange is the set of columns a status update writes. A nil TransferProofURL keeps
// the stored value; a nil RejectionReason clears it.
type StatusChange struct {
	Status           Status
	RejectionReason  *string
	TransferProofURL *string
	UpdatedAt        time.Time
}

type RepositoryAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*reimbursementDatamodel.Reimbursement, error)
	GetByID(ctx context.Context, id string) (*reimbursementDatamodel.Reimbursement, error)
	GetForUpdate(ctx context.Context, id string) (*reimbursementDatamodel.Reimbursement, error)
	ListIDsByStatus(ctx context.Context, status Status) ([]string, error)
	Create(ctx context.Context, r *reimbursementDatamodel.Reimbursement) error
	ReplaceDetails(ctx context.Context, r *reimbursementDatamodel.Reimbursement) error
	UpdateStatus(ctx context.Context, id string, change StatusChange) error
	Delete(ctx context.Context, id string) error
}

// UnitOfWork runs fn inside one database transaction. Both the repository and the ledger
// store handed to fn are bound to it.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repo RepositoryAPI, ledger posting.Store) error) error
}

var errPostingFailed = errors.New("ledger posting failed")

type Service struct {
	repo      RepositoryAPI
	uow       UnitOfWork
	engine    *posting.Engine
	policy    TransitionPolicy
	publisher events.Publisher
	logger    *slog.Logger
	nowFunc   func() time.Time
}

func NewService(repo RepositoryAPI, uow UnitOfWork, engine *posting.Engine, policy TransitionPolicy, publisher events.Publisher, logger *slog.Logger) *Service {
	if policy == nil {
		policy = PermissiveTransitions
	}
	return &Service{
		repo:      repo,
		uow:       uow,
		engine:    engine,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Reimbursement, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list reimbursements", "error", err)
		return nil, internal.NewInternalError("failed to list reimbursements", err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Reimbursement, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	return FromDataModel(row), nil
}

// IsApproved reports whether id is a BERHASIL reimbursement. Unknown ids are not approved.
func (s *Service) IsApproved(ctx context.Context, id string) (bool, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReimbursementNotFound) {
			return false, nil
		}
		return false, err
	}
	return Status(row.Status) == StatusBerhasil, nil
}

func (s *Service) Create(ctx context.Context, dto *ReimbursementDTO) (*Reimbursement, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	id := dto.ID
	if id == "" {
		id = uuid.NewString()
	}
	r := dto.ToDomain(id, StatusPending, s.nowFunc().UTC())
	if !r.ItemsTotal().Equal(r.GrandTotal) {
		s.logger.Warn("reimbursement items do not add up to grand total",
			"reimbursement_id", id,
			"items_total", r.ItemsTotal().String(),
			"grand_total", r.GrandTotal.String())
	}

	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repo RepositoryAPI, _ posting.Store) error {
		return repo.Create(ctx, ToDataModel(r))
	})
	if err != nil {
		return nil, s.mapError(err, id)
	}

	s.logger.Info("reimbursement created",
		"reimbursement_id", id,
		"requestor", r.RequestorName,
		"grand_total", r.GrandTotal.String(),
		"actor", internal.ActorFromContext(ctx).Username)
	return s.GetByID(ctx, id)
}

// UpdateDetails replaces header fields and items. Status, proof and reason are untouched.
func (s *Service) UpdateDetails(ctx context.Context, id string, dto *ReimbursementDTO) (*Reimbursement, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repo RepositoryAPI, _ posting.Store) error {
		current, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		r := dto.ToDomain(id, Status(current.Status), current.CreatedAt)
		r.CreatedAt = current.CreatedAt
		r.TransferProofURL = current.TransferProofURL
		r.RejectionReason = current.RejectionReason

		row := ToDataModel(r)
		row.UpdatedAt = s.nowFunc().UTC()
		return repo.ReplaceDetails(ctx, row)
	})
	if err != nil {
		return nil, s.mapError(err, id)
	}

	s.logger.Info("reimbursement details updated", "reimbursement_id", id, "items", len(dto.Items))
	return s.GetByID(ctx, id)
}

// UpdateStatus applies a status change and, for BERHASIL, posts the ledger entry in the same
// transaction. When posting fails nothing is written.
func (s *Service) UpdateStatus(ctx context.Context, id string, dto *UpdateStatusDTO) (*Reimbursement, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}
	to := Status(dto.Status)

	var (
		from    Status
		outcome posting.Outcome
		posted  *reimbursementDatamodel.Reimbursement
	)
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repo RepositoryAPI, ledger posting.Store) error {
		current, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = Status(current.Status)

		if err := s.policy(from, to); err != nil {
			return err
		}

		change := StatusChange{
			Status:           to,
			TransferProofURL: dto.TransferProofURL,
			UpdatedAt:        s.nowFunc().UTC(),
		}
		if to == StatusDitolak {
			change.RejectionReason = dto.Reason()
		}
		if err := repo.UpdateStatus(ctx, id, change); err != nil {
			return err
		}

		if to != StatusBerhasil {
			return nil
		}
		outcome, err = s.engine.Post(ctx, ledger, id)
		if err != nil {
			return fmt.Errorf("%w: %w", errPostingFailed, err)
		}
		posted = current
		return nil
	})
	if err != nil {
		s.logger.Warn("reimbursement status update rolled back",
			"reimbursement_id", id,
			"status", to,
			"error", err)
		return nil, s.mapError(err, id)
	}

	actor := internal.ActorFromContext(ctx)
	s.logger.Info("reimbursement status updated",
		"reimbursement_id", id,
		"from", from,
		"to", to,
		"actor", actor.Username)

	s.publish(ctx, events.NewReimbursementStatusChangedEvent(id, string(from), string(to), actor.Username))
	if outcome == posting.OutcomePosted {
		s.publish(ctx, events.NewReimbursementPostedEvent(id, posted.GrandTotal.String(), "approval"))
	}

	return s.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	var status Status
	err := s.uow.WithinTransaction(ctx, func(ctx context.Context, repo RepositoryAPI, _ posting.Store) error {
		current, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		status = Status(current.Status)
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return s.mapError(err, id)
	}

	if status == StatusBerhasil {
		s.logger.Warn("deleted an approved reimbursement; its ledger entry is kept", "reimbursement_id", id)
	}
	s.logger.Info("reimbursement deleted", "reimbursement_id", id)
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func (s *Service) mapError(err error, id string) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, ErrReimbursementNotFound):
		return internal.NewNotFoundError(fmt.Sprintf("reimbursement %s not found", id), internal.ErrCodeReimbursementNotFound)
	case errors.Is(err, ErrInvalidTransition):
		return internal.NewConflictError(err.Error(), internal.ErrCodeInvalidTransition)
	case errors.Is(err, ErrDuplicateID):
		return internal.NewConflictError(fmt.Sprintf("reimbursement %s already exists", id), internal.ErrCodeDuplicateID)
	case errors.Is(err, errPostingFailed):
		s.logger.Error("ledger posting failed", "reimbursement_id", id, "error", err)
		appErr := internal.NewInternalError("failed to post reimbursement to ledger", err)
		appErr.Code = internal.ErrCodePostingFailed
		return appErr
	default:
		s.logger.Error("reimbursement store failure", "reimbursement_id", id, "error", err)
		return internal.NewInternalError("reimbursement store failure", err)
	}
}
