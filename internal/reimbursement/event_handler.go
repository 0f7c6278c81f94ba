package reimbursement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/bookkeeping/internal/core/events"
)

// AuditHandler writes one structured log line per status change, ledger posting and reconciliation run.
type AuditHandler struct {
	logger *slog.Logger
}

func NewAuditHandler(logger *slog.Logger) *AuditHandler {
	return &AuditHandler{logger: logger.With("component", "reimbursement_audit")}
}

func (h *AuditHandler) HandleStatusChanged(ctx context.Context, event events.Event) error {
	changed, ok := event.(*events.ReimbursementStatusChangedEvent)
	if !ok {
		return fmt.Errorf("expected ReimbursementStatusChangedEvent, got %T", event)
	}

	h.logger.Info("reimbursement status changed",
		"event_id", changed.EventID(),
		"reimbursement_id", changed.ReimbursementID,
		"from", changed.From,
		"to", changed.To,
		"actor", changed.Actor,
		"occurred_at", changed.OccurredAt())
	return nil
}

func (h *AuditHandler) HandlePosted(ctx context.Context, event events.Event) error {
	posted, ok := event.(*events.ReimbursementPostedEvent)
	if !ok {
		return fmt.Errorf("expected ReimbursementPostedEvent, got %T", event)
	}

	h.logger.Info("reimbursement posted to ledger",
		"event_id", posted.EventID(),
		"reimbursement_id", posted.ReimbursementID,
		"grand_total", posted.GrandTotal,
		"source", posted.Source)
	return nil
}

func (h *AuditHandler) HandleReconciliationCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(*events.ReconciliationCompletedEvent)
	if !ok {
		return fmt.Errorf("expected ReconciliationCompletedEvent, got %T", event)
	}

	level := slog.LevelInfo
	if completed.Errors > 0 {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, "reconciliation completed",
		"event_id", completed.EventID(),
		"total_approved", completed.TotalApproved,
		"already_posted", completed.AlreadyPosted,
		"newly_posted", completed.NewlyPosted,
		"errors", completed.Errors,
		"duration_ms", completed.Duration.Milliseconds())
	return nil
}

func (h *AuditHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeReimbursementStatusChanged, h.HandleStatusChanged)
	eventBus.Subscribe(events.EventTypeReimbursementPosted, h.HandlePosted)
	eventBus.Subscribe(events.EventTypeReconciliationCompleted, h.HandleReconciliationCompleted)
}
