package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeReimbursementStatusChanged = "reimbursement.status_changed"
	EventTypeReimbursementPosted        = "reimbursement.posted"
	EventTypeReconciliationCompleted    = "reconciliation.completed"
)

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type ReimbursementStatusChangedEvent struct {
	BaseEvent
	ReimbursementID string `json:"reimbursement_id"`
	From            string `json:"from"`
	To              string `json:"to"`
	Actor           string `json:"actor"`
}

func NewReimbursementStatusChangedEvent(reimbursementID, from, to, actor string) *ReimbursementStatusChangedEvent {
	return &ReimbursementStatusChangedEvent{
		BaseEvent: newBase(EventTypeReimbursementStatusChanged, map[string]interface{}{
			"reimbursement_id": reimbursementID,
			"from":             from,
			"to":               to,
			"actor":            actor,
		}),
		ReimbursementID: reimbursementID,
		From:            from,
		To:              to,
		Actor:           actor,
	}
}

type ReimbursementPostedEvent struct {
	BaseEvent
	ReimbursementID string `json:"reimbursement_id"`
	GrandTotal      string `json:"grand_total"`
	Source          string `json:"source"`
}

// NewReimbursementPostedEvent records a new ledger entry. Source is "approval" or "reconciliation".
func NewReimbursementPostedEvent(reimbursementID, grandTotal, source string) *ReimbursementPostedEvent {
	return &ReimbursementPostedEvent{
		BaseEvent: newBase(EventTypeReimbursementPosted, map[string]interface{}{
			"reimbursement_id": reimbursementID,
			"grand_total":      grandTotal,
			"source":           source,
		}),
		ReimbursementID: reimbursementID,
		GrandTotal:      grandTotal,
		Source:          source,
	}
}

type ReconciliationCompletedEvent struct {
	BaseEvent
	TotalApproved int           `json:"total_approved"`
	AlreadyPosted int           `json:"already_posted"`
	NewlyPosted   int           `json:"newly_posted"`
	Errors        int           `json:"errors"`
	Duration      time.Duration `json:"duration"`
}

func NewReconciliationCompletedEvent(total, already, newly, errs int, duration time.Duration) *ReconciliationCompletedEvent {
	return &ReconciliationCompletedEvent{
		BaseEvent: newBase(EventTypeReconciliationCompleted, map[string]interface{}{
			"total_approved": total,
			"already_posted": already,
			"newly_posted":   newly,
			"errors":         errs,
			"duration_ms":    duration.Milliseconds(),
		}),
		TotalApproved: total,
		AlreadyPosted: already,
		NewlyPosted:   newly,
		Errors:        errs,
		Duration:      duration,
	}
}
