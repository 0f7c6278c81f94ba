package reimbursement

import (
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/bookkeeping/internal/core/datamodel"
	reimbursementDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/reimbursement"
	"github.com/frahmantamala/bookkeeping/internal/transaction"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusProses   Status = "PROSES"
	StatusBerhasil Status = "BERHASIL"
	StatusDitolak  Status = "DITOLAK"
)

var AllStatuses = []Status{StatusPending, StatusProses, StatusBerhasil, StatusDitolak}

func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsTerminal reports whether the status ends the approval workflow.
func (s Status) IsTerminal() bool {
	return s == StatusBerhasil || s == StatusDitolak
}

// TransitionPolicy decides whether a reimbursement may move from one status to another.
type TransitionPolicy func(from, to Status) error

// PermissiveTransitions allows any status to be set from any other, DITOLAK to BERHASIL included.
func PermissiveTransitions(from, to Status) error {
	return nil
}

// TerminalLockedTransitions refuses to leave BERHASIL or DITOLAK. Re-applying the same
// terminal status stays allowed so repeated approvals remain idempotent.
func TerminalLockedTransitions(from, to Status) error {
	if from.IsTerminal() && from != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// PolicyByName maps the reimbursement.transition_policy config value to a policy.
func PolicyByName(name string) (TransitionPolicy, error) {
	switch name {
	case "", "permissive":
		return PermissiveTransitions, nil
	case "terminal_locked":
		return TerminalLockedTransitions, nil
	default:
		return nil, fmt.Errorf("unknown transition policy %q", name)
	}
}

type Reimbursement struct {
	ID               string                   `json:"id"`
	Date             datamodel.Date           `json:"date"`
	RequestorName    string                   `json:"requestorName"`
	Category         string                   `json:"category"`
	CompanyID        int64                    `json:"companyId"`
	ActivityName     string                   `json:"activityName"`
	Description      string                   `json:"description"`
	Items            []transaction.ItemDetail `json:"items"`
	GrandTotal       decimal.Decimal          `json:"grandTotal"`
	Status           Status                   `json:"status"`
	TransferProofURL *string                  `json:"transferProofUrl,omitempty"`
	RejectionReason  *string                  `json:"rejectionReason,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
	Timestamp        int64                    `json:"timestamp"`
}

func (r *Reimbursement) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range r.Items {
		sum = sum.Add(it.Total)
	}
	return sum
}

func ToDataModel(r *Reimbursement) *reimbursementDatamodel.Reimbursement {
	items := make([]*reimbursementDatamodel.ReimbursementItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = &reimbursementDatamodel.ReimbursementItem{
			ID:              it.ID,
			ReimbursementID: r.ID,
			Position:        i,
			Name:            it.Name,
			Qty:             it.Qty,
			Price:           it.Price,
			Total:           it.Total,
			FileURL:         it.FileURL,
		}
	}
	return &reimbursementDatamodel.Reimbursement{
		ID:               r.ID,
		Date:             r.Date,
		RequestorName:    r.RequestorName,
		Category:         r.Category,
		CompanyID:        r.CompanyID,
		ActivityName:     r.ActivityName,
		Description:      r.Description,
		GrandTotal:       r.GrandTotal,
		Status:           string(r.Status),
		TransferProofURL: r.TransferProofURL,
		RejectionReason:  r.RejectionReason,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.CreatedAt,
		Items:            items,
	}
}

func FromDataModel(r *reimbursementDatamodel.Reimbursement) *Reimbursement {
	items := make([]transaction.ItemDetail, len(r.Items))
	for i, it := range r.Items {
		items[i] = transaction.ItemDetail{
			ID:      it.ID,
			Name:    it.Name,
			Qty:     it.Qty,
			Price:   it.Price,
			Total:   it.Total,
			FileURL: it.FileURL,
		}
	}
	return &Reimbursement{
		ID:               r.ID,
		Date:             r.Date,
		RequestorName:    r.RequestorName,
		Category:         r.Category,
		CompanyID:        r.CompanyID,
		ActivityName:     r.ActivityName,
		Description:      r.Description,
		Items:            items,
		GrandTotal:       r.GrandTotal,
		Status:           Status(r.Status),
		TransferProofURL: r.TransferProofURL,
		RejectionReason:  r.RejectionReason,
		CreatedAt:        r.CreatedAt,
		Timestamp:        r.CreatedAt.UnixMilli(),
	}
}

func FromDataModelSlice(rows []*reimbursementDatamodel.Reimbursement) []*Reimbursement {
	result := make([]*Reimbursement, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}

var (
	ErrReimbursementNotFound = errors.New("reimbursement not found")
	ErrDuplicateID           = errors.New("reimbursement id already exists")
	ErrInvalidStatus         = errors.New("invalid reimbursement status")
	ErrInvalidTransition     = errors.New("status transition not allowed")
	ErrReasonRequired        = errors.New("rejection reason is required when rejecting")
)
