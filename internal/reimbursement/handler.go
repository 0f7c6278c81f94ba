package reimbursement

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*Reimbursement, error)
	GetByID(ctx context.Context, id string) (*Reimbursement, error)
	Create(ctx context.Context, dto *ReimbursementDTO) (*Reimbursement, error)
	UpdateDetails(ctx context.Context, id string, dto *ReimbursementDTO) (*Reimbursement, error)
	UpdateStatus(ctx context.Context, id string, dto *UpdateStatusDTO) (*Reimbursement, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListReimbursements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{}
	if raw := q.Get("status"); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			h.WriteAppError(w, internal.NewValidationFieldError("status", err.Error(), internal.ErrCodeInvalidStatus))
			return
		}
		filter.Status = status
	}
	if raw := q.Get("company_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.WriteAppError(w, internal.NewValidationFieldError("company_id", "company_id must be numeric", internal.ErrCodeValidationFailed))
			return
		}
		filter.CompanyID = id
	}

	items, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("ListReimbursements: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) GetReimbursement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) CreateReimbursement(w http.ResponseWriter, r *http.Request) {
	var dto ReimbursementDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.Logger.Warn("CreateReimbursement: invalid request body", "error", appErr)
		h.WriteAppError(w, appErr)
		return
	}

	item, err := h.Service.Create(r.Context(), &dto)
	if err != nil {
		h.Logger.Warn("CreateReimbursement: service error", "error", err, "reimbursement_id", dto.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateReimbursementDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto ReimbursementDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.Logger.Warn("UpdateReimbursementDetails: invalid request body", "error", appErr)
		h.WriteAppError(w, appErr)
		return
	}

	item, err := h.Service.UpdateDetails(r.Context(), id, &dto)
	if err != nil {
		h.Logger.Warn("UpdateReimbursementDetails: service error", "error", err, "reimbursement_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, item)
}

// UpdateStatus is the approval entrypoint. A BERHASIL response means the ledger entry exists.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto UpdateStatusDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.Logger.Warn("UpdateStatus: invalid request body", "error", appErr, "reimbursement_id", id)
		h.WriteAppError(w, appErr)
		return
	}

	item, err := h.Service.UpdateStatus(r.Context(), id, &dto)
	if err != nil {
		h.Logger.Warn("UpdateStatus: service error", "error", err, "reimbursement_id", id, "status", dto.Status)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Status updated",
		"reimbursement": item,
	})
}

func (h *Handler) DeleteReimbursement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.Logger.Warn("DeleteReimbursement: service error", "error", err, "reimbursement_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Reimbursement deleted"})
}
