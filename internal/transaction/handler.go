package transaction

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/core/datamodel"
	"github.com/frahmantamala/bookkeeping/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	GetByID(ctx context.Context, id string) (*Transaction, error)
	Create(ctx context.Context, dto *TransactionDTO) (*Transaction, error)
	Update(ctx context.Context, id string, dto *TransactionDTO) (*Transaction, error)
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

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, appErr := parseListFilter(r)
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	transactions, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("ListTransactions: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, transactions)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var dto TransactionDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.Logger.Warn("CreateTransaction: invalid request body", "error", appErr)
		h.WriteAppError(w, appErr)
		return
	}

	t, err := h.Service.Create(r.Context(), &dto)
	if err != nil {
		h.Logger.Warn("CreateTransaction: service error", "error", err, "transaction_id", dto.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto TransactionDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.Logger.Warn("UpdateTransaction: invalid request body", "error", appErr)
		h.WriteAppError(w, appErr)
		return
	}

	t, err := h.Service.Update(r.Context(), id, &dto)
	if err != nil {
		h.Logger.Warn("UpdateTransaction: service error", "error", err, "transaction_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.Logger.Warn("DeleteTransaction: service error", "error", err, "transaction_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
}

func parseListFilter(r *http.Request) (ListFilter, *internal.AppError) {
	q := r.URL.Query()
	filter := ListFilter{Type: q.Get("type")}

	if raw := q.Get("company_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, internal.NewValidationFieldError("company_id", "company_id must be numeric", internal.ErrCodeValidationFailed)
		}
		filter.CompanyID = id
	}
	if raw := q.Get("from"); raw != "" {
		d, err := datamodel.ParseDate(raw)
		if err != nil {
			return filter, internal.NewValidationFieldError("from", err.Error(), internal.ErrCodeInvalidDate)
		}
		filter.From = &d
	}
	if raw := q.Get("to"); raw != "" {
		d, err := datamodel.ParseDate(raw)
		if err != nil {
			return filter, internal.NewValidationFieldError("to", err.Error(), internal.ErrCodeInvalidDate)
		}
		filter.To = &d
	}
	return filter, nil
}
