package report

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/core/datamodel"
	"github.com/frahmantamala/bookkeeping/internal/transport"
)

type ServiceAPI interface {
	Summary(ctx context.Context, filter Filter) (*Summary, error)
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

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter Filter

	if raw := q.Get("company_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.WriteAppError(w, internal.NewValidationFieldError("company_id", "company_id must be numeric", internal.ErrCodeValidationFailed))
			return
		}
		filter.CompanyID = id
	}
	for name, dst := range map[string]**datamodel.Date{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		d, err := datamodel.ParseDate(raw)
		if err != nil {
			h.WriteAppError(w, internal.NewValidationFieldError(name, err.Error(), internal.ErrCodeInvalidDate))
			return
		}
		*dst = &d
	}

	summary, err := h.Service.Summary(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}
