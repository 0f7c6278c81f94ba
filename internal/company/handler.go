package company

import (
	"context"
	"net/http"

	"github.com/frahmantamala/bookkeeping/internal/transport"
)

type ServiceAPI interface {
	GetAll(ctx context.Context) ([]*Company, error)
	GetByID(ctx context.Context, id int64) (*Company, error)
	Create(ctx context.Context, dto *CompanyDTO) (*Company, error)
	Update(ctx context.Context, id int64, dto *CompanyDTO) (*Company, error)
	Delete(ctx context.Context, id int64) error
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

func (h *Handler) GetCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Service.GetAll(r.Context())
	if err != nil {
		h.Logger.Error("GetCompanies: failed to get companies", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, companies)
}

func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	c, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var dto CompanyDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	c, err := h.Service.Create(r.Context(), &dto)
	if err != nil {
		h.Logger.Warn("CreateCompany: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto CompanyDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	c, err := h.Service.Update(r.Context(), id, &dto)
	if err != nil {
		h.Logger.Warn("UpdateCompany: service error", "error", err, "company_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.Logger.Warn("DeleteCompany: service error", "error", err, "company_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Company deleted"})
}
