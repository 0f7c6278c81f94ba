package category

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	Create(ctx context.Context, dto *CategoryDTO) (*Category, error)
	Update(ctx context.Context, id int64, dto *CategoryDTO) (*Category, error)
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

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Type: Type(q.Get("type"))}
	if raw := q.Get("company_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.WriteAppError(w, internal.NewValidationFieldError("company_id", "company_id must be numeric", internal.ErrCodeValidationFailed))
			return
		}
		filter.CompanyID = id
	}

	categories, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("GetCategories: failed to get categories", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, categories)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
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

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var dto CategoryDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	c, err := h.Service.Create(r.Context(), &dto)
	if err != nil {
		h.Logger.Warn("CreateCategory: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto CategoryDTO
	if appErr := h.DecodeJSON(w, r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	c, err := h.Service.Update(r.Context(), id, &dto)
	if err != nil {
		h.Logger.Warn("UpdateCategory: service error", "error", err, "category_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.Logger.Warn("DeleteCategory: service error", "error", err, "category_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}
