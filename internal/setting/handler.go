package setting

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/bookkeeping/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	All(ctx context.Context) (map[string]json.RawMessage, error)
	Get(ctx context.Context, key string) (*Setting, error)
	Put(ctx context.Context, key string, value json.RawMessage) (*Setting, error)
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

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.All(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	s, err := h.Service.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, s)
}

// PutSetting stores the raw request body as the value of {key}.
func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var value json.RawMessage
	if appErr := h.DecodeJSON(w, r, &value); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	s, err := h.Service.Put(r.Context(), key, value)
	if err != nil {
		h.Logger.Warn("PutSetting: service error", "error", err, "key", key)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, s)
}
