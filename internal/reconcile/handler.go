package reconcile

import (
	"context"
	"net/http"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/transport"
)

type Runner interface {
	Run(ctx context.Context) (Report, error)
}

type Handler struct {
	*transport.BaseHandler
	Runner Runner
}

func NewHandler(baseHandler *transport.BaseHandler, runner Runner) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Runner:      runner,
	}
}

func (h *Handler) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	actor := internal.ActorFromContext(r.Context())
	h.Logger.Info("RunReconciliation: triggered", "actor", actor.Username)

	report, err := h.Runner.Run(r.Context())
	if err != nil {
		h.Logger.Error("RunReconciliation: job failed", "error", err)
		h.HandleServiceError(w, internal.NewInternalError("reconciliation failed", err))
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}
