package rest

import (
	"context"
	"net/http"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/migration"
	"github.com/frahmantamala/bookkeeping/internal/transport"
)

type Migrator interface {
	Up(ctx context.Context) (migration.Result, error)
}

type SystemHandler struct {
	*transport.BaseHandler
	Migrator Migrator
}

func NewSystemHandler(baseHandler *transport.BaseHandler, migrator Migrator) *SystemHandler {
	return &SystemHandler{
		BaseHandler: baseHandler,
		Migrator:    migrator,
	}
}

func (h *SystemHandler) MigrateDB(w http.ResponseWriter, r *http.Request) {
	actor := internal.ActorFromContext(r.Context())
	h.Logger.Info("MigrateDB: triggered", "actor", actor.Username)

	result, err := h.Migrator.Up(r.Context())
	if err != nil {
		h.Logger.Error("MigrateDB: migration failed", "error", err)
		h.HandleServiceError(w, internal.NewInternalError("database migration failed", err))
		return
	}

	message := "Database is up to date"
	if result.Changed() {
		message = "Database migrated"
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      message,
		"from_version": result.FromVersion,
		"to_version":   result.ToVersion,
	})
}
