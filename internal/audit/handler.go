package audit

import (
	"net/http"

	httputil "medbook/pkg/http"
	"medbook/pkg/logger"
	"medbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	repo     Repository
	recorder *Recorder
	log      *logger.Logger
}

func NewHandler(repo Repository, recorder *Recorder, log *logger.Logger) *Handler {
	return &Handler{
		repo:     repo,
		recorder: recorder,
		log:      log,
	}
}

// ByActor returns an actor's most recent audit entries, newest first.
func (h *Handler) ByActor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ByActor", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	actor := ps.ByName("username")
	entries, err := h.repo.FindByActor(r.Context(), actor, limit, offset)
	if err != nil {
		h.log.Error("Failed to load audit entries", "actor", actor, "error", err)
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ByActor", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	if entries == nil {
		entries = []*model.AuditEntry{}
	}

	total, err := h.repo.CountByActor(r.Context(), actor)
	if err != nil {
		h.log.Error("Failed to count audit entries", "actor", actor, "error", err)
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ByActor", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, entries, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ByActor", "operation", "WritePaginated", "error", err)
	}
}

// Stats exposes audit-sink health, currently the count of entries dropped
// since the process started.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats := map[string]int64{
		"dropped_entries": h.recorder.Dropped(),
	}
	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/audit/actor/:username", h.ByActor)
	router.GET("/api/v1/audit/stats", h.Stats)
}
