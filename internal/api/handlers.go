package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"media_sync/internal/domain"
)

type handler struct {
	trigger SyncTrigger
	media   MediaService
	health  HealthChecker
	logger  *slog.Logger
}

func (h *handler) sync(w http.ResponseWriter, r *http.Request) {
	// a client disconnect must not abort a run halfway through
	summary, err := h.trigger.TriggerSync(context.WithoutCancel(r.Context()))
	if errors.Is(err, domain.ErrSyncInProgress) {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("manual sync failed", "error", err)
		writeError(w, "Failed to sync media: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, newSyncResponse(summary), http.StatusOK)
}

func (h *handler) purgeAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.media.PurgeAll(r.Context())
	if err != nil {
		writeError(w, "Failed to delete all media: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, PurgeAllResponse{
		Message: "All media deleted",
		Deleted: result.PerKind,
		Total:   result.Total,
	}, http.StatusOK)
}

func (h *handler) purgeKind(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	deleted, err := h.media.PurgeKind(r.Context(), kind)
	if err != nil {
		writeError(w, "Failed to delete media: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, PurgeKindResponse{Kind: kind, Deleted: deleted}, http.StatusOK)
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.media.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute stats", "error", err)
		writeError(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, stats, http.StatusOK)
}

func (h *handler) liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

func (h *handler) databaseHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.health.PingContext(r.Context()); err != nil {
		writeJSON(w, HealthResponse{Status: "unhealthy", Error: err.Error()}, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}
