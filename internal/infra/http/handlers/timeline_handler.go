package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type TimelineGetter interface {
	Execute(ctx context.Context, leadID string) ([]usecase.TimelineItem, error)
}

type TimelineHandler struct {
	UC     TimelineGetter
	Logger *slog.Logger
}

func NewTimelineHandler(uc TimelineGetter, logger *slog.Logger) *TimelineHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimelineHandler{UC: uc, Logger: logger}
}

// Handle serves GET /leads/{id}/timeline.
func (h *TimelineHandler) Handle(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "id")
	if leadID == "" {
		writeErrorResponse(w, http.StatusBadRequest, "MISSING_ID", "lead id is required")
		return
	}

	items, err := h.UC.Execute(r.Context(), leadID)
	if err != nil {
		if usecase.IsDomainError(err) {
			writeErrorResponse(w, http.StatusNotFound, "LEAD_NOT_FOUND", err.Error())
			return
		}
		h.Logger.ErrorContext(r.Context(), "timeline load failed",
			slog.String("lead_id", leadID),
			slog.Any("error", err),
		)
		writeErrorResponse(w, http.StatusInternalServerError, "STORE_ERROR", "failed to load timeline")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lead_id": leadID,
		"items":   items,
	})
}
