package handlers

import (
	"net/http"

	"github.com/wonny/aegis-insight/internal/tracker"
	"github.com/wonny/aegis-insight/pkg/logger"
)

// TrackerHandler 성과 추적 리포트 API
type TrackerHandler struct {
	store      tracker.Store
	aggregator *tracker.Aggregator
	logger     *logger.Logger
}

// NewTrackerHandler creates a tracker handler
func NewTrackerHandler(store tracker.Store, aggregator *tracker.Aggregator, log *logger.Logger) *TrackerHandler {
	return &TrackerHandler{
		store:      store,
		aggregator: aggregator,
		logger:     log,
	}
}

// GetReport returns the aggregated tracker report
// GET /api/tracker/report
func (h *TrackerHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.aggregator.Load(r.Context(), h.store)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build tracker report")
		respondError(w, http.StatusInternalServerError, "Failed to build tracker report")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
