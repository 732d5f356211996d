package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/aegis-insight/internal/contracts"
	"github.com/wonny/aegis-insight/pkg/logger"
)

// StatsReader 지식 저장소 통계 조회
type StatsReader interface {
	Stats(ctx context.Context) (*contracts.KnowledgeStats, error)
}

// KnowledgeHandler 지식 계층 조회 API
type KnowledgeHandler struct {
	repo   StatsReader
	logger *logger.Logger
}

// NewKnowledgeHandler creates a knowledge handler
func NewKnowledgeHandler(repo StatsReader, log *logger.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{repo: repo, logger: log}
}

// GetStats returns journal layer counts and active knowledge counts
// GET /api/knowledge/stats
func (h *KnowledgeHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get knowledge stats")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve knowledge stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
