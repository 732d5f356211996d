package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/aegis-insight/pkg/database"
)

// HealthChecker DB 상태 확인 (*database.DB가 구현)
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

var _ HealthChecker = (*database.DB)(nil)

// HealthHandler /health 핸들러
type HealthHandler struct {
	db      HealthChecker
	service string
}

// NewHealthHandler creates a health handler
func NewHealthHandler(db HealthChecker, service string) *HealthHandler {
	return &HealthHandler{db: db, service: service}
}

// Get returns service and database health
// GET /health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	status, err := h.db.HealthCheck(r.Context())
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "degraded",
			"service":  h.service,
			"database": status,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"service":  h.service,
		"database": status,
	})
}
