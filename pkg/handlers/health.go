package handlers

import (
	"context"
	"net/http"
	"time"

	"venue-crm-backend/pkg/config"
	"venue-crm-backend/pkg/database"
	"venue-crm-backend/pkg/utils"
)

type HealthHandler struct {
	config *config.Config
	db     database.DatabaseInterface
}

func NewHealthHandler(cfg *config.Config, db database.DatabaseInterface) *HealthHandler {
	return &HealthHandler{config: cfg, db: db}
}

// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	dbStatus := "healthy"
	status := http.StatusOK
	if err := h.db.HealthCheck(ctx); err != nil {
		dbStatus = "unhealthy"
		status = http.StatusServiceUnavailable
		config.LogError(config.GetLogger(), "handlers", "HealthCheck", "database health check failed", h.db.Driver(), err)
	}

	utils.WriteJSONResponse(w, status, map[string]interface{}{
		"service":     "venue-crm-backend",
		"environment": h.config.Environment,
		"database":    h.db.Driver(),
		"db_status":   dbStatus,
		"timestamp":   time.Now().Unix(),
	})
}
