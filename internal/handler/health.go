package handler

import (
	"net/http"
	"time"

	"github.com/BuzzLyutic/taskify-api/internal/monitor"
	"github.com/BuzzLyutic/taskify-api/pkg/respond"
)

const Version = "1.0.0"

type HealthHandler struct {
	monitor *monitor.Monitor
}

func NewHealthHandler(m *monitor.Monitor) *HealthHandler {
	return &HealthHandler{monitor: m}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	database := "up"
	if healthy, _ := h.monitor.Healthy(); !healthy {
		status = "degraded"
		database = "down"
	}

	respond.JSON(w, r, http.StatusOK, map[string]string{
		"status":    status,
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}
