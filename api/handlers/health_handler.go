package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/filetube-go/internal/app"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	scheduler *app.RunScheduler
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(scheduler *app.RunScheduler, version string) *HealthHandler {
	return &HealthHandler{
		scheduler: scheduler,
		version:   version,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Runs    struct {
		Active int `json:"active"`
	} `json:"runs"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: h.version,
	}
	response.Runs.Active = h.scheduler.ActiveRuns()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.scheduler.Accepting() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "server is shutting down",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
