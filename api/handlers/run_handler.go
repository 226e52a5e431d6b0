package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/filetube-go/internal/app"
	"github.com/yourusername/filetube-go/internal/domain"
	"go.uber.org/zap"
)

// RunHandler handles batch run HTTP requests
type RunHandler struct {
	scheduler *app.RunScheduler
	repo      domain.RunRepository
	defaults  *domain.DownloadConfig
	logger    *zap.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(scheduler *app.RunScheduler, repo domain.RunRepository, defaults *domain.DownloadConfig, logger *zap.Logger) *RunHandler {
	return &RunHandler{
		scheduler: scheduler,
		repo:      repo,
		defaults:  defaults,
		logger:    logger,
	}
}

// CreateRunRequest represents a request to start a batch
type CreateRunRequest struct {
	InputPath string `json:"input_path" binding:"required"`
	OutputDir string `json:"output_dir,omitempty"`
	Quality   string `json:"quality,omitempty"`
}

// CreateRun handles POST /api/v1/runs
func (h *RunHandler) CreateRun(c *gin.Context) {
	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := domain.RunParams{
		InputPath: req.InputPath,
		OutputDir: req.OutputDir,
		Quality:   req.Quality,
	}
	if params.OutputDir == "" {
		params.OutputDir = h.defaults.OutputDir
	}
	if params.Quality == "" {
		params.Quality = h.defaults.Quality
	}

	run, err := h.scheduler.Submit(params)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, app.ErrSchedulerClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("Failed to start run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, run)
}

// ListRuns handles GET /api/v1/runs
func (h *RunHandler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	runs, err := h.repo.ListRuns(limit)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, runs)
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	run, ok := h.findRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

// ListOutcomes handles GET /api/v1/runs/:id/outcomes
func (h *RunHandler) ListOutcomes(c *gin.Context) {
	run, ok := h.findRun(c)
	if !ok {
		return
	}

	status := domain.OutcomeStatus(c.Query("status"))
	if status != "" && !domain.ValidateOutcomeStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	outcomes, err := h.repo.ListOutcomes(run.ID, status)
	if err != nil {
		h.logger.Error("Failed to list outcomes", zap.String("run_id", run.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":   run.ID,
		"count":    len(outcomes),
		"outcomes": outcomes,
	})
}

// GetStats handles GET /api/v1/stats
func (h *RunHandler) GetStats(c *gin.Context) {
	stats, err := h.repo.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *RunHandler) findRun(c *gin.Context) (*domain.BatchRun, bool) {
	id := c.Param("id")
	run, err := h.repo.FindRun(id)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return nil, false
	}
	if err != nil {
		h.logger.Error("Failed to get run", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return run, true
}
