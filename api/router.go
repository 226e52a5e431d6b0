package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/filetube-go/api/handlers"
	"github.com/yourusername/filetube-go/api/middleware"
	"github.com/yourusername/filetube-go/internal/app"
	"github.com/yourusername/filetube-go/internal/domain"
	"github.com/yourusername/filetube-go/pkg/logger"
)

// RouterConfig holds the dependencies of the HTTP router
type RouterConfig struct {
	Scheduler   *app.RunScheduler
	Repository  domain.RunRepository
	Defaults    *domain.DownloadConfig
	Logger      *zap.Logger
	MultiLogger *logger.MultiLogger // optional; enables the access log and log endpoints
	Version     string
}

// SetupRouter sets up the HTTP router
func SetupRouter(cfg RouterConfig) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	accessLog := cfg.Logger
	if cfg.MultiLogger != nil {
		accessLog = cfg.MultiLogger.Server()
	}
	router.Use(middleware.Logger(accessLog))
	router.Use(middleware.Recovery(cfg.Logger))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Scheduler, cfg.Version)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		runHandler := handlers.NewRunHandler(cfg.Scheduler, cfg.Repository, cfg.Defaults, cfg.Logger)
		runs := v1.Group("/runs")
		{
			runs.POST("", runHandler.CreateRun)
			runs.GET("", runHandler.ListRuns)
			runs.GET("/:id", runHandler.GetRun)
			runs.GET("/:id/outcomes", runHandler.ListOutcomes)
		}
		v1.GET("/stats", runHandler.GetStats)

		if cfg.MultiLogger != nil {
			logsDir := cfg.MultiLogger.GetLogsDir()
			logHandler := handlers.NewLogHandler(logsDir)
			streamHandler := handlers.NewEventStreamHandler(logsDir, cfg.Repository, cfg.Logger)
			runs.GET("/:id/events", streamHandler.StreamRun)

			logs := v1.Group("/logs")
			{
				logs.GET("/categories", logHandler.GetCategories)
				logs.GET("/stream", streamHandler.StreamLogs)
				logs.GET("/:category", logHandler.GetLogs)
				logs.GET("/:category/search", logHandler.SearchLogs)
				logs.GET("/:category/export", logHandler.ExportLogs)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
