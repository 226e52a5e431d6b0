package app

import (
	"fmt"

	"github.com/yourusername/filetube-go/internal/domain"
	"github.com/yourusername/filetube-go/internal/infrastructure"
	"github.com/yourusername/filetube-go/pkg/logger"
	"go.uber.org/zap"
)

// Services holds the wired components shared by the CLI and the server
type Services struct {
	Config      *domain.Config
	Logger      *zap.Logger
	MultiLogger *logger.MultiLogger
	Repository  domain.RunRepository // nil when history is disabled
	Notifier    *infrastructure.NotificationService
	Runner      *BatchRunner

	closers []func() error
}

// NewServices builds the batch pipeline from configuration
func NewServices(config *domain.Config, log *zap.Logger) (*Services, error) {
	s := &Services{Config: config, Logger: log}

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Logging.LogsDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize category logs: %w", err)
	}
	s.MultiLogger = multiLog
	s.closers = append(s.closers, multiLog.Close)

	if config.History.Enabled {
		repo, err := infrastructure.NewSQLiteRunRepository(config.History.DatabasePath)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		s.Repository = repo
		s.closers = append(s.closers, repo.Close)
	}

	s.Notifier = infrastructure.NewNotificationService(&config.Notification, log)

	downloads := NewDownloadManager(
		infrastructure.NewYouTubeResolver(&config.Resolver, log),
		infrastructure.NewHTTPFetcher(&config.Download, log),
		infrastructure.NewPathAllocator(config.Download.Collision),
		&config.Download,
		log,
	)
	s.Runner = NewBatchRunner(NewDefaultExtractorRegistry(log), downloads, s.Repository, &config.Download, log, multiLog)

	return s, nil
}

// Close releases the history database and log files
func (s *Services) Close() error {
	var lastErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			lastErr = err
		}
	}
	s.closers = nil
	return lastErr
}
