package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryDownload LogCategory = "download" // Batch audit trail (JSON)
	CategoryError    LogCategory = "error"    // Application errors (JSON)
	CategoryServer   LogCategory = "server"   // HTTP access log (JSON)
)

// Categories lists every category in display order
func Categories() []LogCategory {
	return []LogCategory{CategoryDownload, CategoryError, CategoryServer}
}

// ValidCategory reports whether c is a known category
func ValidCategory(c LogCategory) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// datedFile is a WriteSyncer that writes to <category>-YYYYMMDD.log and
// switches to a new file on the first write after the date changes. Loggers
// built on it stay valid across midnight.
type datedFile struct {
	mu       sync.Mutex
	dir      string
	category LogCategory
	now      func() time.Time
	date     string
	file     *os.File
	closed   bool
}

func (d *datedFile) path(date string) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s-%s.log", d.category, date))
}

// openLocked switches to the file for date. On failure the previous file, if
// any, stays in use.
func (d *datedFile) openLocked(date string) error {
	file, err := os.OpenFile(d.path(date), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if d.file != nil {
		d.file.Sync()
		d.file.Close()
	}
	d.file = file
	d.date = date
	return nil
}

func (d *datedFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, os.ErrClosed
	}
	if date := d.now().Format("20060102"); date != d.date || d.file == nil {
		if err := d.openLocked(date); err != nil && d.file == nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

func (d *datedFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil || d.closed {
		return nil
	}
	return d.file.Sync()
}

func (d *datedFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	if d.file == nil {
		return nil
	}
	d.file.Sync()
	return d.file.Close()
}

type categoryLogger struct {
	logger *zap.Logger
	file   *datedFile
}

// MultiLogger writes each category to its own dated JSON file and rolls the
// files over when the date changes
type MultiLogger struct {
	loggers map[LogCategory]*categoryLogger
	config  MultiLoggerConfig
	level   zapcore.Level
	mu      sync.Mutex
	now     func() time.Time
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}

	// Ensure logs directory exists
	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	ml := &MultiLogger{
		loggers: make(map[LogCategory]*categoryLogger),
		config:  config,
		level:   level,
		now:     time.Now,
	}

	for _, category := range Categories() {
		level := ml.level
		if category == CategoryError {
			level = zapcore.ErrorLevel
		}
		cl, err := ml.createStructuredLogger(category, level)
		if err != nil {
			ml.Close()
			return nil, fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		ml.loggers[category] = cl
	}
	return ml, nil
}

// createStructuredLogger creates a JSON-formatted logger for a category
func (ml *MultiLogger) createStructuredLogger(category LogCategory, level zapcore.Level) (*categoryLogger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "msg"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = "" // Don't include caller for cleaner logs

	file := &datedFile{
		dir:      ml.config.LogsDir,
		category: category,
		now:      func() time.Time { return ml.now() },
	}
	file.mu.Lock()
	err := file.openLocked(ml.now().Format("20060102"))
	file.mu.Unlock()
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), file, level)
	return &categoryLogger{logger: zap.New(core), file: file}, nil
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the structured logger for a specific category
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if cl, ok := ml.loggers[category]; ok {
		return cl.logger
	}

	// Return error logger as fallback
	if cl, ok := ml.loggers[CategoryError]; ok {
		return cl.logger
	}
	return zap.NewNop()
}

// Download returns the batch audit logger
func (ml *MultiLogger) Download() *zap.Logger {
	return ml.GetLogger(CategoryDownload)
}

// Error returns the error logger
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// Server returns the HTTP access logger
func (ml *MultiLogger) Server() *zap.Logger {
	return ml.GetLogger(CategoryServer)
}

// LogAppError logs an application-level error (Go errors, panics)
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.Error().Error(msg, fields...)
}

// LogDownloadEvent logs a batch event with structured data
func (ml *MultiLogger) LogDownloadEvent(event string, fields ...zap.Field) {
	ml.Download().Info(event, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var lastErr error
	for _, cl := range ml.loggers {
		if err := cl.logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes and closes all log files
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var lastErr error
	for category, cl := range ml.loggers {
		cl.logger.Sync()
		if err := cl.file.Close(); err != nil {
			lastErr = err
		}
		delete(ml.loggers, category)
	}
	return lastErr
}
