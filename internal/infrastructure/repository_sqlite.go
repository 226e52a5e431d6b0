package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourusername/filetube-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteRunRepository implements RunRepository using SQLite
type SQLiteRunRepository struct {
	db *gorm.DB
}

// NewSQLiteRunRepository creates a new SQLite repository
func NewSQLiteRunRepository(dbPath string) (*SQLiteRunRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// the busy timeout covers a CLI and a server sharing one history file
	dsn := dbPath + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.BatchRun{}, &domain.DownloadOutcome{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// sqlite allows one writer; a single connection serialises concurrent runs
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return &SQLiteRunRepository{db: db}, nil
}

// CreateRun stores a new batch run
func (r *SQLiteRunRepository) CreateRun(run *domain.BatchRun) error {
	return r.db.Create(run).Error
}

// UpdateRun updates an existing batch run
func (r *SQLiteRunRepository) UpdateRun(run *domain.BatchRun) error {
	return r.db.Save(run).Error
}

// FindRun finds a run by ID
func (r *SQLiteRunRepository) FindRun(id string) (*domain.BatchRun, error) {
	var run domain.BatchRun
	err := r.db.First(&run, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs first
func (r *SQLiteRunRepository) ListRuns(limit int) ([]*domain.BatchRun, error) {
	var runs []*domain.BatchRun
	query := r.db.Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&runs).Error
	return runs, err
}

// AppendOutcome stores one outcome of a run
func (r *SQLiteRunRepository) AppendOutcome(outcome *domain.DownloadOutcome) error {
	return r.db.Create(outcome).Error
}

// ListOutcomes returns the outcomes of a run in sequence order
func (r *SQLiteRunRepository) ListOutcomes(runID string, status domain.OutcomeStatus) ([]*domain.DownloadOutcome, error) {
	var outcomes []*domain.DownloadOutcome
	query := r.db.Where("run_id = ?", runID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("sequence ASC").Find(&outcomes).Error
	return outcomes, err
}

// GetStats returns outcome statistics
func (r *SQLiteRunRepository) GetStats() (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{}

	if err := r.db.Model(&domain.BatchRun{}).Count(&stats.Runs).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&domain.DownloadOutcome{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	// Get counts by status
	statusCounts := []struct {
		Status domain.OutcomeStatus
		Count  int64
		Bytes  int64
	}{}

	if err := r.db.Model(&domain.DownloadOutcome{}).
		Select("status, count(*) as count, coalesce(sum(bytes), 0) as bytes").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.OutcomeSuccess:
			stats.Succeeded = sc.Count
			stats.Bytes = sc.Bytes
		case domain.OutcomeFailed:
			stats.Failed = sc.Count
		case domain.OutcomeSkipped:
			stats.Skipped = sc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteRunRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
