package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeStatus is the terminal status of one link or skipped document
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// ValidateOutcomeStatus checks if an outcome status is valid
func ValidateOutcomeStatus(status OutcomeStatus) bool {
	return status == OutcomeSuccess || status == OutcomeFailed || status == OutcomeSkipped
}

// DownloadOutcome is the append-only record of what happened to one link
type DownloadOutcome struct {
	ID           string        `json:"id" gorm:"primaryKey"`
	RunID        string        `json:"run_id" gorm:"index"`
	Sequence     int           `json:"sequence"`
	DocumentPath string        `json:"document_path"`
	Link         string        `json:"link,omitempty"`
	Status       OutcomeStatus `json:"status" gorm:"not null;index"`
	Title        string        `json:"title,omitempty"`
	Resolution   string        `json:"resolution,omitempty"`
	FilePath     string        `json:"file_path,omitempty"`
	Bytes        int64         `json:"bytes"`
	Reason       string        `json:"reason,omitempty"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	CreatedAt    time.Time     `json:"created_at" gorm:"autoCreateTime"`
}

// NewSuccessOutcome records a completed download
func NewSuccessOutcome(link ExtractedLink, title, resolution, filePath string, bytes int64) DownloadOutcome {
	return DownloadOutcome{
		ID:           uuid.New().String(),
		DocumentPath: link.Source.Path,
		Link:         link.URL,
		Status:       OutcomeSuccess,
		Title:        title,
		Resolution:   resolution,
		FilePath:     filePath,
		Bytes:        bytes,
		CreatedAt:    time.Now(),
	}
}

// NewFailedOutcome records a failed link. Link may be empty when extraction failed.
func NewFailedOutcome(doc DocumentHandle, link string, err error) DownloadOutcome {
	return DownloadOutcome{
		ID:           uuid.New().String(),
		DocumentPath: doc.Path,
		Link:         link,
		Status:       OutcomeFailed,
		Reason:       err.Error(),
		ErrorKind:    ErrorKind(err),
		CreatedAt:    time.Now(),
	}
}

// NewSkippedOutcome records a document that was not processed
func NewSkippedOutcome(doc DocumentHandle, reason string) DownloadOutcome {
	return DownloadOutcome{
		ID:           uuid.New().String(),
		DocumentPath: doc.Path,
		Status:       OutcomeSkipped,
		Reason:       reason,
		ErrorKind:    ErrorKind(ErrUnsupportedFormat),
		CreatedAt:    time.Now(),
	}
}

// IsSuccess reports whether the outcome is a success
func (o DownloadOutcome) IsSuccess() bool {
	return o.Status == OutcomeSuccess
}

// RunStatus represents the lifecycle of a batch run
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
)

// RunParams are the per-invocation parameters of a batch
type RunParams struct {
	InputPath string `json:"input_path"`
	OutputDir string `json:"output_dir"`
	Quality   string `json:"quality"`
}

// RunSummary counts outcomes by status
type RunSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Add counts one outcome
func (s *RunSummary) Add(o DownloadOutcome) {
	s.Total++
	switch o.Status {
	case OutcomeSuccess:
		s.Succeeded++
	case OutcomeFailed:
		s.Failed++
	case OutcomeSkipped:
		s.Skipped++
	}
}

// Summarize counts a sequence of outcomes
func Summarize(outcomes []DownloadOutcome) RunSummary {
	var s RunSummary
	for _, o := range outcomes {
		s.Add(o)
	}
	return s
}

// BatchRun is the persisted record of one batch
type BatchRun struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	InputPath  string     `json:"input_path" gorm:"not null"`
	OutputDir  string     `json:"output_dir" gorm:"not null"`
	Quality    string     `json:"quality" gorm:"not null"`
	Status     RunStatus  `json:"status" gorm:"not null;index"`
	Documents  int        `json:"documents"`
	Links      int        `json:"links"`
	Total      int        `json:"total"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	Skipped    int        `json:"skipped"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewBatchRun creates a running batch for the given parameters
func NewBatchRun(params RunParams) *BatchRun {
	now := time.Now()
	return &BatchRun{
		ID:        uuid.New().String(),
		InputPath: params.InputPath,
		OutputDir: params.OutputDir,
		Quality:   params.Quality,
		Status:    RunRunning,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Finish marks the run terminal and stores its summary
func (r *BatchRun) Finish(status RunStatus, summary RunSummary) {
	r.Status = status
	r.Total = summary.Total
	r.Succeeded = summary.Succeeded
	r.Failed = summary.Failed
	r.Skipped = summary.Skipped
	now := time.Now()
	r.FinishedAt = &now
	r.UpdatedAt = now
}

// Summary returns the counts stored on the run
func (r *BatchRun) Summary() RunSummary {
	return RunSummary{Total: r.Total, Succeeded: r.Succeeded, Failed: r.Failed, Skipped: r.Skipped}
}

// IsTerminal checks if the run has finished
func (r *BatchRun) IsTerminal() bool {
	return r.Status == RunCompleted || r.Status == RunAborted
}

// Duration returns how long the run took, or has been running
func (r *BatchRun) Duration() time.Duration {
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}

// BatchResult is the terminal state of a batch: the run and its ordered outcomes
type BatchResult struct {
	Run      *BatchRun         `json:"run"`
	Outcomes []DownloadOutcome `json:"outcomes"`
	Summary  RunSummary        `json:"summary"`
}

// TableName specifies the table name for GORM
func (DownloadOutcome) TableName() string {
	return "download_outcomes"
}

// TableName specifies the table name for GORM
func (BatchRun) TableName() string {
	return "batch_runs"
}
