package domain

// RunRepository defines the interface for run history persistence
type RunRepository interface {
	// CreateRun stores a new batch run
	CreateRun(run *BatchRun) error

	// UpdateRun updates an existing batch run
	UpdateRun(run *BatchRun) error

	// FindRun finds a run by ID
	FindRun(id string) (*BatchRun, error)

	// ListRuns returns the most recent runs first
	ListRuns(limit int) ([]*BatchRun, error)

	// AppendOutcome stores one outcome of a run
	AppendOutcome(outcome *DownloadOutcome) error

	// ListOutcomes returns the outcomes of a run in sequence order, optionally filtered by status
	ListOutcomes(runID string, status OutcomeStatus) ([]*DownloadOutcome, error)

	// GetStats returns outcome statistics over all runs
	GetStats() (*HistoryStats, error)
}

// HistoryStats represents outcome statistics
type HistoryStats struct {
	Runs      int64 `json:"runs"`
	Total     int64 `json:"total"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
	Bytes     int64 `json:"bytes"`
}
