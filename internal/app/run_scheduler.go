package app

import (
	"context"
	"errors"
	"sync"

	"github.com/yourusername/filetube-go/internal/domain"
	"go.uber.org/zap"
)

// ErrSchedulerClosed is returned when a run is submitted after shutdown began
var ErrSchedulerClosed = errors.New("scheduler is shutting down")

// RunScheduler executes submitted batches in the background
type RunScheduler struct {
	runner   *BatchRunner
	reporter domain.Reporter
	logger   *zap.Logger
	onFinish func(*domain.BatchResult)

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	active map[string]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewRunScheduler creates a new scheduler. onFinish may be nil.
func NewRunScheduler(runner *BatchRunner, reporter domain.Reporter, logger *zap.Logger, onFinish func(*domain.BatchResult)) *RunScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &RunScheduler{
		runner:   runner,
		reporter: reporter,
		logger:   logger,
		onFinish: onFinish,
		ctx:      ctx,
		cancel:   cancel,
		active:   make(map[string]struct{}),
	}
}

// Submit validates params, records the run and starts the batch. The
// returned run is a snapshot taken before processing begins.
func (s *RunScheduler) Submit(params domain.RunParams) (domain.BatchRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.BatchRun{}, ErrSchedulerClosed
	}

	run, err := s.runner.Prepare(params)
	if err != nil {
		return domain.BatchRun{}, err
	}
	snapshot := *run
	s.active[run.ID] = struct{}{}
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.active, run.ID)
			s.mu.Unlock()
		}()

		result, err := s.runner.Execute(s.ctx, run, s.reporter)
		if err != nil {
			s.logger.Error("Scheduled batch failed", zap.String("run_id", run.ID), zap.Error(err))
			return
		}
		if s.onFinish != nil {
			s.onFinish(result)
		}
	}()

	s.logger.Info("Batch scheduled", zap.String("run_id", run.ID), zap.String("input", params.InputPath))
	return snapshot, nil
}

// ActiveRuns returns the number of batches in progress
func (s *RunScheduler) ActiveRuns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Accepting reports whether new runs can be submitted
func (s *RunScheduler) Accepting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Shutdown stops accepting runs and waits for active ones. When ctx expires
// first, active runs are cancelled and finish as aborted.
func (s *RunScheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}
