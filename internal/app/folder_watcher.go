package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/yourusername/filetube-go/internal/domain"
	"go.uber.org/zap"
)

// FolderWatcher runs a single-file batch for every document that appears or
// changes in a hot folder, once writes to it have settled
type FolderWatcher struct {
	runner *BatchRunner
	config *domain.WatchConfig
	logger *zap.Logger
}

// NewFolderWatcher creates a new folder watcher
func NewFolderWatcher(runner *BatchRunner, config *domain.WatchConfig, logger *zap.Logger) *FolderWatcher {
	return &FolderWatcher{
		runner: runner,
		config: config,
		logger: logger,
	}
}

// Watch blocks until ctx is done. params.InputPath must be a folder; each
// settled document replaces it for its own run. onResult may be nil.
func (fw *FolderWatcher) Watch(ctx context.Context, params domain.RunParams, reporter domain.Reporter, onResult func(*domain.BatchResult)) error {
	if _, err := fw.runner.Validate(params); err != nil {
		return err
	}
	info, err := os.Stat(params.InputPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s is not a folder", domain.ErrInvalidInput, params.InputPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(params.InputPath); err != nil {
		return fmt.Errorf("failed to watch %s: %w", params.InputPath, err)
	}

	fw.logger.Info("Watching folder",
		zap.String("folder", params.InputPath),
		zap.Duration("settle_delay", fw.config.SettleDelay))

	settled := make(chan string, 16)
	var mu sync.Mutex
	pending := make(map[string]*time.Timer)
	defer func() {
		mu.Lock()
		for _, timer := range pending {
			timer.Stop()
		}
		mu.Unlock()
	}()

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if timer, ok := pending[path]; ok {
			timer.Reset(fw.config.SettleDelay)
			return
		}
		pending[path] = time.AfterFunc(fw.config.SettleDelay, func() {
			mu.Lock()
			delete(pending, path)
			mu.Unlock()
			select {
			case settled <- path:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("Stopped watching folder", zap.String("folder", params.InputPath))
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if path, ok := watchable(event); ok {
				schedule(path)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("Watcher error", zap.Error(err))

		case path := <-settled:
			if _, err := os.Stat(path); err != nil {
				continue
			}
			result, err := fw.runner.Run(ctx, domain.RunParams{
				InputPath: path,
				OutputDir: params.OutputDir,
				Quality:   params.Quality,
			}, reporter)
			if err != nil {
				fw.logger.Error("Batch failed", zap.String("document", path), zap.Error(err))
				continue
			}
			if onResult != nil {
				onResult(result)
			}
		}
	}
}

// watchable reports whether an event concerns a supported document
func watchable(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	if !domain.ClassifyDocument(event.Name).IsSupported() {
		return "", false
	}
	return event.Name, true
}
