package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/filetube-go/internal/domain"
	"go.uber.org/zap"
)

func TestNewServices(t *testing.T) {
	dir := t.TempDir()
	cfg := domain.DefaultConfig()
	cfg.Logging.LogsDir = filepath.Join(dir, "logs")
	cfg.History.DatabasePath = filepath.Join(dir, "history.db")

	services, err := NewServices(cfg, zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, services.Runner)
	assert.NotNil(t, services.Repository)
	assert.FileExists(t, cfg.History.DatabasePath)
	assert.NoError(t, services.Close())
}

func TestNewServices_HistoryDisabled(t *testing.T) {
	dir := t.TempDir()
	cfg := domain.DefaultConfig()
	cfg.Logging.LogsDir = filepath.Join(dir, "logs")
	cfg.History.Enabled = false
	cfg.History.DatabasePath = filepath.Join(dir, "history.db")

	services, err := NewServices(cfg, zap.NewNop())
	require.NoError(t, err)
	defer services.Close()

	assert.Nil(t, services.Repository)
	assert.NoFileExists(t, cfg.History.DatabasePath)
}
