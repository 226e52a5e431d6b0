package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/filetube-go/internal/domain"
)

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
download:
  output_dir: /tmp/filetube-out
  quality: 720p
  concurrent_limit: 3
  retry_delay: 2s
history:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/filetube-out", config.Download.OutputDir)
	assert.Equal(t, "720p", config.Download.Quality)
	assert.Equal(t, 3, config.Download.ConcurrentLimit)
	assert.Equal(t, 2*time.Second, config.Download.RetryDelay)
	assert.Equal(t, domain.DefaultChunkSize, config.Download.ChunkSize)
	assert.False(t, config.History.Enabled)
	assert.Equal(t, 8091, config.Server.Port)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0644))
	t.Setenv("FILETUBE_DOWNLOAD_QUALITY", "1080p")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "1080p", config.Download.Quality)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 0\n"},
		{"bad concurrency", "download:\n  concurrent_limit: 0\n"},
		{"bad collision", "download:\n  collision: append\n"},
		{"empty quality", "download:\n  quality: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	config := domain.DefaultConfig()
	config.Download.OutputDir = "/srv/videos"
	config.Download.Quality = "480p"
	config.Watch.SettleDelay = 7 * time.Second

	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/videos", loaded.Download.OutputDir)
	assert.Equal(t, "480p", loaded.Download.Quality)
	assert.Equal(t, 7*time.Second, loaded.Watch.SettleDelay)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "videos"), expandPath("~/videos"))
	assert.Equal(t, home+"/x", expandPath("$HOME/x"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
}
