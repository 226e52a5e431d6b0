package domain

import "time"

// DefaultChunkSize is the read size of one transfer step
const DefaultChunkSize = 8192

// Collision policies for existing output files
const (
	CollisionRename    = "rename"
	CollisionOverwrite = "overwrite"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Resolver     ResolverConfig     `mapstructure:"resolver"`
	History      HistoryConfig      `mapstructure:"history"`
	Watch        WatchConfig        `mapstructure:"watch"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	OutputDir       string        `mapstructure:"output_dir"`
	Quality         string        `mapstructure:"quality"`
	ConcurrentLimit int           `mapstructure:"concurrent_limit"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	ChunkSize       int           `mapstructure:"chunk_size"`
	Collision       string        `mapstructure:"collision"`    // rename, overwrite
	KeepPartial     bool          `mapstructure:"keep_partial"` // keep .part files of failed transfers
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"` // 0 disables the timeout
}

// ResolverConfig contains stream resolver configuration
type ResolverConfig struct {
	ProgressiveOnly bool          `mapstructure:"progressive_only"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// HistoryConfig contains run history persistence configuration
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// WatchConfig contains hot-folder configuration
type WatchConfig struct {
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // auto, osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // category log files
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8091,
		},
		Download: DownloadConfig{
			OutputDir:       "$HOME/.filetube/downloads",
			Quality:         QualityHighest,
			ConcurrentLimit: 1,
			MaxRetries:      0,
			RetryDelay:      5 * time.Second,
			ChunkSize:       DefaultChunkSize,
			Collision:       CollisionRename,
			KeepPartial:     false,
			HTTPTimeout:     0,
		},
		Resolver: ResolverConfig{
			ProgressiveOnly: true,
			RequestTimeout:  30 * time.Second,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.filetube/history.db",
		},
		Watch: WatchConfig{
			SettleDelay: 2 * time.Second,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   true,
			Method:  "auto",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			LogsDir:    "$HOME/.filetube/logs",
		},
	}
}
