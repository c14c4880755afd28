// Package config loads vidindex configuration from defaults, an optional
// YAML/JSON file and VIDINDEX_* environment variables, in that order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. VIDINDEX_MEDIA_ROOT.
const EnvPrefix = "VIDINDEX"

// Config holds the complete application configuration
type Config struct {
	Media    MediaConfig    `yaml:"media" json:"media"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Scanner  ScannerConfig  `yaml:"scanner" json:"scanner"`
	Sync     SyncConfig     `yaml:"sync" json:"sync"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// MediaConfig points at the directory tree being indexed.
type MediaConfig struct {
	Root string `yaml:"root" json:"root"`
}

// DatabaseConfig selects and tunes the catalog storage.
type DatabaseConfig struct {
	Type            string        `yaml:"type" json:"type"`
	DataDir         string        `yaml:"data_dir" json:"data_dir" split_words:"true"`
	Path            string        `yaml:"path" json:"path"`
	DSN             string        `yaml:"dsn" json:"-"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" split_words:"true"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" split_words:"true"`
	LogQueries      bool          `yaml:"log_queries" json:"log_queries" split_words:"true"`
}

// ScannerConfig holds the path filter rules.
type ScannerConfig struct {
	VideoExtensions []string `yaml:"video_extensions" json:"video_extensions" split_words:"true"`
	SkipFolders     []string `yaml:"skip_folders" json:"skip_folders" split_words:"true"`
	JunkPrefixes    []string `yaml:"junk_prefixes" json:"junk_prefixes" split_words:"true"`
	JunkNames       []string `yaml:"junk_names" json:"junk_names" split_words:"true"`
}

// SyncConfig tunes how the delta is applied.
type SyncConfig struct {
	BatchSize         int           `yaml:"batch_size" json:"batch_size" split_words:"true"`
	SingleTransaction bool          `yaml:"single_transaction" json:"single_transaction" split_words:"true"`
	DryRun            bool          `yaml:"dry_run" json:"dry_run" split_words:"true"`
	WatchDebounce     time.Duration `yaml:"watch_debounce" json:"watch_debounce" split_words:"true"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Host         string        `yaml:"host" json:"host"`
	Port         int           `yaml:"port" json:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" split_words:"true"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" split_words:"true"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// DefaultConfig returns a configuration with all default values set
func DefaultConfig() *Config {
	return &Config{
		Media: MediaConfig{
			Root: "/media/videos",
		},
		Database: DatabaseConfig{
			Type:            "sqlite",
			DataDir:         ".",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		},
		Scanner: ScannerConfig{
			VideoExtensions: []string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mpeg", ".mpg"},
			SkipFolders: []string{
				"@eaDir",
				"$RECYCLE.BIN",
				"System Volume Information",
				".DS_Store",
				".thumbnails",
				".recycle",
			},
			JunkPrefixes: []string{"._"},
			JunkNames:    []string{".DS_Store"},
		},
		Sync: SyncConfig{
			BatchSize:     500,
			WatchDebounce: 5 * time.Second,
		},
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from defaults, the file at path (if non-empty and
// present) and the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadFromFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".json":
		return json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Media.Root) == "" {
		return fmt.Errorf("media.root must be set")
	}

	switch c.Database.Type {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path must be set for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn must be set for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if len(c.Scanner.VideoExtensions) == 0 {
		return fmt.Errorf("scanner.video_extensions must not be empty")
	}

	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("invalid sync batch size: %d", c.Sync.BatchSize)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// Addr returns the host:port the HTTP API listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (c *Config) applyDerived() {
	if c.Database.Path == "" && c.Database.Type == "sqlite" {
		c.Database.Path = filepath.Join(c.Database.DataDir, "videos.db")
	}
	if strings.TrimSpace(c.Media.Root) != "" {
		c.Media.Root = filepath.Clean(c.Media.Root)
	}
}
