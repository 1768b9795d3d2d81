package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultArchiveURL  = "https://www.ncbi.nlm.nih.gov/geo/download/?acc=GSE68849&format=file"
	DefaultArchiveName = "GSE68849_RAW.tar"

	envPrefix = "SOFTSPLIT_"
)

type Config struct {
	DataDir      string `toml:"data_dir"`
	RawDir       string `toml:"raw_dir"`
	ProcessedDir string `toml:"processed_dir"`
	DBPath       string `toml:"db_path"`

	ArchiveURL  string   `toml:"archive_url"`
	ArchiveName string   `toml:"archive_name"`
	HTTPTimeout duration `toml:"http_timeout"`

	FailFast bool `toml:"fail_fast"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // "text" or "json"
}

// duration lets the TOML file say http_timeout = "90s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Timeout is the HTTP client timeout for archive downloads.
func (c *Config) Timeout() time.Duration {
	return c.HTTPTimeout.Duration
}

// ArchivePath is where the downloaded tar lands.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.RawDir, c.ArchiveName)
}

// SlogLevel maps LogLevel onto slog; unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// DefaultPath is the config file read when Load is given no explicit path.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "softsplit", "config.toml"), nil
}

// Load builds the config from defaults, then the TOML file, then .env and
// SOFTSPLIT_* environment variables. An explicit cfgPath must exist; the
// default path is optional.
func Load(cfgPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dataDir := filepath.Join(home, ".local", "share", "softsplit")
	cfg := &Config{
		DataDir:     dataDir,
		ArchiveURL:  DefaultArchiveURL,
		ArchiveName: DefaultArchiveName,
		HTTPTimeout: duration{10 * time.Minute},
		LogLevel:    "info",
		LogFormat:   "text",
	}

	explicit := cfgPath != ""
	if !explicit {
		if cfgPath, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	// expand ~ in paths
	cfg.DataDir = expandHome(cfg.DataDir, home)
	cfg.RawDir = expandHome(cfg.RawDir, home)
	cfg.ProcessedDir = expandHome(cfg.ProcessedDir, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	// dirs left unset hang off data_dir
	if cfg.RawDir == "" {
		cfg.RawDir = filepath.Join(cfg.DataDir, "raw")
	}
	if cfg.ProcessedDir == "" {
		cfg.ProcessedDir = filepath.Join(cfg.DataDir, "processed")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "softsplit.db")
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("log_format must be text or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"DATA_DIR":      &cfg.DataDir,
		"RAW_DIR":       &cfg.RawDir,
		"PROCESSED_DIR": &cfg.ProcessedDir,
		"DB_PATH":       &cfg.DBPath,
		"ARCHIVE_URL":   &cfg.ArchiveURL,
		"ARCHIVE_NAME":  &cfg.ArchiveName,
		"LOG_LEVEL":     &cfg.LogLevel,
		"LOG_FORMAT":    &cfg.LogFormat,
	}
	for key, dst := range strs {
		if v := os.Getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(envPrefix + "FAIL_FAST"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sFAIL_FAST must be a boolean: %w", envPrefix, err)
		}
		cfg.FailFast = b
	}
	if v := os.Getenv(envPrefix + "HTTP_TIMEOUT"); v != "" {
		if err := cfg.HTTPTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%sHTTP_TIMEOUT: %w", envPrefix, err)
		}
	}
	return nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return strings.TrimSpace(path)
}
