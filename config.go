package recipebook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	toml "github.com/pelletier/go-toml/v2"
)

// Storage backends understood by storage.New.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageS3     = "s3"
)

// StorageConfig selects the persistence backend and where it keeps the collection.
type StorageConfig struct {
	Type           string `env:"STORAGE_TYPE"`
	Key            string `env:"STORAGE_KEY"`
	LocalPath      string `env:"LOCAL_STORAGE_PATH"`
	DataSourceName string `env:"DATA_SOURCE_NAME"`
	S3Bucket       string `env:"S3_BUCKET_NAME"`
	S3KeyPrefix    string `env:"S3_KEY_PREFIX"`
}

// Config holds the resolved settings for the recipebook CLI.
type Config struct {
	Storage     StorageConfig
	SaveTimeout time.Duration `env:"SAVE_TIMEOUT"`
	LogLevel    string        `env:"LOG_LEVEL"`
	SaveLogPath string        `env:"SAVE_LOG_PATH"`
	Telemetry   bool          `env:"TELEMETRY_ENABLED"`
}

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	StorageType    string `toml:"storage_type"`
	StorageKey     string `toml:"storage_key"`
	LocalPath      string `toml:"local_storage_path"`
	DataSourceName string `toml:"data_source_name"`
	S3Bucket       string `toml:"s3_bucket_name"`
	S3KeyPrefix    string `toml:"s3_key_prefix"`
	SaveTimeout    string `toml:"save_timeout"`
	LogLevel       string `toml:"log_level"`
	SaveLogPath    string `toml:"save_log_path"`
	Telemetry      *bool  `toml:"telemetry_enabled"`
}

// DefaultConfig returns the configuration used when neither a file nor the environment says otherwise.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Type:           StorageFile,
			Key:            "@recipes",
			LocalPath:      filepath.Join(homeDir(), "data"),
			DataSourceName: "recipebook.db",
		},
		SaveTimeout: 10 * time.Second,
		LogLevel:    "info",
	}
}

// DefaultConfigPath returns ~/.recipebook/config.toml, or "" if the home directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".recipebook", "config.toml")
	}
	return ""
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".recipebook")
	}
	return ".recipebook"
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// ApplyFileConfig copies every non-empty value of fc onto cfg.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
	setString(fc.StorageType, &cfg.Storage.Type)
	setString(fc.StorageKey, &cfg.Storage.Key)
	setString(fc.LocalPath, &cfg.Storage.LocalPath)
	setString(fc.DataSourceName, &cfg.Storage.DataSourceName)
	setString(fc.S3Bucket, &cfg.Storage.S3Bucket)
	setString(fc.S3KeyPrefix, &cfg.Storage.S3KeyPrefix)
	setString(fc.LogLevel, &cfg.LogLevel)
	setString(fc.SaveLogPath, &cfg.SaveLogPath)

	if fc.SaveTimeout != "" {
		d, err := time.ParseDuration(fc.SaveTimeout)
		if err != nil {
			return fmt.Errorf("invalid save_timeout %q: %w", fc.SaveTimeout, err)
		}
		cfg.SaveTimeout = d
	}
	if fc.Telemetry != nil {
		cfg.Telemetry = *fc.Telemetry
	}
	return nil
}

// ApplyEnvConfig overlays environment variables onto cfg. Unset variables leave cfg untouched.
func ApplyEnvConfig(cfg *Config) error {
	err := envdecode.Decode(cfg)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("decode environment: %w", err)
	}
	return nil
}

// LoadConfig builds a Config from defaults, the TOML file at path (if it exists) and the environment.
// The result is not validated so callers can apply their own overrides first.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" && FileExists(path) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return cfg, err
		}
		if err := ApplyFileConfig(&cfg, fc); err != nil {
			return cfg, err
		}
	}

	if err := ApplyEnvConfig(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks that the selected storage backend has what it needs.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage key must not be empty")
	}
	if c.SaveTimeout <= 0 {
		return fmt.Errorf("save timeout must be positive, got %s", c.SaveTimeout)
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StorageFile:
		if c.Storage.LocalPath == "" {
			return errors.New("LOCAL_STORAGE_PATH must be set for file storage")
		}
	case StorageSQLite:
		if c.Storage.DataSourceName == "" {
			return errors.New("DATA_SOURCE_NAME must be set for sqlite storage")
		}
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return errors.New("S3_BUCKET_NAME must be set for s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func setString(v string, dst *string) {
	if v != "" {
		*dst = v
	}
}
