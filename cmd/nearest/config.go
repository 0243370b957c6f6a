package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/hupe1980/nearest/blobstore/minio"
	"github.com/hupe1980/nearest/pointio"
	"github.com/hupe1980/nearest/resource"
)

// EnvPrefix prefixes every environment variable read into Config.
const EnvPrefix = "NEAREST"

// Config validation errors
var (
	ErrInvalidLogLevel          = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidLogFormat         = errors.New("log_format must be 'json' or 'text'")
	ErrInvalidWorkers           = errors.New("workers must not be negative")
	ErrInvalidParallelThreshold = errors.New("parallel_threshold must not be negative")
	ErrInvalidCompression       = errors.New("compression must be none, lz4, or zstd")
	ErrInvalidMemoryLimit       = errors.New("resource_memory_limit_bytes must not be negative")
	ErrInvalidMaxWorkers        = errors.New("resource_max_workers must not be negative")
	ErrInvalidIOLimit           = errors.New("resource_io_limit_bytes_per_sec must not be negative")
)

// Config holds settings shared by every subcommand. Values come from
// NEAREST_* environment variables, optionally seeded from a .env file.
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Workers caps goroutines per call. 0 means GOMAXPROCS.
	Workers           int    `envconfig:"WORKERS" default:"0"`
	ParallelThreshold int64  `envconfig:"PARALLEL_THRESHOLD" default:"65536"`
	Compression       string `envconfig:"COMPRESSION" default:"zstd"`

	S3Region   string `envconfig:"S3_REGION"`
	S3Endpoint string `envconfig:"S3_ENDPOINT"`

	Resources resource.Config `envconfig:"RESOURCE"`
	MinIO     minio.Config    `envconfig:"MINIO"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		LogLevel:          "info",
		LogFormat:         "text",
		ParallelThreshold: 65536,
		Compression:       "zstd",
		MinIO: minio.Config{
			Endpoint: "localhost:9000",
		},
	}
}

// LoadConfig reads envFile (if it exists) into the process environment
// without overriding variables already set, then processes NEAREST_*.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return ErrInvalidLogFormat
	}
	if cfg.Workers < 0 {
		return ErrInvalidWorkers
	}
	if cfg.ParallelThreshold < 0 {
		return ErrInvalidParallelThreshold
	}
	if _, err := pointio.ParseCompression(cfg.Compression); err != nil {
		return ErrInvalidCompression
	}
	if cfg.Resources.MemoryLimitBytes < 0 {
		return ErrInvalidMemoryLimit
	}
	if cfg.Resources.MaxWorkers < 0 {
		return ErrInvalidMaxWorkers
	}
	if cfg.Resources.IOLimitBytesPerSec < 0 {
		return ErrInvalidIOLimit
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, ErrInvalidLogLevel
	}
}
