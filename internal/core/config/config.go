package config

import (
	redisclient "github.com/vietddude/remedy/internal/infra/redis"
	"github.com/vietddude/remedy/internal/infra/storage/postgres"
	"github.com/vietddude/remedy/internal/recovery/executor"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Logging  LoggingConfig      `yaml:"logging"`
	Storage  StorageConfig      `yaml:"storage"`
	Database postgres.Config    `yaml:"database"`
	Redis    redisclient.Config `yaml:"redis"`
	Recovery executor.Config    `yaml:"recovery"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// StorageBackend selects where the audit trail is persisted.
type StorageBackend string

const (
	BackendFile     StorageBackend = "file"
	BackendPostgres StorageBackend = "postgres"
	BackendMemory   StorageBackend = "memory"
)

// StorageConfig holds audit storage settings.
type StorageConfig struct {
	Backend StorageBackend `yaml:"backend"`
	Root    string         `yaml:"root"` // root directory for file backend, exports and reports
}
