package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/remedy/internal/recovery/executor"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is supplied.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendFile
	}
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = "remedy-data"
	}

	def := executor.DefaultConfig()
	if cfg.Recovery.MaxAttempts == 0 {
		cfg.Recovery.MaxAttempts = def.MaxAttempts
	}
	if cfg.Recovery.AttemptTimeout == 0 {
		cfg.Recovery.AttemptTimeout = def.AttemptTimeout
	}
	if cfg.Recovery.Backoff.Base == 0 {
		cfg.Recovery.Backoff.Base = def.Backoff.Base
	}
	if cfg.Recovery.Backoff.Multiplier == 0 {
		cfg.Recovery.Backoff.Multiplier = def.Backoff.Multiplier
	}
	if cfg.Recovery.Backoff.MaxDelay == 0 {
		cfg.Recovery.Backoff.MaxDelay = def.Backoff.MaxDelay
	}
}
