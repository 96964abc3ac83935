package config

import (
	"botdetector/internal/types"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLogPath       = "sample-log.log"
	DefaultReportPath    = "botdetector-output.txt"
	DefaultMetricsListen = ":9090"
	DefaultLogLevel      = "info"
)

// Default returns a configuration with every default applied
func Default() *types.Config {
	var cfg types.Config
	validateConfig(&cfg)
	return &cfg
}

// LoadConfig reads the configuration from the given path
func LoadConfig(path string) (*types.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg types.Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.State.MaxClients < 0 {
		return nil, fmt.Errorf("state.max_clients must not be negative, got %d", cfg.State.MaxClients)
	}

	validateConfig(&cfg)
	return &cfg, nil
}

// validateConfig applies defaults
func validateConfig(cfg *types.Config) {
	if cfg.Input.LogPath == "" {
		cfg.Input.LogPath = DefaultLogPath
	}
	if cfg.Output.ReportPath == "" {
		cfg.Output.ReportPath = DefaultReportPath
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = DefaultMetricsListen
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		cfg.Logging.Level = DefaultLogLevel
	}
}
