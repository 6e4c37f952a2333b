// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"salespulse.yaml",
	"salespulse.yml",
	"/etc/salespulse/config.yaml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "SALESPULSE_CONFIG"

func defaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Kind: InputKindCSV,
			Path: "input_data.csv",
		},
		Artifacts: ArtifactsConfig{
			Backend:         BackendDir,
			Dir:             "models",
			BadgerPath:      "",
			CacheSize:       1024,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Segment: SegmentConfig{
			ModelName:  "customer_segment",
			ScalerName: "scaler",
		},
		Forecast: ForecastConfig{
			Horizon:       10,
			Workers:       0,
			CapPercentile: 0.95,
			ModelPrefix:   "forecasting_models/sarima_model",
		},
		Recommend: RecommendConfig{
			TopK:      5,
			ModelName: "product_recommendation",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// environment variables and finally overrides, a map of koanf paths
// (e.g. "input.path") to values supplied on the command line.
//
// configPath, when non-empty, must exist; otherwise the default search
// applies and a missing file is not an error.
func Load(configPath string, overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath == "" {
		configPath = findConfigFile()
	} else if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Layer 4: command-line overrides, applied in key order so the result
	// does not depend on map iteration.
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := k.Set(key, overrides[key]); err != nil {
			return nil, fmt.Errorf("failed to apply override %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	"input_kind":      "input.kind",
	"input_path":      "input.path",
	"duckdb_query":    "input.duckdb_query",
	"duckdb_database": "input.duckdb_database",

	"artifact_backend":          "artifacts.backend",
	"artifact_dir":              "artifacts.dir",
	"artifact_badger_path":      "artifacts.badger_path",
	"artifact_cache_size":       "artifacts.cache_size",
	"artifact_breaker_failures": "artifacts.breaker_failures",
	"artifact_breaker_timeout":  "artifacts.breaker_timeout",

	"forecast_horizon":        "forecast.horizon",
	"forecast_workers":        "forecast.workers",
	"forecast_cap_percentile": "forecast.cap_percentile",

	"recommend_top_k": "recommend.top_k",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"metrics_textfile": "metrics.textfile",
}

// envTransformFunc maps an environment variable to its koanf path.
// Unmapped variables return "" and are ignored.
//
//   - INPUT_PATH -> input.path
//   - FORECAST_WORKERS -> forecast.workers
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
