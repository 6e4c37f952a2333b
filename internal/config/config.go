// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/salespulse/internal/validation"
)

// Input source kinds.
const (
	InputKindCSV    = "csv"
	InputKindDuckDB = "duckdb"
)

// Artifact backends.
const (
	BackendDir    = "dir"
	BackendBadger = "badger"
)

// Config holds all SalesPulse configuration.
type Config struct {
	Input     InputConfig     `koanf:"input"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Segment   SegmentConfig   `koanf:"segment"`
	Forecast  ForecastConfig  `koanf:"forecast"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// InputConfig selects the transaction source.
type InputConfig struct {
	Kind string `koanf:"kind" validate:"oneof=csv duckdb"`

	// Path is the CSV file. For kind=duckdb it is bound to the default
	// read_csv_auto query when DuckDBQuery is empty.
	Path string `koanf:"path" validate:"required_without=DuckDBQuery"`

	// DuckDBQuery replaces the default query; its result columns must use
	// the upstream column names.
	DuckDBQuery string `koanf:"duckdb_query"`

	// DuckDBDatabase is the database file the query runs against.
	// Empty means an in-memory database.
	DuckDBDatabase string `koanf:"duckdb_database"`
}

// ArtifactsConfig selects and tunes the artifact store.
type ArtifactsConfig struct {
	Backend    string `koanf:"backend" validate:"oneof=dir badger"`
	Dir        string `koanf:"dir" validate:"required_if=Backend dir"`
	BadgerPath string `koanf:"badger_path" validate:"required_if=Backend badger"`

	// CacheSize bounds the in-process artifact cache (entries).
	CacheSize int `koanf:"cache_size" validate:"gte=1"`

	// BreakerFailures is the number of consecutive store failures that
	// opens the circuit breaker.
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gte=0"`
}

// SegmentConfig names the segmentation artifacts.
type SegmentConfig struct {
	ModelName  string `koanf:"model_name" validate:"required"`
	ScalerName string `koanf:"scaler_name" validate:"required"`
}

// ForecastConfig tunes the per-key forecasting fan-out.
type ForecastConfig struct {
	Horizon int `koanf:"horizon" validate:"gte=1,lte=520"`

	// Workers bounds the fan-out. 0 means GOMAXPROCS.
	Workers int `koanf:"workers" validate:"gte=0"`

	CapPercentile float64 `koanf:"cap_percentile" validate:"finite,gt=0,lte=1"`
	ModelPrefix   string  `koanf:"model_prefix" validate:"required"`
}

// RecommendConfig tunes product recommendation.
type RecommendConfig struct {
	TopK      int    `koanf:"top_k" validate:"gte=1"`
	ModelName string `koanf:"model_name" validate:"required"`
}

// LoggingConfig mirrors logging.Config for file and env loading.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile is written after each run when set, for node_exporter's
	// textfile collector.
	Textfile string `koanf:"textfile"`
}

// Validate checks every section's struct tags and the cross-field rules
// tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if c.Input.Kind == InputKindCSV && c.Input.Path == "" {
		return fmt.Errorf("input.path is required when input.kind is csv")
	}
	return nil
}
