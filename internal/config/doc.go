// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

/*
Package config loads SalesPulse configuration with koanf v2.

# Sources

Configuration is layered, later sources overriding earlier ones:

 1. Built-in defaults (structs provider)
 2. An optional YAML file: the --config flag, then SALESPULSE_CONFIG, then
    salespulse.yaml in the working directory, then /etc/salespulse/config.yaml
 3. Environment variables from a fixed mapping table (see envTransformFunc)
 4. Command-line flag overrides passed to Load

# Sections

  - input: where transaction rows come from (csv file or a DuckDB query)
  - artifacts: where trained models live (a directory or a BadgerDB) and the
    lookup cache and circuit breaker in front of them
  - segment, forecast, recommend: per-variant artifact names and tuning
  - logging: zerolog level and format
  - metrics: optional Prometheus textfile output

# Environment Variables

  - INPUT_KIND, INPUT_PATH, DUCKDB_QUERY, DUCKDB_DATABASE
  - ARTIFACT_BACKEND, ARTIFACT_DIR, ARTIFACT_BADGER_PATH, ARTIFACT_CACHE_SIZE
  - FORECAST_HORIZON, FORECAST_WORKERS, FORECAST_CAP_PERCENTILE
  - RECOMMEND_TOP_K
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - METRICS_TEXTFILE

Config is immutable after Load and safe for concurrent reads.
*/
package config
