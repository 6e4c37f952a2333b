// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

// Package metrics holds the Prometheus instrumentation for a SalesPulse run.
//
// A batch process has no scrape endpoint, so the collected values are
// written once at the end of a run with WriteTextfile for node_exporter's
// textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Artifact lookup results.
const (
	LookupFound    = "found"
	LookupNotFound = "not_found"
	LookupFailed   = "load_failed"
)

// Forecast key outcomes.
const (
	KeyForecasted = "forecasted"
	KeyNoArtifact = "no_artifact"
	KeyLoadFailed = "load_failed"
	KeyScoreFail  = "scoring_failed"
)

var (
	// Ingestion Metrics
	RowsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salespulse_rows_read_total",
			Help: "Total number of raw transaction rows read",
		},
		[]string{"source"}, // "csv", "duckdb"
	)

	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salespulse_rows_dropped_total",
			Help: "Total number of rows dropped during cleaning",
		},
		[]string{"variant", "reason"},
	)

	// Artifact Metrics
	ArtifactLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salespulse_artifact_lookups_total",
			Help: "Total number of artifact lookups by kind and result",
		},
		[]string{"kind", "result"},
	)

	ArtifactCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salespulse_artifact_cache_hits_total",
			Help: "Total number of artifact lookups served from the in-process cache",
		},
	)

	ArtifactCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "salespulse_artifact_cache_misses_total",
			Help: "Total number of artifact lookups that reached the store",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "salespulse_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Scoring Metrics
	ForecastKeys = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salespulse_forecast_keys_total",
			Help: "Total number of (customer, product) keys by forecasting outcome",
		},
		[]string{"outcome"},
	)

	RecordsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "salespulse_records_emitted_total",
			Help: "Total number of JSON records written to stdout",
		},
		[]string{"variant"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "salespulse_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"variant", "stage"}, // "ingest", "features", "score", "output"
	)
)

// RecordDrop counts one dropped row.
func RecordDrop(variant, reason string) {
	RowsDropped.WithLabelValues(variant, reason).Inc()
}

// RecordLookup counts one artifact lookup.
func RecordLookup(kind, result string) {
	ArtifactLookups.WithLabelValues(kind, result).Inc()
}

// RecordForecastKey counts one forecasting key outcome.
func RecordForecastKey(outcome string) {
	ForecastKeys.WithLabelValues(outcome).Inc()
}

// RecordEmitted counts records written for a variant.
func RecordEmitted(variant string, n int) {
	RecordsEmitted.WithLabelValues(variant).Add(float64(n))
}

// ObserveStage records how long a stage took, measured from start.
//
//	defer metrics.ObserveStage("forecast", "score", time.Now())
func ObserveStage(variant, stage string, start time.Time) {
	StageDuration.WithLabelValues(variant, stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text exposition format. The write is atomic.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
