// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/salespulse/internal/artifact"
	"github.com/tomtom215/salespulse/internal/ingest"
	"github.com/tomtom215/salespulse/internal/logging"
	"github.com/tomtom215/salespulse/internal/metrics"
	"github.com/tomtom215/salespulse/internal/output"
)

// Runner carries what every variant shares: where rows come from, where
// artifacts come from and where the JSON array goes.
type Runner struct {
	Source   ingest.Source
	Resolver *artifact.Resolver
	Out      io.Writer
}

// NewRunner creates a Runner.
func NewRunner(src ingest.Source, r *artifact.Resolver, out io.Writer) *Runner {
	return &Runner{Source: src, Resolver: r, Out: out}
}

// RunSegment runs customer segmentation end to end.
func (rn *Runner) RunSegment(ctx context.Context, opts SegmentOptions) error {
	return run(ctx, rn, ingest.SegmentationProfile, func(ctx context.Context, recs []ingest.Record) ([]SegmentResult, error) {
		return Segment(ctx, rn.Resolver, recs, opts)
	})
}

// RunForecast runs per-key demand forecasting end to end.
func (rn *Runner) RunForecast(ctx context.Context, opts ForecastOptions) error {
	return run(ctx, rn, ingest.ForecastingProfile, func(ctx context.Context, recs []ingest.Record) ([]ForecastPoint, error) {
		return Forecast(ctx, rn.Resolver, recs, opts)
	})
}

// RunRecommend runs product recommendation for one customer end to end.
func (rn *Runner) RunRecommend(ctx context.Context, customerID int64, opts RecommendOptions) error {
	return run(ctx, rn, ingest.RecommendationProfile, func(ctx context.Context, recs []ingest.Record) ([]Recommendation, error) {
		return Recommend(ctx, rn.Resolver, recs, customerID, opts)
	})
}

// run reads and cleans the input, scores it and writes the result. With no
// qualifying rows it writes [] without touching any artifact.
func run[T any](ctx context.Context, rn *Runner, p ingest.Profile, score func(context.Context, []ingest.Record) ([]T, error)) error {
	log := logging.Ctx(ctx).With().Str("variant", p.Name).Logger()
	variant := p.Name

	start := time.Now()
	table, err := rn.Source.Read(ctx)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	metrics.ObserveStage(variant, "ingest", start)

	start = time.Now()
	recs, stats, err := ingest.Clean(ctx, table, p)
	if err != nil {
		return fmt.Errorf("clean input: %w", err)
	}
	metrics.ObserveStage(variant, "features", start)

	var results []T
	if len(recs) > 0 {
		start = time.Now()
		results, err = score(ctx, recs)
		if err != nil {
			return err
		}
		metrics.ObserveStage(variant, "score", start)
	} else {
		log.Info().Int("rows_read", stats.Read).Msg("no qualifying rows")
	}

	start = time.Now()
	if err := output.WriteArray(rn.Out, results); err != nil {
		return err
	}
	metrics.ObserveStage(variant, "output", start)
	metrics.RecordEmitted(variant, len(results))

	log.Info().
		Int("rows_read", stats.Read).
		Int("rows_kept", stats.Kept).
		Int("rows_dropped", stats.DroppedTotal()).
		Int("records", len(results)).
		Msg("run complete")
	return nil
}
