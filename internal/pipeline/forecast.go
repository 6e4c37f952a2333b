// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/salespulse/internal/artifact"
	"github.com/tomtom215/salespulse/internal/features"
	"github.com/tomtom215/salespulse/internal/ingest"
	"github.com/tomtom215/salespulse/internal/logging"
	"github.com/tomtom215/salespulse/internal/metrics"
	"github.com/tomtom215/salespulse/internal/model"
)

// ForecastDateLayout formats forecast dates.
const ForecastDateLayout = "2006-01-02"

// maxQuantity is 2^63, the first estimate an int64 quantity cannot hold.
const maxQuantity = float64(1 << 63)

// ErrQuantityOverflow is reported when an estimate does not fit a quantity.
var ErrQuantityOverflow = errors.New("forecast quantity out of range")

// ForecastPoint is one forecast week for a customer and product.
type ForecastPoint struct {
	CustomerID  int64  `json:"customer_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Date        string `json:"date"`
	Quantity    int64  `json:"quantity"`
}

// ForecastOptions configure Forecast.
type ForecastOptions struct {
	ModelPrefix   string
	Horizon       int
	Workers       int
	CapPercentile float64

	// Today dates the first forecast step.
	Today time.Time
}

// Forecast builds weekly demand series per (customer, product) and runs
// each key's seasonal ARIMA model. Keys without a model, with a broken
// model or whose model cannot forecast are skipped. Results come back in
// ascending (customer, product) order. Only cancellation is an error.
func Forecast(ctx context.Context, r *artifact.Resolver, recs []ingest.Record, opts ForecastOptions) ([]ForecastPoint, error) {
	log := logging.Ctx(ctx).With().Str("component", "forecast").Logger()

	series, ceiling := features.BuildWeeklySeries(recs, opts.CapPercentile)
	if len(series) == 0 {
		log.Info().Msg("no qualifying series")
		return nil, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log.Debug().
		Int("keys", len(series)).
		Int("workers", workers).
		Float64("quantity_cap", ceiling).
		Msg("forecasting keys")

	// Each worker writes only its own slot.
	results := make([][]ForecastPoint, len(series))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range series {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = forecastKey(gctx, r, &series[i], opts, &log)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("forecast interrupted: %w", err)
	}

	var out []ForecastPoint
	for _, pts := range results {
		out = append(out, pts...)
	}
	return out, nil
}

func forecastKey(ctx context.Context, r *artifact.Resolver, s *features.WeeklySeries, opts ForecastOptions, log *zerolog.Logger) []ForecastPoint {
	name := artifact.ForecastModelName(opts.ModelPrefix, s.Key.CustomerID, s.Key.ProductID)
	keyLog := log.With().
		Int64("customer_id", s.Key.CustomerID).
		Int64("product_id", s.Key.ProductID).
		Logger()

	res := artifact.Resolve(ctx, r, "sarima", name, model.DecodeSARIMA)
	switch res.Status {
	case artifact.NotFound:
		keyLog.Debug().Str("artifact", name).Msg("no forecasting model, skipping key")
		metrics.RecordForecastKey(metrics.KeyNoArtifact)
		return nil
	case artifact.LoadFailed:
		if ctx.Err() == nil {
			keyLog.Warn().Err(res.Err).Str("artifact", name).Msg("forecasting model failed to load, skipping key")
		}
		metrics.RecordForecastKey(metrics.KeyLoadFailed)
		return nil
	}

	m := res.Value
	if !m.HasHistory() {
		keyLog.Info().Str("artifact", name).Msg("forecasting model lacks a fitted history index")
	}

	values, err := m.Predict(opts.Horizon)
	if err == nil && len(values) != opts.Horizon {
		err = fmt.Errorf("%w: got %d steps, want %d", model.ErrIncompatibleHorizon, len(values), opts.Horizon)
	}
	if err == nil {
		err = checkQuantities(values)
	}
	if err != nil {
		ev := keyLog.Warn()
		if errors.Is(err, model.ErrNoHistory) {
			ev = keyLog.Info()
		}
		ev.Err(err).Str("artifact", name).Msg("forecast failed, skipping key")
		metrics.RecordForecastKey(metrics.KeyScoreFail)
		return nil
	}

	points := make([]ForecastPoint, len(values))
	for i, v := range values {
		points[i] = ForecastPoint{
			CustomerID:  s.Key.CustomerID,
			ProductID:   s.Key.ProductID,
			ProductName: s.ProductName,
			Date:        opts.Today.AddDate(0, 0, 7*i).Format(ForecastDateLayout),
			Quantity:    ForecastQuantity(v),
		}
	}
	metrics.RecordForecastKey(metrics.KeyForecasted)
	return points
}

func checkQuantities(values []float64) error {
	for i, v := range values {
		if math.RoundToEven(v) >= maxQuantity {
			return fmt.Errorf("%w: step %d estimate %g", ErrQuantityOverflow, i, v)
		}
	}
	return nil
}

// ForecastQuantity rounds an estimate half to even, floors it at zero and
// caps it at math.MaxInt64.
func ForecastQuantity(v float64) int64 {
	r := math.RoundToEven(v)
	switch {
	case math.IsNaN(r) || r <= 0:
		return 0
	case r >= maxQuantity:
		return math.MaxInt64
	}
	return int64(r)
}
