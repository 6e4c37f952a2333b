// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

// Package features derives model inputs from cleaned transactions: RFM
// metrics for segmentation, capped weekly demand series for forecasting and
// preference signals for recommendation.
package features

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/salespulse/internal/ingest"
	"github.com/tomtom215/salespulse/internal/logging"
)

const day = 24 * time.Hour

// CustomerMetrics are the recency, frequency and monetary features of one
// customer.
type CustomerMetrics struct {
	CustomerID int64
	Recency    int64
	Frequency  int64
	Monetary   float64
}

// Vector returns the features in the order the scaler was fitted on.
func (m CustomerMetrics) Vector() []float64 {
	return []float64{float64(m.Recency), float64(m.Frequency), m.Monetary}
}

// ComputeRFM groups records by customer. Recency is the whole number of
// days, rounded down, from the customer's latest transaction to now.
// Customers are returned in ascending id order. A customer whose monetary
// total overflows is left out.
func ComputeRFM(recs []ingest.Record, now time.Time) []CustomerMetrics {
	type acc struct {
		last      time.Time
		frequency int64
		monetary  float64
	}

	groups := make(map[int64]*acc)
	for i := range recs {
		r := &recs[i]
		g, ok := groups[r.CustomerID]
		if !ok {
			g = &acc{last: r.Modified}
			groups[r.CustomerID] = g
		}
		if r.Modified.After(g.last) {
			g.last = r.Modified
		}
		g.frequency++
		g.monetary += r.Total
	}

	out := make([]CustomerMetrics, 0, len(groups))
	for id, g := range groups {
		if math.IsInf(g.monetary, 0) || math.IsNaN(g.monetary) {
			logging.Warn().
				Int64("customer_id", id).
				Int64("frequency", g.frequency).
				Msg("monetary total overflows, skipping customer")
			continue
		}
		out = append(out, CustomerMetrics{
			CustomerID: id,
			Recency:    floorDays(now.Sub(g.last)),
			Frequency:  g.frequency,
			Monetary:   g.monetary,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

// floorDays converts d to whole days, rounding toward negative infinity.
func floorDays(d time.Duration) int64 {
	days := int64(d / day)
	if d%day < 0 {
		days--
	}
	return days
}
