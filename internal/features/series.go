// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package features

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/salespulse/internal/ingest"
)

// SeriesKey identifies one forecasting series.
type SeriesKey struct {
	CustomerID int64
	ProductID  int64
}

// Less orders keys by customer, then product.
func (k SeriesKey) Less(o SeriesKey) bool {
	if k.CustomerID != o.CustomerID {
		return k.CustomerID < o.CustomerID
	}
	return k.ProductID < o.ProductID
}

// WeeklySeries is the zero-filled weekly demand of one key. Weeks[i] is the
// Monday that starts the bucket summed into Quantities[i].
type WeeklySeries struct {
	Key         SeriesKey
	ProductName string
	Weeks       []time.Time
	Quantities  []float64
}

// Len returns the number of weekly buckets.
func (s *WeeklySeries) Len() int {
	return len(s.Quantities)
}

// Percentile returns the q-quantile of values (0 <= q <= 1) with linear
// interpolation between order statistics. It returns NaN for no values.
func Percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// WeekStart returns midnight UTC of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(midnight.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}

// BuildWeeklySeries caps every quantity at the given percentile of all
// quantities, then groups by key and resamples into Monday-start weekly
// sums. Series are returned in ascending key order; keys with no buckets
// are omitted. The cap used is returned alongside.
func BuildWeeklySeries(recs []ingest.Record, capPercentile float64) ([]WeeklySeries, float64) {
	if len(recs) == 0 {
		return nil, math.NaN()
	}

	quantities := make([]float64, len(recs))
	for i := range recs {
		quantities[i] = recs[i].Quantity
	}
	ceiling := Percentile(quantities, capPercentile)

	type group struct {
		name    string
		buckets map[time.Time]float64
		first   time.Time
		last    time.Time
	}

	groups := make(map[SeriesKey]*group)
	for i := range recs {
		r := &recs[i]
		key := SeriesKey{CustomerID: r.CustomerID, ProductID: r.ProductID}
		week := WeekStart(r.Modified)

		g, ok := groups[key]
		if !ok {
			g = &group{name: r.ProductName, buckets: make(map[time.Time]float64), first: week, last: week}
			groups[key] = g
		}
		if week.Before(g.first) {
			g.first = week
		}
		if week.After(g.last) {
			g.last = week
		}
		g.buckets[week] += math.Min(r.Quantity, ceiling)
	}

	keys := make([]SeriesKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]WeeklySeries, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		s := WeeklySeries{Key: k, ProductName: g.name}
		for w := g.first; !w.After(g.last); w = w.AddDate(0, 0, 7) {
			s.Weeks = append(s.Weeks, w)
			s.Quantities = append(s.Quantities, g.buckets[w])
		}
		if s.Len() > 0 {
			out = append(out, s)
		}
	}
	return out, ceiling
}
