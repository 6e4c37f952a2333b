// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package features

import (
	"math"

	"github.com/tomtom215/salespulse/internal/ingest"
)

// Scale is the declared range of a preference value.
type Scale struct {
	Min float64
	Max float64
}

// PreferenceSignal is implicit feedback: how much of a product a customer
// bought, read as a rating on Scale.
type PreferenceSignal struct {
	CustomerID int64
	ProductID  int64
	Quantity   float64
}

// Preferences holds the signals and the scale they are read on.
type Preferences struct {
	Signals []PreferenceSignal
	Scale   Scale
}

// BuildPreferences turns records into preference signals with the scale
// [0, max quantity].
func BuildPreferences(recs []ingest.Record) Preferences {
	p := Preferences{Signals: make([]PreferenceSignal, 0, len(recs))}
	for i := range recs {
		r := &recs[i]
		p.Signals = append(p.Signals, PreferenceSignal{
			CustomerID: r.CustomerID,
			ProductID:  r.ProductID,
			Quantity:   r.Quantity,
		})
		if r.Quantity > p.Scale.Max {
			p.Scale.Max = r.Quantity
		}
	}
	return p
}

// Summary describes a sample.
type Summary struct {
	N    int
	Mean float64
	Std  float64
}

// ZScores standardizes values with the sample standard deviation
// (n-1 denominator). With fewer than two values, or no spread, every score
// is NaN.
func ZScores(values []float64) ([]float64, Summary) {
	s := Summary{N: len(values), Mean: math.NaN(), Std: math.NaN()}
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, s
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	s.Mean = sum / float64(len(values))

	if len(values) > 1 {
		var ss float64
		for _, v := range values {
			d := v - s.Mean
			ss += d * d
		}
		s.Std = math.Sqrt(ss / float64(len(values)-1))
	}

	for i, v := range values {
		if s.Std == 0 || math.IsNaN(s.Std) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (v - s.Mean) / s.Std
	}
	return out, s
}

// Quantities returns the quantity of every signal.
func (p Preferences) Quantities() []float64 {
	out := make([]float64, len(p.Signals))
	for i, s := range p.Signals {
		out[i] = s.Quantity
	}
	return out
}

// ProductNames maps each product id to the name on its first record.
// Records without a name are skipped.
func ProductNames(recs []ingest.Record) map[int64]string {
	names := make(map[int64]string)
	for i := range recs {
		r := &recs[i]
		if !r.Has(ingest.ColProductName) {
			continue
		}
		if _, ok := names[r.ProductID]; !ok {
			names[r.ProductID] = r.ProductName
		}
	}
	return names
}
