// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package model

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// StandardScaler standardizes features as (x - mean) / scale.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// DecodeScaler parses a scaler artifact. A zero scale is read as 1, which
// is how a constant feature is fitted.
func DecodeScaler(data []byte) (*StandardScaler, error) {
	var s StandardScaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("%w: scaler has %d means and %d scales", ErrInvalidArtifact, len(s.Mean), len(s.Scale))
	}
	for i := range s.Scale {
		if !finite(s.Mean[i]) || !finite(s.Scale[i]) {
			return nil, fmt.Errorf("%w: scaler feature %d is not finite", ErrInvalidArtifact, i)
		}
		if s.Scale[i] == 0 {
			s.Scale[i] = 1
		}
	}
	return &s, nil
}

// Features returns the number of features the scaler was fitted on.
func (s *StandardScaler) Features() int {
	return len(s.Mean)
}

// Transform returns a standardized copy of x.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", ErrDimension, len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
