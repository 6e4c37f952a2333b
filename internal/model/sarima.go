// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package model

import (
	"fmt"

	"github.com/goccy/go-json"
)

// SARIMA is a fitted seasonal ARIMA(p,d,q)(P,D,Q,s) model.
//
// The model is
//
//	phi(B) PHI(B^s) (1-B)^d (1-B^s)^D y_t = c + theta(B) THETA(B^s) e_t
//
// with phi(B) = 1 - sum ar_i B^i and theta(B) = 1 + sum ma_i B^i.
type SARIMA struct {
	Order         [3]int    `json:"order"`
	SeasonalOrder [4]int    `json:"seasonal_order"`
	Const         float64   `json:"const"`
	AR            []float64 `json:"ar"`
	MA            []float64 `json:"ma"`
	SeasonalAR    []float64 `json:"seasonal_ar"`
	SeasonalMA    []float64 `json:"seasonal_ma"`

	// Endog is the series the model was fitted on, oldest first.
	Endog []float64 `json:"endog"`

	// Resid holds the in-sample residuals aligned with Endog. When absent
	// they are recomputed from Endog.
	Resid []float64 `json:"resid,omitempty"`

	// Forecast is an exported point forecast, used as-is when the model
	// carries no history.
	Forecast []float64 `json:"forecast,omitempty"`

	arPoly []float64 // a_k for w_t = c + sum a_k w_{t-k} + ...
	maPoly []float64 // m_k for ... + e_t + sum m_k e_{t-k}
}

// DecodeSARIMA parses a seasonal ARIMA artifact.
func DecodeSARIMA(data []byte) (*SARIMA, error) {
	var m SARIMA
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode sarima: %w", err)
	}
	if err := m.init(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *SARIMA) init() error {
	p, d, q := m.Order[0], m.Order[1], m.Order[2]
	sp, sd, sq, s := m.SeasonalOrder[0], m.SeasonalOrder[1], m.SeasonalOrder[2], m.SeasonalOrder[3]

	if p < 0 || d < 0 || q < 0 || sp < 0 || sd < 0 || sq < 0 || s < 0 {
		return fmt.Errorf("%w: negative order", ErrInvalidArtifact)
	}
	if (sp > 0 || sd > 0 || sq > 0) && s < 2 {
		return fmt.Errorf("%w: seasonal terms need a period of at least 2, got %d", ErrInvalidArtifact, s)
	}
	if len(m.AR) != p || len(m.MA) != q || len(m.SeasonalAR) != sp || len(m.SeasonalMA) != sq {
		return fmt.Errorf("%w: coefficient counts do not match order %v%v", ErrInvalidArtifact, m.Order, m.SeasonalOrder)
	}
	for _, set := range [][]float64{m.AR, m.MA, m.SeasonalAR, m.SeasonalMA, m.Endog, m.Resid, m.Forecast, {m.Const}} {
		for _, v := range set {
			if !finite(v) {
				return fmt.Errorf("%w: non-finite parameter", ErrInvalidArtifact)
			}
		}
	}
	if len(m.Resid) > 0 && len(m.Resid) != len(m.Endog) {
		return fmt.Errorf("%w: %d residuals for %d observations", ErrInvalidArtifact, len(m.Resid), len(m.Endog))
	}

	// phi(B) PHI(B^s), stored as 1 - sum a_k B^k
	ar := polyMul(lagPoly(m.AR, 1, -1), lagPoly(m.SeasonalAR, s, -1))
	m.arPoly = make([]float64, len(ar))
	for k := 1; k < len(ar); k++ {
		m.arPoly[k] = -ar[k]
	}

	// theta(B) THETA(B^s), stored as 1 + sum m_k B^k
	m.maPoly = polyMul(lagPoly(m.MA, 1, 1), lagPoly(m.SeasonalMA, s, 1))
	return nil
}

// lagPoly builds 1 + sign*sum coef_i B^(i*lag).
func lagPoly(coef []float64, lag int, sign float64) []float64 {
	if len(coef) == 0 {
		return []float64{1}
	}
	out := make([]float64, len(coef)*lag+1)
	out[0] = 1
	for i, c := range coef {
		out[(i+1)*lag] = sign * c
	}
	return out
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// HasHistory reports whether the model can forecast from its own state.
func (m *SARIMA) HasHistory() bool {
	return len(m.Endog) > 0
}

// Predict returns the point forecast for the next steps periods after the
// fitted history.
func (m *SARIMA) Predict(steps int) ([]float64, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("%w: %d steps requested", ErrIncompatibleHorizon, steps)
	}

	if !m.HasHistory() {
		if len(m.Forecast) == 0 {
			return nil, ErrNoHistory
		}
		if len(m.Forecast) < steps {
			return nil, fmt.Errorf("%w: exported forecast has %d steps, %d requested", ErrIncompatibleHorizon, len(m.Forecast), steps)
		}
		return append([]float64(nil), m.Forecast[:steps]...), nil
	}

	d, sd, s := m.Order[1], m.SeasonalOrder[1], m.SeasonalOrder[3]

	// levels[0] is the raw series, each next level one more difference.
	levels := [][]float64{m.Endog}
	lags := make([]int, 0, d+sd)
	for i := 0; i < d; i++ {
		lags = append(lags, 1)
	}
	for i := 0; i < sd; i++ {
		lags = append(lags, s)
	}
	for _, lag := range lags {
		prev := levels[len(levels)-1]
		if len(prev) <= lag {
			return nil, fmt.Errorf("%w: %d observations cannot be differenced at lag %d", ErrNoHistory, len(prev), lag)
		}
		next := make([]float64, len(prev)-lag)
		for t := range next {
			next[t] = prev[t+lag] - prev[t]
		}
		levels = append(levels, next)
	}

	w := levels[len(levels)-1]
	resid := m.residuals(w)

	// ARMA recursion on the differenced series; future shocks are zero.
	n := len(w)
	wf := append(append(make([]float64, 0, n+steps), w...), make([]float64, steps)...)
	ef := append(append(make([]float64, 0, n+steps), resid...), make([]float64, steps)...)
	for t := n; t < n+steps; t++ {
		v := m.Const
		for k := 1; k < len(m.arPoly); k++ {
			if t-k >= 0 {
				v += m.arPoly[k] * wf[t-k]
			}
		}
		for k := 1; k < len(m.maPoly); k++ {
			if t-k >= 0 {
				v += m.maPoly[k] * ef[t-k]
			}
		}
		wf[t] = v
	}
	forecast := wf[n:]

	// Undo the differences, innermost first.
	for i := len(lags) - 1; i >= 0; i-- {
		lag := lags[i]
		base := levels[i]
		ext := append(append(make([]float64, 0, len(base)+steps), base...), make([]float64, steps)...)
		for h := 0; h < steps; h++ {
			t := len(base) + h
			ext[t] = forecast[h] + ext[t-lag]
		}
		forecast = ext[len(base):]
	}

	for _, v := range forecast {
		if !finite(v) {
			return nil, ErrNonFinite
		}
	}
	return forecast, nil
}

// residuals returns the shocks aligned with the differenced series w,
// taking the tail of the stored residuals or recomputing them with zero
// pre-sample values.
func (m *SARIMA) residuals(w []float64) []float64 {
	if len(m.Resid) >= len(w) && len(m.Resid) > 0 {
		return m.Resid[len(m.Resid)-len(w):]
	}

	e := make([]float64, len(w))
	for t := range w {
		pred := m.Const
		for k := 1; k < len(m.arPoly); k++ {
			if t-k >= 0 {
				pred += m.arPoly[k] * w[t-k]
			}
		}
		for k := 1; k < len(m.maPoly); k++ {
			if t-k >= 0 {
				pred += m.maPoly[k] * e[t-k]
			}
		}
		e[t] = w[t] - pred
	}
	return e
}
