// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package model

import "errors"

var (
	// ErrInvalidArtifact means the document decoded but is not a usable model.
	ErrInvalidArtifact = errors.New("invalid model artifact")

	// ErrDimension means an input vector does not match the model.
	ErrDimension = errors.New("feature dimension mismatch")

	// ErrNoHistory means a forecasting model carries no fitted history to
	// forecast from.
	ErrNoHistory = errors.New("model has no fitted history")

	// ErrIncompatibleHorizon means the model cannot produce the requested
	// number of steps.
	ErrIncompatibleHorizon = errors.New("incompatible forecast horizon")

	// ErrNonFinite means a prediction came out NaN or infinite.
	ErrNonFinite = errors.New("non-finite prediction")
)
