// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

/*
Package model decodes trained model artifacts and applies them.

Artifacts are JSON documents exported by the training process. Each kind
has a Decode function that parses and checks the document and returns a
ready-to-use predictor:

  - StandardScaler: per-feature mean and scale (Transform)
  - KMeans: cluster centroids (Predict, nearest centroid)
  - SARIMA: seasonal ARIMA coefficients plus the fitted history (Forecast)
  - KNNBasic: neighbourhood collaborative filter over the training ratings
    (Predict, Knows, ItemsOf, Items)

All predictors are immutable after decoding and safe for concurrent use.
*/
package model
