// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

/*
Package pipeline runs the three scoring variants over cleaned transactions.

# Variants

  - Segment: RFM per customer, scaled and clustered with k-means. Clusters
    are labelled High, Mid or Low Value by their mean recency in the batch.
  - Forecast: a weekly demand series per (customer, product), forecast 10
    weeks ahead by that key's seasonal ARIMA model. Keys without a usable
    model are skipped.
  - Recommend: KNN collaborative filtering over purchase quantities, top 5
    unpurchased products for one customer.

# Runner

Runner ties a variant to its input and output:

	rn := pipeline.NewRunner(ingest.NewCSVSource("input_data.csv"), resolver, os.Stdout)
	err := rn.RunForecast(ctx, pipeline.ForecastOptions{Horizon: 10, ...})

Each run reads and cleans the input with the variant's profile, scores it
and writes one JSON array. When no rows survive cleaning it writes []
without loading any artifact.

# Concurrency

Forecast fans keys out over an errgroup bounded by ForecastOptions.Workers.
Each key writes its own result slot and the slots are concatenated in key
order, so output does not depend on scheduling.
*/
package pipeline
