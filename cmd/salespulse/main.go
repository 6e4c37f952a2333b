// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

// Package main is the entry point for the salespulse CLI.
//
// salespulse applies offline-trained models to a CSV of sales transactions
// and prints one JSON array on stdout:
//
//	salespulse segment                 # RFM customer segments
//	salespulse forecast                # 10-week demand per customer/product
//	salespulse recommend 1042          # top 5 products for customer 1042
//
// Configuration is layered with Koanf v2 (highest priority wins):
//   - Command-line flags (--input, --artifacts, --log-level, ...)
//   - Environment variables (INPUT_PATH, ARTIFACT_DIR, FORECAST_WORKERS, ...)
//   - Config file (salespulse.yaml or $SALESPULSE_CONFIG)
//   - Built-in defaults
//
// Logs go to stderr. The exit status is non-zero only for structural
// failures such as unreadable input or a missing global model.
package main

import (
	"os"

	"github.com/tomtom215/salespulse/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
