// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

// Package output writes result sets as a single JSON array.
package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// WriteArray writes records as one JSON array followed by a newline.
// A nil or empty slice is written as [].
func WriteArray[T any](w io.Writer, records []T) error {
	if records == nil {
		records = []T{}
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
