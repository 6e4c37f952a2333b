// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tomtom215/salespulse/internal/logging"
	"github.com/tomtom215/salespulse/internal/metrics"
)

// Source yields the raw transaction table.
type Source interface {
	Read(ctx context.Context) (*Table, error)
}

// CSVSource reads a CSV file with a header row.
type CSVSource struct {
	Path string
}

// NewCSVSource creates a source for the CSV file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

// Read parses the whole file. A zero-byte file yields an empty table.
func (s *CSVSource) Read(ctx context.Context) (*Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", s.Path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	t, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", s.Path, err)
	}

	metrics.RowsRead.WithLabelValues("csv").Add(float64(len(t.Rows)))
	logging.Ctx(ctx).Debug().Str("path", s.Path).Int("rows", len(t.Rows)).Msg("read csv input")
	return t, nil
}

// ReadCSV parses CSV from r. Short rows are padded with missing cells and
// surplus cells are ignored.
func ReadCSV(ctx context.Context, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return NewTable(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	// header is reused by the reader, so resolve positions now.
	t := NewTable(header)
	positions := make([]Column, len(header))
	known := make([]bool, len(header))
	for i, name := range header {
		positions[i], known[i] = lookupColumn(name)
	}

	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var row RawRow
		for i, raw := range rec {
			if i < len(known) && known[i] {
				row[positions[i]] = NewCell(raw)
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}
