// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

// Package ingest reads raw sales transaction rows from a CSV file or a
// DuckDB query and cleans them into typed records.
//
// Reading and cleaning are separate: a Source yields a Table of raw string
// cells, and Clean turns the table into Records under a Profile that names
// which fields a variant needs. Cleaning never fails on bad data; dropped
// rows are counted by reason in Stats.
package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is returned when the input header lacks a column the
// variant requires.
var ErrMissingColumn = errors.New("missing required column")

// Column identifies one of the upstream transaction columns.
type Column int

const (
	ColCustomerID Column = iota
	ColProductID
	ColProductName
	ColUOM
	ColQuantity
	ColUnitPrice
	ColTotal
	ColModified

	numColumns
)

var columnNames = [numColumns]string{
	ColCustomerID:  "customer_id",
	ColProductID:   "product_id",
	ColProductName: "product_name",
	ColUOM:         "uom",
	ColQuantity:    "qty",
	ColUnitPrice:   "unit_price",
	ColTotal:       "total",
	ColModified:    "modified",
}

// String returns the upstream column name.
func (c Column) String() string {
	if c < 0 || c >= numColumns {
		return fmt.Sprintf("column(%d)", int(c))
	}
	return columnNames[c]
}

// lookupColumn maps a header cell to a Column.
func lookupColumn(name string) (Column, bool) {
	name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	for c := Column(0); c < numColumns; c++ {
		if columnNames[c] == name {
			return c, true
		}
	}
	return 0, false
}

// Cell is one raw input value. Valid is false for a missing value.
type Cell struct {
	Value string
	Valid bool
}

// naValues are the spellings read as missing, following the usual CSV
// exporter conventions.
var naValues = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"NULL": {},
	"null": {},
	"None": {},
	"<NA>": {},
}

// NewCell builds a cell from raw text, mapping NA spellings to missing.
func NewCell(raw string) Cell {
	v := strings.TrimSpace(raw)
	if _, na := naValues[v]; na {
		return Cell{}
	}
	return Cell{Value: v, Valid: true}
}

// RawRow holds the known columns of one input row. Columns absent from the
// header are left missing.
type RawRow [numColumns]Cell

// Table is the raw result of reading a source.
type Table struct {
	present [numColumns]bool
	header  bool

	Rows []RawRow
}

// NewTable builds a table from a header. Unknown header names are ignored.
func NewTable(header []string) *Table {
	t := &Table{header: len(header) > 0}
	for _, name := range header {
		if c, ok := lookupColumn(name); ok {
			t.present[c] = true
		}
	}
	return t
}

// Has reports whether the header carried column c.
func (t *Table) Has(c Column) bool {
	return t.present[c]
}

// Require checks the header for every column in cols. A table read from an
// empty source has no header and satisfies any requirement.
func (t *Table) Require(cols ...Column) error {
	if !t.header {
		return nil
	}

	var missing []string
	for _, c := range cols {
		if !t.present[c] {
			missing = append(missing, c.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}
