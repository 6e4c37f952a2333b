// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Record is one cleaned transaction. Fields absent from the input are
// zero-valued and reported by Has.
type Record struct {
	CustomerID  int64
	ProductID   int64
	ProductName string
	UOM         string
	Quantity    float64 `validate:"finite,gte=0"`
	UnitPrice   float64 `validate:"finite,gte=0"`
	Total       float64 `validate:"finite"`
	Modified    time.Time

	present [numColumns]bool
}

// Has reports whether column c carried a usable value.
func (r *Record) Has(c Column) bool {
	return r.present[c]
}

// parseRecord converts a raw row. A cell that does not parse for its
// column type is treated as missing, and the second return value reports
// whether modified failed to parse while present.
func parseRecord(row *RawRow) (rec Record, badTimestamp bool) {
	for c := Column(0); c < numColumns; c++ {
		cell := row[c]
		if !cell.Valid {
			continue
		}

		ok := true
		switch c {
		case ColCustomerID:
			rec.CustomerID, ok = parseIDCell(cell.Value)
		case ColProductID:
			rec.ProductID, ok = parseIDCell(cell.Value)
		case ColProductName:
			rec.ProductName = cell.Value
		case ColUOM:
			rec.UOM = cell.Value
		case ColQuantity:
			rec.Quantity, ok = parseNumberCell(cell.Value)
		case ColUnitPrice:
			rec.UnitPrice, ok = parseNumberCell(cell.Value)
		case ColTotal:
			rec.Total, ok = parseNumberCell(cell.Value)
		case ColModified:
			ts, err := ParseTimestamp(cell.Value)
			if err != nil {
				ok = false
				badTimestamp = true
			} else {
				rec.Modified = ts
			}
		}
		rec.present[c] = ok
	}
	return rec, badTimestamp
}

func parseIDCell(s string) (int64, bool) {
	id, err := ParseID(s)
	return id, err == nil
}

func parseNumberCell(s string) (float64, bool) {
	f, err := ParseNumber(s)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// dedupKey renders the parsed values so that rows equal after parsing
// ("5" and "5.0", say) collapse to one.
func (r *Record) dedupKey() string {
	var b strings.Builder
	for c := Column(0); c < numColumns; c++ {
		if c > 0 {
			b.WriteByte(0x1f)
		}
		if !r.present[c] {
			b.WriteString("\x00NA")
			continue
		}
		switch c {
		case ColCustomerID:
			b.WriteString(strconv.FormatInt(r.CustomerID, 10))
		case ColProductID:
			b.WriteString(strconv.FormatInt(r.ProductID, 10))
		case ColProductName:
			b.WriteString(r.ProductName)
		case ColUOM:
			b.WriteString(r.UOM)
		case ColQuantity:
			b.WriteString(strconv.FormatFloat(r.Quantity, 'g', -1, 64))
		case ColUnitPrice:
			b.WriteString(strconv.FormatFloat(r.UnitPrice, 'g', -1, 64))
		case ColTotal:
			b.WriteString(strconv.FormatFloat(r.Total, 'g', -1, 64))
		case ColModified:
			b.WriteString(strconv.FormatInt(r.Modified.UnixNano(), 10))
		}
	}
	return b.String()
}
