// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package ingest

import (
	"context"
	"errors"
	"sort"

	"github.com/tomtom215/salespulse/internal/logging"
	"github.com/tomtom215/salespulse/internal/metrics"
	"github.com/tomtom215/salespulse/internal/validation"
)

// Drop reasons.
const (
	DropBadTimestamp     = "unparsable_timestamp"
	DropMissingCustomer  = "missing_customer_id"
	DropDuplicate        = "duplicate"
	DropMissingField     = "missing_field"
	DropNonPositiveQty   = "non_positive_qty"
	DropNegativeValue    = "negative_value"
	DropNonFiniteValue   = "non_finite_value"
	DropMissingTimestamp = "missing_timestamp"
)

// Profile describes what one variant needs from the input.
type Profile struct {
	// Name labels metrics and logs.
	Name string

	// Columns must appear in the header.
	Columns []Column

	// Fields must be present on every kept row, besides customer_id.
	Fields []Column

	// NeedsTimestamp drops rows whose modified value is missing or does
	// not parse.
	NeedsTimestamp bool

	// PositiveQuantity keeps only rows with qty > 0.
	PositiveQuantity bool
}

// Cleaning profiles for the three variants.
var (
	SegmentationProfile = Profile{
		Name: "segment",
		Columns: []Column{
			ColCustomerID, ColProductID, ColProductName, ColUOM,
			ColQuantity, ColUnitPrice, ColTotal, ColModified,
		},
		Fields:           []Column{ColProductID, ColProductName, ColUOM, ColQuantity, ColUnitPrice, ColTotal},
		NeedsTimestamp:   true,
		PositiveQuantity: true,
	}

	ForecastingProfile = Profile{
		Name:             "forecast",
		Columns:          []Column{ColCustomerID, ColProductID, ColProductName, ColQuantity, ColModified},
		Fields:           []Column{ColProductID, ColProductName, ColQuantity},
		NeedsTimestamp:   true,
		PositiveQuantity: true,
	}

	RecommendationProfile = Profile{
		Name:    "recommend",
		Columns: []Column{ColCustomerID, ColProductID, ColProductName, ColQuantity},
		Fields:  []Column{ColProductID, ColQuantity},
	}
)

// Stats counts what cleaning did to a table.
type Stats struct {
	Read    int
	Kept    int
	Dropped map[string]int
}

// DroppedTotal returns the number of rows dropped for any reason.
func (s *Stats) DroppedTotal() int {
	n := 0
	for _, v := range s.Dropped {
		n += v
	}
	return n
}

// Clean applies the profile to the table and returns the kept records in
// input order. It fails only when the header lacks a required column.
func Clean(ctx context.Context, t *Table, p Profile) ([]Record, Stats, error) {
	stats := Stats{Read: len(t.Rows), Dropped: make(map[string]int)}

	if err := t.Require(p.Columns...); err != nil {
		return nil, stats, err
	}

	drop := func(reason string) {
		stats.Dropped[reason]++
		metrics.RecordDrop(p.Name, reason)
	}

	seen := make(map[string]struct{}, len(t.Rows))
	out := make([]Record, 0, len(t.Rows))

	for i := range t.Rows {
		rec, badTimestamp := parseRecord(&t.Rows[i])

		if p.NeedsTimestamp {
			if badTimestamp {
				drop(DropBadTimestamp)
				continue
			}
			if !rec.Has(ColModified) {
				drop(DropMissingTimestamp)
				continue
			}
		}

		if !rec.Has(ColCustomerID) {
			drop(DropMissingCustomer)
			continue
		}

		key := rec.dedupKey()
		if _, dup := seen[key]; dup {
			drop(DropDuplicate)
			continue
		}
		seen[key] = struct{}{}

		if !hasAll(&rec, p.Fields) {
			drop(DropMissingField)
			continue
		}

		if p.PositiveQuantity && rec.Quantity <= 0 {
			drop(DropNonPositiveQty)
			continue
		}

		if err := validation.ValidateStruct(&rec); err != nil {
			drop(invalidReason(err))
			continue
		}

		out = append(out, rec)
	}

	stats.Kept = len(out)
	logCleaning(ctx, p, &stats)
	return out, stats, nil
}

// invalidReason maps a record validation failure to its drop reason.
// Infinite values win over negative ones.
func invalidReason(err error) string {
	var verr *validation.Error
	if errors.As(err, &verr) {
		for _, fe := range verr.Errors() {
			if fe.Tag() == "finite" {
				return DropNonFiniteValue
			}
		}
	}
	return DropNegativeValue
}

func hasAll(rec *Record, cols []Column) bool {
	for _, c := range cols {
		if !rec.Has(c) {
			return false
		}
	}
	return true
}

func logCleaning(ctx context.Context, p Profile, s *Stats) {
	reasons := make([]string, 0, len(s.Dropped))
	for r := range s.Dropped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)

	ev := logging.Ctx(ctx).Debug().
		Str("profile", p.Name).
		Int("read", s.Read).
		Int("kept", s.Kept)
	for _, r := range reasons {
		ev = ev.Int("dropped_"+r, s.Dropped[r])
	}
	ev.Msg("cleaned input")
}
