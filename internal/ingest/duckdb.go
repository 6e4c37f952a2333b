// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	// DuckDB driver for the duckdb input kind
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/salespulse/internal/logging"
	"github.com/tomtom215/salespulse/internal/metrics"
)

// DuckDBSource runs a query in DuckDB and reads its result as a table.
type DuckDBSource struct {
	// Database is the DuckDB file to open; empty means in-memory.
	Database string

	// Query must return the upstream column names. When empty the CSV at
	// Path is read with read_csv_auto.
	Query string
	Path  string
}

// NewDuckDBSource creates a DuckDB-backed source.
func NewDuckDBSource(database, query, path string) *DuckDBSource {
	return &DuckDBSource{Database: database, Query: query, Path: path}
}

// query returns the SQL to run.
func (s *DuckDBSource) query() string {
	if s.Query != "" {
		return s.Query
	}
	return fmt.Sprintf("SELECT * FROM read_csv_auto(%s, all_varchar = true)", quoteLiteral(s.Path))
}

// quoteLiteral renders s as a SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Read executes the query and converts every value to a raw cell.
func (s *DuckDBSource) Read(ctx context.Context) (*Table, error) {
	db, err := sql.Open("duckdb", s.Database)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close() //nolint:errcheck // in-process database

	rows, err := db.QueryContext(ctx, s.query())
	if err != nil {
		return nil, fmt.Errorf("query duckdb input: %w", err)
	}
	defer rows.Close() //nolint:errcheck // drained below

	t, err := scanTable(rows)
	if err != nil {
		return nil, err
	}

	metrics.RowsRead.WithLabelValues("duckdb").Add(float64(len(t.Rows)))
	logging.Ctx(ctx).Debug().Str("database", s.Database).Int("rows", len(t.Rows)).Msg("read duckdb input")
	return t, nil
}

func scanTable(rows *sql.Rows) (*Table, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	t := NewTable(names)
	positions := make([]Column, len(names))
	known := make([]bool, len(names))
	for i, name := range names {
		positions[i], known[i] = lookupColumn(name)
	}

	values := make([]any, len(names))
	dest := make([]any, len(names))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		var row RawRow
		for i, v := range values {
			if known[i] {
				row[positions[i]] = cellFromValue(v)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return t, nil
}

// cellFromValue renders a driver value the way a CSV export would.
func cellFromValue(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Cell{}
	case string:
		return NewCell(x)
	case []byte:
		return NewCell(string(x))
	case int64:
		return NewCell(strconv.FormatInt(x, 10))
	case int32:
		return NewCell(strconv.FormatInt(int64(x), 10))
	case int16:
		return NewCell(strconv.FormatInt(int64(x), 10))
	case int8:
		return NewCell(strconv.FormatInt(int64(x), 10))
	case uint64:
		return NewCell(strconv.FormatUint(x, 10))
	case uint32:
		return NewCell(strconv.FormatUint(uint64(x), 10))
	case float64:
		return NewCell(strconv.FormatFloat(x, 'f', -1, 64))
	case float32:
		return NewCell(strconv.FormatFloat(float64(x), 'f', -1, 32))
	case time.Time:
		return NewCell(x.Format(time.RFC3339Nano))
	case bool:
		return NewCell(strconv.FormatBool(x))
	case fmt.Stringer:
		return NewCell(x.String())
	default:
		return NewCell(fmt.Sprint(x))
	}
}
