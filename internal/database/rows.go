package database

import (
	"database/sql"
	"fmt"
)

// Row is one result row keyed by column name.
type Row = map[string]any

// scanRows reads every row into a column-name keyed map, preserving the
// backend's row order. Column sets are not known ahead of time, so values
// are scanned through a pointer slice.
func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	out := []Row{}
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return out, nil
}

// normalizeValue makes driver values JSON-friendly. BLOB/TEXT columns may
// surface as []byte depending on declared type.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
