package database

import (
	"github.com/koustreak/DatEd/internal/errs"
)

// ScanRows reads the entire result set and returns the column names in
// result order plus one map per row, keyed by column name. Values are the
// Go-native representation of the DB value, with []byte normalized to
// string so JSON and CSV rendering see text rather than base64.
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows always closes the Rows; callers do not call Close themselves.
func ScanRows(rows Rows) ([]string, []map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrKindDatabase, "failed to read column names", err)
	}

	result := make([]map[string]any, 0)

	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, nil, errs.Wrap(errs.ErrKindDatabase, "failed to scan row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(dest[i])
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, errs.Wrap(errs.ErrKindDatabase, "error during row iteration", err)
	}

	return columns, result, nil
}

// normalizeValue converts driver-specific scan results into plain Go values.
// MySQL in particular returns []byte for text and numeric columns.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
