package formatter

import "strconv"

// ColumnHint provides display hints for a specific column in columnar table rendering.
type ColumnHint struct {
	// MaxWidth caps the column width (in characters). 0 = no cap.
	MaxWidth int

	// Align controls text alignment: "right" or "left" (default).
	Align string
}

// NumericColumnHints right-aligns every column whose non-empty cells all
// parse as numbers.
func NumericColumnHints(columns []string, rows [][]string) map[string]ColumnHint {
	hints := make(map[string]ColumnHint)
	for i, col := range columns {
		numeric := false
		for _, row := range rows {
			if i >= len(row) || row[i] == "" {
				continue
			}
			if _, err := strconv.ParseFloat(row[i], 64); err != nil {
				numeric = false
				break
			}
			numeric = true
		}
		if numeric {
			hints[col] = ColumnHint{Align: "right"}
		}
	}
	return hints
}
