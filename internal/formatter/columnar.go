package formatter

import (
	"fmt"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
)

// ColumnarOptions configures columnar table rendering.
type ColumnarOptions struct {
	// NoColor disables color output
	NoColor bool

	// TotalWidth is the total available width. If 0, uses terminal width.
	TotalWidth int

	// RowNumberStyle controls how row numbers are displayed:
	//   "numbered" - 1, 2, 3 (default)
	//   "index"    - [0], [1], [2]
	//   "bullet"   - •
	//   "none"     - no row number column
	RowNumberStyle string

	// FirstRow is added to displayed row numbers, so page two of a table
	// continues counting from the end of page one.
	FirstRow int

	// HiddenColumns specifies columns to omit from output.
	HiddenColumns []string

	// ColumnHints provides per-column width caps and alignment, keyed by column name.
	ColumnHints map[string]ColumnHint
}

// RenderColumnarTable renders rows under a header of column names.
// Each row holds one cell per column, in column order.
func RenderColumnarTable(columns []string, rows [][]string, opts ColumnarOptions) string {
	if len(columns) == 0 {
		return ""
	}

	visibleCols, visibleRows := filterColumns(columns, rows, opts.HiddenColumns)
	if len(visibleCols) == 0 {
		return ""
	}

	colAligns := make([]string, len(visibleCols))
	hints := make([]ColumnHint, len(visibleCols))
	for i, col := range visibleCols {
		if h, ok := opts.ColumnHints[col]; ok {
			colAligns[i] = h.Align
			hints[i] = h
		}
	}

	totalWidth := opts.TotalWidth
	if totalWidth <= 0 {
		totalWidth = TerminalWidth()
	}

	showRowNum := opts.RowNumberStyle != "none"
	rowNumWidth := 0
	if showRowNum {
		rowNumWidth = len(fmt.Sprintf("%d", opts.FirstRow+len(rows))) + 2
		if opts.RowNumberStyle == "bullet" {
			rowNumWidth = 3
		}
	}

	const sepWidth = 2
	availableWidth := totalWidth - rowNumWidth
	if showRowNum {
		availableWidth -= sepWidth
	}
	colWidths := calculateColumnWidths(visibleCols, visibleRows, availableWidth, hints)

	var b strings.Builder
	b.WriteString(renderHeader(visibleCols, colWidths, sepWidth, rowNumWidth, showRowNum, opts.NoColor) + "\n")

	totalHeaderWidth := rowNumWidth
	if showRowNum {
		totalHeaderWidth += sepWidth
	}
	for i, w := range colWidths {
		totalHeaderWidth += w
		if i < len(colWidths)-1 {
			totalHeaderWidth += sepWidth
		}
	}
	separator := strings.Repeat("─", totalHeaderWidth)
	if !opts.NoColor {
		separator = separatorStyle.Render(separator)
	}
	b.WriteString(separator + "\n")

	for i, row := range visibleRows {
		b.WriteString(renderDataRow(opts.FirstRow+i, row, colWidths, sepWidth, rowNumWidth, opts.RowNumberStyle, opts.NoColor, colAligns) + "\n")
	}

	return b.String()
}

func filterColumns(columns []string, rows [][]string, hidden []string) ([]string, [][]string) {
	if len(hidden) == 0 {
		return columns, rows
	}

	hiddenSet := make(map[string]bool, len(hidden))
	for _, h := range hidden {
		hiddenSet[h] = true
	}

	visibleIndices := make([]int, 0, len(columns))
	visibleCols := make([]string, 0, len(columns))
	for i, col := range columns {
		if !hiddenSet[col] {
			visibleIndices = append(visibleIndices, i)
			visibleCols = append(visibleCols, col)
		}
	}

	visibleRows := make([][]string, len(rows))
	for i, row := range rows {
		newRow := make([]string, len(visibleIndices))
		for j, idx := range visibleIndices {
			if idx < len(row) {
				newRow[j] = row[idx]
			}
		}
		visibleRows[i] = newRow
	}

	return visibleCols, visibleRows
}

func calculateColumnWidths(columns []string, rows [][]string, availableWidth int, hints []ColumnHint) []int {
	numCols := len(columns)
	if numCols == 0 {
		return nil
	}

	const sepWidth = 2
	const minColWidth = 3
	const maxColWidth = 40
	widths := make([]int, numCols)
	for i, col := range columns {
		widths[i] = runewidth.StringWidth(col)
	}
	for _, row := range rows {
		for i, val := range row {
			if i < numCols {
				widths[i] = max(widths[i], runewidth.StringWidth(val))
			}
		}
	}
	for i := range columns {
		if i < len(hints) && hints[i].MaxWidth > 0 && widths[i] > hints[i].MaxWidth {
			widths[i] = hints[i].MaxWidth
		}
	}

	usableWidth := availableWidth - (numCols-1)*sepWidth
	if sum(widths) <= usableWidth || usableWidth <= 0 {
		return widths
	}

	for i := range widths {
		widths[i] = min(widths[i], maxColWidth)
	}
	if total := sum(widths); total > usableWidth {
		for i := range widths {
			widths[i] = max(int(float64(widths[i])/float64(total)*float64(usableWidth)), minColWidth)
		}
		// Rounding can still overshoot; take from the widest column.
		for sum(widths) > usableWidth {
			maxIdx := 0
			for i := 1; i < numCols; i++ {
				if widths[i] > widths[maxIdx] {
					maxIdx = i
				}
			}
			if widths[maxIdx] <= minColWidth {
				break
			}
			widths[maxIdx]--
		}
	}
	return widths
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func renderHeader(columns []string, widths []int, sepWidth, rowNumWidth int, showRowNum, noColor bool) string {
	sep := strings.Repeat(" ", sepWidth)
	parts := make([]string, 0, len(columns)+1)

	if showRowNum {
		header := padRight("#", rowNumWidth)
		if !noColor {
			header = headerStyle.Render(header)
		}
		parts = append(parts, header)
	}

	for i, col := range columns {
		header := padRight(col, widths[i])
		if !noColor {
			header = headerStyle.Render(header)
		}
		parts = append(parts, header)
	}

	return strings.Join(parts, sep)
}

func renderDataRow(rowIndex int, values []string, widths []int, sepWidth, rowNumWidth int, rowNumStyle string, noColor bool, colAligns []string) string {
	sep := strings.Repeat(" ", sepWidth)
	parts := make([]string, 0, len(widths)+1)

	if rowNumStyle != "none" {
		var numStr string
		switch rowNumStyle {
		case "index":
			numStr = fmt.Sprintf("[%d]", rowIndex)
		case "bullet":
			numStr = "•"
		default:
			numStr = fmt.Sprintf("%d", rowIndex+1)
		}
		numStr = padRight(numStr, rowNumWidth)
		if !noColor {
			numStr = keyStyle.Render(numStr)
		}
		parts = append(parts, numStr)
	}

	for i, w := range widths {
		val := ""
		if i < len(values) {
			val = values[i]
		}
		var valStr string
		if i < len(colAligns) && colAligns[i] == "right" {
			valStr = padLeft(val, w)
		} else {
			valStr = padRight(val, w)
		}
		if !noColor {
			valStr = valueStyle.Render(valStr)
		}
		parts = append(parts, valStr)
	}

	return strings.TrimRight(strings.Join(parts, sep), " ")
}
