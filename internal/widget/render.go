package widget

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/oakwood-commons/jsondash/internal/cel"
	"github.com/oakwood-commons/jsondash/internal/formatter"
	"github.com/oakwood-commons/jsondash/internal/limiter"
	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
	"github.com/oakwood-commons/jsondash/pkg/pathengine"
)

const (
	// Placeholder is shown for card fields that do not resolve.
	Placeholder = "--"
	// DefaultPageSize is the number of table rows per page.
	DefaultPageSize = 10
)

// CardField is one resolved card entry.
type CardField struct {
	Label string
	Value string
	Found bool
}

// RenderCard resolves every card field against doc. Fields that are missing,
// or null, show placeholder ("--" when empty).
func (w Widget) RenderCard(doc jsonvalue.Value, placeholder string) []CardField {
	if placeholder == "" {
		placeholder = Placeholder
	}
	out := make([]CardField, 0, len(w.CardFields))
	for _, path := range w.CardFields {
		v, ok := pathengine.Resolve(doc, path)
		if !ok || v.IsNull() {
			out = append(out, CardField{Label: path, Value: placeholder})
			continue
		}
		out = append(out, CardField{Label: path, Value: formatter.Stringify(v), Found: true})
	}
	return out
}

// TableOptions controls searching, sorting and paging of a table view.
type TableOptions struct {
	// Search keeps rows whose JSON text contains it, case-insensitively.
	Search string
	// SortColumn sorts by that column; empty keeps document order.
	SortColumn string
	SortDesc   bool
	// Page is 1-based. Pages past the end show page 1.
	Page     int
	PageSize int
}

// TableView is one page of a table widget.
type TableView struct {
	Columns    []string
	Rows       [][]string
	Page       int
	TotalPages int
	// FirstRow is the zero-based position of Rows[0] among the matched rows.
	FirstRow int
	// Matched counts rows that passed the filter and search; Total counts
	// every row of the array.
	Matched int
	Total   int
	// FilterErrors counts rows dropped because the filter failed to evaluate
	// on them, e.g. a missing field.
	FilterErrors int
}

type tableRow struct {
	raw   jsonvalue.Value
	cells []jsonvalue.Value
	found []bool
}

// RenderTable builds the table view: rows from ArrayPath, then the CEL
// filter, then search, then sort, then pagination.
func (w Widget) RenderTable(doc jsonvalue.Value, opts TableOptions) (TableView, error) {
	columns := w.TableColumns
	if len(columns) == 0 {
		columns = pathengine.ColumnsOf(doc, w.ArrayPath)
	}
	view := TableView{Columns: columns, Page: 1, TotalPages: 1}

	source := pathengine.Rows(doc, w.ArrayPath)
	view.Total = len(source)

	var filter *cel.Filter
	if w.Filter != "" {
		f, err := cel.CompileFilter(w.Filter)
		if err != nil {
			return view, err
		}
		filter = f
	}

	needle := strings.ToLower(opts.Search)
	rows := make([]tableRow, 0, len(source))
	for _, raw := range source {
		if filter != nil {
			ok, err := filter.Match(raw)
			if err != nil {
				view.FilterErrors++
				continue
			}
			if !ok {
				continue
			}
		}
		if needle != "" && !strings.Contains(strings.ToLower(raw.String()), needle) {
			continue
		}
		row := tableRow{raw: raw, cells: make([]jsonvalue.Value, len(columns)), found: make([]bool, len(columns))}
		for i, c := range columns {
			row.cells[i], row.found[i] = pathengine.Cell(raw, c)
		}
		rows = append(rows, row)
	}
	view.Matched = len(rows)

	if opts.SortColumn != "" {
		sortRows(rows, opts.SortColumn, opts.SortDesc)
	}

	size := opts.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	window, page := limiter.Page(opts.Page, size, len(rows))
	view.Page = page
	view.TotalPages = limiter.TotalPages(len(rows), size)
	view.FirstRow = window.Offset

	for _, r := range limiter.Apply(window, rows) {
		cells := make([]string, len(columns))
		for i := range columns {
			if r.found[i] {
				cells[i] = formatter.Stringify(r.cells[i])
			}
		}
		view.Rows = append(view.Rows, cells)
	}
	return view, nil
}

// sortRows orders by column. Rows missing the column go last in either
// direction; numbers compare numerically when both sides are numeric.
func sortRows(rows []tableRow, column string, desc bool) {
	keys := make([]jsonvalue.Value, len(rows))
	present := make([]bool, len(rows))
	for i, r := range rows {
		keys[i], present[i] = pathengine.Cell(r.raw, column)
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if !present[ia] || !present[ib] {
			return present[ia] && !present[ib]
		}
		c := compareCells(keys[ia], keys[ib])
		if desc {
			return c > 0
		}
		return c < 0
	})
	sorted := make([]tableRow, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
}

func compareCells(a, b jsonvalue.Value) int {
	fa, okA := numeric(a)
	fb, okB := numeric(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.String(), b.String())
}

// numeric reports finite numbers only, so "NaN" and "Inf" cells sort as text.
func numeric(v jsonvalue.Value) (float64, bool) {
	var f float64
	switch v.Kind() {
	case jsonvalue.Number:
		n, ok := v.Float()
		if !ok {
			return 0, false
		}
		f = n
	case jsonvalue.String:
		s, _ := v.Str()
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Point is one chart sample.
type Point struct {
	X      string
	Y      float64
	YValid bool
}

// RenderChart maps each ArrayPath row to an (X, Y) point. Y values that are
// missing or not numeric leave YValid false.
func (w Widget) RenderChart(doc jsonvalue.Value) []Point {
	rows := pathengine.Rows(doc, w.ArrayPath)
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		var p Point
		if x, ok := pathengine.Cell(row, w.ChartXField); ok {
			p.X = formatter.Stringify(x)
		}
		if y, ok := pathengine.Cell(row, w.ChartYField); ok {
			p.Y, p.YValid = numeric(y)
		}
		points = append(points, p)
	}
	return points
}

// Bars converts chart points for the bar renderer.
func Bars(points []Point) []formatter.Bar {
	bars := make([]formatter.Bar, len(points))
	for i, p := range points {
		bars[i] = formatter.Bar{Label: p.X, Value: p.Y, Valid: p.YValid}
	}
	return bars
}
