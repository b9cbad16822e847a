package widget

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
)

func TestRenderCard(t *testing.T) {
	doc := jsonvalue.MustParse(`{"data":{"rates":{"INR":83.1,"EUR":null},"items":[{"price":10}]}}`)
	w := Widget{CardFields: []string{"data.rates.INR", "data.rates.EUR", "data.items[0].price", "data.missing", "bad..path"}}

	got := w.RenderCard(doc, "")
	require.Len(t, got, 5)
	assert.Equal(t, CardField{Label: "data.rates.INR", Value: "83.1", Found: true}, got[0])
	assert.Equal(t, CardField{Label: "data.rates.EUR", Value: "--"}, got[1], "null shows the placeholder")
	assert.Equal(t, "10", got[2].Value)
	assert.Equal(t, "--", got[3].Value)
	assert.Equal(t, "--", got[4].Value)

	custom := w.RenderCard(jsonvalue.Value{}, "N/A")
	for _, f := range custom {
		assert.Equal(t, "N/A", f.Value, "no document yet")
		assert.False(t, f.Found)
	}
}

func TestRenderTableColumnsAndCells(t *testing.T) {
	doc := jsonvalue.MustParse(`{"users":[
		{"name":"a","meta":{"k":1},"age":3},
		{"name":"b"},
		{"name":"c","age":null}
	]}`)
	w := Widget{ArrayPath: "users", TableColumns: []string{"name", "meta", "age"}}

	view, err := w.RenderTable(doc, TableOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "meta", "age"}, view.Columns)
	assert.Equal(t, [][]string{
		{"a", `{"k":1}`, "3"},
		{"b", "", ""},
		{"c", "", "null"},
	}, view.Rows)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, 3, view.Matched)
}

func TestRenderTableInfersColumns(t *testing.T) {
	doc := jsonvalue.MustParse(`{"items":[1,2,3]}`)
	view, err := Widget{ArrayPath: "items"}.RenderTable(doc, TableOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"value"}, view.Columns)
	assert.Equal(t, [][]string{{"1"}, {"2"}, {"3"}}, view.Rows)
}

func TestRenderTableMissingArray(t *testing.T) {
	view, err := Widget{ArrayPath: "nope", TableColumns: []string{"x"}}.RenderTable(jsonvalue.MustParse(`{}`), TableOptions{})
	require.NoError(t, err)
	assert.Empty(t, view.Rows)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 1, view.TotalPages)
}

func TestRenderTableSearchAndSort(t *testing.T) {
	doc := jsonvalue.MustParse(`{"rows":[
		{"city":"Paris","pop":"2100000"},
		{"city":"Berlin","pop":3600000},
		{"city":"paisley"},
		{"city":"Rome","pop":2800000}
	]}`)
	w := Widget{ArrayPath: "rows", TableColumns: []string{"city", "pop"}}

	view, err := w.RenderTable(doc, TableOptions{Search: "PA"})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Matched)
	assert.Equal(t, "Paris", view.Rows[0][0])
	assert.Equal(t, "paisley", view.Rows[1][0])

	view, err = w.RenderTable(doc, TableOptions{SortColumn: "pop"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris", "Rome", "Berlin", "paisley"}, column(view, 0), "numeric order, missing last")

	view, err = w.RenderTable(doc, TableOptions{SortColumn: "pop", SortDesc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin", "Rome", "Paris", "paisley"}, column(view, 0), "missing stays last when descending")

	view, err = w.RenderTable(doc, TableOptions{SortColumn: "city"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin", "Paris", "Rome", "paisley"}, column(view, 0))
}

func TestRenderTableSortNonFiniteAsText(t *testing.T) {
	doc := jsonvalue.MustParse(`{"rows":[
		{"id":"a","v":"NaN"},
		{"id":"b","v":3},
		{"id":"c","v":"Inf"},
		{"id":"d","v":1},
		{"id":"e","v":"NaN"},
		{"id":"f","v":2}
	]}`)
	w := Widget{ArrayPath: "rows", TableColumns: []string{"id", "v"}}

	_, ok := numeric(jsonvalue.StringValue("NaN"))
	assert.False(t, ok)
	_, ok = numeric(jsonvalue.StringValue("-Inf"))
	assert.False(t, ok)

	view, err := w.RenderTable(doc, TableOptions{SortColumn: "v"})
	require.NoError(t, err)
	// Digits sort before letters as text, so the numbers stay in numeric order.
	assert.Equal(t, []string{"d", "f", "b", "c", "a", "e"}, column(view, 0))
}

func TestRenderTableFilter(t *testing.T) {
	doc := jsonvalue.MustParse(`{"items":[{"price":5},{"price":15},{"name":"no price"},{"price":25}]}`)
	w := Widget{ArrayPath: "items", TableColumns: []string{"price"}, Filter: "_.price > 10"}

	view, err := w.RenderTable(doc, TableOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"15"}, {"25"}}, view.Rows)
	assert.Equal(t, 1, view.FilterErrors)
	assert.Equal(t, 4, view.Total)

	w.Filter = "_.price >"
	_, err = w.RenderTable(doc, TableOptions{})
	require.Error(t, err)
}

func TestRenderTablePagination(t *testing.T) {
	items := make([]string, 25)
	for i := range items {
		items[i] = fmt.Sprintf(`{"n":%d}`, i)
	}
	doc := jsonvalue.MustParse(`{"items":[` + strings.Join(items, ",") + `]}`)
	w := Widget{ArrayPath: "items", TableColumns: []string{"n"}}

	view, err := w.RenderTable(doc, TableOptions{})
	require.NoError(t, err)
	assert.Len(t, view.Rows, 10)
	assert.Equal(t, 3, view.TotalPages)

	view, err = w.RenderTable(doc, TableOptions{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, view.Page)
	assert.Equal(t, 20, view.FirstRow)
	assert.Equal(t, []string{"20", "21", "22", "23", "24"}, column(view, 0))

	view, err = w.RenderTable(doc, TableOptions{Page: 9})
	require.NoError(t, err)
	assert.Equal(t, 1, view.Page, "pages past the end clamp to 1")
	assert.Equal(t, "0", view.Rows[0][0])

	view, err = w.RenderTable(doc, TableOptions{PageSize: 20, Page: 2})
	require.NoError(t, err)
	assert.Len(t, view.Rows, 5)
}

func TestRenderChart(t *testing.T) {
	doc := jsonvalue.MustParse(`{"series":[
		{"date":"2024-01-01","close":101.5},
		{"date":"2024-01-02","close":"102"},
		{"date":"2024-01-03","close":"n/a"},
		{"date":"2024-01-04"}
	]}`)
	w := Widget{ArrayPath: "series", ChartXField: "date", ChartYField: "close"}

	points := w.RenderChart(doc)
	require.Len(t, points, 4)
	assert.Equal(t, Point{X: "2024-01-01", Y: 101.5, YValid: true}, points[0])
	assert.Equal(t, Point{X: "2024-01-02", Y: 102, YValid: true}, points[1])
	assert.False(t, points[2].YValid)
	assert.False(t, points[3].YValid)

	bars := Bars(points)
	require.Len(t, bars, 4)
	assert.Equal(t, "2024-01-01", bars[0].Label)
	assert.True(t, bars[0].Valid)

	assert.Empty(t, w.RenderChart(jsonvalue.Value{}))
}

func column(view TableView, i int) []string {
	out := make([]string, 0, len(view.Rows))
	for _, r := range view.Rows {
		out = append(out, r[i])
	}
	return out
}
