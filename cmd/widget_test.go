package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jsondash/internal/store"
	"github.com/oakwood-commons/jsondash/internal/widget"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/rates", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("base") != "USD" {
			http.Error(w, "missing base", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"rates":{"INR":83.1,"EUR":0.92}}}`))
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"items":[
			{"id":1,"name":"apple","price":1.5},
			{"id":2,"name":"pear","price":12},
			{"id":3,"name":"plum","price":7}
		]}}`))
	})
	mux.HandleFunc("/sales", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"month":"jan","total":10},{"month":"feb","total":"n/a"}]}`))
	})
	mux.HandleFunc("/fail", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func addWidget(t *testing.T, storePath string, args ...string) widget.Widget {
	t.Helper()
	args = append([]string{"widget", "add", "--store", storePath, "-o", "json"}, args...)
	out, err := runCLI(t, "", args...)
	require.NoError(t, err)
	var w widget.Widget
	require.NoError(t, json.Unmarshal([]byte(out), &w))
	require.NotEmpty(t, w.ID)
	return w
}

func TestWidgetLifecycle(t *testing.T) {
	storePath := isolate(t)

	out, err := runCLI(t, "", "widget", "list", "--store", storePath)
	require.NoError(t, err)
	assert.Contains(t, out, "no widgets")

	w := addWidget(t, storePath,
		"--name", "FX", "--url", "https://api.example.com/rates",
		"--param", "base=USD", "--header", "X-Key=secret",
		"--field", "data.rates.INR", "--field", "data.rates.EUR")
	assert.Equal(t, "FX", w.Name)
	assert.Equal(t, widget.ModeCard, w.DisplayMode)
	assert.Equal(t, widget.DefaultInterval, w.Interval)
	assert.Equal(t, []widget.KeyValue{{Key: "base", Value: "USD"}}, w.Params)
	assert.Equal(t, []widget.KeyValue{{Key: "X-Key", Value: "secret"}}, w.Headers)

	out, err = runCLI(t, "", "widget", "list", "--store", storePath)
	require.NoError(t, err)
	assert.Contains(t, out, "FX")
	assert.Contains(t, out, "card")

	out, err = runCLI(t, "", "widget", "update", w.ID, "--store", storePath, "--interval", "60", "--name", "Rates")
	require.NoError(t, err)
	assert.Contains(t, out, "updated widget "+w.ID)

	out, err = runCLI(t, "", "widget", "show", w.ID, "--store", storePath, "-o", "json")
	require.NoError(t, err)
	var shown widget.Widget
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, 60, shown.Interval)
	assert.Equal(t, "Rates", shown.Name)
	assert.Equal(t, w.CardFields, shown.CardFields, "unset flags keep their values")

	out, err = runCLI(t, "", "widget", "show", w.ID, "--store", storePath)
	require.NoError(t, err)
	assert.Contains(t, out, "apiUrl")

	out, err = runCLI(t, "", "widget", "rm", w.ID, "--store", storePath)
	require.NoError(t, err)
	assert.Contains(t, out, "removed widget "+w.ID)

	_, err = runCLI(t, "", "widget", "show", w.ID, "--store", storePath)
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1, ExitCode(err))
}

func TestWidgetAddInvalid(t *testing.T) {
	storePath := isolate(t)

	_, err := runCLI(t, "", "widget", "add", "--store", storePath,
		"--name", "T", "--url", "https://api.example.com", "--mode", "table")
	require.ErrorIs(t, err, widget.ErrInvalid)
	assert.Equal(t, 2, ExitCode(err))

	_, statErr := os.Stat(storePath)
	assert.True(t, os.IsNotExist(statErr), "nothing is written for an invalid widget")
}

func TestWidgetUpdateInvalidKeepsWidget(t *testing.T) {
	storePath := isolate(t)
	w := addWidget(t, storePath, "--name", "FX", "--url", "https://api.example.com", "--field", "a")

	_, err := runCLI(t, "", "widget", "update", w.ID, "--store", storePath, "--mode", "chart")
	require.ErrorIs(t, err, widget.ErrInvalid)

	_, err = runCLI(t, "", "widget", "update", w.ID, "--store", storePath, "--param", "oops")
	assert.Equal(t, 2, ExitCode(err))

	out, err := runCLI(t, "", "widget", "show", w.ID, "--store", storePath, "-o", "json")
	require.NoError(t, err)
	var shown widget.Widget
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, widget.ModeCard, shown.DisplayMode)
	assert.Empty(t, shown.Params)
}

func TestWidgetRemoveAll(t *testing.T) {
	storePath := isolate(t)
	addWidget(t, storePath, "--name", "A", "--url", "https://a.example.com", "--field", "a")
	addWidget(t, storePath, "--name", "B", "--url", "https://b.example.com", "--field", "b")

	_, err := runCLI(t, "", "widget", "rm", "--all", "x", "--store", storePath)
	assert.Equal(t, 2, ExitCode(err))

	_, err = runCLI(t, "", "widget", "rm", "--all", "--store", storePath)
	require.NoError(t, err)

	out, err := runCLI(t, "", "widget", "list", "--store", storePath, "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestRenderCard(t *testing.T) {
	storePath := isolate(t)
	srv := newAPIServer(t)
	w := addWidget(t, storePath, "--name", "FX", "--url", srv.URL+"/rates",
		"--param", "base=USD", "--field", "data.rates.INR", "--field", "data.rates.GBP")

	out, err := runCLI(t, "", "render", "--store", storePath)
	require.NoError(t, err)
	assert.Contains(t, out, "FX [card] updated")
	assert.Contains(t, out, "data.rates.INR")
	assert.Contains(t, out, "83.1")
	assert.Contains(t, out, "--", "unresolved fields show the placeholder")

	out, err = runCLI(t, "", "render", w.ID, "--store", storePath, "-o", "json", "--touch")
	require.NoError(t, err)
	var docs []renderedWidget
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.True(t, docs[0].OK)
	assert.Equal(t, []renderedField{
		{Label: "data.rates.INR", Value: "83.1", Found: true},
		{Label: "data.rates.GBP", Value: "--"},
	}, docs[0].Fields)

	out, err = runCLI(t, "", "widget", "show", w.ID, "--store", storePath, "-o", "json")
	require.NoError(t, err)
	var shown widget.Widget
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	require.NotNil(t, shown.LastUpdated, "--touch records the fetch time")
}

func TestRenderTable(t *testing.T) {
	storePath := isolate(t)
	srv := newAPIServer(t)
	addWidget(t, storePath, "--name", "Orders", "--url", srv.URL+"/orders", "--mode", "table",
		"--array", "data.items", "--column", "id", "--column", "name", "--column", "price",
		"--filter", "_.id > 1")

	out, err := runCLI(t, "", "render", "--store", storePath, "--sort", "price", "--desc", "-o", "json")
	require.NoError(t, err)
	var docs []renderedWidget
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	require.NotNil(t, docs[0].Table)
	assert.Equal(t, []string{"id", "name", "price"}, docs[0].Table.Columns)
	assert.Equal(t, [][]string{{"2", "pear", "12"}, {"3", "plum", "7"}}, docs[0].Table.Rows)
	assert.Equal(t, 2, docs[0].Table.Matched)
	assert.Equal(t, 3, docs[0].Table.Total)

	out, err = runCLI(t, "", "render", "--store", storePath, "--search", "PLUM")
	require.NoError(t, err)
	assert.Contains(t, out, "plum")
	assert.NotContains(t, out, "pear")
	assert.Contains(t, out, "page 1/1, 1 of 3 rows")
}

func TestRenderTablePaging(t *testing.T) {
	storePath := isolate(t)
	srv := newAPIServer(t)
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgFile, "render:\n  page_size: 2\n")
	addWidget(t, storePath, "--name", "Orders", "--url", srv.URL+"/orders", "--mode", "table",
		"--array", "data.items", "--column", "name")

	out, err := runCLI(t, "", "render", "--store", storePath, "--config-file", cfgFile, "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "plum")
	assert.NotContains(t, out, "apple")
	assert.Contains(t, out, "page 2/2, 3 of 3 rows")

	out, err = runCLI(t, "", "render", "--store", storePath, "--config-file", cfgFile, "--page", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "page 1/2")
}

func TestRenderChart(t *testing.T) {
	storePath := isolate(t)
	srv := newAPIServer(t)
	addWidget(t, storePath, "--name", "Sales", "--url", srv.URL+"/sales", "--mode", "chart",
		"--x", "month", "--y", "total", "--array", "data")

	_, err := runCLI(t, "", "render", "--store", storePath)
	require.NoError(t, err)

	out, err := runCLI(t, "", "render", "--store", storePath, "-o", "json")
	require.NoError(t, err)
	var docs []renderedWidget
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	require.Len(t, docs[0].Points, 2)
	assert.Equal(t, "jan", docs[0].Points[0].X)
	require.NotNil(t, docs[0].Points[0].Y)
	assert.InDelta(t, 10.0, *docs[0].Points[0].Y, 1e-9)
	assert.Nil(t, docs[0].Points[1].Y)
}

func TestRenderFailure(t *testing.T) {
	storePath := isolate(t)
	srv := newAPIServer(t)
	addWidget(t, storePath, "--name", "Broken", "--url", srv.URL+"/fail", "--field", "a")
	addWidget(t, storePath, "--name", "FX", "--url", srv.URL+"/rates", "--param", "base=USD", "--field", "data.rates.EUR")

	out, err := runCLI(t, "", "render", "--store", storePath)
	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, err.Error(), "1 of 2 widgets failed")
	assert.Contains(t, out, "Broken [card] error: HTTP 500: Internal Server Error")
	assert.Contains(t, out, "0.92", "other widgets still render")
}

func TestWatch(t *testing.T) {
	storePath := isolate(t)
	srv := newAPIServer(t)
	addWidget(t, storePath, "--name", "FX", "--url", srv.URL+"/rates", "--param", "base=USD",
		"--field", "data.rates.INR", "--interval", "1")

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()
	out, err := runCLIContext(ctx, t, "", "watch", "--store", storePath)
	require.NoError(t, err)
	assert.Contains(t, out, "FX [card] loading...")
	assert.Contains(t, out, "83.1")
}

func TestExportImport(t *testing.T) {
	storePath := isolate(t)
	addWidget(t, storePath, "--name", "A", "--url", "https://a.example.com", "--field", "a")
	b := addWidget(t, storePath, "--name", "B", "--url", "https://b.example.com", "--field", "b")

	out, err := runCLI(t, "", "export", "--store", storePath)
	require.NoError(t, err)
	var doc store.ExportDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, store.ExportVersion, doc.Version)
	assert.Equal(t, 2, doc.TotalWidgets)

	file := filepath.Join(t.TempDir(), "export.json")
	_, err = runCLI(t, "", "export", file, "--store", storePath)
	require.NoError(t, err)

	_, err = runCLI(t, "", "widget", "rm", b.ID, "--store", storePath)
	require.NoError(t, err)

	out, err = runCLI(t, "", "import", file, "--store", storePath)
	require.NoError(t, err)
	assert.Equal(t, "imported 2 widgets (replace)\n", out)

	out, err = runCLI(t, "", "import", "-", "--merge", "--store", storePath)
	require.Error(t, err, "empty stdin is not an export document")
	assert.Empty(t, out)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	out, err = runCLI(t, string(data), "import", "-", "--merge", "--store", storePath)
	require.NoError(t, err)
	assert.Equal(t, "imported 2 widgets (merge)\n", out)

	out, err = runCLI(t, "", "widget", "list", "--store", storePath, "-o", "json")
	require.NoError(t, err)
	var ws []widget.Widget
	require.NoError(t, json.Unmarshal([]byte(out), &ws))
	assert.Len(t, ws, 4)

	_, err = runCLI(t, `{"version":"1.0"}`, "import", "-", "--store", storePath)
	require.ErrorIs(t, err, store.ErrInvalidImport)
}
