package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jsondash/internal/widget"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		params []widget.KeyValue
		want   string
	}{
		{name: "no params", base: "https://api.example.com/rates", want: "https://api.example.com/rates"},
		{
			name:   "question mark",
			base:   "https://api.example.com/rates",
			params: []widget.KeyValue{{Key: "base", Value: "USD"}, {Key: "q", Value: "a b&c"}},
			want:   "https://api.example.com/rates?base=USD&q=a+b%26c",
		},
		{
			name:   "existing query",
			base:   "https://api.example.com/rates?x=1",
			params: []widget.KeyValue{{Key: "base", Value: "USD"}},
			want:   "https://api.example.com/rates?x=1&base=USD",
		},
		{
			name:   "empty pairs skipped",
			base:   "https://api.example.com",
			params: []widget.KeyValue{{Key: "", Value: "v"}, {Key: "k", Value: " "}, {Key: "z", Value: "1"}, {Key: "a", Value: "2"}},
			want:   "https://api.example.com?z=1&a=2",
		},
		{
			name:   "trailing question mark",
			base:   "https://api.example.com/?",
			params: []widget.KeyValue{{Key: "k", Value: "v"}},
			want:   "https://api.example.com/?k=v",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildURL(tt.base, tt.params))
		})
	}
}

func TestBuildHeaders(t *testing.T) {
	h := BuildHeaders([]widget.KeyValue{
		{Key: "Authorization", Value: "Bearer t"},
		{Key: "X-Empty", Value: ""},
		{Key: " ", Value: "x"},
	})
	assert.Equal(t, "Bearer t", h.Get("Authorization"))
	assert.Len(t, h, 1)
}

func TestFetchOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		assert.Equal(t, "secret", r.Header.Get("X-Key"))
		assert.Equal(t, "jsondash-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"rates":{"INR":83.1}}}`))
	}))
	defer srv.Close()

	c := &Client{UserAgent: "jsondash-test"}
	res := c.Fetch(context.Background(), widget.Widget{
		ID:      "w1",
		APIURL:  srv.URL,
		Params:  []widget.KeyValue{{Key: "base", Value: "USD"}},
		Headers: []widget.KeyValue{{Key: "X-Key", Value: "secret"}},
	})
	require.True(t, res.OK, res.Error)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, `{"data":{"rates":{"INR":83.1}}}`, res.Data.String())
	assert.False(t, res.FetchedAt.IsZero())
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var c Client
	res := c.Fetch(context.Background(), widget.Widget{APIURL: srv.URL})
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)
	assert.Equal(t, "HTTP 503: Service Unavailable", res.Error)
	assert.True(t, res.Data.IsAbsent())
}

func TestFetchInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>nope</html>`))
	}))
	defer srv.Close()

	var c Client
	res := c.Fetch(context.Background(), widget.Widget{APIURL: srv.URL})
	assert.False(t, res.OK)
	assert.True(t, strings.HasPrefix(res.Error, "invalid JSON response: "), res.Error)
}

func TestFetchBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"payload":"` + strings.Repeat("x", 64) + `"}`))
	}))
	defer srv.Close()

	c := &Client{MaxBodyBytes: 16}
	res := c.Fetch(context.Background(), widget.Widget{APIURL: srv.URL})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, ErrBodyTooLarge.Error())
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := &Client{Timeout: 50 * time.Millisecond}
	res := c.Fetch(context.Background(), widget.Widget{APIURL: srv.URL})
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Error)
	assert.Zero(t, res.Status)
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var c Client
	res := c.Fetch(context.Background(), widget.Widget{APIURL: url})
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Error)
}

func TestLoadSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1}]`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	file := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(file, []byte("a: 1\nb: [x]\n"), 0o600))

	var c Client
	ctx := context.Background()

	v, err := c.LoadFrom(ctx, srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, v.String())

	v, err = c.LoadFrom(ctx, file, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":["x"]}`, v.String())

	v, err = c.LoadFrom(ctx, "-", strings.NewReader(`{"s":"in"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"s":"in"}`, v.String())

	_, err = c.LoadFrom(ctx, filepath.Join(dir, "missing.json"), nil)
	require.Error(t, err)

	_, err = c.LoadFrom(ctx, srv.URL+"/x?", nil)
	require.NoError(t, err)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://x"))
	assert.True(t, IsURL("HTTP://x"))
	assert.False(t, IsURL("./file.json"))
	assert.False(t, IsURL("-"))
}
