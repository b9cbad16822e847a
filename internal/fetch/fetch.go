// Package fetch performs the single HTTP request behind a widget and loads
// documents for the CLI from URLs, files or stdin.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/oakwood-commons/jsondash/internal/widget"
	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
	"github.com/oakwood-commons/jsondash/pkg/loader"
	"github.com/oakwood-commons/jsondash/pkg/logger"
	"github.com/oakwood-commons/jsondash/pkg/settings"
)

const (
	// DefaultTimeout bounds one request when the client sets no timeout.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBodyBytes caps the response body read from an API.
	DefaultMaxBodyBytes int64 = 10 << 20
	// DefaultUserAgent is sent unless the widget sets its own User-Agent header.
	DefaultUserAgent = "jsondash"
)

// ErrBodyTooLarge is returned when a response body exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// Result is the outcome of one fetch. Exactly one of Data (OK) or Error is meaningful.
type Result struct {
	OK        bool
	Error     string
	Status    int
	Data      jsonvalue.Value
	FetchedAt time.Time
	Duration  time.Duration
}

// BuildURL appends the non-empty params to base, URL-encoded. The separator
// is "&" when base already carries a query string and "?" otherwise.
func BuildURL(base string, params []widget.KeyValue) string {
	q := url.Values{}
	var keys []string
	for _, p := range params {
		k, v := strings.TrimSpace(p.Key), strings.TrimSpace(p.Value)
		if k == "" || v == "" {
			continue
		}
		if _, seen := q[k]; !seen {
			keys = append(keys, k)
		}
		q.Add(k, v)
	}
	if len(keys) == 0 {
		return base
	}

	// url.Values.Encode sorts keys; keep the configured order instead.
	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	return base + sep + b.String()
}

// BuildHeaders converts the non-empty pairs into request headers.
func BuildHeaders(headers []widget.KeyValue) http.Header {
	h := http.Header{}
	for _, kv := range headers {
		k, v := strings.TrimSpace(kv.Key), strings.TrimSpace(kv.Value)
		if k == "" || v == "" {
			continue
		}
		h.Add(k, v)
	}
	return h
}

// Client fetches widget documents. The zero value is usable.
type Client struct {
	HTTP         *http.Client
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Client) maxBody() int64 {
	if c.MaxBodyBytes > 0 {
		return c.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}

// Fetch issues one GET for w. It never retries and never returns an error;
// failures are reported through Result.Error.
func (c *Client) Fetch(ctx context.Context, w widget.Widget) Result {
	lgr := logger.ForWidget(ctx, w.ID, w.APIURL)
	start := time.Now()
	res := c.do(ctx, w)
	res.FetchedAt = time.Now()
	res.Duration = res.FetchedAt.Sub(start)

	if res.OK {
		lgr.V(1).Info("fetched widget", logger.StatusKey, res.Status, logger.DurationKey, res.Duration)
	} else {
		lgr.Info("fetch failed", logger.StatusKey, res.Status, "error", res.Error, logger.DurationKey, res.Duration)
	}
	return res
}

func (c *Client) do(ctx context.Context, w widget.Widget) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	target := BuildURL(w.APIURL, w.Params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{Error: err.Error()}
	}
	req.Header = BuildHeaders(w.Headers)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		ua := c.UserAgent
		if ua == "" {
			ua = DefaultUserAgent
		}
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Result{Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{
			Status: resp.StatusCode,
			Error:  fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	body, err := readLimited(resp.Body, c.maxBody())
	if err != nil {
		return Result{Status: resp.StatusCode, Error: err.Error()}
	}
	data, err := jsonvalue.Parse(body)
	if err != nil {
		return Result{Status: resp.StatusCode, Error: fmt.Sprintf("invalid JSON response: %v", err)}
	}
	return Result{OK: true, Status: resp.StatusCode, Data: data}
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}
	return body, nil
}

// IsURL reports whether source looks like an http(s) URL.
func IsURL(source string) bool {
	return settings.SourceFor(source).FromURL
}

// Load reads a document for the CLI. source is "-" for stdin, an http(s)
// URL, or a file path. Files and stdin are auto-detected as JSON, NDJSON,
// YAML or TOML.
func (c *Client) Load(ctx context.Context, source string) (jsonvalue.Value, error) {
	return c.LoadFrom(ctx, source, os.Stdin)
}

// LoadFrom is Load with stdin supplied by the caller.
func (c *Client) LoadFrom(ctx context.Context, source string, stdin io.Reader) (jsonvalue.Value, error) {
	src := settings.SourceFor(source)
	switch {
	case src.FromStdin:
		v, err := loader.LoadReader(stdin)
		if err != nil {
			return jsonvalue.Value{}, fmt.Errorf("stdin: %w", err)
		}
		return v, nil
	case src.FromURL:
		res := c.Fetch(ctx, widget.Widget{Name: source, APIURL: source})
		if !res.OK {
			return jsonvalue.Value{}, fmt.Errorf("%s: %s", source, res.Error)
		}
		return res.Data, nil
	default:
		return loader.LoadFile(src.Path)
	}
}

// Load is Client.Load on a zero Client.
func Load(ctx context.Context, source string) (jsonvalue.Value, error) {
	var c Client
	return c.Load(ctx, source)
}
