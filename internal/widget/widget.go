// Package widget defines the dashboard widget configuration and turns a
// fetched document into card, table and chart views.
package widget

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/oakwood-commons/jsondash/internal/cel"
	"github.com/oakwood-commons/jsondash/pkg/pathengine"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid widget")

// DefaultInterval is the polling interval, in seconds, for widgets that do not set one.
const DefaultInterval = 30

// DisplayMode selects how a widget renders its document.
type DisplayMode string

const (
	ModeCard  DisplayMode = "card"
	ModeTable DisplayMode = "table"
	ModeChart DisplayMode = "chart"
)

// Modes lists the valid display modes.
var Modes = []DisplayMode{ModeCard, ModeTable, ModeChart}

// ParseMode accepts a display mode name, case-insensitively.
func ParseMode(s string) (DisplayMode, error) {
	m := DisplayMode(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Modes {
		if m == valid {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown display mode %q (want card, table or chart)", ErrInvalid, s)
}

// KeyValue is one request header or query parameter.
type KeyValue struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// ParseKeyValue parses "key=value". The value may be empty, the key may not.
func ParseKeyValue(s string) (KeyValue, error) {
	k, v, ok := strings.Cut(s, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return KeyValue{}, fmt.Errorf("expected key=value, got %q", s)
	}
	return KeyValue{Key: k, Value: strings.TrimSpace(v)}, nil
}

// Widget is one polled API and the paths used to display it.
type Widget struct {
	ID           string      `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	APIURL       string      `json:"apiUrl" yaml:"apiUrl"`
	Interval     int         `json:"interval" yaml:"interval"`
	DisplayMode  DisplayMode `json:"displayMode" yaml:"displayMode"`
	Headers      []KeyValue  `json:"headers,omitempty" yaml:"headers,omitempty"`
	Params       []KeyValue  `json:"params,omitempty" yaml:"params,omitempty"`
	CardFields   []string    `json:"cardFields,omitempty" yaml:"cardFields,omitempty"`
	ArrayPath    string      `json:"arrayPath,omitempty" yaml:"arrayPath,omitempty"`
	TableColumns []string    `json:"tableColumns,omitempty" yaml:"tableColumns,omitempty"`
	ChartXField  string      `json:"chartXField,omitempty" yaml:"chartXField,omitempty"`
	ChartYField  string      `json:"chartYField,omitempty" yaml:"chartYField,omitempty"`
	// Filter is an optional CEL predicate applied to table rows, with the row bound to "_".
	Filter      string     `json:"filter,omitempty" yaml:"filter,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
}

// PollInterval returns the configured interval, falling back to def (or
// DefaultInterval) when unset, and never below floor.
func (w Widget) PollInterval(def, floor time.Duration) time.Duration {
	if def <= 0 {
		def = DefaultInterval * time.Second
	}
	d := def
	if w.Interval > 0 {
		d = time.Duration(w.Interval) * time.Second
	}
	if d < floor {
		d = floor
	}
	return d
}

// Normalize trims text fields, drops header and param pairs with an empty
// key or value, and fills in the default interval.
func (w *Widget) Normalize() {
	w.Name = strings.TrimSpace(w.Name)
	w.APIURL = strings.TrimSpace(w.APIURL)
	w.ArrayPath = strings.TrimSpace(w.ArrayPath)
	w.ChartXField = strings.TrimSpace(w.ChartXField)
	w.ChartYField = strings.TrimSpace(w.ChartYField)
	w.Filter = strings.TrimSpace(w.Filter)
	if w.Interval == 0 {
		w.Interval = DefaultInterval
	}
	if w.DisplayMode == "" {
		w.DisplayMode = ModeCard
	}
	w.Headers = compactPairs(w.Headers)
	w.Params = compactPairs(w.Params)
}

func compactPairs(pairs []KeyValue) []KeyValue {
	var out []KeyValue
	for _, p := range pairs {
		p.Key = strings.TrimSpace(p.Key)
		p.Value = strings.TrimSpace(p.Value)
		if p.Key != "" && p.Value != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every configuration problem at once. The returned error
// wraps ErrInvalid.
func (w Widget) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(w.Name) == "" {
		add("name is required")
	}
	if strings.TrimSpace(w.APIURL) == "" {
		add("API URL is required")
	} else if u, err := url.Parse(w.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("API URL %q must be an absolute http(s) URL", w.APIURL)
	}
	if w.Interval < 1 {
		add("interval must be at least 1 second, got %d", w.Interval)
	}

	checkPath := func(what, p string) {
		if err := pathCheck(p); err != nil {
			add("%s: %w", what, err)
		}
	}

	switch w.DisplayMode {
	case ModeCard:
		if len(w.CardFields) == 0 {
			add("card widgets need at least one field")
		}
		for _, f := range w.CardFields {
			checkPath("card field", f)
		}
	case ModeTable:
		if w.ArrayPath == "" || len(w.TableColumns) == 0 {
			add("table widgets need an array path and at least one column")
		}
		checkPath("array path", w.ArrayPath)
		for _, c := range w.TableColumns {
			checkPath("table column", c)
		}
	case ModeChart:
		if w.ArrayPath == "" {
			add("chart widgets need an array path")
		}
		if w.ChartXField == "" || w.ChartYField == "" {
			add("chart widgets need both X and Y axis fields")
		}
		checkPath("array path", w.ArrayPath)
		checkPath("chart X field", w.ChartXField)
		checkPath("chart Y field", w.ChartYField)
	default:
		add("unknown display mode %q", w.DisplayMode)
	}

	if w.Filter != "" {
		if _, err := cel.CompileFilter(w.Filter); err != nil {
			add("filter: %w", err)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(problems...))
}

// pathCheck accepts empty paths; required-ness is checked separately.
func pathCheck(p string) error {
	if p == "" {
		return nil
	}
	_, err := pathengine.Parse(p)
	return err
}
