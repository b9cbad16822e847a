// Package limiter slices record lists by limit/offset/tail and computes
// table pages on top of the same bounds.
package limiter

import (
	"fmt"

	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
)

// Config holds the record-limiting parameters.
type Config struct {
	Limit  int // Show only this many records (0 = unlimited)
	Offset int // Skip the first N records (0 = no skip)
	Tail   int // Show only the last N records (0 = disabled); mutually exclusive with Limit
}

// Validate checks for conflicting flag combinations and returns an error if invalid.
// Rules:
// - Limit and Tail are mutually exclusive
// - If Tail is set, Offset is ignored
// - All numeric values must be non-negative
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("--offset must be non-negative, got %d", c.Offset)
	}
	if c.Tail < 0 {
		return fmt.Errorf("--tail must be non-negative, got %d", c.Tail)
	}
	if c.Limit > 0 && c.Tail > 0 {
		return fmt.Errorf("--limit and --tail are mutually exclusive")
	}
	return nil
}

// IsActive returns true if any limiting is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Bounds returns the half-open range [start, end) selected from length records.
func (c Config) Bounds(length int) (start, end int) {
	if c.Tail > 0 {
		start = length - c.Tail
		if start < 0 {
			start = 0
		}
		return start, length
	}

	start = c.Offset
	if start > length {
		start = length
	}
	end = length
	if c.Limit > 0 && start+c.Limit < length {
		end = start + c.Limit
	}
	return start, end
}

// Apply returns the selected window of items. The result shares the
// backing array with items.
func Apply[T any](c Config, items []T) []T {
	if !c.IsActive() {
		return items
	}
	start, end := c.Bounds(len(items))
	return items[start:end]
}

// ApplyValue limits an array's elements or an object's members, keeping
// declared order. Scalars are returned unchanged.
func (c Config) ApplyValue(v jsonvalue.Value) jsonvalue.Value {
	if !c.IsActive() {
		return v
	}
	switch v.Kind() {
	case jsonvalue.Array:
		return jsonvalue.ArrayValue(Apply(c, v.Elements())...)
	case jsonvalue.Object:
		return jsonvalue.ObjectValue(Apply(c, v.Members())...)
	default:
		return v
	}
}

// TotalPages returns how many pages of size hold n records. Zero records
// still make one (empty) page.
func TotalPages(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Page returns the window for a 1-based page number. Pages beyond the last
// one, and pages below 1, clamp to the first page.
func Page(page, size, n int) (Config, int) {
	if size <= 0 {
		return Config{}, 1
	}
	if page < 1 || page > TotalPages(n, size) {
		page = 1
	}
	return Config{Limit: size, Offset: (page - 1) * size}, page
}
