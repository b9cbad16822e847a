package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/oakwood-commons/jsondash/internal/widget"
)

// ExportVersion is written into every export document.
const ExportVersion = "1.0"

// ErrInvalidImport is returned for documents without a widgets array.
var ErrInvalidImport = errors.New("invalid import file")

// ImportMode selects how imported widgets combine with existing ones.
type ImportMode string

const (
	// ImportReplace drops all existing widgets first.
	ImportReplace ImportMode = "replace"
	// ImportMerge appends, giving every imported widget a fresh ID.
	ImportMerge ImportMode = "merge"
)

// ExportDocument is the JSON document written by Export.
type ExportDocument struct {
	Version      string          `json:"version"`
	ExportDate   string          `json:"exportDate"`
	Widgets      []widget.Widget `json:"widgets"`
	TotalWidgets int             `json:"totalWidgets"`
}

// Export writes every widget as an indented JSON document and returns how
// many were written.
func (s *Store) Export(w io.Writer, now time.Time) (int, error) {
	ws, err := s.List()
	if err != nil {
		return 0, err
	}
	doc := ExportDocument{
		Version:      ExportVersion,
		ExportDate:   now.UTC().Format(time.RFC3339),
		Widgets:      ws,
		TotalWidgets: len(ws),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return 0, fmt.Errorf("encoding export: %w", err)
	}
	return len(ws), nil
}

// Import reads an export document and stores its widgets using mode. The
// import is all-or-nothing: one invalid widget rejects the whole file.
func (s *Store) Import(r io.Reader, mode ImportMode) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading import: %w", err)
	}

	var raw struct {
		Widgets json.RawMessage `json:"widgets"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	trimmed := bytes.TrimSpace(raw.Widgets)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return 0, fmt.Errorf("%w: missing widgets array", ErrInvalidImport)
	}
	var incoming []widget.Widget
	if err := json.Unmarshal(trimmed, &incoming); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}

	for i := range incoming {
		incoming[i].Normalize()
		if err := incoming[i].Validate(); err != nil {
			return 0, fmt.Errorf("widget %d (%q): %w", i, incoming[i].Name, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var existing []widget.Widget
	switch mode {
	case ImportReplace:
	case ImportMerge:
		if existing, err = s.read(); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("unknown import mode %q", mode)
	}

	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, w := range existing {
		seen[w.ID] = true
	}
	for i := range incoming {
		if mode == ImportMerge || incoming[i].ID == "" || seen[incoming[i].ID] {
			incoming[i].ID = uuid.NewString()
		}
		seen[incoming[i].ID] = true
	}

	if err := s.write(append(existing, incoming...)); err != nil {
		return 0, err
	}
	s.log.Info("imported widgets", "count", len(incoming), "mode", string(mode))
	return len(incoming), nil
}
