// Package store persists widget configurations in a YAML file.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jsondash/internal/widget"
	"github.com/oakwood-commons/jsondash/pkg/logger"
	"github.com/oakwood-commons/jsondash/pkg/settings"
)

// ErrNotFound is returned when no widget has the requested ID.
var ErrNotFound = errors.New("widget not found")

const fileVersion = 1

// DefaultFileName is the store file name inside the config directory.
const DefaultFileName = "widgets.yaml"

type file struct {
	Version int             `yaml:"version"`
	Widgets []widget.Widget `yaml:"widgets"`
}

// Store is a mutex-guarded widget list backed by a single file. Every
// mutation rewrites the file atomically.
type Store struct {
	path string
	log  logr.Logger
	mu   sync.Mutex
}

// DefaultPath returns $XDG_CONFIG_HOME/jsondash/widgets.yaml or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, settings.CliBinaryName, DefaultFileName), nil
}

// Open returns a store for path. The file is created on first write.
func Open(ctx context.Context, path string) *Store {
	return &Store{
		path: path,
		log:  logger.FromContext(ctx).WithValues("store", path),
	}
}

// Path is the backing file.
func (s *Store) Path() string { return s.path }

// List returns all widgets in insertion order.
func (s *Store) List() ([]widget.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Get returns the widget with id.
func (s *Store) Get(id string) (widget.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.read()
	if err != nil {
		return widget.Widget{}, err
	}
	i := indexOf(ws, id)
	if i < 0 {
		return widget.Widget{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ws[i], nil
}

// Add normalizes and validates w, assigns an ID when it has none, and
// appends it.
func (s *Store) Add(w widget.Widget) (widget.Widget, error) {
	w.Normalize()
	if err := w.Validate(); err != nil {
		return widget.Widget{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.read()
	if err != nil {
		return widget.Widget{}, err
	}
	if w.ID == "" || indexOf(ws, w.ID) >= 0 {
		w.ID = uuid.NewString()
	}
	ws = append(ws, w)
	if err := s.write(ws); err != nil {
		return widget.Widget{}, err
	}
	s.log.V(1).Info("added widget", logger.WidgetKey, w.ID, "name", w.Name)
	return w, nil
}

// Update applies patch to the widget with id and saves it if it still
// validates. The ID cannot be changed by patch.
func (s *Store) Update(id string, patch func(*widget.Widget)) (widget.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.read()
	if err != nil {
		return widget.Widget{}, err
	}
	i := indexOf(ws, id)
	if i < 0 {
		return widget.Widget{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	w := ws[i]
	patch(&w)
	w.ID = id
	w.Normalize()
	if err := w.Validate(); err != nil {
		return widget.Widget{}, err
	}
	ws[i] = w
	if err := s.write(ws); err != nil {
		return widget.Widget{}, err
	}
	s.log.V(1).Info("updated widget", logger.WidgetKey, id)
	return w, nil
}

// Touch records t as the widget's last successful update.
func (s *Store) Touch(id string, t time.Time) error {
	t = t.UTC().Truncate(time.Second)
	_, err := s.Update(id, func(w *widget.Widget) { w.LastUpdated = &t })
	return err
}

// Delete removes the widget with id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.read()
	if err != nil {
		return err
	}
	i := indexOf(ws, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	ws = slices.Delete(ws, i, i+1)
	if err := s.write(ws); err != nil {
		return err
	}
	s.log.V(1).Info("deleted widget", logger.WidgetKey, id)
	return nil
}

// Clear removes every widget.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(nil)
}

// Replace swaps the whole widget list for ws.
func (s *Store) Replace(ws []widget.Widget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ws)
}

func (s *Store) read() ([]widget.Widget, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []widget.Widget{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading widget store: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing widget store %s: %w", s.path, err)
	}
	if f.Widgets == nil {
		f.Widgets = []widget.Widget{}
	}
	return f.Widgets, nil
}

func (s *Store) write(ws []widget.Widget) error {
	if ws == nil {
		ws = []widget.Widget{}
	}
	data, err := yaml.Marshal(file{Version: fileVersion, Widgets: ws})
	if err != nil {
		return fmt.Errorf("encoding widget store: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing widget store: %w", err)
	}
	return nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(name)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(name, perm); err != nil {
		return err
	}
	return os.Rename(name, path)
}

func indexOf(ws []widget.Widget, id string) int {
	return slices.IndexFunc(ws, func(w widget.Widget) bool { return w.ID == id })
}
