package poller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oakwood-commons/jsondash/pkg/logger"
)

// DefaultDebounce coalesces the burst of events an atomic rewrite produces.
const DefaultDebounce = 150 * time.Millisecond

// Watch calls reload whenever the file at path is written, created,
// renamed or removed, until ctx is done. The parent directory is watched
// because atomic writes replace the file rather than modify it. Bursts of
// events within debounce trigger a single reload.
func Watch(ctx context.Context, path string, debounce time.Duration, reload func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	lgr := logger.FromContext(ctx).WithValues("file", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("preparing watch directory: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !relevant(event.Op) {
				continue
			}
			lgr.V(1).Info("store file changed", "op", event.Op.String())
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			lgr.Error(err, "file watcher error")
		case <-timer.C:
			reload()
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}
