// Package poller runs one independent fetch loop per widget.
package poller

import (
	"context"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oakwood-commons/jsondash/internal/fetch"
	"github.com/oakwood-commons/jsondash/internal/widget"
	"github.com/oakwood-commons/jsondash/pkg/logger"
)

// Fetcher performs a single fetch for a widget.
type Fetcher interface {
	Fetch(ctx context.Context, w widget.Widget) fetch.Result
}

// Sink receives every completed fetch. It is called from the widget's
// goroutine and must not call back into the Manager synchronously.
type Sink func(widget.Widget, fetch.Result)

// Options tunes scheduling. Zero values fall back to the widget defaults.
type Options struct {
	// DefaultInterval applies to widgets with no interval.
	DefaultInterval time.Duration
	// MinInterval is the floor for every widget's interval.
	MinInterval time.Duration
	// Timeout bounds each fetch. Zero leaves it to the Fetcher.
	Timeout time.Duration
}

// Manager owns the scheduled task of every widget, keyed by widget ID.
type Manager struct {
	fetcher Fetcher
	sink    Sink
	opts    Options

	mu    sync.Mutex
	tasks map[string]*task
}

// NewManager returns an idle manager.
func NewManager(f Fetcher, sink Sink, opts Options) *Manager {
	if sink == nil {
		sink = func(widget.Widget, fetch.Result) {}
	}
	return &Manager{
		fetcher: f,
		sink:    sink,
		opts:    opts,
		tasks:   map[string]*task{},
	}
}

type task struct {
	w      widget.Widget
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// stop cancels the task and waits for its loop and any in-flight fetch.
// Safe to call more than once; only the first call cancels.
func (t *task) stop() {
	t.once.Do(t.cancel)
	<-t.done
}

// Set starts polling w, replacing any task already running for w.ID. The
// previous task is cancelled and has fully exited before the new one
// starts, so one widget never has two loops.
func (m *Manager) Set(ctx context.Context, w widget.Widget) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.tasks[w.ID]; ok {
		old.stop()
		delete(m.tasks, w.ID)
		logger.FromContext(ctx).V(1).Info("replaced widget task", logger.WidgetKey, w.ID)
	}
	m.tasks[w.ID] = m.start(ctx, w)
}

// Sync makes the running tasks match ws. Widgets whose configuration is
// unchanged keep their task; changed ones are replaced and missing ones
// removed.
func (m *Manager) Sync(ctx context.Context, ws []widget.Widget) (started, removed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[string]bool, len(ws))
	for _, w := range ws {
		want[w.ID] = true
		if old, ok := m.tasks[w.ID]; ok {
			if sameConfig(old.w, w) {
				continue
			}
			old.stop()
		}
		m.tasks[w.ID] = m.start(ctx, w)
		started++
	}
	for id, t := range m.tasks {
		if !want[id] {
			t.stop()
			delete(m.tasks, id)
			removed++
		}
	}
	return started, removed
}

// Remove stops the widget's task. It reports whether one was running.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return false
	}
	t.stop()
	delete(m.tasks, id)
	return true
}

// Stop cancels every task and waits for all of them.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.tasks {
		t.stop()
		delete(m.tasks, id)
	}
}

// IDs lists the widgets being polled, sorted.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m *Manager) interval(w widget.Widget) time.Duration {
	floor := m.opts.MinInterval
	if floor < 0 {
		floor = 0
	}
	return w.PollInterval(m.opts.DefaultInterval, floor)
}

func (m *Manager) start(parent context.Context, w widget.Widget) *task {
	ctx, cancel := context.WithCancel(parent)
	t := &task{w: w, cancel: cancel, done: make(chan struct{})}
	go m.run(ctx, t)
	return t
}

func (m *Manager) run(ctx context.Context, t *task) {
	lgr := logger.ForWidget(ctx, t.w.ID, t.w.APIURL)
	every := m.interval(t.w)

	var (
		inFlight atomic.Bool
		fetches  sync.WaitGroup
	)
	defer close(t.done)
	defer fetches.Wait()

	poll := func() {
		if !inFlight.CompareAndSwap(false, true) {
			lgr.V(1).Info("previous fetch still running, skipping tick")
			return
		}
		fetches.Add(1)
		go func() {
			defer fetches.Done()
			defer inFlight.Store(false)
			m.fetchOnce(ctx, t.w)
		}()
	}

	lgr.V(1).Info("polling widget", "interval", every)
	poll()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			lgr.V(1).Info("stopped polling widget")
			return
		case <-ticker.C:
			poll()
		}
	}
}

func (m *Manager) fetchOnce(ctx context.Context, w widget.Widget) {
	fctx := ctx
	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}
	res := m.fetcher.Fetch(fctx, w)
	if ctx.Err() != nil {
		// The task was cancelled; its results no longer belong to anyone.
		return
	}
	m.sink(w, res)
}

// sameConfig compares everything but the bookkeeping timestamp.
func sameConfig(a, b widget.Widget) bool {
	a.LastUpdated, b.LastUpdated = nil, nil
	return reflect.DeepEqual(a, b)
}
