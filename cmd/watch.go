package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oakwood-commons/jsondash/internal/fetch"
	"github.com/oakwood-commons/jsondash/internal/poller"
	"github.com/oakwood-commons/jsondash/internal/widget"
	"github.com/oakwood-commons/jsondash/pkg/logger"
	"github.com/oakwood-commons/jsondash/pkg/settings"
)

const clearScreen = "\x1b[H\x1b[2J"

func newWatchCmd(a *app) *cobra.Command {
	var (
		view    viewFlags
		noClear bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll every widget and redraw as results arrive",
		Long: `Poll every saved widget on its own interval and redraw the dashboard
after each result. Edits to the widget store, from another terminal or
by hand, are picked up without restarting. Stop with Ctrl-C.`,
		Example: `  jsondash watch
  jsondash watch --store ./team-widgets.yaml --no-clear`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if view.page < 1 {
				return usageErrorf("--page must be >= 1")
			}
			ctx := cmd.Context()
			lgr := logger.FromContext(ctx)
			view.noColor = settings.RunFrom(ctx).NoColor
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			b := &board{
				a:       a,
				out:     out,
				view:    view,
				clear:   !noClear && isTerminal(out),
				results: map[string]fetch.Result{},
			}
			mgr := poller.NewManager(a.client, b.update, poller.Options{
				DefaultInterval: a.cfg.Poll.DefaultInterval,
				MinInterval:     a.cfg.Poll.MinInterval,
				Timeout:         a.cfg.Fetch.Timeout,
			})
			defer mgr.Stop()

			reload := func() {
				ws, err := st.List()
				if err != nil {
					// Keep the running tasks; the next write will retry.
					lgr.Error(err, "reloading widgets")
					return
				}
				b.setWidgets(ws)
				started, removed := mgr.Sync(ctx, ws)
				lgr.V(1).Info("widgets reloaded", "count", len(ws), "started", started, "removed", removed)
			}
			reload()

			if err := poller.Watch(ctx, st.Path(), a.cfg.Poll.WatchDebounce, reload); err != nil {
				return err
			}
			lgr.V(1).Info("watch stopped")
			return nil
		},
	}
	view.register(cmd.Flags())
	cmd.Flags().BoolVar(&noClear, "no-clear", false, "append each frame instead of clearing the screen")
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// board holds the latest result per widget and redraws the whole dashboard.
// update runs on poller goroutines.
type board struct {
	a     *app
	out   io.Writer
	view  viewFlags
	clear bool

	mu      sync.Mutex
	order   []widget.Widget
	results map[string]fetch.Result
}

func (b *board) setWidgets(ws []widget.Widget) {
	b.mu.Lock()
	defer b.mu.Unlock()
	keep := make(map[string]fetch.Result, len(ws))
	for _, w := range ws {
		if res, ok := b.results[w.ID]; ok {
			keep[w.ID] = res
		}
	}
	b.order = ws
	b.results = keep
	b.draw()
}

func (b *board) update(w widget.Widget, res fetch.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results[w.ID] = res
	b.draw()
}

func (b *board) draw() {
	if b.clear {
		_, _ = io.WriteString(b.out, clearScreen)
	} else {
		_, _ = fmt.Fprintln(b.out, "----")
	}
	if len(b.order) == 0 {
		_, _ = fmt.Fprintln(b.out, "no widgets; add one with 'jsondash widget add'")
		return
	}
	for i, w := range b.order {
		if i > 0 {
			_, _ = fmt.Fprintln(b.out)
		}
		res, ok := b.results[w.ID]
		if !ok {
			_, _ = fmt.Fprintf(b.out, "%s [%s] loading...\n", w.Name, w.DisplayMode)
			continue
		}
		if err := b.a.renderWidget(b.out, w, res, b.view); err != nil {
			_, _ = fmt.Fprintf(b.out, "%s: %v\n", w.Name, err)
		}
	}
}
