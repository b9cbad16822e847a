package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/jsondash/internal/fetch"
	"github.com/oakwood-commons/jsondash/internal/formatter"
	"github.com/oakwood-commons/jsondash/internal/widget"
	"github.com/oakwood-commons/jsondash/pkg/logger"
	"github.com/oakwood-commons/jsondash/pkg/settings"
)

// viewFlags control how widgets are drawn by render and watch.
type viewFlags struct {
	search string
	sort   string
	desc   bool
	page   int

	// noColor comes from the run settings, not a flag of its own.
	noColor bool
}

func (f *viewFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.search, "search", "", "only show table rows whose JSON contains this text (case-insensitive)")
	fs.StringVar(&f.sort, "sort", "", "sort table rows by this column")
	fs.BoolVar(&f.desc, "desc", false, "sort descending")
	fs.IntVar(&f.page, "page", 1, "table page to show")
}

func (f *viewFlags) tableOptions(pageSize int) widget.TableOptions {
	return widget.TableOptions{
		Search:     f.search,
		SortColumn: f.sort,
		SortDesc:   f.desc,
		Page:       f.page,
		PageSize:   pageSize,
	}
}

func newRenderCmd(a *app) *cobra.Command {
	var (
		view   viewFlags
		output string
		touch  bool
	)
	cmd := &cobra.Command{
		Use:   "render [id...]",
		Short: "Fetch widgets once and print them",
		Long: `Fetch each widget's API once and print it as a card, table or chart.
Without arguments every saved widget is rendered. The command fails if
any fetch fails, after printing the others.`,
		Example: `  jsondash render
  jsondash render 3f1c2a9e-... --search usd --sort price --desc
  jsondash render -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			if view.page < 1 {
				return usageErrorf("--page must be >= 1")
			}
			view.noColor = settings.RunFrom(cmd.Context()).NoColor
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			var ws []widget.Widget
			if len(args) == 0 {
				if ws, err = st.List(); err != nil {
					return err
				}
			} else {
				for _, id := range args {
					w, err := st.Get(id)
					if err != nil {
						return err
					}
					ws = append(ws, w)
				}
			}

			ctx := cmd.Context()
			lgr := logger.FromContext(ctx)
			results := make([]fetch.Result, len(ws))
			failed := 0
			for i, w := range ws {
				results[i] = a.client.Fetch(ctx, w)
				if !results[i].OK {
					failed++
					continue
				}
				if touch {
					if err := st.Touch(w.ID, results[i].FetchedAt); err != nil {
						lgr.Error(err, "recording update time", logger.WidgetKey, w.ID)
					}
				}
			}

			out := cmd.OutOrStdout()
			switch output {
			case outputJSON, outputYAML:
				docs := make([]renderedWidget, len(ws))
				for i, w := range ws {
					docs[i] = a.renderDoc(w, results[i], view)
				}
				if output == outputJSON {
					err = writeJSON(out, docs)
				} else {
					err = writeYAML(out, docs)
				}
				if err != nil {
					return err
				}
			default:
				if len(ws) == 0 {
					_, err := fmt.Fprintln(out, "no widgets; add one with 'jsondash widget add'")
					return err
				}
				for i, w := range ws {
					if i > 0 {
						fmt.Fprintln(out)
					}
					if err := a.renderWidget(out, w, results[i], view); err != nil {
						return err
					}
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d widgets failed to fetch", failed, len(ws))
			}
			return nil
		},
	}
	view.register(cmd.Flags())
	addOutputFlag(cmd.Flags(), &output, outputTable)
	cmd.Flags().BoolVar(&touch, "touch", false, "record the fetch time of successful widgets in the store")
	return cmd
}

// renderWidget writes the title line and body of one widget.
func (a *app) renderWidget(out io.Writer, w widget.Widget, res fetch.Result, view viewFlags) error {
	if _, err := fmt.Fprintln(out, title(w, res, view.noColor)); err != nil {
		return err
	}
	if !res.OK {
		return nil
	}

	noColor := view.noColor
	var body string
	switch w.DisplayMode {
	case widget.ModeTable:
		tv, err := w.RenderTable(res.Data, view.tableOptions(a.cfg.Render.PageSize))
		if err != nil {
			return err
		}
		body = renderTableView(tv, noColor)
	case widget.ModeChart:
		bars := widget.Bars(w.RenderChart(res.Data))
		if len(bars) == 0 {
			body = "no data\n"
		} else {
			body = formatter.RenderBarChart(bars, formatter.ChartOptions{NoColor: noColor, Placeholder: a.cfg.Render.Placeholder})
		}
	default:
		fields := w.RenderCard(res.Data, a.cfg.Render.Placeholder)
		rows := make([][]string, len(fields))
		for i, f := range fields {
			rows[i] = []string{f.Label, f.Value}
		}
		body = formatter.RenderRows(rows, noColor, 0, 0)
	}
	_, err := io.WriteString(out, body)
	return err
}

func renderTableView(tv widget.TableView, noColor bool) string {
	var b strings.Builder
	if len(tv.Rows) == 0 {
		b.WriteString("no rows\n")
	} else {
		b.WriteString(formatter.RenderColumnarTable(tv.Columns, tv.Rows, formatter.ColumnarOptions{
			NoColor:     noColor,
			FirstRow:    tv.FirstRow,
			ColumnHints: formatter.NumericColumnHints(tv.Columns, tv.Rows),
		}))
	}
	fmt.Fprintf(&b, "page %d/%d, %d of %d rows", tv.Page, tv.TotalPages, tv.Matched, tv.Total)
	if tv.FilterErrors > 0 {
		fmt.Fprintf(&b, ", %d skipped by filter errors", tv.FilterErrors)
	}
	b.WriteByte('\n')
	return b.String()
}

func title(w widget.Widget, res fetch.Result, noColor bool) string {
	status := "updated " + res.FetchedAt.Local().Format(time.TimeOnly)
	if !res.OK {
		status = "error: " + res.Error
	}
	name := w.Name
	if !noColor {
		name = lipgloss.NewStyle().Bold(true).Render(name)
	}
	return fmt.Sprintf("%s [%s] %s", name, w.DisplayMode, status)
}

type renderedWidget struct {
	ID        string             `json:"id" yaml:"id"`
	Name      string             `json:"name" yaml:"name"`
	Mode      widget.DisplayMode `json:"displayMode" yaml:"displayMode"`
	OK        bool               `json:"ok" yaml:"ok"`
	Error     string             `json:"error,omitempty" yaml:"error,omitempty"`
	Status    int                `json:"status,omitempty" yaml:"status,omitempty"`
	FetchedAt time.Time          `json:"fetchedAt" yaml:"fetchedAt"`

	Fields []renderedField `json:"fields,omitempty" yaml:"fields,omitempty"`
	Table  *renderedTable  `json:"table,omitempty" yaml:"table,omitempty"`
	Points []renderedPoint `json:"points,omitempty" yaml:"points,omitempty"`
}

type renderedField struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
	Found bool   `json:"found" yaml:"found"`
}

type renderedTable struct {
	Columns      []string   `json:"columns" yaml:"columns"`
	Rows         [][]string `json:"rows" yaml:"rows"`
	Page         int        `json:"page" yaml:"page"`
	TotalPages   int        `json:"totalPages" yaml:"totalPages"`
	Matched      int        `json:"matched" yaml:"matched"`
	Total        int        `json:"total" yaml:"total"`
	FilterErrors int        `json:"filterErrors,omitempty" yaml:"filterErrors,omitempty"`
}

type renderedPoint struct {
	X string   `json:"x" yaml:"x"`
	Y *float64 `json:"y" yaml:"y"`
}

func (a *app) renderDoc(w widget.Widget, res fetch.Result, view viewFlags) renderedWidget {
	doc := renderedWidget{
		ID:        w.ID,
		Name:      w.Name,
		Mode:      w.DisplayMode,
		OK:        res.OK,
		Error:     res.Error,
		Status:    res.Status,
		FetchedAt: res.FetchedAt.UTC().Truncate(time.Second),
	}
	if !res.OK {
		return doc
	}
	switch w.DisplayMode {
	case widget.ModeTable:
		tv, err := w.RenderTable(res.Data, view.tableOptions(a.cfg.Render.PageSize))
		if err != nil {
			doc.OK = false
			doc.Error = err.Error()
			return doc
		}
		doc.Table = &renderedTable{
			Columns:      tv.Columns,
			Rows:         nonNil(tv.Rows),
			Page:         tv.Page,
			TotalPages:   tv.TotalPages,
			Matched:      tv.Matched,
			Total:        tv.Total,
			FilterErrors: tv.FilterErrors,
		}
	case widget.ModeChart:
		for _, p := range w.RenderChart(res.Data) {
			rp := renderedPoint{X: p.X}
			if p.YValid {
				y := p.Y
				rp.Y = &y
			}
			doc.Points = append(doc.Points, rp)
		}
	default:
		for _, f := range w.RenderCard(res.Data, a.cfg.Render.Placeholder) {
			doc.Fields = append(doc.Fields, renderedField(f))
		}
	}
	return doc
}

