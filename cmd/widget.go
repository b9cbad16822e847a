package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/jsondash/internal/formatter"
	"github.com/oakwood-commons/jsondash/internal/widget"
	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
	"github.com/oakwood-commons/jsondash/pkg/settings"
)

// widgetFlags holds the widget fields settable from the command line.
type widgetFlags struct {
	name     string
	url      string
	interval int
	mode     string
	fields   []string
	array    string
	columns  []string
	x, y     string
	headers  []string
	params   []string
	filter   string
}

func (f *widgetFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "display name")
	fs.StringVar(&f.url, "url", "", "API URL (http or https)")
	fs.IntVar(&f.interval, "interval", widget.DefaultInterval, "polling interval in seconds")
	fs.StringVar(&f.mode, "mode", string(widget.ModeCard), "display mode: card|table|chart")
	fs.StringArrayVar(&f.fields, "field", nil, "card field path (repeatable)")
	fs.StringVar(&f.array, "array", "", "array path for table and chart widgets")
	fs.StringArrayVar(&f.columns, "column", nil, "table column path (repeatable)")
	fs.StringVar(&f.x, "x", "", "chart X axis field")
	fs.StringVar(&f.y, "y", "", "chart Y axis field")
	fs.StringArrayVar(&f.headers, "header", nil, "request header as key=value (repeatable)")
	fs.StringArrayVar(&f.params, "param", nil, "query parameter as key=value (repeatable)")
	fs.StringVar(&f.filter, "filter", "", "CEL predicate applied to table rows, e.g. '_.price > 10'")
}

// apply copies every flag that was set on fs into w. With all set, unset
// flags are copied too, using their defaults.
func (f *widgetFlags) apply(fs *pflag.FlagSet, w *widget.Widget, all bool) error {
	set := func(name string) bool { return all || fs.Changed(name) }

	if set("name") {
		w.Name = f.name
	}
	if set("url") {
		w.APIURL = f.url
	}
	if set("interval") {
		w.Interval = f.interval
	}
	if set("mode") {
		m, err := widget.ParseMode(f.mode)
		if err != nil {
			return UsageError{Err: err}
		}
		w.DisplayMode = m
	}
	if set("field") {
		w.CardFields = f.fields
	}
	if set("array") {
		w.ArrayPath = f.array
	}
	if set("column") {
		w.TableColumns = f.columns
	}
	if set("x") {
		w.ChartXField = f.x
	}
	if set("y") {
		w.ChartYField = f.y
	}
	if set("filter") {
		w.Filter = f.filter
	}
	if set("header") {
		kvs, err := parsePairs("--header", f.headers)
		if err != nil {
			return err
		}
		w.Headers = kvs
	}
	if set("param") {
		kvs, err := parsePairs("--param", f.params)
		if err != nil {
			return err
		}
		w.Params = kvs
	}
	return nil
}

func parsePairs(flag string, raw []string) ([]widget.KeyValue, error) {
	out := make([]widget.KeyValue, 0, len(raw))
	for _, s := range raw {
		kv, err := widget.ParseKeyValue(s)
		if err != nil {
			return nil, usageErrorf("%s: %v", flag, err)
		}
		out = append(out, kv)
	}
	return out, nil
}

// widgetError reports validation failures as usage errors.
func widgetError(err error) error {
	if errors.Is(err, widget.ErrInvalid) {
		return UsageError{Err: err}
	}
	return err
}

func newWidgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "widget",
		Aliases: []string{"widgets"},
		Short:   "Manage the saved widgets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newWidgetAddCmd(a),
		newWidgetListCmd(a),
		newWidgetShowCmd(a),
		newWidgetRemoveCmd(a),
		newWidgetUpdateCmd(a),
	)
	return cmd
}

func newWidgetAddCmd(a *app) *cobra.Command {
	var (
		flags  widgetFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a widget",
		Example: `  jsondash widget add --name FX --url https://api.example.com/rates \
      --param base=USD --field data.rates.INR --field data.rates.EUR
  jsondash widget add --name Orders --url https://api.example.com/orders \
      --mode table --array data.items --column id --column price --filter '_.price > 10'
  jsondash widget add --name Sales --url https://api.example.com/sales \
      --mode chart --array data --x month --y total`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			var w widget.Widget
			if err := flags.apply(cmd.Flags(), &w, true); err != nil {
				return err
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			added, err := st.Add(w)
			if err != nil {
				return widgetError(err)
			}
			if output == outputTable {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "added widget %s (%s)\n", added.ID, added.Name)
				return err
			}
			return printWidget(cmd, added, output)
		},
	}
	flags.register(cmd.Flags())
	addOutputFlag(cmd.Flags(), &output, outputTable)
	return cmd
}

func newWidgetListCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved widgets",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			ws, err := st.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch output {
			case outputJSON:
				return writeJSON(out, ws)
			case outputYAML:
				if len(ws) == 0 {
					_, err := fmt.Fprintln(out, "[]")
					return err
				}
				return writeYAML(out, ws)
			}
			if len(ws) == 0 {
				_, err := fmt.Fprintln(out, "no widgets; add one with 'jsondash widget add'")
				return err
			}
			columns := []string{"ID", "NAME", "MODE", "INTERVAL", "URL", "UPDATED"}
			rows := make([][]string, len(ws))
			for i, w := range ws {
				updated := ""
				if w.LastUpdated != nil {
					updated = w.LastUpdated.Local().Format(time.DateTime)
				}
				rows[i] = []string{w.ID, w.Name, string(w.DisplayMode), strconv.Itoa(w.Interval) + "s", w.APIURL, updated}
			}
			_, err = io.WriteString(out, formatter.RenderColumnarTable(columns, rows, formatter.ColumnarOptions{
				NoColor:        settings.RunFrom(cmd.Context()).NoColor,
				RowNumberStyle: "none",
				ColumnHints:    map[string]formatter.ColumnHint{"URL": {MaxWidth: 48}},
			}))
			return err
		},
	}
	addOutputFlag(cmd.Flags(), &output, outputTable)
	return cmd
}

func newWidgetShowCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one widget's configuration",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			w, err := st.Get(args[0])
			if err != nil {
				return err
			}
			return printWidget(cmd, w, output)
		},
	}
	addOutputFlag(cmd.Flags(), &output, outputTable)
	return cmd
}

func newWidgetRemoveCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove widgets",
		Example: `  jsondash widget rm 3f1c2a9e-...
  jsondash widget rm --all`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return usageArgs(cobra.NoArgs)(cmd, args)
			}
			return usageArgs(cobra.MinimumNArgs(1))(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if all {
				if err := st.Clear(); err != nil {
					return err
				}
				_, err := fmt.Fprintln(out, "removed all widgets")
				return err
			}
			for _, id := range args {
				if err := st.Delete(id); err != nil {
					return err
				}
				fmt.Fprintf(out, "removed widget %s\n", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "remove every widget")
	return cmd
}

func newWidgetUpdateCmd(a *app) *cobra.Command {
	var (
		flags  widgetFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a saved widget",
		Long: `Change only the fields whose flags are given. Repeatable flags such as
--field or --header replace the whole list.`,
		Example: `  jsondash widget update 3f1c2a9e-... --interval 60
  jsondash widget update 3f1c2a9e-... --mode table --array data.items --column id`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			// Parse errors surface before the store is touched.
			if err := flags.apply(cmd.Flags(), &widget.Widget{}, false); err != nil {
				return err
			}
			updated, err := st.Update(args[0], func(w *widget.Widget) {
				_ = flags.apply(cmd.Flags(), w, false)
			})
			if err != nil {
				return widgetError(err)
			}
			if output == outputTable {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "updated widget %s\n", updated.ID)
				return err
			}
			return printWidget(cmd, updated, output)
		},
	}
	flags.register(cmd.Flags())
	addOutputFlag(cmd.Flags(), &output, outputTable)
	return cmd
}

// printWidget shows w through its JSON form so that table output lists the
// fields in declaration order.
func printWidget(cmd *cobra.Command, w widget.Widget, format string) error {
	b, err := json.Marshal(w)
	if err != nil {
		return err
	}
	v, err := jsonvalue.Parse(b)
	if err != nil {
		return err
	}
	return printValue(cmd, v, format)
}
