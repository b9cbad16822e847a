package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jsondash/internal/formatter"
	"github.com/oakwood-commons/jsondash/internal/limiter"
	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
	"github.com/oakwood-commons/jsondash/pkg/loader"
	"github.com/oakwood-commons/jsondash/pkg/pathengine"
	"github.com/oakwood-commons/jsondash/pkg/settings"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return usageErrorf("invalid --output %q (expected table, json or yaml)", format)
	}
}

// usageArgs turns positional-argument errors into usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return UsageError{Err: err}
		}
		return nil
	}
}

// sourceFlags are shared by the commands that read a document.
type sourceFlags struct {
	output        string
	decodeStrings bool
	limits        limiter.Config
}

func (f *sourceFlags) register(fs *pflag.FlagSet) {
	addOutputFlag(fs, &f.output, outputTable)
	fs.BoolVar(&f.decodeStrings, "decode-strings", false, "parse string values that contain embedded JSON or YAML documents")
	fs.IntVar(&f.limits.Limit, "limit", 0, "limit the number of records displayed")
	fs.IntVar(&f.limits.Offset, "offset", 0, "skip the first N records")
	fs.IntVar(&f.limits.Tail, "tail", 0, "show the last N records (mutually exclusive with --limit; ignores --offset)")
}

func (f *sourceFlags) validate() error {
	if err := validateOutput(f.output); err != nil {
		return err
	}
	if err := f.limits.Validate(); err != nil {
		return UsageError{Err: fmt.Errorf("record limiting: %w", err)}
	}
	return nil
}

// load reads the document named by source and applies --decode-strings.
func (a *app) load(cmd *cobra.Command, source string, f *sourceFlags) (jsonvalue.Value, error) {
	doc, err := a.client.LoadFrom(cmd.Context(), source, cmd.InOrStdin())
	if err != nil {
		return jsonvalue.Value{}, err
	}
	if f != nil && f.decodeStrings {
		doc = loader.RecursiveDecode(doc)
	}
	return doc, nil
}

// printStrings writes a list, one item per line for table output.
func printStrings(w io.Writer, items []string, format string) error {
	if items == nil {
		items = []string{}
	}
	switch format {
	case outputJSON:
		return writeJSON(w, items)
	case outputYAML:
		if len(items) == 0 {
			_, err := fmt.Fprintln(w, "[]")
			return err
		}
		return writeYAML(w, items)
	default:
		for _, s := range items {
			if _, err := fmt.Fprintln(w, s); err != nil {
				return err
			}
		}
		return nil
	}
}

// printValue writes a document to cmd's output in the requested format.
// Table output shows scalars bare, arrays of objects as columns and
// everything else as KEY/VALUE rows.
func printValue(cmd *cobra.Command, v jsonvalue.Value, format string) error {
	w := cmd.OutOrStdout()
	switch format {
	case outputJSON:
		if v.IsAbsent() {
			v = jsonvalue.NullValue()
		}
		b, err := v.MarshalIndent("", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case outputYAML:
		if v.IsAbsent() {
			v = jsonvalue.NullValue()
		}
		s, err := formatter.FormatYAML(v, formatter.YAMLFormatOptions{Indent: 2, LiteralBlockStrings: true})
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, s)
		return err
	}

	noColor := settings.RunFrom(cmd.Context()).NoColor
	switch {
	case !v.IsContainer():
		_, err := fmt.Fprintln(w, formatter.Stringify(v))
		return err
	case v.Kind() == jsonvalue.Array && firstIsObject(v):
		columns := pathengine.ColumnsOf(v, "")
		rows := make([][]string, 0, v.Len())
		for _, row := range v.Elements() {
			cells := make([]string, len(columns))
			for i, c := range columns {
				if cell, ok := pathengine.Cell(row, c); ok {
					cells[i] = formatter.Stringify(cell)
				}
			}
			rows = append(rows, cells)
		}
		_, err := io.WriteString(w, formatter.RenderColumnarTable(columns, rows, formatter.ColumnarOptions{
			NoColor:     noColor,
			ColumnHints: formatter.NumericColumnHints(columns, rows),
		}))
		return err
	default:
		_, err := io.WriteString(w, formatter.RenderRows(formatter.ValueRows(v), noColor, 0, 0))
		return err
	}
}

func firstIsObject(arr jsonvalue.Value) bool {
	first, ok := arr.Index(0)
	return ok && first.Kind() == jsonvalue.Object
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
