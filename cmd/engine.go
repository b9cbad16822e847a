package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jsondash/internal/formatter"
	"github.com/oakwood-commons/jsondash/internal/limiter"
	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
	"github.com/oakwood-commons/jsondash/pkg/pathengine"
	"github.com/oakwood-commons/jsondash/pkg/settings"
)

// errNotFound is returned by get --strict for paths that do not resolve.
var errNotFound = errors.New("path not found")

func newFieldsCmd(a *app) *cobra.Command {
	var (
		flags      sourceFlags
		tree       bool
		arraysOnly bool
	)
	cmd := &cobra.Command{
		Use:   "fields <source>",
		Short: "List every selectable path in a document",
		Long: `List every leaf and array path in a document, depth first and in key
order. Array paths are followed by one entry per element.

<source> is a file, an http(s) URL, or - for stdin.`,
		Example: `  jsondash fields rates.json
  jsondash fields rates.json --tree
  curl -s https://api.example.com/orders | jsondash fields - --arrays-only`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			doc, err := a.load(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			fields := pathengine.EnumerateFields(doc)
			if arraysOnly {
				kept := fields[:0]
				for _, f := range fields {
					if f.Kind == pathengine.FieldArray {
						kept = append(kept, f)
					}
				}
				fields = kept
			}
			fields = limiter.Apply(flags.limits, fields)

			out := cmd.OutOrStdout()
			if tree && flags.output == outputTable {
				_, err := io.WriteString(out, formatter.FormatFieldTree(fields))
				return err
			}
			switch flags.output {
			case outputJSON:
				return writeJSON(out, nonNil(fields))
			case outputYAML:
				return printStrings(out, fieldPaths(fields), outputYAML)
			default:
				return printStrings(out, fieldPaths(fields), outputTable)
			}
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&tree, "tree", false, "show the paths as a tree")
	cmd.Flags().BoolVar(&arraysOnly, "arrays-only", false, "only list array paths")
	return cmd
}

func fieldPaths(fields []pathengine.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Path
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func newArraysCmd(a *app) *cobra.Command {
	var flags sourceFlags
	cmd := &cobra.Command{
		Use:   "arrays <source>",
		Short: "List the paths of arrays reachable through objects",
		Long: `List the paths whose value is an array. Only objects are searched, so
arrays nested inside other arrays are not reported.`,
		Example: `  jsondash arrays orders.json`,
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			doc, err := a.load(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			paths := limiter.Apply(flags.limits, pathengine.FindArrayPaths(doc))
			return printStrings(cmd.OutOrStdout(), paths, flags.output)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newColumnsCmd(a *app) *cobra.Command {
	var (
		flags sourceFlags
		path  string
		union bool
	)
	cmd := &cobra.Command{
		Use:   "columns <source>",
		Short: "List the column paths of an array",
		Long: `List the column paths of the array at --path. Columns come from the
first element: nested object members become dotted paths, and an array
of scalars has the single column "value".

With --union, columns from every element are merged in first-seen order.`,
		Example: `  jsondash columns orders.json --path data.items
  jsondash columns orders.json --path data.items --union -o json`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			doc, err := a.load(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			var cols []string
			if union {
				cols = pathengine.UnionColumnsOf(doc, path)
			} else {
				cols = pathengine.ColumnsOf(doc, path)
			}
			return printStrings(cmd.OutOrStdout(), limiter.Apply(flags.limits, cols), flags.output)
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&path, "path", "", "path of the array (empty for a top-level array)")
	cmd.Flags().BoolVar(&union, "union", false, "merge the columns of every element")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var (
		flags  sourceFlags
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "get <source> <path>",
		Short: "Print the value at a path",
		Long: `Resolve a path such as data.items[0].price and print the value.
Paths that do not resolve print N/A (render.not_found in the config),
or fail with --strict. An empty path selects the whole document.

--limit, --offset and --tail slice the value when it is an array.`,
		Example: `  jsondash get rates.json data.rates.INR
  jsondash get orders.json 'data.items' --limit 5 -o json
  jsondash get rates.json data.missing --strict`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			doc, err := a.load(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			v, ok := pathengine.Resolve(doc, args[1])
			if !ok {
				if strict {
					return fmt.Errorf("%w: %s", errNotFound, args[1])
				}
				if flags.output == outputTable {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), a.cfg.Render.NotFound)
					return err
				}
				return printValue(cmd, jsonvalue.NullValue(), flags.output)
			}
			return printValue(cmd, flags.limits.ApplyValue(v), flags.output)
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when the path does not resolve")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	var (
		flags sourceFlags
		tree  bool
		depth int
	)
	cmd := &cobra.Command{
		Use:   "inspect <source> [path]",
		Short: "Summarise the shape of a document or one of its values",
		Long: `Report whether the value at path (the whole document by default) is a
scalar, an object, an array, or a homogeneous array of objects that all
share the same keys, together with its size and the arrays inside it.`,
		Example: `  jsondash inspect orders.json
  jsondash inspect orders.json data.items
  jsondash inspect orders.json --tree --depth 2`,
		Args: usageArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			if depth < 0 {
				return usageErrorf("--depth must be >= 0")
			}
			doc, err := a.load(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			v, _ := pathengine.Resolve(doc, path)
			out := cmd.OutOrStdout()

			if tree && flags.output == outputTable {
				if v.IsAbsent() {
					return fmt.Errorf("%w: %s", errNotFound, path)
				}
				_, err := io.WriteString(out, formatter.FormatAsTree(v, formatter.TreeOptions{
					NoValues: true,
					MaxDepth: depth,
				}))
				return err
			}

			summary := inspectSummary{Path: path, ShapeInfo: pathengine.Shape(v), Arrays: nonNil(pathengine.FindArrayPaths(v))}
			switch flags.output {
			case outputJSON:
				return writeJSON(out, summary)
			case outputYAML:
				return writeYAML(out, summary)
			default:
				_, err := io.WriteString(out, formatter.RenderRows(summary.rows(), settings.RunFrom(cmd.Context()).NoColor, 0, 0))
				return err
			}
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&tree, "tree", false, "print the structure as a tree instead of a summary")
	cmd.Flags().IntVar(&depth, "depth", 0, "limit --tree depth (0 = unlimited)")
	return cmd
}

type inspectSummary struct {
	Path                 string `json:"path" yaml:"path"`
	pathengine.ShapeInfo `yaml:",inline"`
	Arrays               []string `json:"arrays" yaml:"arrays"`
}

func (s inspectSummary) rows() [][]string {
	path := s.Path
	if path == "" {
		path = "(root)"
	}
	rows := [][]string{
		{"path", path},
		{"kind", string(s.Kind)},
	}
	if s.Kind != pathengine.ShapeScalar && s.Kind != pathengine.ShapeAbsent {
		rows = append(rows, []string{"length", strconv.Itoa(s.Length)})
	}
	if len(s.Fields) > 0 {
		rows = append(rows, []string{"fields", strings.Join(s.Fields, ", ")})
	}
	if len(s.Arrays) > 0 {
		rows = append(rows, []string{"arrays", strings.Join(s.Arrays, ", ")})
	}
	return rows
}

func newPathCmd(_ *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Work with path expressions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>...",
		Short: "Check that paths are well formed",
		Long: `Check each path against the grammar: dot-separated member names, each
optionally followed by [n] indices. Malformed paths are reported with
the offending position and make the command fail.`,
		Example: `  jsondash path check data.items[0].price 'a..b'`,
		Args:    usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			bad := 0
			for _, p := range args {
				if _, err := pathengine.Parse(p); err != nil {
					bad++
					fmt.Fprintf(out, "invalid  %s: %v\n", p, err)
					continue
				}
				fmt.Fprintf(out, "ok       %s\n", p)
			}
			if bad > 0 {
				return fmt.Errorf("%w: %d of %d paths", pathengine.ErrMalformedPath, bad, len(args))
			}
			return nil
		},
	})
	return cmd
}
