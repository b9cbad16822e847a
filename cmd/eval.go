package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jsondash/internal/cel"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		flags     sourceFlags
		functions bool
	)
	cmd := &cobra.Command{
		Use:   "eval <source> <expr>",
		Short: "Evaluate a CEL expression against a document",
		Long: `Evaluate a CEL expression with the document bound to "_". The
environment is the one table widget filters use, with the strings,
encoders, lists and math extensions.`,
		Example: `  jsondash eval orders.json '_.data.items.filter(x, x.price > 10).size()'
  jsondash eval orders.json '_.data.items.map(x, x.name)' -o json
  jsondash eval --functions`,
		Args: func(cmd *cobra.Command, args []string) error {
			if functions {
				return usageArgs(cobra.NoArgs)(cmd, args)
			}
			return usageArgs(cobra.ExactArgs(2))(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			if functions {
				names, err := cel.DiscoverFunctions()
				if err != nil {
					return err
				}
				return printStrings(cmd.OutOrStdout(), names, flags.output)
			}

			doc, err := a.load(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			ev, err := cel.NewEvaluator()
			if err != nil {
				return err
			}
			result, err := ev.Evaluate(args[1], doc)
			if err != nil {
				return err
			}
			return printValue(cmd, flags.limits.ApplyValue(result), flags.output)
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&functions, "functions", false, "list the available CEL functions and exit")
	return cmd
}
