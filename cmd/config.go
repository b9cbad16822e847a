package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jsondash/internal/config"
	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
	"github.com/oakwood-commons/jsondash/pkg/settings"
)

// newConfigCmd groups configuration subcommands, gh-style.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show jsondash configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var output string
	get := &cobra.Command{
		Use:   "get",
		Short: "Show the merged configuration",
		Long: `Show the configuration in effect: the built-in defaults with the
config file (--config-file, or the default location) merged over them.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			if output == outputYAML {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			v, err := jsonvalue.FromYAML(data)
			if err != nil {
				return err
			}
			return printValue(cmd, v, output)
		},
	}
	addOutputFlag(get.Flags(), &output, outputYAML)

	def := &cobra.Command{
		Use:     "default",
		Short:   "Print the built-in default configuration",
		Long:    `Print the built-in defaults, a starting point for a config file.`,
		Example: `  jsondash config default > ~/.config/jsondash/config.yaml`,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(config.DefaultConfigYAML())
			return err
		},
	}

	paths := &cobra.Command{
		Use:   "path",
		Short: "Show where the config file and widget store live",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath := settings.RunFrom(cmd.Context()).ConfigFile
			if cfgPath == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				cfgPath = p
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config: %s\n", cfgPath)
			fmt.Fprintf(out, "store:  %s\n", st.Path())
			return nil
		},
	}

	cmd.AddCommand(get, def, paths)
	return cmd
}
