package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jsondash/internal/store"
	"github.com/oakwood-commons/jsondash/pkg/settings"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write every widget to a JSON export document",
		Long: `Write every saved widget to a JSON export document. Without a file,
or with -, the document goes to stdout.`,
		Example: `  jsondash export widgets-backup.json
  jsondash export | jq '.totalWidgets'`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 || settings.SourceFor(args[0]).FromStdin {
				_, err := st.Export(cmd.OutOrStdout(), time.Now())
				return err
			}

			f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			n, err := st.Export(f, time.Now())
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d widgets to %s\n", n, args[0])
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var merge bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load widgets from a JSON export document",
		Long: `Load widgets from a document written by export. By default the saved
widgets are replaced; with --merge the imported widgets are added with
fresh IDs. Nothing is changed unless every imported widget is valid.`,
		Example: `  jsondash import widgets-backup.json
  jsondash import shared.json --merge
  cat shared.json | jsondash import -`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}

			var r io.Reader
			if settings.SourceFor(args[0]).FromStdin {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening import file: %w", err)
				}
				defer f.Close()
				r = f
			}

			mode := store.ImportReplace
			if merge {
				mode = store.ImportMerge
			}
			n, err := st.Import(r, mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d widgets (%s)\n", n, mode)
			return nil
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "keep existing widgets and add the imported ones")
	return cmd
}
