package cmd

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"runtime"
	rdebug "runtime/debug"
	"syscall"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/jsondash/internal/config"
	"github.com/oakwood-commons/jsondash/internal/fetch"
	"github.com/oakwood-commons/jsondash/internal/formatter"
	"github.com/oakwood-commons/jsondash/internal/store"
	"github.com/oakwood-commons/jsondash/pkg/logger"
	"github.com/oakwood-commons/jsondash/pkg/settings"
)

// UsageError marks bad flags or arguments. main exits with status 2 for it.
type UsageError struct{ Err error }

func (e UsageError) Error() string { return e.Err.Error() }
func (e UsageError) Unwrap() error { return e.Err }

func usageErrorf(format string, args ...any) error {
	return UsageError{Err: fmt.Errorf(format, args...)}
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue UsageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configFile string
	storePath  string
	debug      bool
	verbosity  int
	noColor    bool

	cfg    config.Config
	client *fetch.Client
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	path := settings.RunFrom(ctx).StorePath
	if path == "" {
		var err error
		if path, err = a.cfg.StorePath(); err != nil {
			return nil, err
		}
	}
	return store.Open(ctx, path), nil
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	applyColors(cfg.Render.Colors)

	run := settings.NewCliParams()
	run.MinLogLevel = logger.Level(a.debug, a.verbosity)
	run.ConfigFile = a.configFile
	run.StorePath = a.storePath
	run.NoColor = a.noColor || cfg.Render.NoColor

	lgr := logger.Get(run.MinLogLevel)
	lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())

	a.client = &fetch.Client{
		Timeout:      cfg.Fetch.Timeout,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		UserAgent:    cfg.Fetch.UserAgent,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithLogger(ctx, lgr)
	ctx = settings.IntoContext(ctx, run)
	cmd.SetContext(ctx)
	return nil
}

func applyColors(c config.ColorsConfig) {
	pick := func(s string) color.Color {
		if s == "" {
			return nil
		}
		return lipgloss.Color(s)
	}
	formatter.SetTableTheme(formatter.TableColors{
		HeaderFG:       pick(c.HeaderFG),
		HeaderBG:       pick(c.HeaderBG),
		KeyColor:       pick(c.Key),
		ValueColor:     pick(c.Value),
		SeparatorColor: pick(c.Separator),
		BarColor:       pick(c.Bar),
	})
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   settings.CliBinaryName,
		Short: "Poll JSON APIs and render the fields you pick",
		Long: `jsondash explores JSON documents by path and turns polled APIs into
cards, tables and charts in the terminal.

Paths are dot-separated member names with optional [n] array indices,
for example data.items[0].price.`,
		Example: `  jsondash fields rates.json
  jsondash get https://api.example.com/rates data.rates.INR
  jsondash columns orders.json --path data.items
  jsondash widget add --name FX --url https://api.example.com/rates --field data.rates.INR
  jsondash watch`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return UsageError{Err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config-file", "", "path to a YAML config file (default $XDG_CONFIG_HOME/jsondash/config.yaml)")
	pf.StringVar(&a.storePath, "store", "", "path to the widget store (default from config)")
	pf.BoolVar(&a.debug, "debug", false, "enable debug logging on stderr")
	pf.CountVarP(&a.verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	pf.BoolVar(&a.noColor, "no-color", false, "disable color output")

	root.AddCommand(
		newFieldsCmd(a),
		newArraysCmd(a),
		newColumnsCmd(a),
		newGetCmd(a),
		newInspectCmd(a),
		newPathCmd(a),
		newEvalCmd(a),
		newWidgetCmd(a),
		newRenderCmd(a),
		newWatchCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// addOutputFlag registers -o on fs with the given default.
func addOutputFlag(fs *pflag.FlagSet, target *string, def string) {
	fs.StringVarP(target, "output", "o", def, "output format: table|json|yaml")
}

func versionString() string {
	version := settings.VersionInformation.BuildVersion
	if info, ok := rdebug.ReadBuildInfo(); ok && version == "v0.0.0-nightly" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", settings.CliBinaryName, version,
		settings.VersionInformation.Commit, settings.VersionInformation.BuildTime, runtime.Version())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print jsondash version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
			return nil
		},
	}
}
