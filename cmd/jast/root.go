package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/FranksOps/jast/internal/config"
	"github.com/FranksOps/jast/internal/storage"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// ANSI colors for terminal output
	colorHeader  = color.New(color.FgHiMagenta, color.Bold)
	colorBold    = color.New(color.Bold)
	colorCyan    = color.New(color.FgCyan)
	colorWarning = color.New(color.FgYellow)
	colorError   = color.New(color.FgRed, color.Bold)
)

// app carries what every subcommand needs once the root has run.
type app struct {
	cfgPath string
	cfg     *config.Config
	logger  *slog.Logger
	store   storage.Store
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "jast",
		Short: "Run a site-restricted search for every URL in a spreadsheet",
		Long: `jast reads a column of URLs from an Excel workbook, searches each site for
the same terms through the Google Programmable Search API and writes the
hit counts and snippets back to a new workbook.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "Config file (default: "+config.Dir()+"/jast.yaml)")

	rootCmd.AddCommand(
		newSearchCmd(a),
		newColumnsCmd(a),
		newSettingsCmd(a),
		newHistoryCmd(a),
	)

	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w\n\n%s", err, c.UsageString())
	})
	return rootCmd, a
}

// run executes cmd and closes the store afterwards, whether or not the
// command failed.
func run(ctx context.Context, cmd *cobra.Command, a *app) error {
	err := cmd.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = fmt.Errorf("close store: %w", cerr)
	}
	return err
}

func (a *app) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	a.store = store
	logger.Debug("store opened", "backend", cfg.Store.Backend)
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	lvl, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}
