package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/FranksOps/jast/internal/batch"
	"github.com/FranksOps/jast/internal/metrics"
	"github.com/FranksOps/jast/internal/report"
	"github.com/FranksOps/jast/internal/results"
	"github.com/FranksOps/jast/internal/session"
	"github.com/FranksOps/jast/pkg/ratelimit"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const maxCellWidth = 60

type searchOptions struct {
	query         string
	sheet         string
	column        string
	export        bool
	output        string
	outDir        string
	exportColumns []string
	summary       string
	table         bool
}

func newSearchCmd(a *app) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <input.xlsx>",
		Short: "Search every URL of a spreadsheet column for the given terms",
		Example: `  jast search sites.xlsx -q "net zero" --column Website --export
  jast search sites.xlsx -q "net zero" --sheet Leads --column 2 -o report --export-columns Company,Country`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), a, opts, args[0], cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.query, "query", "q", "", "Search terms")
	f.StringVar(&opts.sheet, "sheet", "", "Sheet to read (default: first sheet)")
	f.StringVarP(&opts.column, "column", "c", "", "URL column as 0-based index or header label (default: 0)")
	f.BoolVar(&opts.export, "export", false, "Write the results to an xlsx file")
	f.StringVarP(&opts.output, "output", "o", "", "Export filename (implies --export; default: Jast_Result_<time>_<query>.xlsx)")
	f.StringVar(&opts.outDir, "out-dir", ".", "Directory for the export file")
	f.StringSliceVar(&opts.exportColumns, "export-columns", nil, "Original columns to copy into the export, by index or label")
	f.StringVar(&opts.summary, "summary", "text", "Run summary format: text, json or none")
	f.BoolVar(&opts.table, "table", true, "Print the results table")

	return cmd
}

func newSession(ctx context.Context, a *app) (*session.Session, error) {
	factory, err := providerFactory(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	runner := batch.NewRunner(batch.Config{
		Pacer:  ratelimit.NewLimiter(a.cfg.Search.Pacing, a.cfg.Search.Jitter),
		Logger: a.logger,
	})
	return session.New(ctx, session.Config{
		Store:       a.store,
		NewProvider: factory,
		Runner:      runner,
		Logger:      a.logger,
	})
}

func loadWorkbook(sess *session.Session, path, sheetName, column string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	if err := sess.LoadSpreadsheet(f); err != nil {
		return err
	}
	if sheetName != "" {
		if err := sess.SelectSheet(sheetName); err != nil {
			return err
		}
	}
	if column == "" {
		return nil
	}
	if idx, err := strconv.Atoi(column); err == nil {
		return sess.SelectColumn(idx)
	}
	return sess.SelectColumnByName(column)
}

func runSearch(ctx context.Context, a *app, opts *searchOptions, path string, out io.Writer) error {
	switch opts.summary {
	case "text", "json", "none":
	default:
		return fmt.Errorf("invalid summary format: %s (must be text, json or none)", opts.summary)
	}

	sess, err := newSession(ctx, a)
	if err != nil {
		return err
	}
	if err := loadWorkbook(sess, path, opts.sheet, opts.column); err != nil {
		return err
	}

	sheetName, col := sess.Selection()
	colorBold.Fprintf(out, "Loaded %d URLs from %s (sheet %q, column %d)\n",
		len(sess.Entries()), filepath.Base(path), sheetName, col)

	if a.cfg.Metrics.Port > 0 {
		srv := metrics.Start(a.cfg.Metrics.Port, a.logger)
		defer srv.Stop(context.Background())
	}

	events := make(chan progressEvent, 16)
	listener := batch.ListenerFuncs{
		OnRow: func(row results.Row, p batch.Progress) {
			events <- progressEvent{row: row, progress: p}
		},
		OnRateLimited: func(row results.Row) {
			events <- progressEvent{row: row, rateLimited: true}
		},
	}

	var summary report.Summary
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		s, err := sess.SubmitSearch(gCtx, opts.query, listener)
		summary = s
		return err
	})
	g.Go(func() error {
		renderProgress(out, sess.Banner(), events)
		return nil
	})
	runErr := g.Wait()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if opts.table {
		renderTable(out, sess.Table())
	}
	if err := writeSummary(out, opts.summary, summary); err != nil {
		return err
	}
	if runErr != nil {
		// Interrupted: partial rows were printed, nothing to export.
		return runErr
	}

	if opts.export || opts.output != "" {
		file, err := exportResults(sess, opts)
		if err != nil {
			return err
		}
		colorHeader.Fprintf(out, "Exported results to %s\n", file)
	}
	return nil
}

type progressEvent struct {
	row         results.Row
	progress    batch.Progress
	rateLimited bool
}

func renderProgress(out io.Writer, banner *session.Banner, events <-chan progressEvent) {
	for ev := range events {
		if ev.rateLimited {
			if msg, ok := banner.Active(time.Now()); ok {
				colorWarning.Fprintf(out, "! %s\n", msg)
			}
			continue
		}
		status := strconv.FormatInt(ev.row.TotalResults, 10) + " results"
		if ev.row.Failed {
			status = results.FailureText
		}
		colorCyan.Fprintf(out, "[%s] ", ev.progress)
		fmt.Fprintf(out, "%s  %s\n", ev.row.URL, status)
	}
}

func renderTable(out io.Writer, table *results.Table) {
	matrix := table.Matrix()
	if len(matrix) <= 1 {
		return
	}
	colorHeader.Fprintln(out, "\nResults")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, row := range matrix {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = truncate(c, maxCellWidth)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
	fmt.Fprintln(out)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func writeSummary(out io.Writer, format string, s report.Summary) error {
	switch format {
	case "json":
		return report.WriteJSON(out, s)
	case "text":
		return report.WriteText(out, s)
	}
	return nil
}

func exportResults(sess *session.Session, opts *searchOptions) (string, error) {
	dlg, err := sess.OpenExportDialog()
	if err != nil {
		return "", err
	}

	labels := make([]string, len(dlg.Columns))
	for i, c := range dlg.Columns {
		labels[i] = c.Label
	}
	seen := make(map[int]bool)
	for _, spec := range opts.exportColumns {
		idx, err := resolveColumn(labels, spec)
		if err != nil {
			return "", err
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		if _, err := sess.ToggleExportColumn(idx); err != nil {
			return "", err
		}
	}

	name := opts.output
	if name == "" {
		name = dlg.Filename
	}
	dl, err := sess.ConfirmExport(name)
	if err != nil {
		return "", err
	}

	path := dl.Filename
	if !filepath.IsAbs(path) {
		path = filepath.Join(opts.outDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, dl.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

// resolveColumn accepts a 0-based index or a label (case-insensitive).
func resolveColumn(labels []string, spec string) (int, error) {
	spec = strings.TrimSpace(spec)
	if idx, err := strconv.Atoi(spec); err == nil {
		if idx < 0 || idx >= len(labels) {
			return 0, fmt.Errorf("column %d out of range (sheet has %d columns)", idx, len(labels))
		}
		return idx, nil
	}
	for i, l := range labels {
		if strings.EqualFold(l, spec) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no column named %q", spec)
}
