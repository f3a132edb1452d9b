// Package session holds the state of one interactive search session and
// exposes the user-facing actions: load a spreadsheet, pick a sheet and URL
// column, run a search, and export the results.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FranksOps/jast/internal/batch"
	"github.com/FranksOps/jast/internal/export"
	"github.com/FranksOps/jast/internal/extractor"
	"github.com/FranksOps/jast/internal/history"
	"github.com/FranksOps/jast/internal/report"
	"github.com/FranksOps/jast/internal/results"
	"github.com/FranksOps/jast/internal/serp"
	"github.com/FranksOps/jast/internal/settings"
	"github.com/FranksOps/jast/internal/sheet"
	"github.com/FranksOps/jast/internal/storage"
)

var (
	ErrEmptyQuery         = errors.New("please enter a search term")
	ErrNoURLs             = errors.New("no URLs loaded from the spreadsheet")
	ErrMissingCredentials = errors.New("please set your API key and custom search engine ID in settings")
	ErrNoResults          = errors.New("no results to export yet")
	ErrNoWorkbook         = errors.New("no spreadsheet loaded")
)

// ProviderFactory builds the search provider for the current settings.
type ProviderFactory func(settings.Settings) (serp.Provider, error)

// Config provides the collaborators of a Session.
type Config struct {
	Store       storage.Store
	NewProvider ProviderFactory
	// Runner executes searches (nil = a runner with the default 600ms pacing).
	Runner *batch.Runner
	Logger *slog.Logger
	// Now is the clock for banners and filenames (nil = time.Now).
	Now func() time.Time
}

// ColumnOption is one original-sheet column offered in the export dialog.
type ColumnOption struct {
	Index    int
	Label    string
	Selected bool
}

// ExportDialog is what the export action offers before confirmation.
type ExportDialog struct {
	Filename string
	Columns  []ColumnOption
}

// Download is a finished export.
type Download struct {
	Filename string
	Data     []byte
}

// Session is safe for concurrent use. SubmitSearch blocks for the whole run;
// read-only accessors stay available while it runs.
type Session struct {
	store       storage.Store
	history     *history.History
	newProvider ProviderFactory
	runner      *batch.Runner
	logger      *slog.Logger
	now         func() time.Time
	table       *results.Table
	banner      *Banner

	mu        sync.RWMutex
	settings  settings.Settings
	workbook  *sheet.Workbook
	sheetName string
	rows      sheet.Rows
	column    int
	entries   []extractor.Entry
	lastQuery string
	selected  map[int]bool
}

// New creates a session and loads settings from cfg.Store.
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Store == nil {
		return nil, errors.New("session: store is nil")
	}
	if cfg.NewProvider == nil {
		return nil, errors.New("session: provider factory is nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Runner == nil {
		cfg.Runner = batch.NewRunner(batch.Config{Logger: cfg.Logger})
	}

	st, err := settings.Load(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	return &Session{
		store:       cfg.Store,
		history:     history.New(cfg.Store, cfg.Logger),
		newProvider: cfg.NewProvider,
		runner:      cfg.Runner,
		logger:      cfg.Logger,
		now:         cfg.Now,
		table:       results.NewTable(st.SnippetCount),
		banner:      &Banner{},
		settings:    st,
		selected:    make(map[int]bool),
	}, nil
}

// Settings returns the active settings.
func (s *Session) Settings() settings.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SaveSettings persists st and makes it active for the next search.
func (s *Session) SaveSettings(ctx context.Context, st settings.Settings) (settings.Settings, error) {
	saved, err := settings.Save(ctx, s.store, st)
	if err != nil {
		return saved, fmt.Errorf("session: %w", err)
	}
	s.mu.Lock()
	s.settings = saved
	s.mu.Unlock()
	return saved, nil
}

// History returns the remembered queries, most recent first.
func (s *Session) History(ctx context.Context) []string {
	return s.history.List(ctx)
}

// LoadSpreadsheet decodes r, selects its first sheet and column 0 and
// extracts the URL list. On error the previous state is kept.
func (s *Session) LoadSpreadsheet(r io.Reader) error {
	wb, err := sheet.Decode(r)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if len(wb.Names) == 0 {
		return fmt.Errorf("session: %w: workbook has no sheets", sheet.ErrSheetNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIdleLocked(); err != nil {
		return err
	}
	s.workbook = wb
	s.selectLocked(wb.Names[0], 0)
	s.logger.Info("spreadsheet loaded", "sheets", len(wb.Names), "sheet", s.sheetName, "urls", len(s.entries))
	return nil
}

// SheetNames returns the sheets of the loaded workbook in file order.
func (s *Session) SheetNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.workbook == nil {
		return nil
	}
	return append([]string(nil), s.workbook.Names...)
}

// SelectSheet switches to the named sheet and re-extracts with column 0.
func (s *Session) SelectSheet(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workbook == nil {
		return ErrNoWorkbook
	}
	if _, err := s.workbook.Sheet(name); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := s.checkIdleLocked(); err != nil {
		return err
	}
	s.selectLocked(name, 0)
	return nil
}

// SelectColumn re-extracts the URL list from column col of the current sheet.
func (s *Session) SelectColumn(col int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workbook == nil {
		return ErrNoWorkbook
	}
	if _, err := extractor.Extract(s.rows, col); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := s.checkIdleLocked(); err != nil {
		return err
	}
	s.selectLocked(s.sheetName, col)
	return nil
}

// SelectColumnByName selects the first column whose label matches name,
// ignoring case. A label is the header text or "Column N" for blank headers.
func (s *Session) SelectColumnByName(name string) error {
	for i, label := range s.Columns() {
		if strings.EqualFold(label, strings.TrimSpace(name)) {
			return s.SelectColumn(i)
		}
	}
	return fmt.Errorf("session: %w: no column named %q", extractor.ErrColumnOutOfRange, name)
}

func (s *Session) selectLocked(name string, col int) {
	rows, _ := s.workbook.Sheet(name)
	entries, err := extractor.Extract(rows, col)
	if err != nil {
		// An empty sheet simply has nothing to search.
		s.logger.Warn("no URLs extracted", "sheet", name, "column", col, "err", err)
		entries = nil
	}
	s.sheetName = name
	s.rows = rows
	s.column = col
	s.entries = entries
	s.resetResultsLocked()
}

func (s *Session) resetResultsLocked() {
	s.runner.Reset()
	s.table.Reset(s.settings.SnippetCount)
	s.lastQuery = ""
	s.selected = make(map[int]bool)
}

func (s *Session) checkIdleLocked() error {
	if s.runner.State() == batch.StateRunning {
		return batch.ErrAlreadyRunning
	}
	return nil
}

// Selection returns the current sheet name and URL column index.
func (s *Session) Selection() (sheetName string, column int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sheetName, s.column
}

// Columns returns the labels of the current sheet's header row.
func (s *Session) Columns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return columnLabels(s.rows)
}

func columnLabels(rows sheet.Rows) []string {
	if len(rows) == 0 {
		return nil
	}
	labels := make([]string, len(rows[0]))
	for i := range rows[0] {
		labels[i] = export.ColumnLabel(rows, i)
	}
	return labels
}

// Entries returns the extracted URL list.
func (s *Session) Entries() []extractor.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]extractor.Entry(nil), s.entries...)
}

// Table returns the results table. It is filled in place while a search runs.
func (s *Session) Table() *results.Table {
	return s.table
}

// State returns the batch state.
func (s *Session) State() batch.State {
	return s.runner.State()
}

// Banner returns the rate-limit warning banner.
func (s *Session) Banner() *Banner {
	return s.banner
}

// SubmitSearch validates the query, remembers it and runs one search per
// extracted URL. Guard failures return before any state changes. l may be nil.
func (s *Session) SubmitSearch(ctx context.Context, query string, l batch.Listener) (report.Summary, error) {
	query = strings.TrimSpace(query)

	// The runner is claimed under s.mu so no other action can change the
	// entries or start a run between the guards and the claim.
	s.mu.Lock()
	entries := append([]extractor.Entry(nil), s.entries...)
	st := s.settings
	var err error
	switch {
	case query == "":
		err = ErrEmptyQuery
	case len(entries) == 0:
		err = ErrNoURLs
	case !st.HasCredentials():
		err = ErrMissingCredentials
	default:
		err = s.runner.TryStart()
	}
	s.mu.Unlock()
	if err != nil {
		return report.Summary{}, err
	}

	provider, err := s.newProvider(st)
	if err != nil {
		s.runner.Release()
		return report.Summary{}, fmt.Errorf("session: %w", err)
	}

	if _, err := s.history.Add(ctx, query); err != nil {
		s.logger.Warn("saving search history failed", "err", err)
	}

	s.mu.Lock()
	s.lastQuery = query
	s.selected = make(map[int]bool)
	s.mu.Unlock()

	job := batch.Job{
		Query:        query,
		Entries:      entries,
		SnippetCount: st.SnippetCount,
		Provider:     provider,
	}
	return s.runner.RunStarted(ctx, job, s.table, &bannerListener{next: l, banner: s.banner, now: s.now})
}

// bannerListener raises the rate-limit banner before forwarding events.
type bannerListener struct {
	next   batch.Listener
	banner *Banner
	now    func() time.Time
}

func (b *bannerListener) RowAppended(row results.Row, p batch.Progress) {
	if b.next != nil {
		b.next.RowAppended(row, p)
	}
}

func (b *bannerListener) RateLimited(row results.Row) {
	b.banner.Show(RateLimitMessage, b.now())
	if b.next != nil {
		b.next.RateLimited(row)
	}
}

// OpenExportDialog proposes a filename and lists the original-sheet columns
// that may be added to the export, all unselected.
func (s *Session) OpenExportDialog() (ExportDialog, error) {
	if s.runner.State() != batch.StateCompleted {
		return ExportDialog{}, ErrNoResults
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[int]bool)
	return ExportDialog{
		Filename: export.DefaultFilename(s.lastQuery, s.now()),
		Columns:  s.columnOptionsLocked(),
	}, nil
}

func (s *Session) columnOptionsLocked() []ColumnOption {
	labels := columnLabels(s.rows)
	opts := make([]ColumnOption, len(labels))
	for i, label := range labels {
		opts[i] = ColumnOption{Index: i, Label: label, Selected: s.selected[i]}
	}
	return opts
}

// ToggleExportColumn flips whether column idx is included in the export and
// returns the new state.
func (s *Session) ToggleExportColumn(idx int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rows) == 0 || idx < 0 || idx >= len(s.rows[0]) {
		return false, fmt.Errorf("session: %w: %d", extractor.ErrColumnOutOfRange, idx)
	}
	s.selected[idx] = !s.selected[idx]
	if !s.selected[idx] {
		delete(s.selected, idx)
	}
	return s.selected[idx], nil
}

// ExportColumns returns the selected column indexes in ascending order.
func (s *Session) ExportColumns() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exportColumnsLocked()
}

func (s *Session) exportColumnsLocked() []int {
	out := make([]int, 0, len(s.selected))
	for i := range s.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// ConfirmExport renders the results and selected columns as an xlsx file.
// An empty filename falls back to export.FallbackName.
func (s *Session) ConfirmExport(filename string) (*Download, error) {
	if s.runner.State() != batch.StateCompleted {
		return nil, ErrNoResults
	}

	s.mu.RLock()
	opts := export.Options{
		Query:    s.lastQuery,
		Original: s.rows,
		Selected: s.exportColumnsLocked(),
	}
	s.mu.RUnlock()

	doc := export.Build(s.table, opts)
	var buf bytes.Buffer
	if err := sheet.Encode(&buf, doc); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	name := export.NormalizeFilename(filename)
	s.logger.Info("results exported", "file", name, "rows", len(doc.Rows)-2, "extra_columns", len(opts.Selected))
	return &Download{Filename: name, Data: buf.Bytes()}, nil
}

// Reset returns the session to Idle and clears the results table.
// The loaded workbook and URL list are kept.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIdleLocked(); err != nil {
		return err
	}
	s.resetResultsLocked()
	return nil
}
