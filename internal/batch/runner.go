package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/FranksOps/jast/internal/extractor"
	"github.com/FranksOps/jast/internal/metrics"
	"github.com/FranksOps/jast/internal/report"
	"github.com/FranksOps/jast/internal/results"
	"github.com/FranksOps/jast/internal/serp"
	"github.com/FranksOps/jast/pkg/ratelimit"
	"github.com/google/uuid"
)

// ErrAlreadyRunning is returned when Run is called while another run is executing.
var ErrAlreadyRunning = errors.New("batch: a run is already in progress")

// State is the lifecycle position of a Runner.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Progress counts finished items against the planned total.
type Progress struct {
	Completed int
	Total     int
}

func (p Progress) String() string {
	return fmt.Sprintf("%d / %d", p.Completed, p.Total)
}

// Fraction returns Completed/Total in [0,1]; an empty run reports 0.
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// Listener observes a run. Calls are made synchronously from the run loop, in order.
type Listener interface {
	// RowAppended fires once per item after its row has been appended to the table.
	RowAppended(row results.Row, p Progress)
	// RateLimited fires once per item the provider rejected with HTTP 429,
	// before the corresponding RowAppended.
	RateLimited(row results.Row)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnRow         func(row results.Row, p Progress)
	OnRateLimited func(row results.Row)
}

func (f ListenerFuncs) RowAppended(row results.Row, p Progress) {
	if f.OnRow != nil {
		f.OnRow(row, p)
	}
}

func (f ListenerFuncs) RateLimited(row results.Row) {
	if f.OnRateLimited != nil {
		f.OnRateLimited(row)
	}
}

// Job is everything a single run needs.
type Job struct {
	Query        string
	Entries      []extractor.Entry
	SnippetCount int
	Provider     serp.Provider
}

// Config provides the collaborators of a Runner.
type Config struct {
	// Pacer is waited on before every request, including the first
	// (nil = ratelimit.DefaultInterval).
	Pacer  ratelimit.Waiter
	Logger *slog.Logger
	// Now is the clock used for timings (nil = time.Now).
	Now func() time.Time
}

// Runner issues one search per entry, strictly in order and one at a time.
// A failed item becomes a failure row; it never stops the run.
type Runner struct {
	pacer  ratelimit.Waiter
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	state State
	// prev is the state to restore when a claimed run never starts.
	prev State
}

// NewRunner creates an idle Runner.
func NewRunner(cfg Config) *Runner {
	if cfg.Pacer == nil {
		cfg.Pacer = ratelimit.NewLimiter(ratelimit.DefaultInterval, 0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		pacer:  cfg.Pacer,
		logger: cfg.Logger,
		now:    cfg.Now,
	}
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Reset returns a finished runner to Idle. It has no effect while running.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRunning {
		r.state = StateIdle
	}
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// TryStart claims the runner for a run that RunStarted will execute.
// It returns ErrAlreadyRunning when a run is in progress.
func (r *Runner) TryStart() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRunning {
		return ErrAlreadyRunning
	}
	r.prev = r.state
	r.state = StateRunning
	return nil
}

// Release gives up a claim taken by TryStart whose run was never started,
// restoring the state held before the claim.
func (r *Runner) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRunning {
		r.state = r.prev
	}
}

// Run resets table to job.SnippetCount columns and fills it with one row per
// entry. If ctx is canceled the loop stops between items, rows already
// appended are kept, the runner goes back to Idle and ctx.Err() is returned.
func (r *Runner) Run(ctx context.Context, job Job, table *results.Table, l Listener) (report.Summary, error) {
	if err := validate(job, table); err != nil {
		return report.Summary{}, err
	}
	if err := r.TryStart(); err != nil {
		return report.Summary{}, err
	}
	return r.run(ctx, job, table, l)
}

// RunStarted is Run for a runner already claimed with TryStart. On an
// invalid job the claim is released.
func (r *Runner) RunStarted(ctx context.Context, job Job, table *results.Table, l Listener) (report.Summary, error) {
	if r.State() != StateRunning {
		return report.Summary{}, errors.New("batch: run was not started")
	}
	if err := validate(job, table); err != nil {
		r.Release()
		return report.Summary{}, err
	}
	return r.run(ctx, job, table, l)
}

func validate(job Job, table *results.Table) error {
	if job.Provider == nil {
		return errors.New("batch: provider is nil")
	}
	if table == nil {
		return errors.New("batch: table is nil")
	}
	return nil
}

func (r *Runner) run(ctx context.Context, job Job, table *results.Table, l Listener) (report.Summary, error) {
	if l == nil {
		l = ListenerFuncs{}
	}

	metrics.BatchInProgress.Set(1)
	defer metrics.BatchInProgress.Set(0)

	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)
	table.Reset(job.SnippetCount)

	start := r.now()
	total := len(job.Entries)
	logger.Info("batch run started", "query", job.Query, "urls", total)

	for i, entry := range job.Entries {
		logger.Debug("pacing", "url", entry.Host, "index", i)
		if err := r.pacer.Wait(ctx); err != nil {
			return r.abort(logger, runID, job, table, start, err)
		}

		row, aborted := r.searchOne(ctx, logger, job, entry)
		if aborted {
			return r.abort(logger, runID, job, table, start, ctx.Err())
		}

		if row.RateLimited {
			l.RateLimited(row)
		}
		table.Append(row)
		l.RowAppended(row, Progress{Completed: i + 1, Total: total})
	}

	r.setState(StateCompleted)
	metrics.BatchRunsTotal.WithLabelValues(StateCompleted.String()).Inc()

	summary := report.GenerateSummary(runID, job.Query, total, table.Rows(), start, r.now())
	logger.Info("batch run completed",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"rate_limited", summary.RateLimited,
		"duration", summary.Duration,
	)
	return summary, nil
}

// searchOne performs the request for a single entry. aborted is true only
// when the failure was caused by ctx being canceled.
func (r *Runner) searchOne(ctx context.Context, logger *slog.Logger, job Job, entry extractor.Entry) (row results.Row, aborted bool) {
	row = results.Row{URL: entry.Host, SourceRow: entry.Row}

	logger.Debug("searching", "url", entry.Host)
	reqStart := r.now()
	resp, err := job.Provider.Search(ctx, serp.Query{Terms: job.Query, Site: entry.Host})
	elapsed := r.now().Sub(reqStart)

	switch {
	case err != nil && ctx.Err() != nil:
		return row, true
	case errors.Is(err, serp.ErrRateLimited):
		row.Failed = true
		row.RateLimited = true
		row.Err = err.Error()
		metrics.RecordSearch(metrics.OutcomeRateLimited, elapsed, 0)
		logger.Warn("search rate limited", "url", entry.Host)
	case err != nil:
		row.Failed = true
		row.Err = err.Error()
		metrics.RecordSearch(metrics.OutcomeFailed, elapsed, 0)
		logger.Error("search failed", "url", entry.Host, "err", err)
	case resp == nil:
		row.Failed = true
		row.Err = "empty response"
		metrics.RecordSearch(metrics.OutcomeFailed, elapsed, 0)
		logger.Error("search returned no response", "url", entry.Host)
	default:
		row.TotalResults = resp.TotalResults
		row.Snippets = resp.Items
		if n := job.SnippetCount; len(row.Snippets) > n {
			row.Snippets = row.Snippets[:max(n, 0)]
		}
		metrics.RecordSearch(metrics.OutcomeSucceeded, elapsed, resp.TotalResults)
	}
	return row, false
}

func (r *Runner) abort(logger *slog.Logger, runID string, job Job, table *results.Table, start time.Time, cause error) (report.Summary, error) {
	r.setState(StateIdle)
	metrics.BatchRunsTotal.WithLabelValues("canceled").Inc()

	summary := report.GenerateSummary(runID, job.Query, len(job.Entries), table.Rows(), start, r.now())
	logger.Warn("batch run canceled", "completed", summary.Completed, "planned", summary.Planned, "err", cause)
	return summary, fmt.Errorf("batch: run canceled: %w", cause)
}
