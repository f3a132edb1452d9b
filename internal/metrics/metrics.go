package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for SearchRequestsTotal.
const (
	OutcomeSucceeded   = "succeeded"
	OutcomeFailed      = "failed"
	OutcomeRateLimited = "rate_limited"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jast_search_requests_total",
			Help: "Total number of site-restricted search requests executed",
		},
		[]string{"outcome"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jast_search_duration_seconds",
			Help:    "Duration of search API requests in seconds, excluding pacing",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	SearchResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jast_search_results_total",
			Help: "Sum of total-result estimates returned by successful searches",
		},
	)

	BatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jast_batch_runs_total",
			Help: "Batch runs by final state",
		},
		[]string{"state"},
	)

	BatchInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jast_batch_in_progress",
			Help: "1 while a batch run is executing",
		},
	)
)

// RecordSearch updates the per-request metrics.
func RecordSearch(outcome string, d time.Duration, totalResults int64) {
	SearchRequestsTotal.WithLabelValues(outcome).Inc()
	SearchDuration.Observe(d.Seconds())
	if outcome == OutcomeSucceeded && totalResults > 0 {
		SearchResultsTotal.Add(float64(totalResults))
	}
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "port", port, "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
