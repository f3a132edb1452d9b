// Package history keeps the list of previously submitted search queries.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/FranksOps/jast/internal/storage"
)

// Limit is the maximum number of remembered queries.
const Limit = 15

// Add returns list with q moved to the front. Entries equal to q ignoring
// case are removed first, so the casing of the latest submission wins.
// Blank queries leave list unchanged. The result holds at most limit entries.
func Add(list []string, q string, limit int) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return list
	}

	out := make([]string, 0, len(list)+1)
	out = append(out, q)
	for _, item := range list {
		if strings.EqualFold(item, q) {
			continue
		}
		out = append(out, item)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// History is the store-backed query list, most recent first.
type History struct {
	store  storage.Store
	logger *slog.Logger
	mu     sync.Mutex
}

// New returns a History persisted in store under storage.KeySearchHistory.
func New(store storage.Store, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	return &History{store: store, logger: logger}
}

// List returns the remembered queries. A missing or unreadable entry yields
// an empty list.
func (h *History) List(ctx context.Context) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load(ctx)
}

func (h *History) load(ctx context.Context) []string {
	raw, ok, err := h.store.Get(ctx, storage.KeySearchHistory)
	if err != nil {
		h.logger.Warn("reading search history failed", "err", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		h.logger.Warn("discarding malformed search history", "err", err)
		return nil
	}
	return list
}

// Add records q and returns the updated list.
func (h *History) Add(ctx context.Context, q string) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := Add(h.load(ctx), q, Limit)
	data, err := json.Marshal(list)
	if err != nil {
		return list, fmt.Errorf("history: %w", err)
	}
	if err := h.store.Set(ctx, storage.KeySearchHistory, string(data)); err != nil {
		return list, fmt.Errorf("history: %w", err)
	}
	return list, nil
}

// Clear forgets every query.
func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.store.Delete(ctx, storage.KeySearchHistory); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	return nil
}
