// Package settings persists the search API credentials and snippet column count.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/FranksOps/jast/internal/storage"
)

const (
	// DefaultCX is the search engine ID used until one is saved.
	DefaultCX           = "4aee28d38fc98c487"
	DefaultSnippetCount = 5
)

// Settings are process-wide and change only through Save.
type Settings struct {
	APIKey       string
	CX           string
	SnippetCount int
}

// Defaults returns the settings of a fresh install.
func Defaults() Settings {
	return Settings{CX: DefaultCX, SnippetCount: DefaultSnippetCount}
}

// HasCredentials reports whether both the API key and the engine ID are set.
func (s Settings) HasCredentials() bool {
	return s.APIKey != "" && s.CX != ""
}

// Redacted returns the API key masked for display.
func (s Settings) Redacted() string {
	switch n := len(s.APIKey); {
	case n == 0:
		return ""
	case n <= 4:
		return strings.Repeat("*", n)
	default:
		return strings.Repeat("*", n-4) + s.APIKey[n-4:]
	}
}

// Load reads settings from store. A missing cx falls back to DefaultCX and a
// missing, negative or unparsable snippet count falls back to DefaultSnippetCount.
func Load(ctx context.Context, store storage.Store) (Settings, error) {
	s := Defaults()

	key, _, err := store.Get(ctx, storage.KeyAPIKey)
	if err != nil {
		return s, fmt.Errorf("settings: load api key: %w", err)
	}
	s.APIKey = key

	if cx, ok, err := store.Get(ctx, storage.KeyCX); err != nil {
		return s, fmt.Errorf("settings: load cx: %w", err)
	} else if ok && cx != "" {
		s.CX = cx
	}

	raw, ok, err := store.Get(ctx, storage.KeySnippetCount)
	if err != nil {
		return s, fmt.Errorf("settings: load snippet count: %w", err)
	}
	if ok {
		s.SnippetCount = ParseSnippetCount(raw)
	}
	return s, nil
}

// ParseSnippetCount parses raw as a non-negative integer, returning
// DefaultSnippetCount for anything else.
func ParseSnippetCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return DefaultSnippetCount
	}
	return n
}

// Save trims the credentials and writes all three values to store.
// It returns the settings as stored.
func Save(ctx context.Context, store storage.Store, s Settings) (Settings, error) {
	s.APIKey = strings.TrimSpace(s.APIKey)
	s.CX = strings.TrimSpace(s.CX)
	if s.SnippetCount < 0 {
		s.SnippetCount = DefaultSnippetCount
	}

	if err := store.Set(ctx, storage.KeyAPIKey, s.APIKey); err != nil {
		return s, fmt.Errorf("settings: save api key: %w", err)
	}
	if err := store.Set(ctx, storage.KeyCX, s.CX); err != nil {
		return s, fmt.Errorf("settings: save cx: %w", err)
	}
	if err := store.Set(ctx, storage.KeySnippetCount, strconv.Itoa(s.SnippetCount)); err != nil {
		return s, fmt.Errorf("settings: save snippet count: %w", err)
	}
	return s, nil
}
