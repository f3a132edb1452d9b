package storage

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Well-known keys written by the settings and history packages.
const (
	KeyAPIKey        = "googleApiKey"
	KeyCX            = "googleCx"
	KeySnippetCount  = "snippetCount"
	KeySearchHistory = "searchHistory"
)

// ErrInvalidKey is returned for empty or whitespace-only keys.
var ErrInvalidKey = errors.New("storage: invalid key")

// Record is one persisted key-value pair. Append-only backends write one
// Record per change; the last Record for a key wins.
type Record struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Deleted   bool      `json:"deleted,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a persistent string key-value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ValidateKey rejects keys that cannot be stored.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}
