package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/FranksOps/jast/internal/storage"
)

func TestSQLiteBackend(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "jast.db")
	b, err := New(dsn)
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}

	ctx := context.Background()

	if _, ok, err := b.Get(ctx, storage.KeyAPIKey); err != nil || ok {
		t.Fatalf("Expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := b.Set(ctx, storage.KeyAPIKey, "secret"); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	if err := b.Set(ctx, storage.KeyAPIKey, "rotated"); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	got, ok, err := b.Get(ctx, storage.KeyAPIKey)
	if err != nil || !ok {
		t.Fatalf("Failed to get: ok=%v err=%v", ok, err)
	}
	if got != "rotated" {
		t.Errorf("Expected rotated, got %q", got)
	}

	if err := b.Delete(ctx, storage.KeyAPIKey); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, ok, _ := b.Get(ctx, storage.KeyAPIKey); ok {
		t.Error("Expected key to be gone after delete")
	}
	// Deleting a missing key is not an error.
	if err := b.Delete(ctx, storage.KeyAPIKey); err != nil {
		t.Errorf("Expected no error deleting missing key, got %v", err)
	}

	if err := b.Set(ctx, storage.KeyCX, "cx-1"); err != nil {
		t.Fatalf("Failed to set cx: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	b, err = New(dsn)
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	defer b.Close()
	if got, ok, _ := b.Get(ctx, storage.KeyCX); !ok || got != "cx-1" {
		t.Errorf("Expected cx-1 after reopen, got %q ok=%v", got, ok)
	}

	if _, _, err := b.Get(ctx, ""); !errors.Is(err, storage.ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}
}
