package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/FranksOps/jast/internal/storage"
)

func TestPostgresBackend(t *testing.T) {
	// Only run this test if JAST_TEST_PG_DSN is set
	dsn := os.Getenv("JAST_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres backend test: JAST_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	b, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create Postgres backend: %v", err)
	}
	defer b.Close()

	key := storage.KeySearchHistory
	t.Cleanup(func() { _ = b.Delete(context.Background(), key) })

	if err := b.Set(ctx, key, `["a"]`); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	if err := b.Set(ctx, key, `["b","a"]`); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	got, ok, err := b.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Failed to get: ok=%v err=%v", ok, err)
	}
	if got != `["b","a"]` {
		t.Errorf("Expected upserted value, got %q", got)
	}

	if err := b.Delete(ctx, key); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, ok, _ := b.Get(ctx, key); ok {
		t.Error("Expected key to be gone after delete")
	}
}
