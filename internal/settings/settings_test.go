package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/FranksOps/jast/internal/storage"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(context.Background(), storage.NewMemory())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.APIKey != "" || s.CX != DefaultCX || s.SnippetCount != 5 {
		t.Errorf("unexpected defaults %+v", s)
	}
	if s.HasCredentials() {
		t.Error("expected no credentials without an API key")
	}
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()

	saved, err := Save(ctx, store, Settings{APIKey: "  key-123  ", CX: " cx-9 ", SnippetCount: 0})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.APIKey != "key-123" || saved.CX != "cx-9" {
		t.Errorf("expected trimmed values, got %+v", saved)
	}

	got, err := Load(ctx, store)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != saved {
		t.Errorf("expected %+v, got %+v", saved, got)
	}
	if !got.HasCredentials() {
		t.Error("expected credentials to be present")
	}
}

func TestLoad_EmptyCXFallsBack(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	_ = store.Set(ctx, storage.KeyCX, "")
	_ = store.Set(ctx, storage.KeySnippetCount, "lots")

	s, err := Load(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	if s.CX != DefaultCX {
		t.Errorf("expected default cx, got %q", s.CX)
	}
	if s.SnippetCount != DefaultSnippetCount {
		t.Errorf("expected default snippet count, got %d", s.SnippetCount)
	}
}

func TestParseSnippetCount(t *testing.T) {
	tests := map[string]int{
		"3":   3,
		" 7 ": 7,
		"0":   0,
		"-1":  5,
		"":    5,
		"x":   5,
	}
	for in, want := range tests {
		if got := ParseSnippetCount(in); got != want {
			t.Errorf("ParseSnippetCount(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestRedacted(t *testing.T) {
	if got := (Settings{APIKey: "abcdefgh"}).Redacted(); got != "****efgh" {
		t.Errorf("unexpected redaction %q", got)
	}
	if got := (Settings{APIKey: "abc"}).Redacted(); got != "***" {
		t.Errorf("unexpected redaction %q", got)
	}
}

type failingStore struct{ storage.Store }

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk gone")
}

func TestLoad_StoreError(t *testing.T) {
	if _, err := Load(context.Background(), failingStore{}); err == nil {
		t.Error("expected store error to propagate")
	}
}
