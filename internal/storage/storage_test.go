package storage

import (
	"context"
	"errors"
	"testing"
)

func TestValidateKey(t *testing.T) {
	if err := ValidateKey(KeyAPIKey); err != nil {
		t.Errorf("unexpected error for %q: %v", KeyAPIKey, err)
	}
	for _, k := range []string{"", "   ", "\t"} {
		if err := ValidateKey(k); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("expected ErrInvalidKey for %q, got %v", k, err)
		}
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if _, ok, err := s.Get(ctx, KeyCX); ok || err != nil {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, KeyCX, "abc"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := s.Get(ctx, KeyCX); !ok || v != "abc" {
		t.Errorf("expected abc, got %q ok=%v", v, ok)
	}
	if err := s.Delete(ctx, KeyCX); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, KeyCX); ok {
		t.Error("expected key to be gone after delete")
	}
	if err := s.Set(ctx, " ", "x"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}
