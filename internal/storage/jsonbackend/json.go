package jsonbackend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/FranksOps/jast/internal/storage"
)

// ensure jsonBackend implements storage.Store
var _ storage.Store = (*jsonBackend)(nil)

// jsonBackend is an append-only NDJSON log of storage.Records.
type jsonBackend struct {
	mu   sync.Mutex
	file *os.File
}

// New creates a new NDJSON-backed storage.Store, creating parent directories as needed.
func New(filePath string) (storage.Store, error) {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("jsonbackend: %w", err)
		}
	}
	// Open file for appending, create if it doesn't exist
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("jsonbackend: %w", err)
	}

	return &jsonBackend{file: f}, nil
}

func (b *jsonBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return "", false, fmt.Errorf("jsonbackend: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	scanner := bufio.NewScanner(b.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)

	// The log is replayed front to back; the last record for key wins.
	var (
		value string
		found bool
	)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var r storage.Record
		if err := json.Unmarshal(line, &r); err != nil {
			return "", false, fmt.Errorf("jsonbackend: %w", err)
		}
		if r.Key != key {
			continue
		}
		value, found = r.Value, !r.Deleted
	}

	if err := scanner.Err(); err != nil {
		return "", false, fmt.Errorf("jsonbackend: %w", err)
	}
	if !found {
		return "", false, nil
	}
	return value, true, nil
}

func (b *jsonBackend) Set(ctx context.Context, key, value string) error {
	return b.append(storage.Record{Key: key, Value: value, UpdatedAt: time.Now().UTC()})
}

func (b *jsonBackend) Delete(ctx context.Context, key string) error {
	return b.append(storage.Record{Key: key, Deleted: true, UpdatedAt: time.Now().UTC()})
}

func (b *jsonBackend) append(r storage.Record) error {
	if err := storage.ValidateKey(r.Key); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("jsonbackend: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("jsonbackend: %w", err)
	}
	return nil
}

func (b *jsonBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
