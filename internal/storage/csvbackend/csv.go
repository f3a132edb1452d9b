package csvbackend

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/FranksOps/jast/internal/storage"
)

// ensure csvBackend implements storage.Store
var _ storage.Store = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order
var headers = []string{
	"key",
	"value",
	"deleted",
	"updated_at",
}

// New creates a new CSV-backed storage.Store. Every Set or Delete appends
// one line; reads replay the file and keep the last line per key.
func New(filePath string) (storage.Store, error) {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("csvbackend: %w", err)
		}
	}
	// Open file for appending, create if it doesn't exist
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("csvbackend: %w", err)
	}

	// Check if file is empty to write headers
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csvbackend: %w", err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("csvbackend: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("csvbackend: %w", err)
		}
	}

	return &csvBackend{
		file: f,
	}, nil
}

func (b *csvBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return "", false, fmt.Errorf("csvbackend: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)
	r.FieldsPerRecord = len(headers)

	// Skip header
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("csvbackend: %w", err)
	}

	var (
		value string
		found bool
	)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", false, fmt.Errorf("csvbackend: %w", err)
		}
		if record[0] != key {
			continue
		}
		deleted, err := strconv.ParseBool(record[2])
		if err != nil {
			return "", false, fmt.Errorf("csvbackend: %w", err)
		}
		value, found = record[1], !deleted
	}

	if !found {
		return "", false, nil
	}
	return value, true, nil
}

func (b *csvBackend) Set(ctx context.Context, key, value string) error {
	return b.append(storage.Record{Key: key, Value: value, UpdatedAt: time.Now().UTC()})
}

func (b *csvBackend) Delete(ctx context.Context, key string) error {
	return b.append(storage.Record{Key: key, Deleted: true, UpdatedAt: time.Now().UTC()})
}

func (b *csvBackend) append(rec storage.Record) error {
	if err := storage.ValidateKey(rec.Key); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	w := csv.NewWriter(b.file)
	err := w.Write([]string{
		rec.Key,
		rec.Value,
		strconv.FormatBool(rec.Deleted),
		rec.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("csvbackend: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csvbackend: %w", err)
	}
	return nil
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
