package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/lead-capture-api/internal/domain"
)

// File keeps every record in one JSON document that is rewritten on each Save.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a file backend at path. The file and its directory are
// created on the first Save.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string { return "file" }

func (f *File) Load(_ context.Context, email string) (*domain.PendingRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs, err := f.read()
	if err != nil {
		return nil, err
	}
	rec, ok := recs[email]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *File) Save(_ context.Context, rec *domain.PendingRegistration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs, err := f.read()
	if err != nil {
		return err
	}
	recs[rec.Email] = *rec

	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pending file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return classify(err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return classify(err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return classify(err)
	}
	return nil
}

// read returns the stored map. A missing or corrupt document reads as empty.
func (f *File) read() (map[string]domain.PendingRegistration, error) {
	recs := make(map[string]domain.PendingRegistration)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return recs, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	if err := json.Unmarshal(data, &recs); err != nil {
		slog.Warn("pending file unreadable, treating as empty", "path", f.path, "err", err)
		return make(map[string]domain.PendingRegistration), nil
	}
	return recs, nil
}

// classify marks permission and read-only filesystem errors as ErrUnavailable.
func classify(err error) error {
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EROFS) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
