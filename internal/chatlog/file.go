package chatlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"wikibot/internal/config"
	"wikibot/pkg"
)

// FileRecorder keeps the log in one JSON file behind a mutex, oldest
// entry first on disk.
type FileRecorder struct {
	mu         sync.Mutex
	path       string
	maxEntries int
	entries    []pkg.ChatLogEntry
}

func NewFileRecorder(cfg config.ChatLogConfig) (*FileRecorder, error) {
	recorder := &FileRecorder{path: cfg.StorageFile, maxEntries: cfg.MaxEntries}
	if err := recorder.load(); err != nil {
		return nil, err
	}
	return recorder, nil
}

func (r *FileRecorder) load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading chat log: %w", err)
	}
	if err := sonic.Unmarshal(data, &r.entries); err != nil {
		return fmt.Errorf("error parsing chat log '%s': %w", r.path, err)
	}
	if r.maxEntries > 0 && len(r.entries) > r.maxEntries {
		r.entries = r.entries[len(r.entries)-r.maxEntries:]
	}
	return nil
}

func (r *FileRecorder) persist() error {
	data, err := sonic.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding chat log: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating data directory: %w", err)
		}
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("error writing chat log: %w", err)
	}
	return os.Rename(tmp, r.path)
}

func (r *FileRecorder) Record(_ context.Context, entry pkg.ChatLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	if r.maxEntries > 0 && len(r.entries) > r.maxEntries {
		r.entries = r.entries[len(r.entries)-r.maxEntries:]
	}
	return r.persist()
}

func (r *FileRecorder) Recent(_ context.Context, limit int) ([]pkg.ChatLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.entries) {
		limit = len(r.entries)
	}
	out := make([]pkg.ChatLogEntry, 0, limit)
	for i := len(r.entries) - 1; i >= len(r.entries)-limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

func (r *FileRecorder) Stats(_ context.Context) (UsageStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return aggregate(r.entries), nil
}
