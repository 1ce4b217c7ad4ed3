package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"wikibot/internal/config"
	"wikibot/pkg"
)

// FileStore persists conversations as one JSON file, guarded by a mutex.
// Meant for single-process development setups; the redis backend is the
// one safe for multiple replicas.
type FileStore struct {
	mu            sync.Mutex
	path          string
	windowSize    int
	conversations map[string][]pkg.ConversationTurn
}

func NewFileStore(cfg config.MemoryConfig) (*FileStore, error) {
	store := &FileStore{
		path:          cfg.StorageFile,
		windowSize:    cfg.WindowSize,
		conversations: make(map[string][]pkg.ConversationTurn),
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading conversation file: %w", err)
	}
	if err := sonic.Unmarshal(data, &s.conversations); err != nil {
		return fmt.Errorf("error parsing conversation file '%s': %w", s.path, err)
	}
	// A smaller window than the file was written with applies on load.
	for key, turns := range s.conversations {
		s.conversations[key] = trimToWindow(turns, s.windowSize)
	}
	return nil
}

// persist writes the whole map. Caller holds the mutex.
func (s *FileStore) persist() error {
	data, err := sonic.MarshalIndent(s.conversations, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding conversations: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating data directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("error writing conversation file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) AddTurn(_ context.Context, userID, botID string, turn pkg.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := conversationKey(userID, botID)
	turns := append(s.conversations[key], stampTurn(turn, botID))
	s.conversations[key] = trimToWindow(turns, s.windowSize)
	return s.persist()
}

func (s *FileStore) History(_ context.Context, userID, botID string) ([]pkg.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.conversations[conversationKey(userID, botID)]
	out := make([]pkg.ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *FileStore) Clear(_ context.Context, userID, botID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := conversationKey(userID, botID)
	if _, ok := s.conversations[key]; !ok {
		return nil
	}
	delete(s.conversations, key)
	return s.persist()
}

func (s *FileStore) PurgeInactive(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	purged := 0
	for key, turns := range s.conversations {
		if len(turns) == 0 || turns[len(turns)-1].Timestamp.Before(cutoff) {
			delete(s.conversations, key)
			purged++
		}
	}
	if purged == 0 {
		return 0, nil
	}
	return purged, s.persist()
}

func (s *FileStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{Conversations: len(s.conversations)}
	for _, turns := range s.conversations {
		stats.Turns += len(turns)
	}
	return stats, nil
}

func (s *FileStore) Export(_ context.Context) (map[string][]pkg.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]pkg.ConversationTurn, len(s.conversations))
	for key, turns := range s.conversations {
		copied := make([]pkg.ConversationTurn, len(turns))
		copy(copied, turns)
		out[key] = copied
	}
	return out, nil
}
