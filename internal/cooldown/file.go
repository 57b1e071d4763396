package cooldown

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FileStore persists last-sent timestamps to a JSON file as {key: unix seconds}
type FileStore struct {
	mu       sync.RWMutex
	filepath string
	sent     map[string]int64
	logger   zerolog.Logger
}

// NewFileStore creates a file store, loading existing entries
func NewFileStore(path string, logger zerolog.Logger) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	fs := &FileStore{
		filepath: path,
		sent:     make(map[string]int64),
		logger:   logger.With().Str("component", "cooldown").Logger(),
	}

	if err := fs.load(); err != nil && !os.IsNotExist(err) {
		// 손상된 파일이면 새로 시작
		fs.logger.Warn().Err(err).Str("path", path).Msg("could not load sent signals, starting fresh")
		fs.sent = make(map[string]int64)
	}

	fs.logger.Info().Int("entries", len(fs.sent)).Str("path", path).Msg("file cooldown store loaded")
	return fs, nil
}

// LastSent returns the last dispatch time for key
func (fs *FileStore) LastSent(_ context.Context, key string) (time.Time, bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	ts, ok := fs.sent[key]
	if !ok {
		return time.Time{}, false, nil
	}
	return time.Unix(ts, 0), true, nil
}

// MarkSent records the dispatch time and rewrites the file
func (fs *FileStore) MarkSent(_ context.Context, key string, at time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.sent[key] = at.Unix()
	return fs.persist()
}

// All returns a copy of every entry
func (fs *FileStore) All(_ context.Context) (map[string]time.Time, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	out := make(map[string]time.Time, len(fs.sent))
	for k, v := range fs.sent {
		out[k] = time.Unix(v, 0)
	}
	return out, nil
}

// Close is a no-op; every write is already on disk
func (fs *FileStore) Close() error { return nil }

// load accepts fractional timestamps as well; they are truncated to seconds
func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.filepath)
	if err != nil {
		return err
	}
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		fs.sent[k] = int64(v)
	}
	return nil
}

func (fs *FileStore) persist() error {
	data, err := json.MarshalIndent(fs.sent, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fs.filepath, data, 0644)
}
