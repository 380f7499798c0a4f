package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"BTCChart/internal/model"
)

// FileCache keeps one JSON file per timeframe under Dir.
type FileCache struct {
	mu  sync.Mutex
	Dir string
}

// NewFileCache creates the cache directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{Dir: dir}, nil
}

func (c *FileCache) Name() string { return "file" }

func (c *FileCache) path(tf model.Timeframe) string {
	return filepath.Join(c.Dir, fmt.Sprintf("series_%s.json", tf))
}

// Load reads the run for tf. A missing file is a miss.
func (c *FileCache) Load(_ context.Context, tf model.Timeframe) (*model.SeriesRun, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(tf))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return decodeRun(data, tf)
}

// Save writes the run atomically via a temp file and rename.
func (c *FileCache) Save(_ context.Context, run *model.SeriesRun) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	dst := c.path(run.Timeframe)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

func (c *FileCache) Close() error { return nil }
