// Package cache provides a small on-disk TTL cache for upstream payloads, so
// restarts and upstream outages do not force refetching multi-megabyte feeds.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
)

// FileCache stores one payload per key as a JSON envelope on disk. It is
// process-wide single-writer state: concurrent writer processes are not
// coordinated and the last write wins.
type FileCache struct {
	dir   string
	clock clockwork.Clock
}

type envelope struct {
	Data      string    `json:"data"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// New creates a FileCache rooted at dir, creating it if needed. A nil clock
// defaults to real time.
func New(dir string, clk clockwork.Clock) (*FileCache, error) {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir, clock: clk}, nil
}

// Get returns the payload for key if it exists and is younger than ttl.
func (c *FileCache) Get(key string, ttl time.Duration) (string, bool) {
	env, ok := c.read(key)
	if !ok {
		return "", false
	}
	if c.clock.Now().Sub(env.FetchedAt) >= ttl {
		return "", false
	}
	return env.Data, true
}

// GetStale returns the payload for key regardless of age. Used as a fallback
// when the upstream fetch fails and stale data beats no data.
func (c *FileCache) GetStale(key string) (string, bool) {
	env, ok := c.read(key)
	if !ok {
		return "", false
	}
	return env.Data, true
}

// Put stores the payload for key, stamped with the current time.
func (c *FileCache) Put(key, data string) error {
	env := envelope{Data: data, FetchedAt: c.clock.Now().UTC()}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	if err := os.WriteFile(c.path(key), raw, 0o644); err != nil {
		return fmt.Errorf("write cache entry %q: %w", key, err)
	}
	return nil
}

func (c *FileCache) read(key string) (envelope, bool) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return envelope{}, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// A corrupt entry is treated as absent and overwritten on next Put.
		return envelope{}, false
	}
	return env, true
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
