// Package featcache memoizes extractor outputs on disk. It is a pure
// memoization boundary: it knows nothing about feature semantics and can be
// bypassed entirely for testing.
package featcache

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/retailai/basketfeat/internal/features"
)

// Cache wraps named extractors so each output is computed once and persisted
// under a path derived from the extractor name. Subsequent runs read the
// persisted table instead of recomputing.
type Cache struct {
	dir     string
	disable bool
	logger  *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// Disabled makes Wrap a pass-through; nothing is read or written.
func Disabled(disable bool) Option {
	return func(c *Cache) { c.disable = disable }
}

// WithLogger sets the cache's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates a cache rooted at dir.
func New(dir string, opts ...Option) *Cache {
	c := &Cache{dir: dir, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the cache file for an extractor name. Namespace separators in
// the name stay readable; path separators are not allowed to escape the
// cache directory.
func (c *Cache) Path(name string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	return filepath.Join(c.dir, safe+".gob")
}

// Wrap decorates an extractor with the memoization layer. Errors from the
// underlying extractor are returned uncached. A cached file that does not
// decode to a table, or an extractor result that is not a table, is a
// terminating error: silently accepting a malformed entry would corrupt
// downstream features.
func (c *Cache) Wrap(name string, fn features.Func) features.Func {
	if c.disable {
		return fn
	}

	path := c.Path(name)
	return func(input features.Input) (*features.Table, error) {
		if _, err := os.Stat(path); err == nil {
			return c.read(path)
		}

		result, err := fn(input)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, fmt.Errorf("extractor %q returned no table to cache", name)
		}
		if err := c.write(path, result); err != nil {
			return nil, err
		}
		return result, nil
	}
}

func (c *Cache) read(path string) (*features.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var table features.Table
	if err := gob.NewDecoder(f).Decode(&table); err != nil {
		return nil, fmt.Errorf("cache file %s does not contain a feature table: %w", path, err)
	}
	c.logger.Info("feature table read from cache", zap.String("path", path))
	return &table, nil
}

// write persists through a temp file and rename so a crashed run never
// leaves a half-written cache entry behind.
func (c *Cache) write(path string, table *features.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := gob.NewEncoder(tmp).Encode(table); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode feature table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move cache file into place: %w", err)
	}
	c.logger.Info("feature table written to cache", zap.String("path", path))
	return nil
}
