// Package prefilter builds and memoizes the cheap row-exclusion tables used
// before the expensive genotype join.
package prefilter

import (
	"context"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// BuildFunc builds a prefilter table. A nil bitmap means the prefilter is not
// needed for this query.
type BuildFunc func(ctx context.Context) (*roaring.Bitmap, error)

type entry struct {
	rows *roaring.Bitmap
	err  error
}

// Cache memoizes prefilter tables by kind for the lifetime of one query.
// Each kind is built at most once, including negative results, even under
// concurrent access.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	logger  *zap.Logger
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for build messages.
func (c *Cache) SetLogger(l *zap.Logger) {
	c.logger = l
}

// GetOrBuild returns the cached table for kind, calling build on first use.
func (c *Cache) GetOrBuild(ctx context.Context, kind string, build BuildFunc) (*roaring.Bitmap, error) {
	if e, ok := c.lookup(kind); ok {
		return e.rows, e.err
	}

	v, _, _ := c.group.Do(kind, func() (any, error) {
		// A build that finished between lookup and Do already stored its entry.
		if e, ok := c.lookup(kind); ok {
			return e, nil
		}
		rows, err := build(ctx)
		e := &entry{rows: rows, err: err}

		c.mu.Lock()
		c.entries[kind] = e
		c.mu.Unlock()

		if err != nil {
			c.logger.Warn("prefilter build failed", zap.String("kind", kind), zap.Error(err))
		} else if rows == nil {
			c.logger.Debug("prefilter not needed", zap.String("kind", kind))
		} else {
			c.logger.Debug("prefilter built", zap.String("kind", kind), zap.Uint64("rows", rows.GetCardinality()))
		}
		return e, nil
	})
	e := v.(*entry)
	return e.rows, e.err
}

func (c *Cache) lookup(kind string) (*entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[kind]
	return e, ok
}
