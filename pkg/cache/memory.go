// Package cache stores class index parse results between runs, keyed by the
// file path and invalidated by a changed size or modification time.
package cache

import (
	"sync"
	"time"

	"github.com/specvital/bake/pkg/domain"
)

type entry struct {
	size    int64
	modTime int64
	classes []domain.ClassInfo
}

func (e entry) matches(size int64, modTime time.Time) bool {
	return e.size == size && e.modTime == modTime.UnixNano()
}

// Memory is an in-process cache. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
}

// NewMemory creates an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]entry),
	}
}

// Load implements introspect.Cache.
func (c *Memory) Load(path string, size int64, modTime time.Time) ([]domain.ClassInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[path]
	if !ok || !e.matches(size, modTime) {
		return nil, false
	}
	return e.classes, true
}

// Store implements introspect.Cache.
func (c *Memory) Store(path string, size int64, modTime time.Time, classes []domain.ClassInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[path] = entry{size: size, modTime: modTime.UnixNano(), classes: classes}
	return nil
}

// Clear drops every entry.
func (c *Memory) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]entry)
}

// Size returns the number of entries.
func (c *Memory) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
