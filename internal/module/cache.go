package module

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/enerator/internal/logfields"
)

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 100

// Cache keeps loaded modules by name with least-recently-used eviction.
// Concurrent misses for one name share a single load, and only fully built
// modules are ever stored.
type Cache struct {
	loader  Loader
	entries *lru.Cache[string, *Module]
	group   singleflight.Group
}

// NewCache returns a cache in front of loader. A non-positive capacity uses
// DefaultCapacity.
func NewCache(loader Loader, capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, *Module](capacity)
	if err != nil {
		return nil, fmt.Errorf("create module cache: %w", err)
	}
	return &Cache{loader: loader, entries: entries}, nil
}

// Load returns the cached module, loading it on a miss.
func (c *Cache) Load(ctx context.Context, name string) (*Module, error) {
	if m, ok := c.entries.Get(name); ok {
		return m, nil
	}
	return c.resolve(ctx, name, false)
}

// Reload re-reads the module and replaces the cached entry. A failed reload
// drops the entry so the next Load retries.
func (c *Cache) Reload(ctx context.Context, name string) (*Module, error) {
	return c.resolve(ctx, name, true)
}

func (c *Cache) resolve(ctx context.Context, name string, force bool) (*Module, error) {
	key := "load:" + name
	if force {
		key = "reload:" + name
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		m, err := c.loader.Load(ctx, name)
		if err != nil {
			if force {
				c.entries.Remove(name)
			}
			return nil, err
		}
		if force {
			c.entries.Add(name, m)
			slog.DebugContext(ctx, "Module reloaded", logfields.Module(name))
			return m, nil
		}
		// A reload that finished meanwhile holds the newer snapshot.
		if cur, ok, _ := c.entries.PeekOrAdd(name, m); ok {
			return cur, nil
		}
		slog.DebugContext(ctx, "Module loaded", logfields.Module(name))
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Module), nil
}

// Invalidate drops the cached entry for name.
func (c *Cache) Invalidate(name string) {
	c.entries.Remove(name)
}

// Purge drops every cached entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Len is the number of cached modules.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Contains reports whether name is cached, without touching recency.
func (c *Cache) Contains(name string) bool {
	return c.entries.Contains(name)
}
