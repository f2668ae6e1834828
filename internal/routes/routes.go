// Package routes derives the URL path to page module mapping from the sitemap.
package routes

import (
	"context"
	"log/slog"
	"path"
	"sort"
	"sync"

	eerrors "git.home.luguber.info/inful/enerator/internal/errors"
	"git.home.luguber.info/inful/enerator/internal/logfields"
	"git.home.luguber.info/inful/enerator/internal/module"
	"git.home.luguber.info/inful/enerator/internal/sitemap"
)

// ModuleSource loads page modules.
type ModuleSource interface {
	Load(ctx context.Context, name string) (*module.Module, error)
}

// Table is a memoized two-way mapping between sitepaths and module names.
// It is rebuilt on the first lookup after the sitemap changes.
type Table struct {
	store   sitemap.Store
	modules ModuleSource

	mu     sync.Mutex
	byPath map[string]string
	byName map[string]string
}

// New returns a table over store and registers its invalidation with the store.
func New(store sitemap.Store, modules ModuleSource) *Table {
	t := &Table{store: store, modules: modules}
	store.OnChange(t.Invalidate)
	return t
}

// Invalidate drops the memoized tables.
func (t *Table) Invalidate() {
	t.mu.Lock()
	t.byPath = nil
	t.byName = nil
	t.mu.Unlock()
}

// RoutesByPath returns sitepath to module name.
func (t *Table) RoutesByPath(ctx context.Context) (map[string]string, error) {
	byPath, _, err := t.tables(ctx)
	if err != nil {
		return nil, err
	}
	return copyMap(byPath), nil
}

// URLs returns module name to sitepath for every routed module.
func (t *Table) URLs(ctx context.Context) (map[string]string, error) {
	_, byName, err := t.tables(ctx)
	if err != nil {
		return nil, err
	}
	return copyMap(byName), nil
}

// Lookup returns the module routed at sitepath p.
func (t *Table) Lookup(ctx context.Context, p string) (string, bool, error) {
	byPath, _, err := t.tables(ctx)
	if err != nil {
		return "", false, err
	}
	name, ok := byPath[Clean(p)]
	return name, ok, nil
}

// URLFor returns the sitepath of the named module.
func (t *Table) URLFor(ctx context.Context, name string) (string, error) {
	_, byName, err := t.tables(ctx)
	if err != nil {
		return "", err
	}
	p, ok := byName[name]
	if !ok {
		return "", eerrors.ModuleNotFound(name, nil).WithContext("reason", "no route")
	}
	return p, nil
}

func (t *Table) tables(ctx context.Context) (map[string]string, map[string]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.byPath != nil {
		return t.byPath, t.byName, nil
	}

	pages, err := t.store.Read(ctx)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)

	byPath := make(map[string]string, len(names))
	byName := make(map[string]string, len(names))
	for _, name := range names {
		sitepath := pages[name].Sitepath
		if sitepath == "" {
			// Only pages without a sitemap sitepath need their module to route.
			m, err := t.modules.Load(ctx, name)
			if err != nil {
				slog.WarnContext(ctx, "Skipping unloadable page without sitepath", logfields.Module(name), logfields.Error(err))
				continue
			}
			sitepath = m.Path()
		}
		if sitepath == "" {
			slog.WarnContext(ctx, "Page has no sitepath", logfields.Module(name))
			continue
		}
		sitepath = Clean(sitepath)
		if prev, dup := byPath[sitepath]; dup {
			// Names are visited in order, so the greatest name keeps the path.
			slog.WarnContext(ctx, "Duplicate sitepath",
				logfields.Sitepath(sitepath), logfields.Module(name), slog.String("replaces", prev))
			delete(byName, prev)
		}
		byPath[sitepath] = name
		byName[name] = sitepath
	}

	t.byPath, t.byName = byPath, byName
	return byPath, byName, nil
}

// Clean normalizes a URL path to a rooted path without a trailing slash.
func Clean(p string) string {
	return path.Clean("/" + p)
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
