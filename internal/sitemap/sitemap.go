// Package sitemap persists the mapping from page module name to page metadata.
package sitemap

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"git.home.luguber.info/inful/enerator/internal/config"
)

// Page is the sitemap record of one page module.
type Page struct {
	Sitepath string         `json:"sitepath,omitempty"`
	Title    string         `json:"title,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// Merge returns p with the non-empty fields of partial applied on top.
// Extra keys are merged, partial winning.
func (p Page) Merge(partial Page) Page {
	out := p.clone()
	if partial.Sitepath != "" {
		out.Sitepath = partial.Sitepath
	}
	if partial.Title != "" {
		out.Title = partial.Title
	}
	if len(partial.Extra) > 0 {
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(partial.Extra))
		}
		maps.Copy(out.Extra, partial.Extra)
	}
	return out
}

func (p Page) clone() Page {
	if p.Extra != nil {
		p.Extra = maps.Clone(p.Extra)
	}
	return p
}

// Map is a full sitemap keyed by module name.
type Map map[string]Page

// Clone returns a deep-enough copy: records and their Extra maps are copied.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v.clone()
	}
	return out
}

// Store is the sitemap persistence contract. A single writer is assumed.
// After Write or Update returns, Read reflects the new content and every
// OnChange hook has run.
type Store interface {
	Read(ctx context.Context) (Map, error)
	Write(ctx context.Context, m Map) error
	Update(ctx context.Context, name string, partial Page) error
	// Invalidate drops the read cache, for changes made outside this process.
	Invalidate()
	// OnChange registers a hook run after every write or invalidation.
	OnChange(fn func())
	// Path is the backing file.
	Path() string
	Close() error
}

// NormalizeSitepath returns p with exactly one leading slash and no trailing one.
func NormalizeSitepath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}

// Open returns the store configured by cfg.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Sitemap.Backend {
	case config.SitemapBackendSQLite:
		return NewSQLiteStore(cfg.SitemapPath())
	case config.SitemapBackendJSON, "":
		return NewJSONStore(cfg.SitemapPath()), nil
	default:
		return nil, fmt.Errorf("unknown sitemap backend %q", cfg.Sitemap.Backend)
	}
}
