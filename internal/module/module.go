// Package module resolves page modules and keeps the loaded ones in a bounded cache.
//
// A page module is named by a dotted identifier such as "pages.blog.first". On
// disk each segment is a directory below the site root, every directory on the
// way carries a module.yaml initializer, and the leaf module.yaml holds the
// page's config and Markdown body.
package module

import (
	"maps"
	"path/filepath"
	"regexp"
	"strings"
)

// FileName is the module file looked up in every module directory.
const FileName = "module.yaml"

// Config is a page module's frozen configuration.
type Config map[string]any

// Clone returns a shallow copy.
func (c Config) Clone() Config {
	if c == nil {
		return Config{}
	}
	return maps.Clone(c)
}

// String returns the string value for key, or "" when absent or not a string.
func (c Config) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Strings returns key as a string list. Non-string items are skipped.
func (c Config) Strings(key string) []string {
	switch v := c[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}

// Context is the merged set of values a render function sees.
type Context map[string]any

// RenderFunc produces a page's HTML from its context.
type RenderFunc func(ctx Context) (string, error)

// Module is an immutable snapshot of a loaded page module. Holders keep a
// working module even after the cache evicts or reloads it.
type Module struct {
	name   string
	dir    string
	config Config
	render RenderFunc
}

// New builds a module snapshot. The config is copied.
func New(name, dir string, cfg Config, render RenderFunc) *Module {
	return &Module{name: name, dir: dir, config: cfg.Clone(), render: render}
}

func (m *Module) Name() string { return m.name }

// Dir is the module's directory; empty for modules without one.
func (m *Module) Dir() string { return m.dir }

// Config returns a copy of the module's configuration.
func (m *Module) Config() Config { return m.config.Clone() }

// Path is the configured sitepath.
func (m *Module) Path() string { return m.config.String("path") }

// Title is the configured title.
func (m *Module) Title() string { return m.config.String("title") }

// Watch returns the watched files resolved against the module directory.
func (m *Module) Watch() []string {
	rel := m.config.Strings("watch")
	out := make([]string, 0, len(rel))
	for _, p := range rel {
		if filepath.IsAbs(p) || m.dir == "" {
			out = append(out, filepath.Clean(p))
			continue
		}
		out = append(out, filepath.Join(m.dir, p))
	}
	return out
}

// Render runs the module's render function.
func (m *Module) Render(ctx Context) (string, error) {
	return m.render(ctx)
}

var segment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// ValidName reports whether name is a dotted identifier.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if !segment.MatchString(part) {
			return false
		}
	}
	return true
}

// ModuleToPath returns the directory of the named module below root.
func ModuleToPath(root, name string) string {
	return filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(name, ".", "/")))
}

// URLKey is the context key under which the URL of the named module is exposed.
func URLKey(name string) string {
	return "url_" + strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
