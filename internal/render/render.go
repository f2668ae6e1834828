// Package render merges page contexts, runs page modules and writes the static site.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	eerrors "git.home.luguber.info/inful/enerator/internal/errors"
	"git.home.luguber.info/inful/enerator/internal/logfields"
	"git.home.luguber.info/inful/enerator/internal/metrics"
	"git.home.luguber.info/inful/enerator/internal/module"
	"git.home.luguber.info/inful/enerator/internal/routes"
	"git.home.luguber.info/inful/enerator/internal/sitemap"
)

// DevModeKey is the caller context flag that forces a module reload before rendering.
const DevModeKey = "devmode"

// OutputFile is the file written for every page.
const OutputFile = "index.html"

// Modules is the module cache as seen by the renderer.
type Modules interface {
	Load(ctx context.Context, name string) (*module.Module, error)
	Reload(ctx context.Context, name string) (*module.Module, error)
}

// Renderer renders page modules with their computed context.
type Renderer struct {
	modules  Modules
	routes   *routes.Table
	store    sitemap.Store
	recorder metrics.Recorder
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(rd *Renderer) {
		if r != nil {
			rd.recorder = r
		}
	}
}

// New returns a renderer.
func New(modules Modules, table *routes.Table, store sitemap.Store, opts ...Option) *Renderer {
	r := &Renderer{modules: modules, routes: table, store: store, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns the HTML of the named page. caller overrides the computed
// context, which overrides the module's own config. A true devmode entry
// reloads the module first.
func (r *Renderer) Render(ctx context.Context, name string, caller module.Context) (string, error) {
	start := time.Now()
	html, err := r.render(ctx, name, caller)
	r.recorder.ObserveRender(name, time.Since(start), metrics.ResultFor(err))
	return html, err
}

func (r *Renderer) render(ctx context.Context, name string, caller module.Context) (string, error) {
	load := r.modules.Load
	if dev, _ := caller[DevModeKey].(bool); dev {
		load = r.modules.Reload
	}
	m, err := load(ctx, name)
	if err != nil {
		return "", err
	}

	merged, err := r.Context(ctx, m, caller)
	if err != nil {
		return "", err
	}

	html, err := m.Render(merged)
	if err != nil {
		return "", eerrors.RenderFailed(name, err)
	}
	return html, nil
}

// Context builds the merged render context for m.
func (r *Renderer) Context(ctx context.Context, m *module.Module, caller module.Context) (module.Context, error) {
	pages, err := r.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	urls, err := r.routes.URLs(ctx)
	if err != nil {
		return nil, err
	}

	merged := module.Context{}
	for k, v := range m.Config() {
		merged[k] = v
	}

	// Computed values.
	merged["modpath"] = m.Dir()
	rec := pages[m.Name()]
	for k, v := range rec.Extra {
		merged[k] = v
	}
	if p, ok := urls[m.Name()]; ok {
		merged["path"] = p
	}
	if rec.Title != "" {
		merged["title"] = rec.Title
	}
	for other, u := range urls {
		if other == m.Name() {
			continue
		}
		merged[module.URLKey(other)] = u
	}

	for k, v := range caller {
		merged[k] = v
	}
	return merged, nil
}

// Generate renders the named page and writes it below outDir at its sitepath.
// It returns the written file.
func (r *Renderer) Generate(ctx context.Context, name, outDir string) (string, error) {
	sitepath, err := r.sitepath(ctx, name)
	if err != nil {
		return "", err
	}
	html, err := r.Render(ctx, name, nil)
	if err != nil {
		return "", err
	}

	out := OutputPath(outDir, sitepath)
	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		return "", eerrors.FileSystemError("mkdir", filepath.Dir(out), err)
	}
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil { //nolint:gosec // generated site is world-readable
		return "", eerrors.FileSystemError("write", out, err)
	}
	slog.InfoContext(ctx, "Generated page", logfields.Module(name), logfields.Sitepath(sitepath), logfields.Output(out))
	return out, nil
}

// sitepath prefers the route table and falls back to the module's own path
// for pages not in the sitemap.
func (r *Renderer) sitepath(ctx context.Context, name string) (string, error) {
	p, err := r.routes.URLFor(ctx, name)
	if err == nil {
		return p, nil
	}
	m, lerr := r.modules.Load(ctx, name)
	if lerr != nil {
		return "", lerr
	}
	if m.Path() == "" {
		return "", err
	}
	return routes.Clean(m.Path()), nil
}

// GenerateAll writes every sitemap page, in name order, stopping at the first
// failure. A page that cannot be loaded fails the run. Pages that lost a
// duplicate sitepath are skipped with a warning.
func (r *Renderer) GenerateAll(ctx context.Context, outDir string) ([]string, error) {
	pages, err := r.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	byPath, err := r.routes.RoutesByPath(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if p := pages[name].Sitepath; p != "" {
			if owner, ok := byPath[routes.Clean(p)]; ok && owner != name {
				slog.WarnContext(ctx, "Skipping page whose sitepath is taken",
					logfields.Module(name), logfields.Sitepath(p), slog.String("owner", owner))
				continue
			}
		}
		out, err := r.Generate(ctx, name, outDir)
		if err != nil {
			return written, fmt.Errorf("generate %s: %w", name, err)
		}
		written = append(written, out)
	}
	return written, nil
}

// OutputPath is the file a page at sitepath is written to.
func OutputPath(outDir, sitepath string) string {
	return filepath.Join(outDir, filepath.FromSlash(routes.Clean(sitepath)), OutputFile)
}
