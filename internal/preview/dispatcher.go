// Package preview serves pages, static files and live-reload event streams
// for local development.
package preview

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	eerrors "git.home.luguber.info/inful/enerator/internal/errors"
	"git.home.luguber.info/inful/enerator/internal/logfields"
	"git.home.luguber.info/inful/enerator/internal/metrics"
	"git.home.luguber.info/inful/enerator/internal/module"
	"git.home.luguber.info/inful/enerator/internal/render"
	"git.home.luguber.info/inful/enerator/internal/util/sets"
)

// SSEPrefix is the first path segment of live-reload streams.
const SSEPrefix = "sse"

const (
	RouteStatic = "static"
	RouteSSE    = "sse"
	RoutePage   = "page"
)

// Defaults used when a dispatcher option is left zero.
const (
	DefaultChunkSize    = 1024
	DefaultPollInterval = 2 * time.Second
)

// PageRenderer renders a page module to HTML.
type PageRenderer interface {
	Render(ctx context.Context, name string, caller module.Context) (string, error)
}

// RouteLookup finds the module routed at a sitepath.
type RouteLookup interface {
	Lookup(ctx context.Context, path string) (string, bool, error)
}

// ModuleLoader provides a module's watch list.
type ModuleLoader interface {
	Load(ctx context.Context, name string) (*module.Module, error)
}

// Options configures a Dispatcher.
type Options struct {
	// Root is the directory static paths resolve against.
	Root string
	// StaticPrefixes are first path segments served from Root, such as "/assets".
	StaticPrefixes []string
	ChunkSize      int
	PollInterval   time.Duration
	Stat           StatFunc
	Recorder       metrics.Recorder
	Logger         *slog.Logger
}

// Dispatcher routes each request on its first path segment: static prefixes
// stream files, "sse" opens a live-reload stream, anything else is a page.
type Dispatcher struct {
	root     string
	static   sets.Set[string]
	chunk    int
	interval time.Duration
	stat     StatFunc

	pages   PageRenderer
	routes  RouteLookup
	modules ModuleLoader

	recorder metrics.Recorder
	errors   *eerrors.HTTPErrorAdapter
	logger   *slog.Logger
}

// NewDispatcher returns a dispatcher over the given collaborators.
func NewDispatcher(pages PageRenderer, routes RouteLookup, modules ModuleLoader, opts Options) *Dispatcher {
	d := &Dispatcher{
		root:     opts.Root,
		static:   sets.New[string](),
		chunk:    opts.ChunkSize,
		interval: opts.PollInterval,
		stat:     opts.Stat,
		pages:    pages,
		routes:   routes,
		modules:  modules,
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}
	for _, p := range opts.StaticPrefixes {
		if seg := strings.Trim(p, "/"); seg != "" {
			d.static.Add(seg)
		}
	}
	if d.chunk <= 0 {
		d.chunk = DefaultChunkSize
	}
	if d.interval <= 0 {
		d.interval = DefaultPollInterval
	}
	if d.stat == nil {
		d.stat = OSStat
	}
	if d.recorder == nil {
		d.recorder = metrics.NoopRecorder{}
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.errors = eerrors.NewHTTPErrorAdapter(d.logger)
	return d
}

// Dispatch decides the response for req. Page rendering happens here so the
// status is known before the response starts; streams are produced by the
// returned Body.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	first := firstSegment(req.Path)
	switch {
	case first == SSEPrefix:
		return d.sse(ctx, req)
	case d.static.Has(first):
		return d.staticFile(ctx, req, first)
	default:
		return d.page(ctx, req)
	}
}

func firstSegment(p string) string {
	p = strings.TrimPrefix(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}

func (d *Dispatcher) errorResponse(ctx context.Context, route, path string, err error) *Response {
	d.errors.Log(ctx, path, err)
	return &Response{
		Status: d.errors.StatusFor(err),
		Header: http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
		Body:   bytesBody([]byte(d.errors.Body(path, err))),
		Route:  route,
	}
}

func (d *Dispatcher) page(ctx context.Context, req *Request) *Response {
	name, ok, err := d.routes.Lookup(ctx, req.Path)
	if err != nil {
		return d.errorResponse(ctx, RoutePage, req.Path, err)
	}
	if !ok {
		return d.errorResponse(ctx, RoutePage, req.Path, eerrors.NotFound(req.Path))
	}

	html, err := d.pages.Render(ctx, name, module.Context{render.DevModeKey: true})
	if err != nil {
		if eerrors.IsCategory(err, eerrors.CategoryModuleNotFound) || eerrors.IsCategory(err, eerrors.CategoryInvalidModule) {
			// A routed module that no longer loads is a server-side failure.
			err = eerrors.RenderFailed(name, err)
		}
		return d.errorResponse(ctx, RoutePage, req.Path, err)
	}
	return &Response{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:   bytesBody([]byte(InjectLiveReload(html, name))),
		Route:  RoutePage,
	}
}

func (d *Dispatcher) sse(ctx context.Context, req *Request) *Response {
	name := strings.TrimPrefix(strings.TrimPrefix(req.Path, "/"), SSEPrefix+"/")
	if name == "" || name == SSEPrefix {
		return d.errorResponse(ctx, RouteSSE, req.Path, eerrors.NotFound(req.Path))
	}
	m, err := d.modules.Load(ctx, name)
	if err != nil {
		return d.errorResponse(ctx, RouteSSE, req.Path, err)
	}

	w := NewWatcher(name, m.Watch(), req.TLS, d.stat)
	connID := uuid.NewString()
	return &Response{
		Status: http.StatusOK,
		Header: http.Header{
			"Content-Type":  {"text/event-stream"},
			"Cache-Control": {"no-cache"},
			"Connection":    {"keep-alive"},
		},
		Route: RouteSSE,
		Body: func(ctx context.Context, cw ChunkWriter) error {
			d.recorder.LiveReloadConnections(1)
			defer d.recorder.LiveReloadConnections(-1)
			d.logger.DebugContext(ctx, "Live reload connected",
				logfields.ConnID(connID), logfields.Module(name), logfields.TLS(req.TLS))
			defer d.logger.DebugContext(ctx, "Live reload disconnected", logfields.ConnID(connID))

			return w.Run(ctx, d.interval, cw, func() {
				d.recorder.IncReloadEvents(name)
				d.logger.DebugContext(ctx, "Live reload event", logfields.ConnID(connID), logfields.Module(name))
			})
		},
	}
}

// LiveReloadScript returns the snippet that reloads the page when its module changes.
func LiveReloadScript(name string) string {
	return strings.Join([]string{
		"<script>",
		"  let eventSource = new EventSource('/sse/" + name + "');",
		"  eventSource.addEventListener('message', (e) => {",
		"    if (e.data === 'modified') {",
		"      window.location.reload();",
		"    }",
		"  });",
		"</script>",
	}, "\n")
}

// InjectLiveReload inserts the live-reload script before the last closing
// html tag, or appends it when there is none.
func InjectLiveReload(html, name string) string {
	script := LiveReloadScript(name)
	i := strings.LastIndex(html, "</html>")
	if i < 0 {
		return html + script + "\n"
	}
	return html[:i] + script + "\n" + html[i:]
}
