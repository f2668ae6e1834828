package preview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/enerator/internal/logfields"
)

// Request is the transport-independent view of an incoming request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	TLS    bool
}

// RequestFromHTTP converts an *http.Request.
func RequestFromHTTP(r *http.Request) *Request {
	return &Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header,
		TLS:    r.TLS != nil,
	}
}

// ChunkWriter delivers one body chunk to the client. Each chunk is flushed
// before WriteChunk returns.
type ChunkWriter interface {
	WriteChunk(p []byte) error
}

// Body produces a response body chunk by chunk. It returns when the body is
// complete, the context is canceled, or a write fails.
type Body func(ctx context.Context, w ChunkWriter) error

// Response is a status, headers and a streamed body. Transports send the
// status and headers first, then the chunks in order, then end the response.
type Response struct {
	Status int
	Header http.Header
	Body   Body
	// Route names the dispatch branch, for logs and metrics.
	Route string
}

func bytesBody(p []byte) Body {
	return func(_ context.Context, w ChunkWriter) error {
		return w.WriteChunk(p)
	}
}

type httpChunkWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func (c *httpChunkWriter) WriteChunk(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if _, err := c.w.Write(p); err != nil {
		return err
	}
	return c.flush()
}

func (c *httpChunkWriter) flush() error {
	if err := c.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// ServeHTTP adapts Dispatch to net/http. Headers are flushed as soon as they
// are written so long-lived streams reach the client before their first event.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	resp := d.Dispatch(ctx, RequestFromHTTP(r))

	for k, vs := range resp.Header {
		w.Header()[k] = vs
	}
	w.WriteHeader(resp.Status)

	cw := &httpChunkWriter{w: w, rc: http.NewResponseController(w)}
	err := cw.flush()
	if err == nil && resp.Body != nil {
		err = resp.Body(ctx, cw)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.DebugContext(ctx, "Response body ended early", logfields.Path(r.URL.Path), logfields.Error(err))
	}
	d.recorder.ObserveRequest(resp.Route, resp.Status, time.Since(start))
}
