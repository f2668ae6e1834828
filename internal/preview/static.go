package preview

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	eerrors "git.home.luguber.info/inful/enerator/internal/errors"
)

// staticFile streams the file at the request path below the root. The path
// keeps its prefix, so /assets/site.css is served from <root>/assets/site.css.
func (d *Dispatcher) staticFile(ctx context.Context, req *Request, prefix string) *Response {
	clean := path.Clean("/" + req.Path)
	if firstSegment(clean) != prefix {
		return d.errorResponse(ctx, RouteStatic, req.Path, eerrors.NotFound(req.Path))
	}
	file := filepath.Join(d.root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))

	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		return d.errorResponse(ctx, RouteStatic, req.Path, eerrors.NotFound(req.Path))
	}

	ctype := mime.TypeByExtension(filepath.Ext(file))
	if ctype == "" {
		ctype = "text/plain"
	}
	chunk := d.chunk
	return &Response{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": {ctype}},
		Route:  RouteStatic,
		Body: func(ctx context.Context, w ChunkWriter) error {
			f, err := os.Open(file) //nolint:gosec // confined to the site root above
			if err != nil {
				return eerrors.FileSystemError("open", file, err)
			}
			defer func() { _ = f.Close() }()

			buf := make([]byte, chunk)
			for {
				n, rerr := f.Read(buf)
				if n > 0 {
					if err := w.WriteChunk(buf[:n]); err != nil {
						return err
					}
				}
				if errors.Is(rerr, io.EOF) {
					return nil
				}
				if rerr != nil {
					return eerrors.FileSystemError("read", file, rerr)
				}
				if err := ctx.Err(); err != nil {
					return err
				}
			}
		},
	}
}
