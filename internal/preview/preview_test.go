package preview

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/enerator/internal/module"
	"git.home.luguber.info/inful/enerator/internal/render"
	"git.home.luguber.info/inful/enerator/internal/routes"
	"git.home.luguber.info/inful/enerator/internal/scaffold"
	"git.home.luguber.info/inful/enerator/internal/sitemap"
)

type site struct {
	root       string
	store      *sitemap.JSONStore
	cache      *module.Cache
	dispatcher *Dispatcher
}

func newSite(t *testing.T, interval time.Duration) *site {
	t.Helper()
	root := t.TempDir()
	store := sitemap.NewJSONStore(filepath.Join(root, "pages.json"))
	cache, err := module.NewCache(module.NewFSLoader(root), 10)
	require.NoError(t, err)
	table := routes.New(store, cache)
	renderer := render.New(cache, table, store)
	d := NewDispatcher(renderer, table, cache, Options{
		Root:           root,
		StaticPrefixes: []string{"/assets"},
		ChunkSize:      4,
		PollInterval:   interval,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &site{root: root, store: store, cache: cache, dispatcher: d}
}

func (s *site) add(t *testing.T, name, sitepath string) string {
	t.Helper()
	res, err := scaffold.Add(context.Background(), scaffold.Options{
		Root: s.root, Module: name, Sitepath: sitepath, Store: s.store,
	})
	require.NoError(t, err)
	return res.Dir
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestDispatch_Page(t *testing.T) {
	s := newSite(t, time.Second)
	s.add(t, "pages.home", "/")
	srv := httptest.NewServer(s.dispatcher)
	defer srv.Close()

	resp, body := get(t, srv, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "<em>Hello</em>, site content!")

	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)
	var scripts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" && n.FirstChild != nil {
			scripts = append(scripts, n.FirstChild.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	require.Len(t, scripts, 1)
	assert.Contains(t, scripts[0], "new EventSource('/sse/pages.home')")
	assert.Contains(t, scripts[0], "e.data === 'modified'")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "</script>\n</html>"))
}

func TestDispatch_PageReflectsEditsInDevMode(t *testing.T) {
	s := newSite(t, time.Second)
	dir := s.add(t, "pages.home", "/")
	srv := httptest.NewServer(s.dispatcher)
	defer srv.Close()

	_, body := get(t, srv, "/")
	assert.Contains(t, body, "site content")

	require.NoError(t, os.WriteFile(filepath.Join(dir, module.FileName),
		[]byte("config:\n  path: /\npage: edited\n"), 0o600))
	_, body = get(t, srv, "/")
	assert.Contains(t, body, "<p>edited</p>")
}

func TestDispatch_UnknownPage(t *testing.T) {
	s := newSite(t, time.Second)
	srv := httptest.NewServer(s.dispatcher)
	defer srv.Close()

	resp, body := get(t, srv, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "/nope not found", body)
}

func TestDispatch_RenderFailureIs500(t *testing.T) {
	s := newSite(t, time.Second)
	dir := s.add(t, "pages.home", "/")
	s.add(t, "pages.ok", "/ok")
	srv := httptest.NewServer(s.dispatcher)
	defer srv.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, module.FileName),
		[]byte("config:\n  path: /\npage: \"{undefined_key}\"\n"), 0o600))
	resp, body := get(t, srv, "/")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "undefined_key")

	resp, _ = get(t, srv, "/ok")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "other pages keep working")
}

func TestDispatch_BrokenModuleIs500(t *testing.T) {
	s := newSite(t, time.Second)
	dir := s.add(t, "pages.home", "/")
	s.add(t, "pages.gone", "/gone")
	require.NoError(t, os.WriteFile(filepath.Join(dir, module.FileName), []byte("config: [unclosed\n"), 0o600))
	require.NoError(t, os.Remove(filepath.Join(s.root, "pages", "gone", module.FileName)))
	srv := httptest.NewServer(s.dispatcher)
	defer srv.Close()

	// The route table is built after the breakage, so only the sitemap routes these pages.
	for _, p := range []string{"/", "/gone"} {
		resp, _ := get(t, srv, p)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, p)
	}

	s.store.Invalidate()
	resp, _ := get(t, srv, "/")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, "stays routed after a rebuild")
}

func TestDispatch_Static(t *testing.T) {
	s := newSite(t, time.Second)
	require.NoError(t, os.MkdirAll(filepath.Join(s.root, "assets"), 0o750))
	css := "body { color: red; }\n"
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "assets", "site.css"), []byte(css), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "assets", "README"), []byte("plain"), 0o600))
	srv := httptest.NewServer(s.dispatcher)
	defer srv.Close()

	resp, body := get(t, srv, "/assets/site.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/css"))
	assert.Equal(t, css, body)

	resp, body = get(t, srv, "/assets/README")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "plain", body)

	resp, body = get(t, srv, "/assets/missing.css")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "/assets/missing.css not found", body)
}

func TestDispatch_StaticStaysInsideRoot(t *testing.T) {
	s := newSite(t, time.Second)
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "secret.txt"), []byte("x"), 0o600))

	resp := s.dispatcher.Dispatch(context.Background(), &Request{Method: http.MethodGet, Path: "/assets/../secret.txt"})
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, RouteStatic, resp.Route)
}

func TestDispatch_StaticChunks(t *testing.T) {
	s := newSite(t, time.Second)
	require.NoError(t, os.MkdirAll(filepath.Join(s.root, "assets"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "assets", "a.txt"), []byte("0123456789"), 0o600))

	resp := s.dispatcher.Dispatch(context.Background(), &Request{Method: http.MethodGet, Path: "/assets/a.txt"})
	require.Equal(t, http.StatusOK, resp.Status)
	cw := &chunkRecorder{}
	require.NoError(t, resp.Body(context.Background(), cw))
	assert.Equal(t, []string{"0123", "4567", "89"}, cw.events())
}

func TestDispatch_SSEUnknownModule(t *testing.T) {
	s := newSite(t, time.Second)
	resp := s.dispatcher.Dispatch(context.Background(), &Request{Path: "/sse/pages.nope"})
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = s.dispatcher.Dispatch(context.Background(), &Request{Path: "/sse/"})
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestDispatch_SSEStream(t *testing.T) {
	s := newSite(t, 20*time.Millisecond)
	dir := s.add(t, "pages.home", "/")
	srv := httptest.NewServer(s.dispatcher)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse/pages.home", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, module.FileName), later, later))

	r := bufio.NewReader(resp.Body)
	priming, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(priming, ": ...."))
	assert.GreaterOrEqual(t, len(priming), 2*Meg)

	blank, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "\n", blank)

	event, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: modified\n", event)
}

func TestInjectLiveReload(t *testing.T) {
	out := InjectLiveReload("<html><body>x</body></html>\n", "pages.a")
	assert.True(t, strings.HasPrefix(out, "<html><body>x</body><script>"))
	assert.True(t, strings.HasSuffix(out, "</script>\n</html>\n"))

	out = InjectLiveReload("fragment", "pages.a")
	assert.True(t, strings.HasPrefix(out, "fragment<script>"))
	assert.Contains(t, out, "/sse/pages.a")
}

func TestFirstSegment(t *testing.T) {
	assert.Equal(t, "", firstSegment("/"))
	assert.Equal(t, "assets", firstSegment("/assets/x/y.css"))
	assert.Equal(t, "about", firstSegment("/about"))
}
