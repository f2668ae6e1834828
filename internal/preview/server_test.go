package preview

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/enerator/internal/config"
	"git.home.luguber.info/inful/enerator/internal/metrics"
	"git.home.luguber.info/inful/enerator/internal/module"
	"git.home.luguber.info/inful/enerator/internal/render"
	"git.home.luguber.info/inful/enerator/internal/routes"
	"git.home.luguber.info/inful/enerator/internal/scaffold"
	"git.home.luguber.info/inful/enerator/internal/sitemap"
)

func fetch(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_StartServeStop(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := sitemap.NewJSONStore(filepath.Join(root, "pages.json"))
	_, err := scaffold.Add(ctx, scaffold.Options{Root: root, Module: "pages.home", Sitepath: "/", Store: store})
	require.NoError(t, err)

	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	cache, err := module.NewCache(module.NewFSLoader(root), 10)
	require.NoError(t, err)
	table := routes.New(store, cache)
	renderer := render.New(cache, table, store, render.WithRecorder(recorder))
	d := NewDispatcher(renderer, table, cache, Options{Root: root, Recorder: recorder, Logger: logger})

	cfg := config.PreviewConfig{Host: "127.0.0.1", Port: 0, MetricsAddr: "127.0.0.1:0"}
	srv := NewServer(cfg, d, store, reg, logger)
	require.NoError(t, srv.Start(ctx))
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, srv.Stop(stopCtx))
	})

	status, body := fetch(t, "http://"+srv.Addr().String()+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "EventSource('/sse/pages.home')")

	status, body = fetch(t, "http://"+srv.AdminAddr().String()+"/health")
	assert.Equal(t, http.StatusOK, status)
	var health map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, false, health["tls"])

	status, body = fetch(t, "http://"+srv.AdminAddr().String()+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "enerator_http_request_duration_seconds")
	assert.Contains(t, body, `enerator_render_duration_seconds_count{module="pages.home",result="success"} 1`)

	assert.Error(t, srv.Start(ctx), "second start is rejected")
}

func TestServer_BusyPortFailsFast(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := sitemap.NewJSONStore(filepath.Join(t.TempDir(), "pages.json"))
	d := NewDispatcher(nil, nil, nil, Options{Logger: logger})
	first := NewServer(config.PreviewConfig{Host: "127.0.0.1"}, d, store, nil, logger)
	require.NoError(t, first.Start(context.Background()))
	t.Cleanup(func() { _ = first.Stop(context.Background()) })

	port := first.Addr().(*net.TCPAddr).Port
	second := NewServer(config.PreviewConfig{Host: "127.0.0.1", Port: port}, d, store, nil, logger)
	assert.Error(t, second.Start(context.Background()))
}

func TestWatchSitemap_InvalidatesOnExternalEdit(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pages.json")
	store := sitemap.NewJSONStore(path)
	require.NoError(t, store.Write(ctx, sitemap.Map{"a": {Sitepath: "/a"}}))

	var changes atomic.Int32
	store.OnChange(func() { changes.Add(1) })

	stop, err := WatchSitemap(ctx, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte(`{"b": {"sitepath": "/b"}}`), 0o600))
	require.Eventually(t, func() bool {
		m, err := store.Read(ctx)
		return err == nil && m["b"].Sitepath == "/b"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Positive(t, changes.Load())
}
