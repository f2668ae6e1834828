package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveRender("pages.home", 150*time.Millisecond, ResultSuccess)
	pr.ObserveRequest("page", 200, 5*time.Millisecond)
	pr.LiveReloadConnections(1)
	pr.LiveReloadConnections(1)
	pr.LiveReloadConnections(-1)
	pr.IncReloadEvents("pages.home")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetGauge() != nil:
				byName[mf.GetName()] = m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				byName[mf.GetName()] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				byName[mf.GetName()] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.Equal(t, 1.0, byName["enerator_livereload_connections"])
	assert.Equal(t, 1.0, byName["enerator_livereload_events_total"])
	assert.Equal(t, 1.0, byName["enerator_render_duration_seconds"])
	assert.Equal(t, 1.0, byName["enerator_http_request_duration_seconds"])
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveRender("x", time.Second, ResultFailed)
		pr.LiveReloadConnections(1)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncReloadEvents("pages.home")

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `enerator_livereload_events_total{module="pages.home"} 1`)
}
