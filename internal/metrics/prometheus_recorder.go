package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "enerator"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	renderDuration  *prom.HistogramVec
	requestDuration *prom.HistogramVec
	liveConnections prom.Gauge
	reloadEvents    *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of page renders",
			Buckets:   prom.DefBuckets,
		}, []string{"module", "result"}),
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of preview requests by route kind and status",
			Buckets:   prom.DefBuckets,
		}, []string{"route", "status"}),
		liveConnections: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "livereload_connections",
			Help:      "Open live-reload event streams",
		}),
		reloadEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "livereload_events_total",
			Help:      "Reload notifications sent, by module",
		}, []string{"module"}),
	}
	reg.MustRegister(pr.renderDuration, pr.requestDuration, pr.liveConnections, pr.reloadEvents)
	return pr
}

func (p *PrometheusRecorder) ObserveRender(module string, d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.renderDuration.WithLabelValues(module, string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRequest(route string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.requestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) LiveReloadConnections(delta int) {
	if p == nil {
		return
	}
	p.liveConnections.Add(float64(delta))
}

func (p *PrometheusRecorder) IncReloadEvents(module string) {
	if p == nil {
		return
	}
	p.reloadEvents.WithLabelValues(module).Inc()
}

var _ Recorder = (*PrometheusRecorder)(nil)
