// Package metrics provides observability hooks for rendering and the preview server.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics cost nothing unless a real recorder is wired in:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	renderer := render.New(cache, table, store, render.WithRecorder(recorder))
//
// The preview command activates the Prometheus recorder when an admin address
// is configured and serves it through HTTPHandler.
package metrics
