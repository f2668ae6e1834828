package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// ResultFor maps an error to a result label.
func ResultFor(err error) ResultLabel {
	if err != nil {
		return ResultFailed
	}
	return ResultSuccess
}

// Recorder defines observability hooks. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveRender(module string, d time.Duration, result ResultLabel)
	ObserveRequest(route string, status int, d time.Duration)
	// LiveReloadConnections adjusts the open live-reload connection gauge by delta.
	LiveReloadConnections(delta int)
	IncReloadEvents(module string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRender(string, time.Duration, ResultLabel) {}
func (NoopRecorder) ObserveRequest(string, int, time.Duration)        {}
func (NoopRecorder) LiveReloadConnections(int)                        {}
func (NoopRecorder) IncReloadEvents(string)                           {}
