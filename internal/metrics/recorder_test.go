package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResultFor(t *testing.T) {
	assert.Equal(t, ResultSuccess, ResultFor(nil))
	assert.Equal(t, ResultFailed, ResultFor(errors.New("boom")))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.ObserveRender("pages.home", time.Millisecond, ResultSuccess)
		r.ObserveRequest("page", 200, time.Millisecond)
		r.LiveReloadConnections(1)
		r.IncReloadEvents("pages.home")
	})
}
