package preview

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"
)

// Meg is the size unit of the plaintext priming comment.
const Meg = 1 << 20

// ModifiedEvent is the reload notification sent on the event stream.
const ModifiedEvent = "data: modified\n\n"

// primer is a large SSE comment. Some browsers buffer event streams over
// plaintext HTTP until enough bytes have arrived; sending this ahead of the
// first event makes the event visible immediately.
var primer = sync.OnceValue(func() []byte {
	return []byte(": " + strings.Repeat(".", 2*Meg) + "\n\n")
})

// StatFunc reports a file's modification time and whether it exists.
type StatFunc func(path string) (time.Time, bool)

// OSStat is the StatFunc backed by os.Stat.
func OSStat(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Watcher is the per-connection live-reload state of one module.
type Watcher struct {
	module   string
	paths    []string
	snapshot map[string]time.Time
	primed   bool
	tls      bool
	stat     StatFunc
}

// NewWatcher snapshots paths. Changes already on disk at this point are
// never reported.
func NewWatcher(module string, paths []string, tls bool, stat StatFunc) *Watcher {
	if stat == nil {
		stat = OSStat
	}
	w := &Watcher{
		module: module,
		paths:  append([]string(nil), paths...),
		tls:    tls,
		stat:   stat,
	}
	w.snapshot = w.take()
	return w
}

func (w *Watcher) take() map[string]time.Time {
	snap := make(map[string]time.Time, len(w.paths))
	for _, p := range w.paths {
		if mt, ok := w.stat(p); ok {
			snap[p] = mt
		}
	}
	return snap
}

// Tick re-snapshots the watched paths and returns the chunks to send: nothing
// when unchanged, otherwise the reload event, preceded on the first change of
// a plaintext connection by the priming comment. A path that appears or whose
// modification time moves is a change; a path that vanishes is not.
func (w *Watcher) Tick() [][]byte {
	next := w.take()
	changed := false
	for p, mt := range next {
		if prev, ok := w.snapshot[p]; !ok || !prev.Equal(mt) {
			changed = true
			break
		}
	}
	w.snapshot = next
	if !changed {
		return nil
	}

	var out [][]byte
	if !w.primed && !w.tls {
		out = append(out, primer())
	}
	w.primed = true
	return append(out, []byte(ModifiedEvent))
}

// Run polls every interval until ctx is done or a write fails.
func (w *Watcher) Run(ctx context.Context, interval time.Duration, cw ChunkWriter, onEvent func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			chunks := w.Tick()
			for _, c := range chunks {
				if err := cw.WriteChunk(c); err != nil {
					return err
				}
			}
			if len(chunks) > 0 && onEvent != nil {
				onEvent()
			}
		}
	}
}
