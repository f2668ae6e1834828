package preview

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/enerator/internal/logfields"
	"git.home.luguber.info/inful/enerator/internal/sitemap"
)

// WatchSitemap invalidates store whenever its backing file changes on disk,
// so edits made outside this process show up in routing. The returned
// function stops the watch.
func WatchSitemap(ctx context.Context, store sitemap.Store, logger *slog.Logger) (func(), error) {
	target, err := filepath.Abs(store.Path())
	if err != nil {
		return nil, fmt.Errorf("resolve sitemap path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	// Watch the directory: atomic writes replace the file, which drops a file watch.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				logger.DebugContext(ctx, "Sitemap changed on disk", logfields.Path(target), slog.String("op", ev.Op.String()))
				store.Invalidate()
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WarnContext(ctx, "Sitemap watch error", logfields.Error(werr))
			}
		}
	}()

	return func() {
		cancel()
		_ = watcher.Close()
		<-done
	}, nil
}
