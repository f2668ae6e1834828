package sitemap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	eerrors "git.home.luguber.info/inful/enerator/internal/errors"
	"git.home.luguber.info/inful/enerator/internal/logfields"
)

// JSONStore keeps the sitemap in a single JSON object file.
type JSONStore struct {
	path string

	mu     sync.RWMutex
	cached Map // nil when not loaded

	hooks hooks
}

// NewJSONStore returns a store backed by path. The file is created on first write.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

// Read returns a copy of the sitemap. A missing file reads as empty; a corrupt
// file is logged and also reads as empty.
func (s *JSONStore) Read(ctx context.Context) (Map, error) {
	s.mu.RLock()
	if s.cached != nil {
		m := s.cached.Clone()
		s.mu.RUnlock()
		return m, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil {
		m, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		s.cached = m
	}
	return s.cached.Clone(), nil
}

func (s *JSONStore) load(ctx context.Context) (Map, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Map{}, nil
	}
	if err != nil {
		return nil, eerrors.FileSystemError("read", s.path, err)
	}

	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		serr := eerrors.SitemapCorrupt(s.path, err)
		slog.WarnContext(ctx, "Sitemap unreadable, treating as empty",
			logfields.Path(s.path), logfields.Error(serr))
		return Map{}, nil
	}
	if m == nil {
		m = Map{}
	}
	return m, nil
}

// Write replaces the whole sitemap. The file is written to a temporary sibling
// and renamed into place.
func (s *JSONStore) Write(ctx context.Context, m Map) error {
	s.mu.Lock()
	err := s.writeLocked(m)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "Sitemap written", logfields.Path(s.path), slog.Int("pages", len(m)))
	s.hooks.fire()
	return nil
}

func (s *JSONStore) writeLocked(m Map) error {
	if m == nil {
		m = Map{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return eerrors.SitemapWriteFailed(s.path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return eerrors.SitemapWriteFailed(s.path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return eerrors.SitemapWriteFailed(s.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return eerrors.SitemapWriteFailed(s.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return eerrors.SitemapWriteFailed(s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return eerrors.SitemapWriteFailed(s.path, fmt.Errorf("rename: %w", err))
	}

	s.cached = m.Clone()
	return nil
}

// Update merges partial onto the record for name, creating it if needed.
func (s *JSONStore) Update(ctx context.Context, name string, partial Page) error {
	m, err := s.Read(ctx)
	if err != nil {
		return err
	}
	m[name] = m[name].Merge(partial)
	return s.Write(ctx, m)
}

// Invalidate drops the read cache and runs the change hooks.
func (s *JSONStore) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
	s.hooks.fire()
}

// OnChange registers fn to run after every write or invalidation.
func (s *JSONStore) OnChange(fn func()) { s.hooks.add(fn) }

// Close is a no-op for the JSON store.
func (s *JSONStore) Close() error { return nil }

var _ Store = (*JSONStore)(nil)
