package sitemap

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	eerrors "git.home.luguber.info/inful/enerator/internal/errors"
	"git.home.luguber.info/inful/enerator/internal/logfields"
	"git.home.luguber.info/inful/enerator/internal/retry"
)

// SQLiteStore keeps the sitemap in a SQLite database.
type SQLiteStore struct {
	path string
	db   *sql.DB

	mu     sync.RWMutex
	cached Map

	hooks hooks
	retry retry.Policy
}

// NewSQLiteStore opens (creating if needed) the database at path.
// Use ":memory:" for a throwaway store. A file that is not a readable SQLite
// database is moved to path+".corrupt" and the store starts empty.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, eerrors.FileSystemError("mkdir", filepath.Dir(path), err)
		}
	}
	s, err := openSQLiteStore(path)
	if err == nil || path == ":memory:" || !isCorrupt(err) {
		return s, err
	}

	aside := path + ".corrupt"
	slog.Warn("Sitemap database unreadable, starting with no pages",
		logfields.Path(path), slog.String("moved_to", aside),
		logfields.Error(eerrors.SitemapCorrupt(path, err)))
	if rerr := os.Rename(path, aside); rerr != nil {
		return nil, eerrors.FileSystemError("rename", path, rerr)
	}
	return openSQLiteStore(path)
}

func openSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{path: path, db: db, retry: retry.DefaultPolicy()}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS pages (
		name TEXT PRIMARY KEY,
		sitepath TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		extra TEXT
	);`)
	return err
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Read returns a copy of the sitemap. Rows whose extra column fails to decode
// are logged and read without extra.
func (s *SQLiteStore) Read(ctx context.Context) (Map, error) {
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

func (s *SQLiteStore) load(ctx context.Context) (Map, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, sitepath, title, extra FROM pages")
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	m := Map{}
	for rows.Next() {
		var (
			name  string
			page  Page
			extra sql.NullString
		)
		if err := rows.Scan(&name, &page.Sitepath, &page.Title, &extra); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		if extra.Valid && extra.String != "" {
			if err := json.Unmarshal([]byte(extra.String), &page.Extra); err != nil {
				slog.WarnContext(ctx, "Sitemap row has unreadable extra",
					logfields.Module(name), logfields.Error(eerrors.SitemapCorrupt(s.path, err)))
				page.Extra = nil
			}
		}
		m[name] = page
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return m, nil
}

// Write replaces every row in one transaction.
func (s *SQLiteStore) Write(ctx context.Context, m Map) error {
	s.mu.Lock()
	err := s.retry.Do(ctx, isBusy, func() error { return s.writeLocked(ctx, m) })
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.hooks.fire()
	return nil
}

func (s *SQLiteStore) writeLocked(ctx context.Context, m Map) error {
	if m == nil {
		m = Map{}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eerrors.SitemapWriteFailed(s.path, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM pages"); err != nil {
		return eerrors.SitemapWriteFailed(s.path, err)
	}
	for name, page := range m {
		var extra any
		if len(page.Extra) > 0 {
			data, err := json.Marshal(page.Extra)
			if err != nil {
				return eerrors.SitemapWriteFailed(s.path, err)
			}
			extra = string(data)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO pages (name, sitepath, title, extra) VALUES (?, ?, ?, ?)",
			name, page.Sitepath, page.Title, extra,
		); err != nil {
			return eerrors.SitemapWriteFailed(s.path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return eerrors.SitemapWriteFailed(s.path, err)
	}
	s.cached = m.Clone()
	return nil
}

// Update merges partial onto the record for name, creating it if needed.
func (s *SQLiteStore) Update(ctx context.Context, name string, partial Page) error {
	m, err := s.Read(ctx)
	if err != nil {
		return err
	}
	m[name] = m[name].Merge(partial)
	return s.Write(ctx, m)
}

// Invalidate drops the read cache and runs the change hooks.
func (s *SQLiteStore) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
	s.hooks.fire()
}

// OnChange registers fn to run after every write or invalidation.
func (s *SQLiteStore) OnChange(fn func()) { s.hooks.add(fn) }

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

var _ Store = (*SQLiteStore)(nil)

// sqliteCode returns the primary result code carried by err, or 0.
func sqliteCode(err error) int {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0
	}
	return se.Code() & 0xff
}

// isBusy reports whether another connection holds the database lock.
func isBusy(err error) bool {
	switch sqliteCode(err) {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

func isCorrupt(err error) bool {
	switch sqliteCode(err) {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return true
	}
	return false
}
