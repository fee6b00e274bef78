// Package storage caches rendered payloads in SQLite so unchanged fixtures are
// not re-rendered, and writes rendered output files atomically.
//
// Cache entries are keyed by the fixture digest and the view key. Rotation keeps
// the most recent entries and drops the rest, so the cache never grows without
// bound.
package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// createdAtLayout is fixed width so created_at text sorts chronologically.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no cached render matches.
var ErrNotFound = errors.New("render not found")

// Entry is one cached render.
type Entry struct {
	ID        string
	Digest    string
	ViewKey   string
	CreatedAt time.Time
	Payload   []byte
}

// Store is a SQLite-backed render cache.
type Store struct {
	db         *sql.DB
	maxEntries int
	now        func() time.Time
}

// Open creates or opens the cache database at path, creating its directory
// with dirPermissions when missing. If path is empty, the OS tmp directory is used.
func Open(path string, maxEntries int, dirPermissions os.FileMode) (*Store, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), "trendline", "renders.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{db: db, maxEntries: maxEntries, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached render for digest and viewKey.
// Returns ErrNotFound if there is none.
func (s *Store) Get(digest, viewKey string) (*Entry, error) {
	var (
		e         Entry
		createdAt string
	)
	err := s.db.QueryRow(
		`SELECT id, digest, view_key, created_at, payload FROM renders WHERE digest = ? AND view_key = ?`,
		digest, viewKey,
	).Scan(&e.ID, &e.Digest, &e.ViewKey, &createdAt, &e.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query render: %w", err)
	}

	e.CreatedAt, err = time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &e, nil
}

// Put stores payload for digest and viewKey, replacing any previous entry for
// the same pair, and returns the stored entry.
func (s *Store) Put(digest, viewKey string, payload []byte) (*Entry, error) {
	if digest == "" || viewKey == "" {
		return nil, errors.New("digest and view key must not be empty")
	}

	e := &Entry{
		ID:        uuid.New().String(),
		Digest:    digest,
		ViewKey:   viewKey,
		CreatedAt: s.now().UTC(),
		Payload:   payload,
	}
	_, err := s.db.Exec(
		`INSERT INTO renders (id, digest, view_key, created_at, payload) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (digest, view_key) DO UPDATE SET id = excluded.id, created_at = excluded.created_at, payload = excluded.payload`,
		e.ID, e.Digest, e.ViewKey, e.CreatedAt.Format(createdAtLayout), e.Payload,
	)
	if err != nil {
		return nil, fmt.Errorf("insert render: %w", err)
	}
	return e, nil
}

// Count returns the number of cached renders.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM renders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count renders: %w", err)
	}
	return n, nil
}

// Rotate removes the oldest renders exceeding the max entry limit and returns
// how many were removed. A limit of zero or less disables rotation.
func (s *Store) Rotate() (int, error) {
	if s.maxEntries <= 0 {
		return 0, nil
	}
	res, err := s.db.Exec(
		`DELETE FROM renders WHERE id NOT IN (
			SELECT id FROM renders ORDER BY created_at DESC, id DESC LIMIT ?
		)`,
		s.maxEntries,
	)
	if err != nil {
		return 0, fmt.Errorf("rotate renders: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rotate renders: %w", err)
	}
	return int(n), nil
}
