package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite build catalog: which repositories were indexed, when,
// at which revision, and how each indexing pass ended.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled. The busy
// timeout lets two editor sessions record builds at the same time.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Open is NewStore followed by Migrate.
func Open(dbPath string) (*Store, error) {
	s, err := NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS repositories (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  cache_key       TEXT NOT NULL,
  cache_dir       TEXT NOT NULL,
  first_seen      TIMESTAMP,
  last_built      TIMESTAMP
);

CREATE TABLE IF NOT EXISTS builds (
  id              TEXT PRIMARY KEY,
  repository_id   INTEGER NOT NULL REFERENCES repositories(id),
  head_commit     TEXT,
  branch          TEXT,
  file_count      INTEGER NOT NULL DEFAULT 0,
  started_at      TIMESTAMP,
  finished_at     TIMESTAMP
);

CREATE TABLE IF NOT EXISTS passes (
  id              INTEGER PRIMARY KEY,
  build_id        TEXT NOT NULL REFERENCES builds(id),
  kind            TEXT NOT NULL,
  status          TEXT NOT NULL,
  tool            TEXT,
  diagnostic      TEXT,
  duration_ms     INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_builds_repository ON builds(repository_id, started_at);
CREATE INDEX IF NOT EXISTS idx_passes_build ON passes(build_id);
`
