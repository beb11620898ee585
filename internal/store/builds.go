package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordBuild upserts the repository row and inserts the build with its
// passes in a single transaction. IDs are assigned on the given structs:
// repo.ID, b.ID (a new UUID when empty), b.RepositoryID and each pass ID.
func (s *Store) RecordBuild(repo *Repository, b *Build) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("record build: begin: %w", err)
	}
	defer tx.Rollback()

	if repo.FirstSeen.IsZero() {
		repo.FirstSeen = b.StartedAt
	}
	repo.LastBuilt = b.FinishedAt
	if _, err := tx.Exec(
		`INSERT INTO repositories (path, cache_key, cache_dir, first_seen, last_built)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   cache_key = excluded.cache_key,
		   cache_dir = excluded.cache_dir,
		   last_built = excluded.last_built`,
		repo.Path, repo.CacheKey, repo.CacheDir, repo.FirstSeen, repo.LastBuilt,
	); err != nil {
		return fmt.Errorf("record build: repository %s: %w", repo.Path, err)
	}
	if err := tx.QueryRow(
		"SELECT id, first_seen FROM repositories WHERE path = ?", repo.Path,
	).Scan(&repo.ID, &repo.FirstSeen); err != nil {
		return fmt.Errorf("record build: repository id: %w", err)
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.RepositoryID = repo.ID
	b.RepoPath = repo.Path
	if _, err := tx.Exec(
		`INSERT INTO builds (id, repository_id, head_commit, branch, file_count, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.RepositoryID, b.HeadCommit, b.Branch, b.FileCount, b.StartedAt, b.FinishedAt,
	); err != nil {
		return fmt.Errorf("record build: insert build: %w", err)
	}

	for _, p := range b.Passes {
		p.BuildID = b.ID
		res, err := tx.Exec(
			`INSERT INTO passes (build_id, kind, status, tool, diagnostic, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.BuildID, p.Kind, p.Status, p.Tool, p.Diagnostic, p.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("record build: pass %s: %w", p.Kind, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		p.ID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record build: commit: %w", err)
	}
	return nil
}

// RepositoryByPath returns the repository row for path, or nil if the
// repository was never built.
func (s *Store) RepositoryByPath(path string) (*Repository, error) {
	r := &Repository{}
	err := s.db.QueryRow(
		"SELECT id, path, cache_key, cache_dir, first_seen, last_built FROM repositories WHERE path = ?", path,
	).Scan(&r.ID, &r.Path, &r.CacheKey, &r.CacheDir, &r.FirstSeen, &r.LastBuilt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository by path: %w", err)
	}
	return r, nil
}

// Repositories returns every recorded repository, most recently built first.
func (s *Store) Repositories() ([]*Repository, error) {
	rows, err := s.db.Query(
		"SELECT id, path, cache_key, cache_dir, first_seen, last_built FROM repositories ORDER BY last_built DESC, path",
	)
	if err != nil {
		return nil, fmt.Errorf("repositories: %w", err)
	}
	defer rows.Close()

	var repos []*Repository
	for rows.Next() {
		r := &Repository{}
		if err := rows.Scan(&r.ID, &r.Path, &r.CacheKey, &r.CacheDir, &r.FirstSeen, &r.LastBuilt); err != nil {
			return nil, fmt.Errorf("repositories: scan: %w", err)
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

// LatestBuild returns the most recent build recorded for repoPath with its
// passes, or nil if there is none.
func (s *Store) LatestBuild(repoPath string) (*Build, error) {
	b := &Build{RepoPath: repoPath}
	err := s.db.QueryRow(
		`SELECT b.id, b.repository_id, b.head_commit, b.branch, b.file_count, b.started_at, b.finished_at
		 FROM builds b JOIN repositories r ON r.id = b.repository_id
		 WHERE r.path = ?
		 ORDER BY b.started_at DESC, b.rowid DESC
		 LIMIT 1`, repoPath,
	).Scan(&b.ID, &b.RepositoryID, &b.HeadCommit, &b.Branch, &b.FileCount, &b.StartedAt, &b.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest build: %w", err)
	}

	passes, err := s.passesForBuild(b.ID)
	if err != nil {
		return nil, err
	}
	b.Passes = passes
	return b, nil
}

func (s *Store) passesForBuild(buildID string) ([]*Pass, error) {
	rows, err := s.db.Query(
		"SELECT id, build_id, kind, status, tool, diagnostic, duration_ms FROM passes WHERE build_id = ? ORDER BY id",
		buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("passes for build: %w", err)
	}
	defer rows.Close()

	var passes []*Pass
	for rows.Next() {
		p := &Pass{}
		var ms int64
		if err := rows.Scan(&p.ID, &p.BuildID, &p.Kind, &p.Status, &p.Tool, &p.Diagnostic, &ms); err != nil {
			return nil, fmt.Errorf("passes for build: scan: %w", err)
		}
		p.Duration = time.Duration(ms) * time.Millisecond
		passes = append(passes, p)
	}
	return passes, rows.Err()
}
