package fplugin

import (
	"context"
	"errors"
	"path/filepath"
	"time"
)

// ErrNoCatalog is returned by catalog queries when the Engine runs without a
// build catalog.
var ErrNoCatalog = errors.New("build catalog unavailable")

// Status describes the index state of one repository.
type Status struct {
	Root       string
	CacheKey   string
	CacheDir   string
	Patterns   []string // active extension filter, as globs
	Artifacts  []Artifact
	Repository *Repository // nil when the catalog has never seen Root
	LastBuild  *Build      // nil when no build is recorded
}

// Artifact describes one index file in the cache directory.
type Artifact struct {
	Kind    IndexKind
	Path    string
	Present bool
	Size    int64
	ModTime time.Time
}

// Status reports the repository root, cache location, artifacts and last
// recorded build for startDir. It creates nothing.
func (e *Engine) Status(ctx context.Context, startDir string) (*Status, error) {
	root, cacheDir, err := e.CachePath(startDir)
	if err != nil {
		return nil, err
	}
	st := &Status{
		Root:     root,
		CacheKey: filepath.Base(cacheDir),
		CacheDir: cacheDir,
		Patterns: e.filter.Patterns(),
	}
	for _, kind := range IndexKinds {
		a := Artifact{Kind: kind, Path: filepath.Join(cacheDir, ArtifactFile(kind))}
		if info, ok := fileExists(a.Path); ok {
			a.Present = true
			a.Size = info.Size()
			a.ModTime = info.ModTime()
		}
		st.Artifacts = append(st.Artifacts, a)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.catalog == nil {
		return st, nil
	}
	r, err := e.catalog.RepositoryByPath(root)
	if err != nil || r == nil {
		return st, err
	}
	st.Repository = r
	b, err := e.catalog.LatestBuild(root)
	if err != nil {
		return nil, err
	}
	st.LastBuild = b
	return st, nil
}

// Repositories lists every repository in the build catalog, most recently
// built first.
func (e *Engine) Repositories() ([]*Repository, error) {
	if e.catalog == nil {
		return nil, ErrNoCatalog
	}
	return e.catalog.Repositories()
}
