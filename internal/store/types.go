package store

import "time"

// Pass statuses.
const (
	PassOK     = "ok"
	PassFailed = "failed"
)

type Repository struct {
	ID        int64
	Path      string
	CacheKey  string
	CacheDir  string
	FirstSeen time.Time
	LastBuilt time.Time
}

type Build struct {
	ID           string
	RepositoryID int64
	RepoPath     string
	HeadCommit   string
	Branch       string
	FileCount    int
	StartedAt    time.Time
	FinishedAt   time.Time
	Passes       []*Pass
}

// Pass returns the pass of the given kind, or nil.
func (b *Build) Pass(kind string) *Pass {
	for _, p := range b.Passes {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}

type Pass struct {
	ID         int64
	BuildID    string
	Kind       string
	Status     string
	Tool       string
	Diagnostic string
	Duration   time.Duration
}

// Failed reports whether the pass ended in failure.
func (p *Pass) Failed() bool {
	return p.Status == PassFailed
}
