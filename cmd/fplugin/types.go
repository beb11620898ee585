package main

import (
	"time"

	"github.com/jward/fplugin"
)

// CLIResult is the top-level JSON envelope for commands with --format json.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLICachePath is the result of cache-path.
type CLICachePath struct {
	Root     string `json:"root"`
	CacheDir string `json:"cache_dir"`
}

// CLIStatus is the result of status.
type CLIStatus struct {
	Root      string        `json:"root"`
	CacheKey  string        `json:"cache_key"`
	CacheDir  string        `json:"cache_dir"`
	Patterns  []string      `json:"patterns"`
	FirstSeen *time.Time    `json:"first_seen,omitempty"`
	Artifacts []CLIArtifact `json:"artifacts"`
	LastBuild *CLIBuild     `json:"last_build,omitempty"`
}

// CLIArtifact describes one index file.
type CLIArtifact struct {
	Kind    string     `json:"kind"`
	Path    string     `json:"path"`
	Present bool       `json:"present"`
	Size    int64      `json:"size,omitempty"`
	ModTime *time.Time `json:"mod_time,omitempty"`
}

// CLIBuild is a JSON-friendly catalog build record.
type CLIBuild struct {
	ID         string    `json:"id"`
	HeadCommit string    `json:"head_commit,omitempty"`
	Branch     string    `json:"branch,omitempty"`
	FileCount  int       `json:"file_count"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Passes     []CLIPass `json:"passes"`
}

// CLIPass is one pass of a build.
type CLIPass struct {
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Tool       string `json:"tool"`
	Diagnostic string `json:"diagnostic,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// CLIRepository is a JSON-friendly catalog repository.
type CLIRepository struct {
	Path      string    `json:"path"`
	CacheKey  string    `json:"cache_key"`
	CacheDir  string    `json:"cache_dir"`
	FirstSeen time.Time `json:"first_seen"`
	LastBuilt time.Time `json:"last_built"`
}

func statusToCLI(st *fplugin.Status) CLIStatus {
	out := CLIStatus{Root: st.Root, CacheKey: st.CacheKey, CacheDir: st.CacheDir, Patterns: st.Patterns}
	if st.Repository != nil {
		first := st.Repository.FirstSeen
		out.FirstSeen = &first
	}
	for _, a := range st.Artifacts {
		ca := CLIArtifact{Kind: string(a.Kind), Path: a.Path, Present: a.Present}
		if a.Present {
			mod := a.ModTime
			ca.Size = a.Size
			ca.ModTime = &mod
		}
		out.Artifacts = append(out.Artifacts, ca)
	}
	if st.LastBuild != nil {
		b := buildToCLI(st.LastBuild)
		out.LastBuild = &b
	}
	return out
}

func buildToCLI(b *fplugin.Build) CLIBuild {
	out := CLIBuild{
		ID:         b.ID,
		HeadCommit: b.HeadCommit,
		Branch:     b.Branch,
		FileCount:  b.FileCount,
		StartedAt:  b.StartedAt,
		FinishedAt: b.FinishedAt,
		Passes:     []CLIPass{},
	}
	for _, p := range b.Passes {
		out.Passes = append(out.Passes, CLIPass{
			Kind:       p.Kind,
			Status:     p.Status,
			Tool:       p.Tool,
			Diagnostic: p.Diagnostic,
			DurationMS: p.Duration.Milliseconds(),
		})
	}
	return out
}

func repositoryToCLI(r *fplugin.Repository) CLIRepository {
	return CLIRepository{
		Path:      r.Path,
		CacheKey:  r.CacheKey,
		CacheDir:  r.CacheDir,
		FirstSeen: r.FirstSeen,
		LastBuilt: r.LastBuilt,
	}
}
