package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testBuild(started time.Time, tagsStatus, xrefStatus string) *Build {
	return &Build{
		HeadCommit: "0123abcd",
		Branch:     "main",
		FileCount:  3,
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Passes: []*Pass{
			{Kind: "tags", Status: tagsStatus, Tool: "ctags", Duration: 1500 * time.Millisecond},
			{Kind: "xref", Status: xrefStatus, Tool: "cscope", Diagnostic: "cscope: cannot find file"},
		},
	}
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"repositories", "builds", "passes"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	// Running migrate again should not error.
	require.NoError(t, s.Migrate())
}

func TestNewStore_BadPath(t *testing.T) {
	t.Parallel()
	_, err := NewStore(filepath.Join(t.TempDir(), "missing", "dir", "catalog.db"))
	assert.Error(t, err)
}

// =============================================================================
// Builds
// =============================================================================

func TestRecordBuild_AssignsIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	started := time.Now().Truncate(time.Second)

	repo := &Repository{Path: "/repo", CacheKey: "f8f89d2dce0fb538", CacheDir: "/base/f8f89d2dce0fb538"}
	b := testBuild(started, PassOK, PassFailed)
	require.NoError(t, s.RecordBuild(repo, b))

	assert.Positive(t, repo.ID)
	assert.Len(t, b.ID, 36)
	assert.Equal(t, repo.ID, b.RepositoryID)
	for _, p := range b.Passes {
		assert.Positive(t, p.ID)
		assert.Equal(t, b.ID, p.BuildID)
	}
}

func TestLatestBuild_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	started := time.Now().Truncate(time.Second)

	repo := &Repository{Path: "/repo", CacheKey: "k", CacheDir: "/base/k"}
	require.NoError(t, s.RecordBuild(repo, testBuild(started, PassOK, PassFailed)))

	got, err := s.LatestBuild("/repo")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "0123abcd", got.HeadCommit)
	assert.Equal(t, "main", got.Branch)
	assert.Equal(t, 3, got.FileCount)
	assert.True(t, started.Equal(got.StartedAt))
	require.Len(t, got.Passes, 2)

	tags := got.Pass("tags")
	require.NotNil(t, tags)
	assert.False(t, tags.Failed())
	assert.Equal(t, 1500*time.Millisecond, tags.Duration)

	xref := got.Pass("xref")
	require.NotNil(t, xref)
	assert.True(t, xref.Failed())
	assert.Equal(t, "cscope: cannot find file", xref.Diagnostic)

	assert.Nil(t, got.Pass("nope"))
}

func TestLatestBuild_PicksNewest(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	older := time.Now().Add(-time.Hour).Truncate(time.Second)
	newer := older.Add(30 * time.Minute)

	require.NoError(t, s.RecordBuild(&Repository{Path: "/repo", CacheKey: "k", CacheDir: "/b/k"}, testBuild(older, PassFailed, PassFailed)))
	require.NoError(t, s.RecordBuild(&Repository{Path: "/repo", CacheKey: "k", CacheDir: "/b/k"}, testBuild(newer, PassOK, PassOK)))

	got, err := s.LatestBuild("/repo")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, newer.Equal(got.StartedAt))
	assert.False(t, got.Pass("tags").Failed())
}

func TestLatestBuild_NoneRecorded(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	got, err := s.LatestBuild("/never/built")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// Repositories
// =============================================================================

func TestRecordBuild_UpsertKeepsFirstSeen(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	first := time.Now().Add(-time.Hour).Truncate(time.Second)
	second := first.Add(time.Hour)

	r1 := &Repository{Path: "/repo", CacheKey: "k", CacheDir: "/b/k"}
	require.NoError(t, s.RecordBuild(r1, testBuild(first, PassOK, PassOK)))
	r2 := &Repository{Path: "/repo", CacheKey: "k", CacheDir: "/b2/k"}
	require.NoError(t, s.RecordBuild(r2, testBuild(second, PassOK, PassOK)))

	assert.Equal(t, r1.ID, r2.ID)
	assert.True(t, first.Equal(r2.FirstSeen))

	got, err := s.RepositoryByPath("/repo")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "/b2/k", got.CacheDir)
	assert.True(t, second.Add(2*time.Second).Equal(got.LastBuilt))
}

func TestRepositoryByPath_Missing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	got, err := s.RepositoryByPath("/missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepositories_MostRecentFirst(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	require.NoError(t, s.RecordBuild(&Repository{Path: "/old", CacheKey: "a", CacheDir: "/b/a"}, testBuild(base, PassOK, PassOK)))
	require.NoError(t, s.RecordBuild(&Repository{Path: "/new", CacheKey: "b", CacheDir: "/b/b"}, testBuild(base.Add(time.Minute), PassOK, PassOK)))

	repos, err := s.Repositories()
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "/new", repos[0].Path)
	assert.Equal(t, "/old", repos[1].Path)
}
