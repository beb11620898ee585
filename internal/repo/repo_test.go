package repo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// realTempDir returns t.TempDir() with symlinks resolved, since LocateRoot
// returns resolved paths (macOS /var -> /private/var).
func realTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
}

// =============================================================================
// LocateRoot
// =============================================================================

func TestLocateRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := realTempDir(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	got, err := LocateRoot(root, DefaultMaxDepth)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestLocateRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := realTempDir(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	deep := filepath.Join(root, "src", "deep", "dir")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	got, err := LocateRoot(deep, 50)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestLocateRoot_GitFileMarker(t *testing.T) {
	t.Parallel()
	// Worktrees and submodules carry a .git file instead of a directory.
	root := realTempDir(t)
	writeFile(t, filepath.Join(root, ".git"), "gitdir: /elsewhere\n")
	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))

	got, err := LocateRoot(sub, 0)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestLocateRoot_ClosestMarkerWins(t *testing.T) {
	t.Parallel()
	outer := realTempDir(t)
	require.NoError(t, os.Mkdir(filepath.Join(outer, ".git"), 0o755))
	inner := filepath.Join(outer, "vendor", "lib")
	require.NoError(t, os.MkdirAll(filepath.Join(inner, ".git"), 0o755))
	start := filepath.Join(inner, "src")
	require.NoError(t, os.Mkdir(start, 0o755))

	got, err := LocateRoot(start, 50)
	require.NoError(t, err)
	assert.Equal(t, inner, got)
}

func TestLocateRoot_NoMarkerFallsBackToStart(t *testing.T) {
	t.Parallel()
	// TempDir has no .git directory anywhere in its ancestry
	// (unless /tmp itself is a repo, which would be unusual).
	dir := realTempDir(t)
	start := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(start, 0o755))

	got, err := LocateRoot(start, 50)
	require.NoError(t, err)
	if HasMarker(dir) || HasMarker(filepath.Dir(dir)) {
		t.Skip("temp dir is inside a git repository")
	}
	assert.Equal(t, start, got)
}

func TestLocateRoot_RespectsDepthBound(t *testing.T) {
	t.Parallel()
	root := realTempDir(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	start := filepath.Join(root, "a", "b", "c", "d")
	require.NoError(t, os.MkdirAll(start, 0o755))

	// start, c, b, a: four probes never reach root.
	got, err := LocateRoot(start, 4)
	require.NoError(t, err)
	assert.Equal(t, start, got)

	// The fifth probe is root.
	got, err = LocateRoot(start, 5)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestLocateRoot_ResolvesSymlinks(t *testing.T) {
	t.Parallel()
	root := realTempDir(t)
	repoDir := filepath.Join(root, "real")
	require.NoError(t, os.MkdirAll(filepath.Join(repoDir, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(repoDir, "src"), 0o755))
	link := filepath.Join(root, "link")
	if err := os.Symlink(repoDir, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := LocateRoot(filepath.Join(link, "src"), 50)
	require.NoError(t, err)
	assert.Equal(t, repoDir, got)
}

func TestLocateRoot_SymlinkIntoRepositoryUsesPhysicalParents(t *testing.T) {
	t.Parallel()
	root := realTempDir(t)
	repoDir := filepath.Join(root, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repoDir, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(repoDir, "ws", "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "home"), 0o755))
	link := filepath.Join(root, "home", "ws")
	if err := os.Symlink(filepath.Join(repoDir, "ws"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := LocateRoot(filepath.Join(link, "src"), 50)
	require.NoError(t, err)
	assert.Equal(t, repoDir, got)
}

func TestLocateRoot_AlwaysAbsoluteAndTerminates(t *testing.T) {
	t.Parallel()
	for _, start := range []string{".", "/", filepath.Join(os.TempDir(), "fplugin-does-not-exist", "x")} {
		got, err := LocateRoot(start, 50)
		require.NoError(t, err, start)
		assert.True(t, filepath.IsAbs(got), "%q -> %q", start, got)
	}
}

// =============================================================================
// ListFiles / LsFiles
// =============================================================================

func TestListFiles_WalkFallback(t *testing.T) {
	t.Parallel()
	root := realTempDir(t)
	writeFile(t, filepath.Join(root, "main.c"), "int main(void){return 0;}\n")
	writeFile(t, filepath.Join(root, "inc", "util.h"), "")
	writeFile(t, filepath.Join(root, "README.md"), "")
	writeFile(t, filepath.Join(root, ".hidden", "skip.c"), "")
	writeFile(t, filepath.Join(root, "node_modules", "dep.c"), "")
	writeFile(t, filepath.Join(root, "vendor", "dep.c"), "")

	keep := func(p string) bool { return strings.HasSuffix(p, ".c") || strings.HasSuffix(p, ".h") }
	got, err := ListFiles(context.Background(), "fplugin-no-such-git", root, keep)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "inc", "util.h"),
		filepath.Join(root, "main.c"),
	}, got)
}

func TestListFiles_NilKeepAcceptsAll(t *testing.T) {
	t.Parallel()
	root := realTempDir(t)
	writeFile(t, filepath.Join(root, "a.txt"), "")
	writeFile(t, filepath.Join(root, "b.c"), "")

	got, err := ListFiles(context.Background(), "fplugin-no-such-git", root, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestListFiles_Git(t *testing.T) {
	t.Parallel()
	requireGit(t)
	root := realTempDir(t)
	runGit(t, root, "init", "-q")
	writeFile(t, filepath.Join(root, ".gitignore"), "build/\n")
	writeFile(t, filepath.Join(root, "tracked.c"), "")
	writeFile(t, filepath.Join(root, "untracked.c"), "")
	writeFile(t, filepath.Join(root, "build", "ignored.c"), "")
	runGit(t, root, "add", "tracked.c")

	keep := func(p string) bool { return strings.HasSuffix(p, ".c") }
	got, err := ListFiles(context.Background(), "git", root, keep)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "tracked.c"),
		filepath.Join(root, "untracked.c"),
	}, got)
}

func TestLsFiles_Pattern(t *testing.T) {
	t.Parallel()
	requireGit(t)
	root := realTempDir(t)
	runGit(t, root, "init", "-q")
	for _, name := range []string{"a.py", "b.txt", "c.py"} {
		writeFile(t, filepath.Join(root, name), "")
	}
	runGit(t, root, "add", ".")

	got, err := LsFiles(context.Background(), "git", root, "*.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "c.py"}, got)
}

func TestLsFiles_NonASCIINamesAreNotQuoted(t *testing.T) {
	t.Parallel()
	requireGit(t)
	root := realTempDir(t)
	runGit(t, root, "init", "-q")
	writeFile(t, filepath.Join(root, "café.py"), "")
	writeFile(t, filepath.Join(root, "with space.py"), "")
	runGit(t, root, "add", ".")

	got, err := LsFiles(context.Background(), "git", root, "*.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"café.py", "with space.py"}, got)
	for _, name := range got {
		_, err := os.Stat(filepath.Join(root, name))
		assert.NoError(t, err, name)
	}
}

func TestListFiles_GitSkipsDeletedTrackedFiles(t *testing.T) {
	t.Parallel()
	requireGit(t)
	root := realTempDir(t)
	runGit(t, root, "init", "-q")
	writeFile(t, filepath.Join(root, "kept.c"), "")
	writeFile(t, filepath.Join(root, "gone.c"), "")
	runGit(t, root, "add", ".")
	require.NoError(t, os.Remove(filepath.Join(root, "gone.c")))

	got, err := ListFiles(context.Background(), "git", root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "kept.c")}, got)
}

func TestLsFiles_MissingBinary(t *testing.T) {
	t.Parallel()
	_, err := LsFiles(context.Background(), "fplugin-no-such-git", t.TempDir(), "*.py")
	assert.Error(t, err)
}

// =============================================================================
// Head
// =============================================================================

func TestHead_ReadsBranchAndCommit(t *testing.T) {
	t.Parallel()
	root := realTempDir(t)
	r, err := git.PlainInit(root, false)
	require.NoError(t, err)
	writeFile(t, filepath.Join(root, "main.c"), "int main(void){return 0;}\n")

	wt, err := r.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("main.c")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "t", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	info, ok := Head(root)
	require.True(t, ok)
	assert.Equal(t, hash.String(), info.Commit)
	assert.Equal(t, "master", info.Branch)
}

func TestHead_NotARepository(t *testing.T) {
	t.Parallel()
	_, ok := Head(t.TempDir())
	assert.False(t, ok)
}

func TestHead_NoCommitsYet(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	_, err := git.PlainInit(root, false)
	require.NoError(t, err)

	_, ok := Head(root)
	assert.False(t, ok)
}
