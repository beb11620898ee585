package repo

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// skipDirs are never descended into by the filesystem walk.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// ListFiles returns the absolute paths of files under root accepted by keep,
// sorted. Inside a git work tree it asks git for tracked and untracked (but
// not ignored) files; otherwise, or when git is unavailable, it walks the
// filesystem skipping hidden directories, node_modules, vendor and
// __pycache__. A nil keep accepts everything.
func ListFiles(ctx context.Context, gitBin, root string, keep func(string) bool) ([]string, error) {
	paths, err := gitListFiles(ctx, gitBin, root)
	if err != nil {
		paths, err = walkListFiles(root)
		if err != nil {
			return nil, err
		}
	}

	var out []string
	for _, p := range paths {
		if keep == nil || keep(p) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// gitListFiles runs git ls-files in root and returns absolute paths.
func gitListFiles(ctx context.Context, gitBin, root string) ([]string, error) {
	if gitBin == "" {
		gitBin = "git"
	}
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.CommandContext(ctx, gitBin, "ls-files", "--cached", "--others", "--exclude-standard", "-z")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, name := range strings.Split(stdout.String(), "\x00") {
		if name == "" {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(name))
		// --cached still lists tracked files deleted from the work tree.
		if _, err := os.Lstat(path); err != nil {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem.
func walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// LsFiles lists version-controlled files in dir matching pattern, as paths
// relative to dir. Pattern matching is left to git (pathspec globbing).
func LsFiles(ctx context.Context, gitBin, dir, pattern string) ([]string, error) {
	if gitBin == "" {
		gitBin = "git"
	}
	// -z disables core.quotePath quoting of non-ASCII and special names.
	cmd := exec.CommandContext(ctx, gitBin, "ls-files", "-z", "--", pattern)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files %s: %w: %s", pattern, err, strings.TrimSpace(stderr.String()))
	}

	var files []string
	for _, name := range strings.Split(stdout.String(), "\x00") {
		if name == "" {
			continue
		}
		files = append(files, filepath.FromSlash(name))
	}
	return files, nil
}
