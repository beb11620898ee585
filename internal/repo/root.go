// Package repo locates repository roots and enumerates the files inside them.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// Marker is the version-control entry that identifies a repository root.
	Marker = ".git"

	// DefaultMaxDepth bounds how many directories LocateRoot probes.
	DefaultMaxDepth = 50
)

// LocateRoot walks up from start looking for a directory that contains a
// .git entry (a directory, or a file for worktrees and submodules). At most
// maxDepth directories are probed, start included; maxDepth <= 0 means
// DefaultMaxDepth. The bound keeps the walk finite even when a bind mount
// never reaches a true root.
//
// Symlinks in start are resolved before the walk, so parents are the
// physical ones. The first match is returned as an absolute, symlink-resolved
// path. When no directory within the bound matches, the resolved start
// directory itself is returned. That fallback is not an error.
func LocateRoot(start string, maxDepth int) (string, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", start, err)
	}

	// Walk physical parents: a symlinked start directory belongs to the
	// repository its target lives in.
	start = resolve(abs)
	dir := start
	for n := 0; n < maxDepth; n++ {
		if HasMarker(dir) {
			return resolve(dir), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return start, nil
}

// HasMarker reports whether dir directly contains a .git entry.
func HasMarker(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, Marker))
	return err == nil
}

// resolve evaluates symlinks, keeping the lexical path when that fails
// (for example when start does not exist).
func resolve(dir string) string {
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		return real
	}
	return dir
}
