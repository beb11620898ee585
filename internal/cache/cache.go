// Package cache derives the per-repository cache directory that holds the
// generated tag and cross-reference artifacts.
//
// A repository's cache directory is named by a truncated SHA-224 digest of
// its absolute root path, nested under a per-user base directory
// (~/.fplugin_tag by default). The same root always maps to the same
// directory, so a build in one editor session is found by a load in the next.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// KeyLength is the number of hex characters kept from the digest.
	KeyLength = 16

	// BaseDirName is the default base directory name under the user's home.
	BaseDirName = ".fplugin_tag"
)

// Key returns the cache key for repoPath: the first KeyLength hex characters
// of SHA-224 over the path bytes.
func Key(repoPath string) string {
	return KeyN(repoPath, KeyLength)
}

// KeyN is Key with an explicit prefix length. n is clamped to the digest
// length (56 hex characters); n <= 0 means KeyLength.
func KeyN(repoPath string, n int) string {
	sum := sha256.Sum224([]byte(repoPath))
	key := hex.EncodeToString(sum[:])
	if n <= 0 {
		n = KeyLength
	}
	if n > len(key) {
		n = len(key)
	}
	return key[:n]
}

// DefaultBaseDir returns ~/.fplugin_tag.
func DefaultBaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, BaseDirName), nil
}

// Deriver computes cache directories under a fixed base directory.
type Deriver struct {
	BaseDir   string
	KeyLength int
}

// Path returns the cache directory for repoPath without touching the
// filesystem.
func (d Deriver) Path(repoPath string) string {
	return filepath.Join(d.BaseDir, KeyN(repoPath, d.KeyLength))
}

// Dir returns the cache directory for repoPath, creating it and any missing
// parents. Calling it repeatedly is harmless.
func (d Deriver) Dir(repoPath string) (string, error) {
	dir := d.Path(repoPath)
	if err := Ensure(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// Path is Deriver.Path with the default key length.
func Path(baseDir, repoPath string) string {
	return Deriver{BaseDir: baseDir}.Path(repoPath)
}

// Dir is Deriver.Dir with the default key length.
func Dir(baseDir, repoPath string) (string, error) {
	return Deriver{BaseDir: baseDir}.Dir(repoPath)
}

// Ensure creates dir and its parents if they do not exist.
func Ensure(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}
