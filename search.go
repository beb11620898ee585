package fplugin

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jward/fplugin/internal/repo"
)

// Prompts shown by the interactive operations.
const (
	SearchPrompt  = "search file ?> "
	IndexPrompt   = "file index ?> "
	CommandPrompt = "command ?> "
)

// FileLister lists version-controlled files under dir matching a pathspec
// pattern. Returned paths are relative to dir.
type FileLister interface {
	ListFiles(ctx context.Context, dir, pattern string) ([]string, error)
}

type gitLister struct {
	bin string
}

func (g gitLister) ListFiles(ctx context.Context, dir, pattern string) ([]string, error) {
	return repo.LsFiles(ctx, g.bin, dir, pattern)
}

// SearchFiles asks for a pattern, shows the matching files as a numbered
// list and opens the one picked. An empty pattern, or an index that is
// empty, not a number or out of range, ends the search without effect.
func (e *Engine) SearchFiles(ctx context.Context, dir string) error {
	answer, err := e.host.Prompt(SearchPrompt)
	if err != nil {
		return err
	}
	pattern := strings.TrimSpace(answer)
	if pattern == "" {
		return nil
	}

	listed, err := e.lister.ListFiles(ctx, dir, pattern)
	if err != nil {
		return fmt.Errorf("search %q: %w", pattern, err)
	}
	var files []string
	for _, f := range listed {
		if strings.TrimSpace(f) != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		e.host.Display("no files matched")
		return nil
	}

	e.host.Display("-Result-")
	for i, f := range files {
		e.host.Display(fmt.Sprintf("[%d] : %s", i, f))
	}

	answer, err = e.host.Prompt(IndexPrompt)
	if err != nil {
		return err
	}
	i, ok := parseIndex(answer, len(files))
	if !ok {
		return nil
	}
	path := filepath.Join(dir, files[i])
	if err := e.host.OpenFile(path); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}

// parseIndex parses a zero-based list selection.
func parseIndex(s string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}
