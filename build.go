package fplugin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jward/fplugin/internal/config"
	"github.com/jward/fplugin/internal/repo"
	"github.com/jward/fplugin/internal/store"
	"github.com/jward/fplugin/internal/tagger"
)

// Artifact and list file names inside a cache directory.
const (
	TagsFile       = "tags"
	TagsListFile   = "tags.files"
	XrefFile       = "cscope.out"
	XrefListFile   = "cscope.files"
	xrefInFile     = "cscope.in.out"
	xrefPostingOut = "cscope.po.out"
)

// ArtifactFile returns the file name of the artifact for kind.
func ArtifactFile(kind IndexKind) string {
	if kind == IndexXref {
		return XrefFile
	}
	return TagsFile
}

// BuildResult describes one BuildIndex run.
type BuildResult struct {
	Root     string
	CacheDir string
	Files    int
	Passes   []PassResult
}

// PassResult is the outcome of one indexing pass.
type PassResult struct {
	Kind     IndexKind
	Tool     string
	Artifact string
	Duration time.Duration
	Err      error
}

// OK reports whether the pass succeeded.
func (p PassResult) OK() bool {
	return p.Err == nil
}

type indexPass struct {
	kind IndexKind
	tool string
	run  func(ctx context.Context, b *buildContext) error
}

type buildContext struct {
	root     string
	cacheDir string
	files    []string
}

// BuildIndex generates the tags and cross-reference indexes for the
// repository containing startDir. The two passes are independent: one
// failing never stops the other. The returned error joins the failed passes
// and is nil when both succeed; the BuildResult is returned either way once
// the cache directory exists.
func (e *Engine) BuildIndex(ctx context.Context, startDir string) (*BuildResult, error) {
	root, err := e.Root(startDir)
	if err != nil {
		return nil, err
	}
	cacheDir, err := e.deriver.Dir(root)
	if err != nil {
		return nil, err
	}
	started := time.Now()

	files, err := repo.ListFiles(ctx, e.cfg.Tools.Git, root, e.filter.Match)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	if err := writeTagsList(filepath.Join(cacheDir, TagsListFile), files); err != nil {
		return nil, err
	}
	if err := writeXrefList(filepath.Join(cacheDir, XrefListFile), files); err != nil {
		return nil, err
	}
	e.log.Debug("indexing",
		zap.String("root", root),
		zap.String("cache_dir", cacheDir),
		zap.Stringer("filter", e.filter),
		zap.Int("files", len(files)),
	)

	b := &buildContext{root: root, cacheDir: cacheDir, files: files}
	passes := e.passes()
	results := make([]PassResult, len(passes))
	runPass := func(i int) {
		p := passes[i]
		start := time.Now()
		err := p.run(ctx, b)
		results[i] = PassResult{
			Kind:     p.kind,
			Tool:     p.tool,
			Artifact: filepath.Join(cacheDir, ArtifactFile(p.kind)),
			Duration: time.Since(start),
			Err:      err,
		}
	}

	if e.cfg.Index.Parallel {
		var wg sync.WaitGroup
		for i := range passes {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				runPass(i)
			}()
		}
		wg.Wait()
	} else {
		for i := range passes {
			runPass(i)
		}
	}

	e.recordBuild(root, cacheDir, len(files), started, results)

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s pass: %w", r.Kind, r.Err))
			e.host.Display(fmt.Sprintf("%s: failed: %v", r.Kind, r.Err))
			continue
		}
		e.host.Display(fmt.Sprintf("%s: %s", r.Kind, r.Artifact))
	}
	return &BuildResult{Root: root, CacheDir: cacheDir, Files: len(files), Passes: results}, errors.Join(errs...)
}

func (e *Engine) passes() []indexPass {
	tagsTool := e.cfg.Tools.Ctags
	if e.cfg.Index.Tagger == config.TaggerBuiltin {
		tagsTool = config.TaggerBuiltin
	}
	return []indexPass{
		{kind: IndexTags, tool: tagsTool, run: e.tagsPass},
		{kind: IndexXref, tool: e.cfg.Tools.Cscope, run: e.xrefPass},
	}
}

func (e *Engine) tagsPass(ctx context.Context, b *buildContext) error {
	out := filepath.Join(b.cacheDir, TagsFile)
	if err := removeArtifacts(out); err != nil {
		return err
	}

	if e.cfg.Index.Tagger == config.TaggerBuiltin {
		stats, err := tagger.New().Build(ctx, b.files, out)
		for _, ferr := range stats.Errors {
			e.log.Warn("tagging failed", zap.Error(ferr))
		}
		if err != nil {
			return err
		}
		e.log.Debug("builtin tagger finished",
			zap.Int("tagged", stats.Tagged),
			zap.Int("skipped", stats.Skipped),
			zap.Int("tags", stats.Tags),
		)
		return nil
	}

	_, err := e.runTool(ctx, b.root, e.cfg.Tools.Ctags,
		"-f", out,
		"-L", filepath.Join(b.cacheDir, TagsListFile),
	)
	return err
}

func (e *Engine) xrefPass(ctx context.Context, b *buildContext) error {
	if err := removeArtifacts(
		filepath.Join(b.cacheDir, XrefFile),
		filepath.Join(b.cacheDir, xrefInFile),
		filepath.Join(b.cacheDir, xrefPostingOut),
	); err != nil {
		return err
	}

	args := []string{"-b"}
	if e.cfg.Index.CscopeInverted {
		args = append(args, "-q")
	}
	args = append(args, "-i", XrefListFile, "-f", XrefFile)
	_, err := e.runTool(ctx, b.cacheDir, e.cfg.Tools.Cscope, args...)
	return err
}

// recordBuild stores the build in the catalog. Failures are logged only.
func (e *Engine) recordBuild(root, cacheDir string, files int, started time.Time, results []PassResult) {
	if e.catalog == nil {
		return
	}
	b := &store.Build{
		FileCount:  files,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if head, ok := repo.Head(root); ok {
		b.HeadCommit = head.Commit
		b.Branch = head.Branch
	}
	for _, r := range results {
		p := &store.Pass{Kind: string(r.Kind), Status: store.PassOK, Tool: r.Tool, Duration: r.Duration}
		if r.Err != nil {
			p.Status = store.PassFailed
			p.Diagnostic = r.Err.Error()
		}
		b.Passes = append(b.Passes, p)
	}
	r := &store.Repository{Path: root, CacheKey: filepath.Base(cacheDir), CacheDir: cacheDir}
	if err := e.catalog.RecordBuild(r, b); err != nil {
		e.log.Warn("recording build failed", zap.String("root", root), zap.Error(err))
	}
}

func removeArtifacts(paths ...string) error {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// writeTagsList writes one path per line, the format ctags -L reads.
func writeTagsList(path string, files []string) error {
	return writeLines(path, files, func(s string) string { return s })
}

// writeXrefList writes a cscope namefile. Paths with blanks or quotes are
// double-quoted with backslash escapes, which cscope unquotes.
func writeXrefList(path string, files []string) error {
	return writeLines(path, files, quoteXrefPath)
}

func quoteXrefPath(p string) string {
	if !strings.ContainsAny(p, " \t\"\\") {
		return p
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(p) + `"`
}

func writeLines(path string, lines []string, format func(string) string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		fmt.Fprintln(w, format(line))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
