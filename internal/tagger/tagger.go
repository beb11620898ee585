// Package tagger builds a ctags-compatible tag file without an external
// ctags binary. Definitions are found with tree-sitter queries for the
// languages it has grammars for; files in other languages are skipped.
package tagger

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Tag is one definition site.
type Tag struct {
	Name string
	Path string
	Line int    // 1-based
	Kind string // ctags kind letter
}

// Stats summarizes a Build.
type Stats struct {
	Files   int     // files offered
	Tagged  int     // files parsed with a grammar
	Skipped int     // files without a grammar
	Tags    int     // tags written
	Errors  []error // per-file failures; those files contribute no tags
}

// Tagger extracts definitions from source files.
type Tagger struct {
	workers int
}

// Option configures a Tagger.
type Option func(*Tagger)

// WithWorkers sets the number of files parsed concurrently. The default is
// runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(t *Tagger) {
		t.workers = n
	}
}

// New creates a Tagger.
func New(opts ...Option) *Tagger {
	t := &Tagger{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(t)
	}
	if t.workers < 1 {
		t.workers = 1
	}
	return t
}

// Build tags every path and writes the result to out, replacing any existing
// file. Per-file failures are collected in Stats.Errors and do not stop the
// build; only a failure to write out is returned as an error.
func (t *Tagger) Build(ctx context.Context, paths []string, out string) (Stats, error) {
	tags, stats := t.TagFiles(ctx, paths)
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if err := WriteFile(out, tags); err != nil {
		return stats, err
	}
	stats.Tags = len(tags)
	return stats, nil
}

// TagFiles tags paths with a pool of workers. Each worker owns its parser and
// compiled queries, since tree-sitter parsers are not goroutine-safe.
func (t *Tagger) TagFiles(ctx context.Context, paths []string) ([]Tag, Stats) {
	stats := Stats{Files: len(paths)}
	if len(paths) == 0 {
		return nil, stats
	}

	workCh := make(chan string, len(paths))
	for _, p := range paths {
		workCh <- p
	}
	close(workCh)

	type result struct {
		path    string
		tags    []Tag
		skipped bool
		err     error
	}
	resultCh := make(chan result, len(paths))

	var wg sync.WaitGroup
	for n := min(t.workers, len(paths)); n > 0; n-- {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := newWorker()
			defer w.close()
			for path := range workCh {
				if ctx.Err() != nil {
					resultCh <- result{path: path, err: ctx.Err()}
					continue
				}
				tags, ok, err := w.tagFile(ctx, path)
				resultCh <- result{path: path, tags: tags, skipped: !ok, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var all []Tag
	for res := range resultCh {
		switch {
		case res.err != nil:
			stats.Errors = append(stats.Errors, fmt.Errorf("tag %s: %w", res.path, res.err))
		case res.skipped:
			stats.Skipped++
		default:
			stats.Tagged++
			all = append(all, res.tags...)
		}
	}
	sortTags(all)
	return all, stats
}

// tagOne tags a single file with a throwaway worker. ok is false when no
// grammar handles the file.
func tagOne(ctx context.Context, path string) (tags []Tag, ok bool, err error) {
	w := newWorker()
	defer w.close()
	return w.tagFile(ctx, path)
}

// worker holds a parser and lazily compiled queries for one goroutine.
type worker struct {
	parser  *sitter.Parser
	queries map[string]*sitter.Query
}

func newWorker() *worker {
	return &worker{
		parser:  sitter.NewParser(),
		queries: make(map[string]*sitter.Query),
	}
}

func (w *worker) close() {
	for _, q := range w.queries {
		q.Close()
	}
	w.parser.Close()
}

func (w *worker) query(lang string, grammar *sitter.Language) (*sitter.Query, error) {
	if q, ok := w.queries[lang]; ok {
		return q, nil
	}
	q, err := sitter.NewQuery([]byte(definitionQueries[lang]), grammar)
	if err != nil {
		return nil, fmt.Errorf("compile %s query: %w", lang, err)
	}
	w.queries[lang] = q
	return q, nil
}

func (w *worker) tagFile(ctx context.Context, path string) ([]Tag, bool, error) {
	lang, ok := LanguageForFile(path)
	if !ok {
		return nil, false, nil
	}
	grammar, ok := grammarFor(lang)
	if !ok {
		return nil, false, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, true, fmt.Errorf("read file: %w", err)
	}

	w.parser.SetLanguage(grammar)
	tree, err := w.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, true, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	q, err := w.query(lang, grammar)
	if err != nil {
		return nil, true, err
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, tree.RootNode())

	var tags []Tag
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, src)
		for _, capture := range match.Captures {
			kind := q.CaptureNameForId(capture.Index)
			name := tagName(capture.Node.Content(src))
			if name == "" {
				continue
			}
			tags = append(tags, Tag{
				Name: name,
				Path: path,
				Line: int(capture.Node.StartPoint().Row) + 1,
				Kind: kindLetters[kind],
			})
		}
	}
	return tags, true, nil
}

// tagName reduces a qualified C++ name (ns::Type::method) to its last
// component, the way ctags names member definitions.
func tagName(s string) string {
	if i := strings.LastIndex(s, "::"); i >= 0 {
		s = s[i+2:]
	}
	return strings.TrimSpace(s)
}

// sortTags orders tags by name, path, then line; byte order, as required
// for the sorted-tags binary search editors perform.
func sortTags(tags []Tag) {
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Name != tags[j].Name {
			return tags[i].Name < tags[j].Name
		}
		if tags[i].Path != tags[j].Path {
			return tags[i].Path < tags[j].Path
		}
		return tags[i].Line < tags[j].Line
	})
}
