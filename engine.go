package fplugin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jward/fplugin/internal/cache"
	"github.com/jward/fplugin/internal/config"
	"github.com/jward/fplugin/internal/filter"
	"github.com/jward/fplugin/internal/repo"
	"github.com/jward/fplugin/internal/store"
)

// CatalogFileName is the build catalog's file name inside the base directory.
const CatalogFileName = "catalog.db"

// Engine runs the plugin operations against one Host.
type Engine struct {
	cfg     *config.Config
	host    Host
	log     *zap.Logger
	lister  FileLister
	filter  *filter.ExtensionFilter
	deriver cache.Deriver

	catalogPath string
	catalog     *store.Store // nil when disabled or unavailable
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithFileLister replaces the git-backed lister used by SearchFiles.
func WithFileLister(l FileLister) Option {
	return func(e *Engine) {
		e.lister = l
	}
}

// WithCatalog sets the build catalog database path. An empty path disables
// the catalog.
func WithCatalog(path string) Option {
	return func(e *Engine) {
		e.catalogPath = path
	}
}

// New creates an Engine for host. cfg nil means config.Default(). The build
// catalog defaults to <base_dir>/catalog.db; if it cannot be opened the
// Engine works without it.
func New(cfg *config.Config, host Host, opts ...Option) (*Engine, error) {
	if host == nil {
		return nil, errors.New("fplugin: nil host")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("fplugin: %w", err)
	}

	e := &Engine{
		cfg:         cfg,
		host:        host,
		log:         zap.NewNop(),
		filter:      filter.New(cfg.Index.Extensions...),
		deriver:     cache.Deriver{BaseDir: cfg.BaseDir, KeyLength: cfg.Cache.KeyLength},
		catalogPath: filepath.Join(cfg.BaseDir, CatalogFileName),
	}
	e.lister = gitLister{bin: cfg.Tools.Git}
	for _, opt := range opts {
		opt(e)
	}

	if e.catalogPath != "" {
		e.catalog = e.openCatalog()
	}
	return e, nil
}

func (e *Engine) openCatalog() *store.Store {
	if err := cache.Ensure(filepath.Dir(e.catalogPath)); err != nil {
		e.log.Warn("catalog unavailable", zap.String("path", e.catalogPath), zap.Error(err))
		return nil
	}
	s, err := store.Open(e.catalogPath)
	if err != nil {
		e.log.Warn("catalog unavailable", zap.String("path", e.catalogPath), zap.Error(err))
		return nil
	}
	return s
}

// Close releases the catalog.
func (e *Engine) Close() error {
	if e.catalog == nil {
		return nil
	}
	return e.catalog.Close()
}

// Config returns the configuration the Engine runs with.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Root returns the repository root for dir.
func (e *Engine) Root(dir string) (string, error) {
	root, err := repo.LocateRoot(dir, e.cfg.Root.MaxDepth)
	if err != nil {
		return "", fmt.Errorf("locate root: %w", err)
	}
	return root, nil
}

// CachePath returns the repository root for dir and its cache directory,
// without creating anything.
func (e *Engine) CachePath(dir string) (root, cacheDir string, err error) {
	root, err = e.Root(dir)
	if err != nil {
		return "", "", err
	}
	return root, e.deriver.Path(root), nil
}

// runTool runs an external program to completion and returns its combined
// output. A missing binary wraps ErrToolUnavailable; a nonzero exit is a
// *ToolError.
func (e *Engine) runTool(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	e.log.Debug("tool finished",
		zap.String("tool", name),
		zap.Strings("args", args),
		zap.String("dir", dir),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	if err == nil {
		return out.Bytes(), nil
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrToolUnavailable)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out.Bytes(), &ToolError{Tool: name, Args: args, ExitCode: exitErr.ExitCode(), Output: out.String()}
	}
	return nil, fmt.Errorf("run %s: %w", name, err)
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) (os.FileInfo, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, false
	}
	return info, true
}
