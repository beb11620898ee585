package fplugin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jward/fplugin/internal/store"
)

// IndexKinds lists the artifact kinds in the order they are loaded.
var IndexKinds = []IndexKind{IndexTags, IndexXref}

// LoadIndex registers the indexes of the repository containing startDir with
// the Host. It never creates the cache directory. Each missing artifact
// yields ErrIndexBuildFailed when the catalog records a failed pass for it,
// ErrIndexNotBuilt otherwise; a missing artifact does not stop the other
// from being registered.
func (e *Engine) LoadIndex(ctx context.Context, startDir string) error {
	root, cacheDir, err := e.CachePath(startDir)
	if err != nil {
		return err
	}
	e.host.Display(fmt.Sprintf("git path [%s] : tag path [%s]", root, cacheDir))

	var (
		errs      []error
		latest    *store.Build
		latestErr error
		looked    bool
	)
	for _, kind := range IndexKinds {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(cacheDir, ArtifactFile(kind))
		if _, ok := fileExists(path); ok {
			if err := e.host.RegisterIndex(kind, path); err != nil {
				errs = append(errs, fmt.Errorf("register %s index: %w", kind, err))
			}
			continue
		}

		if !looked {
			latest, latestErr = e.latestBuild(root)
			looked = true
		}
		if latestErr == nil && latest != nil {
			if p := latest.Pass(string(kind)); p != nil && p.Failed() {
				errs = append(errs, fmt.Errorf("%s index %s: %w: %s", kind, path, ErrIndexBuildFailed, p.Diagnostic))
				continue
			}
		}
		errs = append(errs, fmt.Errorf("%s index %s: %w", kind, path, ErrIndexNotBuilt))
	}
	return errors.Join(errs...)
}

func (e *Engine) latestBuild(root string) (*store.Build, error) {
	if e.catalog == nil {
		return nil, nil
	}
	b, err := e.catalog.LatestBuild(root)
	if err != nil {
		e.log.Warn("reading catalog failed", zap.String("root", root), zap.Error(err))
		return nil, err
	}
	return b, nil
}
