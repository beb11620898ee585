package fplugin

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/jward/fplugin/internal/cache"
	"github.com/jward/fplugin/internal/config"
)

// benchCSource is a small C translation unit used to populate the
// benchmark repository.
const benchCSource = `#include <stdio.h>

#define BUF_SIZE 128

struct buffer {
	char data[BUF_SIZE];
	int len;
};

typedef struct buffer buffer_t;

static void buffer_reset(buffer_t *b) { b->len = 0; }

int buffer_append(buffer_t *b, char c) {
	if (b->len >= BUF_SIZE) {
		return -1;
	}
	b->data[b->len++] = c;
	return 0;
}

void buffer_print(const buffer_t *b) {
	fwrite(b->data, 1, b->len, stdout);
}
`

// setupBenchRepo creates a repository with n C files and an Engine that
// tags with the builtin tagger and runs "true" as cscope.
func setupBenchRepo(b *testing.B, n int) (*Engine, string) {
	b.Helper()
	truePath, err := exec.LookPath("true")
	if err != nil {
		b.Skip("true not available")
	}

	root := b.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		b.Fatal(err)
	}
	for i := 0; i < n; i++ {
		path := filepath.Join(root, fmt.Sprintf("pkg%d", i%8), fmt.Sprintf("buf%d.c", i))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			b.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(benchCSource), 0o644); err != nil {
			b.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.BaseDir = b.TempDir()
	cfg.Tools.Git = "fplugin-no-such-git"
	cfg.Tools.Cscope = truePath
	cfg.Index.Tagger = config.TaggerBuiltin

	e, err := New(cfg, discardHost{}, WithCatalog(""))
	if err != nil {
		b.Fatal(err)
	}
	return e, root
}

type discardHost struct{}

func (discardHost) Prompt(string) (string, error) { return "", nil }
func (discardHost) OpenFile(string) error { return nil }
func (discardHost) RegisterIndex(IndexKind, string) error { return nil }
func (discardHost) Display(string) {}

// BenchmarkBuildIndex_Builtin measures a full build of 200 files: listing,
// list files, builtin tags pass and a no-op xref pass.
func BenchmarkBuildIndex_Builtin(b *testing.B) {
	e, root := setupBenchRepo(b, 200)
	defer e.Close()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.BuildIndex(ctx, root); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCacheKey measures deriving a cache directory name.
func BenchmarkCacheKey(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = cache.Key("/home/user/src/github.com/example/project")
	}
}
