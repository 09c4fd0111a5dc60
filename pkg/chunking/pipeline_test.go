package chunking

import (
	"context"
	"testing"

	"github.com/wikiforge/wikiforge/pkg/config"
)

func TestChunkRepo_EndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/greet.py", "def greet():\n    return 'hi'\n")
	writeFile(t, root, "README.md", "# hello\nsome prose here\n")
	writeFile(t, root, "vendor/dep.go", "package dep")

	cfg := config.DefaultChunkingConfig()
	cfg.ExcludedDirs = append(cfg.ExcludedDirs, "vendor")

	chunks, stats, err := ChunkRepo(context.Background(), nil, root, cfg, Filters{})
	if err != nil {
		t.Fatalf("chunk repo: %v", err)
	}
	if stats.TotalChunks != len(chunks) {
		t.Errorf("stats.TotalChunks %d != len(chunks) %d", stats.TotalChunks, len(chunks))
	}
	if stats.TotalChunks == 0 {
		t.Fatal("expected at least one chunk")
	}

	var sawPython, sawVendor bool
	for _, c := range chunks {
		if c.FilePath == "pkg/greet.py" {
			sawPython = true
		}
		if c.FilePath == "vendor/dep.go" {
			sawVendor = true
		}
	}
	if !sawPython {
		t.Error("expected a chunk from pkg/greet.py")
	}
	if sawVendor {
		t.Error("vendor/ should have been excluded")
	}
}
