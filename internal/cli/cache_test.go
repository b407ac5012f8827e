package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	// Verify the expected structure: $HOME/.cache/extwrangler
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", "extwrangler")
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(xdg, "extwrangler"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestFileCacheDirFromConfig(t *testing.T) {
	cfgDir := t.TempDir()
	path := filepath.Join(cfgDir, "extwrangler.toml")
	if err := os.WriteFile(path, []byte("[cache]\ndir = \"/tmp/ew-cache\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	dir, err := fileCacheDir(path)
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/ew-cache" {
		t.Errorf("fileCacheDir() = %q, want /tmp/ew-cache", dir)
	}
}
