package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/extwrangler/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if _, err := Default().Grammar(); err != nil {
		t.Fatalf("Default().Grammar() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[registry]
spec_dir = "/opt/vulkan"
exclude_apis = []

[output]
file = "Ext.hpp"
feature_structs = false

[cache]
ttl = "2h"
redis_url = "redis://localhost:6379/1"

[serve]
addr = ":9000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Registry.SpecDir != "/opt/vulkan" || len(cfg.Registry.ExcludeAPIs) != 0 {
		t.Errorf("registry = %+v", cfg.Registry)
	}
	if cfg.Output.File != "Ext.hpp" || cfg.Output.FeatureStructs {
		t.Errorf("output = %+v", cfg.Output)
	}
	// unset keys keep their defaults
	if cfg.Output.GuardPrefix != Default().Output.GuardPrefix {
		t.Errorf("guard prefix = %q", cfg.Output.GuardPrefix)
	}
	if cfg.Cache.TTL != 2*time.Hour || cfg.Cache.RedisURL == "" || !cfg.Cache.Enabled {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Serve.Addr != ":9000" {
		t.Errorf("serve = %+v", cfg.Serve)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"syntax", "[output\nfile=", errors.ErrCodeInvalidConfig},
		{"unknown key", "[output]\ncolour = true\n", errors.ErrCodeInvalidConfig},
		{"bad pattern", "[registry]\nversion_pattern = \"(\"\n", errors.ErrCodeInvalidConfig},
		{"path in file name", "[output]\nfile = \"../x.hpp\"\n", errors.ErrCodeInvalidConfig},
		{"bad guard", "[output]\nguard_prefix = \"1-BAD\"\n", errors.ErrCodeInvalidConfig},
		{"negative concurrency", "[resolve]\nconcurrency = -1\n", errors.ErrCodeInvalidConfig},
		{"empty addr", "[serve]\naddr = \"\"\n", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file: err = %v", err)
	}

	wd, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("implicit missing file: %v", err)
	}
	if cfg.Output.File != Default().Output.File {
		t.Errorf("defaults not applied: %+v", cfg.Output)
	}
}
