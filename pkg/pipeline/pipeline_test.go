package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/extwrangler/pkg/cache"
	"github.com/matzehuels/extwrangler/pkg/diag"
	"github.com/matzehuels/extwrangler/pkg/errors"
	"github.com/matzehuels/extwrangler/pkg/render/nodelink"
)

const fixture = "../registry/testdata/vk.xml"

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"hpp", false},
		{"json", false},
		{"yaml", false},
		{"svg", true},
		{"HPP", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero options should validate: %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatHeader {
		t.Errorf("Formats = %v, want [hpp]", opts.Formats)
	}
	if opts.OutputFile != "GeneratedExtensionHeader.hpp" || opts.Logger == nil || opts.grammar == nil {
		t.Errorf("defaults not applied: %+v", opts)
	}

	tests := []struct {
		name string
		opts Options
	}{
		{"bad pattern", Options{VersionPattern: "("}},
		{"bad format", Options{Formats: []string{"pdf"}}},
		{"bad file", Options{OutputFile: "../escape.hpp"}},
		{"negative concurrency", Options{Concurrency: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	opts := Options{OutputDir: "out", OutputFile: "Ext.hpp"}
	tests := map[string]string{
		FormatHeader: filepath.Join("out", "Ext.hpp"),
		FormatJSON:   filepath.Join("out", "Ext.json"),
		FormatYAML:   filepath.Join("out", "Ext.yaml"),
	}
	for format, want := range tests {
		if got := opts.OutputPath(format); got != want {
			t.Errorf("OutputPath(%s) = %s, want %s", format, got, want)
		}
	}
}

func fixtureOptions(t *testing.T) Options {
	return Options{
		SpecDir:        fixture,
		ExcludeAPIs:    []string{"vulkansc"},
		FeatureStructs: true,
		OutputDir:      t.TempDir(),
		Formats:        []string{FormatHeader, FormatJSON, FormatYAML},
	}
}

func countKind(ws []diag.Warning, k diag.Kind) int {
	n := 0
	for _, w := range ws {
		if w.Kind == k {
			n++
		}
	}
	return n
}

func TestExecute(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	opts := fixtureOptions(t)

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.Versions != 4 || result.Stats.Extensions != 7 || result.Stats.Aliases != 1 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if len(result.Removed) != 5 {
		t.Errorf("removed = %v", result.Removed)
	}
	if got := countKind(result.Warnings, diag.Dangling); got != 1 {
		t.Errorf("dangling warnings = %d, want 1", got)
	}
	if got := countKind(result.Warnings, diag.Skipped); got != 5 {
		t.Errorf("skipped warnings = %d, want 5", got)
	}

	for _, format := range opts.Formats {
		path, ok := result.Files[format]
		if !ok {
			t.Errorf("no file for %s", format)
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", path, err)
		}
	}
	header, _ := os.ReadFile(result.Files[FormatHeader])
	if !strings.Contains(string(header), "struct QueriedDeviceFeatures") {
		t.Error("header lacks QueriedDeviceFeatures")
	}
}

func TestExecuteUsesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	runner := NewRunner(c, nil, log.New(&logs))
	defer runner.Close()
	ctx := context.Background()

	first, err := runner.Resolve(ctx, fixtureOptions(t))
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.ModelHit {
		t.Error("first run should miss")
	}

	logs.Reset()
	second, err := runner.Resolve(ctx, fixtureOptions(t))
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.ModelHit {
		t.Error("second run should hit")
	}
	if got := countKind(second.Warnings, diag.Dangling); got != 1 {
		t.Errorf("cached run dangling warnings = %d, want 1", got)
	}
	if got := countKind(second.Warnings, diag.Skipped); got != 0 {
		t.Errorf("cached run skipped warnings = %d, want 0", got)
	}
	if !strings.Contains(logs.String(), "VK_KHR_create_renderpass2") {
		t.Errorf("cached run did not log the dangling reference:\n%s", logs.String())
	}
	if second.Stats.Extensions != first.Stats.Extensions {
		t.Errorf("cached model differs: %d vs %d extensions", second.Stats.Extensions, first.Stats.Extensions)
	}

	opts := fixtureOptions(t)
	opts.Refresh = true
	third, err := runner.Resolve(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.ModelHit {
		t.Error("refresh should bypass the cache")
	}

	opts = fixtureOptions(t)
	opts.FeatureStructs = false
	other, err := runner.Resolve(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheInfo.ModelHit {
		t.Error("different options must not share a cache entry")
	}
}

const badRegistry = `<?xml version="1.0" encoding="UTF-8"?>
<registry>
    <feature api="vulkan" name="VK_VERSION_1_0" number="1.0"/>
    <extensions>
        <extension name="VK_KHR_broken" number="1" type="device" depends="VK_KHR_a+" supported="vulkan"/>
    </extensions>
</registry>
`

func TestExecuteParseErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	spec := filepath.Join(dir, "vk.xml")
	if err := os.WriteFile(spec, []byte(badRegistry), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")

	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{SpecDir: dir, OutputDir: out})
	if !errors.Is(err, errors.ErrCodeInvalidExpression) {
		t.Fatalf("err = %v, want INVALID_EXPRESSION", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output dir created despite parse error: %v", err)
	}
}

func TestExecuteFailedWriteKeepsOutputs(t *testing.T) {
	opts := fixtureOptions(t)
	opts.Formats = []string{FormatHeader, FormatJSON}
	header := filepath.Join(opts.OutputDir, "GeneratedExtensionHeader.hpp")
	if err := os.WriteFile(header, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(opts.OutputDir, "GeneratedExtensionHeader.json"), 0755); err != nil {
		t.Fatal(err)
	}

	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Fatalf("err = %v, want INVALID_PATH", err)
	}
	if data, _ := os.ReadFile(header); string(data) != "old" {
		t.Error("header replaced although another output failed")
	}
	entries, _ := os.ReadDir(opts.OutputDir)
	if len(entries) != 2 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestExecuteMissingRegistry(t *testing.T) {
	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{SpecDir: t.TempDir()})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestGraph(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	ctx := context.Background()

	result, err := runner.Resolve(ctx, fixtureOptions(t))
	if err != nil {
		t.Fatal(err)
	}

	dot, hit, err := runner.Graph(ctx, result.Model, "VK_VERSION_1_0", "dot", nodelink.Options{})
	if err != nil || hit {
		t.Fatalf("Graph: hit=%v err=%v", hit, err)
	}
	if !strings.Contains(string(dot), `"VK_KHR_swapchain" -> "VK_KHR_surface";`) {
		t.Errorf("unexpected dot:\n%s", dot)
	}

	again, hit, err := runner.Graph(ctx, result.Model, "VK_VERSION_1_0", "dot", nodelink.Options{})
	if err != nil || !hit || string(again) != string(dot) {
		t.Errorf("second Graph: hit=%v err=%v", hit, err)
	}

	if _, _, err := runner.Graph(ctx, result.Model, "VK_VERSION_1_0", "png", nodelink.Options{}); err == nil {
		t.Error("png should be rejected")
	}
}
