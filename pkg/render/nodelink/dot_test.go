package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/extwrangler/pkg/emit"
	"github.com/matzehuels/extwrangler/pkg/errors"
)

func testModel() *emit.Model {
	return &emit.Model{
		Versions: []emit.Version{
			{Name: "VK_VERSION_1_0", Number: "1.0", Macro: "VK_API_VERSION_1_0"},
			{Name: "VK_VERSION_1_1", Number: "1.1", Macro: "VK_API_VERSION_1_1"},
		},
		Extensions: []emit.Extension{
			{Index: 0, Name: "VK_KHR_surface", Type: "instance", Deps: []emit.Entry{{Version: "VK_VERSION_1_0"}}},
			{Index: 1, Name: "VK_KHR_swapchain", Type: "device", Deps: []emit.Entry{
				{Version: "VK_VERSION_1_0", Requires: []string{"VK_KHR_surface"}},
			}},
			{Index: 2, Name: "VK_KHR_multiview", Type: "device", PromotedTo: "VK_VERSION_1_1", Deps: []emit.Entry{
				{Version: "VK_VERSION_1_0", Requires: []string{"VK_KHR_swapchain"}},
				{Version: "VK_VERSION_1_1", Promoted: true},
			}},
			{Index: 3, Name: "VK_KHR_late", Type: "device", Deps: []emit.Entry{
				{Version: "VK_VERSION_1_1", Requires: []string{"VK_KHR_surface"}},
			}},
		},
	}
}

func TestToDOT(t *testing.T) {
	tests := []struct {
		name    string
		version string
		opts    Options
		want    []string
		notWant []string
	}{
		{
			name:    "base version",
			version: "VK_VERSION_1_0",
			want: []string{
				`"VK_KHR_swapchain" -> "VK_KHR_surface";`,
				`"VK_KHR_multiview" -> "VK_KHR_swapchain";`,
				`label="VK_VERSION_1_0";`,
			},
			notWant: []string{`"VK_KHR_late"`},
		},
		{
			name:    "promoted drawn dashed without edges",
			version: "VK_VERSION_1_1",
			want: []string{
				`"VK_KHR_multiview" [label="VK_KHR_multiview", style="rounded,filled,dashed"`,
				`"VK_KHR_late" -> "VK_KHR_surface";`,
			},
			notWant: []string{`"VK_KHR_multiview" ->`},
		},
		{
			name:    "hide promoted",
			version: "VK_VERSION_1_1",
			opts:    Options{HidePromoted: true},
			notWant: []string{`"VK_KHR_multiview"`},
		},
		{
			name:    "focus",
			version: "VK_VERSION_1_0",
			opts:    Options{Focus: "VK_KHR_swapchain"},
			want:    []string{`"VK_KHR_swapchain" -> "VK_KHR_surface";`},
			notWant: []string{`"VK_KHR_multiview"`},
		},
		{
			name:    "detailed",
			version: "VK_VERSION_1_1",
			opts:    Options{Detailed: true},
			want:    []string{`index: 2\ntype: device\ncore since: VK_VERSION_1_1`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dot, err := ToDOT(testModel(), tt.version, tt.opts)
			if err != nil {
				t.Fatalf("ToDOT: %v", err)
			}
			if !strings.HasPrefix(dot, "digraph G {") {
				t.Errorf("missing digraph header")
			}
			for _, w := range tt.want {
				if !strings.Contains(dot, w) {
					t.Errorf("missing %s in\n%s", w, dot)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(dot, w) {
					t.Errorf("unexpected %s in\n%s", w, dot)
				}
			}
		})
	}
}

func TestToDOTErrors(t *testing.T) {
	if _, err := ToDOT(testModel(), "VK_VERSION_9_9", Options{}); !errors.Is(err, errors.ErrCodeVersionNotFound) {
		t.Errorf("unknown version: err = %v", err)
	}
	if _, err := ToDOT(testModel(), "VK_VERSION_1_0", Options{Focus: "VK_KHR_nope"}); !errors.Is(err, errors.ErrCodeItemNotFound) {
		t.Errorf("unknown focus: err = %v", err)
	}
	if _, err := ToDOT(testModel(), "VK_VERSION_1_0", Options{Focus: "VK_KHR_late"}); !errors.Is(err, errors.ErrCodeItemNotFound) {
		t.Errorf("unavailable focus: err = %v", err)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	if !strings.HasPrefix(got, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50">`) {
		t.Errorf("got %s", got)
	}

	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}
