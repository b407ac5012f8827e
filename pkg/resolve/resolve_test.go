package resolve

import (
	"context"
	"testing"

	"github.com/matzehuels/extwrangler/pkg/depexpr"
	"github.com/matzehuels/extwrangler/pkg/diag"
	"github.com/matzehuels/extwrangler/pkg/errors"
	"github.com/matzehuels/extwrangler/pkg/model"
)

const (
	v10 = "VK_VERSION_1_0"
	v11 = "VK_VERSION_1_1"
	v12 = "VK_VERSION_1_2"
	v13 = "VK_VERSION_1_3"
)

func testIndex(t *testing.T, extra ...*model.Item) (*model.Index, *diag.Collector) {
	t.Helper()
	versions := []model.Version{{Name: v10}, {Name: v11}, {Name: v12}, {Name: v13}}
	items := []*model.Item{
		{Name: "VK_EXT_A"},
		{Name: "VK_EXT_B"},
		{Name: "VK_EXT_C"},
		{Name: "VK_KHR_old", PromotedTo: "VK_EXT_A"},
	}
	items = append(items, extra...)
	c := diag.NewCollector(nil)
	idx, err := model.NewIndex(versions, items, c)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return idx, c
}

func ext(names ...string) []model.Dependency {
	out := []model.Dependency{}
	for _, n := range names {
		out = append(out, model.Dependency{Kind: model.KindExtension, Name: n})
	}
	return out
}

var promoted = []model.Dependency{model.PromotedMarker}

func resolveExpr(t *testing.T, idx *model.Index, rep diag.Reporter, item, expr string) model.DependencyMap {
	t.Helper()
	var root depexpr.Node
	if expr != "" {
		n, err := depexpr.Parse(expr)
		if err != nil {
			t.Fatalf("Parse(%q): %v", expr, err)
		}
		root = n
	}
	return NewResolver(idx, rep).Resolve(item, root)
}

func TestResolveAndFinalize(t *testing.T) {
	tests := []struct {
		name     string
		item     *model.Item
		want     model.DependencyMap
		dangling int
	}{
		{
			name: "no expression",
			item: &model.Item{Name: "VK_EXT_X"},
			want: model.DependencyMap{v10: ext()},
		},
		{
			name: "bare version",
			item: &model.Item{Name: "VK_EXT_X", Depends: "VK_VERSION_1_1"},
			want: model.DependencyMap{v11: ext(), v12: ext(), v13: ext()},
		},
		{
			name: "items only",
			item: &model.Item{Name: "VK_EXT_X", Depends: "VK_EXT_A+VK_EXT_B"},
			want: model.DependencyMap{
				v10: ext("VK_EXT_A", "VK_EXT_B"),
				v11: ext("VK_EXT_A", "VK_EXT_B"),
				v12: ext("VK_EXT_A", "VK_EXT_B"),
				v13: ext("VK_EXT_A", "VK_EXT_B"),
			},
		},
		{
			name: "or boundary closes previous version",
			item: &model.Item{Name: "VK_EXT_X", Depends: "VK_VERSION_1_1+VK_EXT_A,VK_VERSION_1_2+VK_EXT_B"},
			want: model.DependencyMap{
				v11: ext("VK_EXT_A"),
				v12: ext("VK_EXT_B"),
				v13: ext("VK_EXT_B"),
			},
		},
		{
			name: "promotion overrides gap fill",
			item: &model.Item{Name: "VK_EXT_X", Depends: "VK_EXT_C", PromotedTo: v13},
			want: model.DependencyMap{
				v10: ext("VK_EXT_C"),
				v11: ext("VK_EXT_C"),
				v12: ext("VK_EXT_C"),
				v13: promoted,
			},
		},
		{
			name: "dangling dependency dropped",
			item: &model.Item{Name: "VK_EXT_X", Depends: "VK_EXT_A+VK_EXT_missing"},
			want: model.DependencyMap{
				v10: ext("VK_EXT_A"),
				v11: ext("VK_EXT_A"),
				v12: ext("VK_EXT_A"),
				v13: ext("VK_EXT_A"),
			},
			dangling: 1,
		},
		{
			name: "unknown version ignored",
			item: &model.Item{Name: "VK_EXT_X", Depends: "VK_VERSION_9_9+VK_EXT_B"},
			want: model.DependencyMap{
				v10: ext("VK_EXT_B"),
				v11: ext("VK_EXT_B"),
				v12: ext("VK_EXT_B"),
				v13: ext("VK_EXT_B"),
			},
			dangling: 1,
		},
		{
			name: "alias rewritten and deduplicated",
			item: &model.Item{Name: "VK_EXT_X", Depends: "VK_EXT_A+VK_KHR_old+VK_EXT_B"},
			want: model.DependencyMap{
				v10: ext("VK_EXT_A", "VK_EXT_B"),
				v11: ext("VK_EXT_A", "VK_EXT_B"),
				v12: ext("VK_EXT_A", "VK_EXT_B"),
				v13: ext("VK_EXT_A", "VK_EXT_B"),
			},
		},
		{
			name: "version and item in one group",
			item: &model.Item{Name: "VK_EXT_X", Depends: "VK_VERSION_1_2+VK_EXT_A"},
			want: model.DependencyMap{
				v12: ext("VK_EXT_A"),
				v13: ext("VK_EXT_A"),
			},
		},
		{
			name: "enclosing requirement kept across alternatives",
			item: &model.Item{Name: "VK_EXT_X", Depends: "VK_EXT_C+(VK_VERSION_1_1+VK_EXT_A,VK_VERSION_1_2+VK_EXT_B)"},
			want: model.DependencyMap{
				v10: ext("VK_EXT_C"),
				v11: ext("VK_EXT_C", "VK_EXT_A"),
				v12: ext("VK_EXT_C", "VK_EXT_B"),
				v13: ext("VK_EXT_C", "VK_EXT_B"),
			},
		},
		{
			name: "alternatives without versions",
			item: &model.Item{Name: "VK_EXT_X", Depends: "VK_EXT_A,VK_EXT_B"},
			want: model.DependencyMap{
				v10: ext("VK_EXT_A", "VK_EXT_B"),
				v11: ext("VK_EXT_A", "VK_EXT_B"),
				v12: ext("VK_EXT_A", "VK_EXT_B"),
				v13: ext("VK_EXT_A", "VK_EXT_B"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, c := testIndex(t, tt.item)
			tt.item.Deps = resolveExpr(t, idx, c, tt.item.Name, tt.item.Depends)
			Finalize(tt.item, idx)

			if !tt.item.Deps.Equal(tt.want) {
				t.Errorf("deps =\n  %v\nwant\n  %v", tt.item.Deps, tt.want)
			}
			if got := c.Count(diag.Dangling); got != tt.dangling {
				t.Errorf("dangling warnings = %d, want %d: %v", got, tt.dangling, c.Warnings())
			}
			if n := Verify(tt.item, idx, c); n != 0 {
				t.Errorf("Verify reported %d problems: %v", n, c.Warnings())
			}
		})
	}
}

func TestResolveRawMap(t *testing.T) {
	idx, _ := testIndex(t)
	got := resolveExpr(t, idx, nil, "VK_EXT_X", "VK_VERSION_1_1+VK_EXT_A,VK_VERSION_1_2+VK_EXT_B")
	want := model.DependencyMap{
		v11: ext("VK_EXT_A"),
		v12: ext("VK_EXT_B"),
		v13: ext("VK_EXT_B"),
	}
	if !got.Equal(want) {
		t.Errorf("raw map = %v, want %v", got, want)
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	exprs := []string{
		"",
		"VK_VERSION_1_1",
		"VK_EXT_A+VK_EXT_B",
		"VK_VERSION_1_1+VK_EXT_A,VK_VERSION_1_2+VK_EXT_B",
		"VK_EXT_C+(VK_VERSION_1_1+VK_EXT_A,VK_VERSION_1_2+VK_EXT_B)",
	}
	for _, expr := range exprs {
		for _, promo := range []string{"", v12} {
			it := &model.Item{Name: "VK_EXT_X", Depends: expr, PromotedTo: promo}
			idx, _ := testIndex(t, it)
			it.Deps = resolveExpr(t, idx, nil, it.Name, expr)

			Finalize(it, idx)
			once := it.Deps.Clone()
			Finalize(it, idx)
			if !it.Deps.Equal(once) {
				t.Errorf("%q promoted=%q: second finalize changed map\n  %v\n  %v", expr, promo, once, it.Deps)
			}
			if promo != "" {
				for _, v := range idx.VersionsFrom(promo) {
					if !it.Deps.IsPromoted(v.Name) {
						t.Errorf("%q: %s not promoted", expr, v.Name)
					}
				}
			}
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	idx, _ := testIndex(t)
	expr := "VK_EXT_C+(VK_VERSION_1_1+VK_EXT_B+VK_EXT_A,VK_VERSION_1_2+VK_EXT_B)"
	first := resolveExpr(t, idx, nil, "VK_EXT_X", expr)
	for i := 0; i < 10; i++ {
		if got := resolveExpr(t, idx, nil, "VK_EXT_X", expr); !got.Equal(first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
	if got := first.Names(v11); len(got) != 3 || got[0] != "VK_EXT_C" || got[1] != "VK_EXT_B" || got[2] != "VK_EXT_A" {
		t.Errorf("order at %s = %v", v11, got)
	}
}

func TestFillGaps(t *testing.T) {
	idx, _ := testIndex(t)
	m := model.DependencyMap{
		v10: ext("VK_EXT_A"),
		v12: ext(),
	}
	fillGaps(m, idx.Versions())
	want := model.DependencyMap{
		v10: ext("VK_EXT_A"),
		v11: ext("VK_EXT_A"),
		v12: ext(),
	}
	if !m.Equal(want) {
		t.Errorf("fillGaps = %v, want %v", m, want)
	}
}

func TestVerify(t *testing.T) {
	it := &model.Item{Name: "VK_EXT_X", PromotedTo: v13}
	idx, _ := testIndex(t, it)
	it.Deps = model.DependencyMap{
		v10: ext("VK_EXT_A"),
		v12: append(ext("VK_EXT_B"), model.PromotedMarker),
	}
	c := diag.NewCollector(nil)
	// missing marker at 1.3, gap at 1.1 and 1.3, mixed entry at 1.2
	if n := Verify(it, idx, c); n != 4 {
		t.Errorf("Verify = %d, want 4: %v", n, c.Warnings())
	}
	if c.Count(diag.Inconsistent) != 4 {
		t.Errorf("inconsistent = %d", c.Count(diag.Inconsistent))
	}
}

func TestRunResolveAll(t *testing.T) {
	t.Run("resolves every item", func(t *testing.T) {
		x := &model.Item{Name: "VK_EXT_X", Depends: "VK_EXT_A+VK_EXT_gone"}
		idx, _ := testIndex(t, x)
		run := NewRun(idx, nil)
		run.Reporter = diag.NewCollector(nil)
		run.Concurrency = 2

		if err := run.ResolveAll(context.Background()); err != nil {
			t.Fatalf("ResolveAll: %v", err)
		}
		for _, it := range idx.Items() {
			if it.Deps == nil {
				t.Errorf("%s not resolved", it.Name)
			}
		}
		a, _ := idx.Item("VK_EXT_A")
		if !a.Deps.Equal(model.DependencyMap{v10: ext()}) {
			t.Errorf("VK_EXT_A deps = %v", a.Deps)
		}
		if got := run.Reporter.(*diag.Collector).Count(diag.Dangling); got != 1 {
			t.Errorf("dangling = %d, want 1", got)
		}
	})

	t.Run("parse error aborts", func(t *testing.T) {
		bad := &model.Item{Name: "VK_EXT_bad", Depends: "VK_EXT_A+"}
		idx, _ := testIndex(t, bad)
		run := NewRun(idx, nil)
		run.Reporter = diag.Discard

		err := run.ResolveAll(context.Background())
		if !errors.Is(err, errors.ErrCodeInvalidExpression) {
			t.Fatalf("err = %v, want INVALID_EXPRESSION", err)
		}
		if bad.Deps != nil {
			t.Error("failed item should keep nil deps")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		idx, _ := testIndex(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		run := NewRun(idx, nil)
		run.Reporter = diag.Discard
		if err := run.ResolveAll(ctx); err == nil {
			t.Error("expected error on canceled context")
		}
	})
}
