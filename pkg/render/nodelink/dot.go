package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/extwrangler/pkg/emit"
	"github.com/matzehuels/extwrangler/pkg/errors"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the extension type and output index to node labels.
	Detailed bool
	// HidePromoted drops extensions that are core at the chosen version.
	HidePromoted bool
	// Focus, when set, keeps only this extension and what it requires.
	Focus string
}

type node struct {
	ext   *emit.Extension
	entry emit.Entry
}

// ToDOT converts the dependency graph of m at version to Graphviz DOT.
// Nodes follow output index order, so the result is deterministic.
func ToDOT(m *emit.Model, version string, opts Options) (string, error) {
	if _, ok := m.VersionIndex(version); !ok {
		return "", errors.New(errors.ErrCodeVersionNotFound, "unknown version %s", version)
	}

	nodes := make(map[string]node)
	var order []string
	for i := range m.Extensions {
		ext := &m.Extensions[i]
		e, ok := m.EntryAt(ext, version)
		if !ok || (opts.HidePromoted && e.Promoted) {
			continue
		}
		nodes[ext.Name] = node{ext: ext, entry: e}
		order = append(order, ext.Name)
	}

	if opts.Focus != "" {
		ext, ok := m.Extension(opts.Focus)
		if !ok {
			return "", errors.New(errors.ErrCodeItemNotFound, "unknown extension %s", opts.Focus)
		}
		if _, ok := nodes[ext.Name]; !ok {
			return "", errors.New(errors.ErrCodeItemNotFound, "%s is not available on %s", ext.Name, version)
		}
		keep := reachable(nodes, ext.Name)
		filtered := order[:0]
		for _, name := range order {
			if keep[name] {
				filtered = append(filtered, name)
			}
		}
		order = filtered
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	fmt.Fprintf(&buf, "  label=%q;\n", version)
	buf.WriteString("\n")

	for _, name := range order {
		n := nodes[name]
		fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, name := range order {
		n := nodes[name]
		if n.entry.Promoted {
			continue
		}
		for _, req := range n.entry.Requires {
			if _, ok := nodes[req]; !ok {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q;\n", name, req)
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

// reachable returns root and every extension it transitively requires.
func reachable(nodes map[string]node, root string) map[string]bool {
	seen := map[string]bool{root: true}
	stack := []string{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := nodes[cur]
		if n.entry.Promoted {
			continue
		}
		for _, req := range n.entry.Requires {
			if _, ok := nodes[req]; ok && !seen[req] {
				seen[req] = true
				stack = append(stack, req)
			}
		}
	}
	return seen
}

func fmtLabel(n node, detailed bool) string {
	if !detailed {
		return n.ext.Name
	}
	parts := []string{
		fmt.Sprintf("index: %d", n.ext.Index),
		fmt.Sprintf("type: %s", n.ext.Type),
	}
	if n.entry.Promoted {
		parts = append(parts, "core since: "+n.ext.PromotedTo)
	}
	return n.ext.Name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	if n.entry.Promoted {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
