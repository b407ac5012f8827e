// Package nodelink renders the resolved extension model as a node-link
// diagram.
//
// # Overview
//
// A graph is drawn for one core version: every extension available on that
// version becomes a box and every requirement of its dependency entry
// becomes an arrow to the required extension. Extensions that are part of
// core at that version are drawn dashed and grey, and their outgoing edges
// are omitted since the promotion marker replaces them.
//
// # Usage
//
//	dot, err := nodelink.ToDOT(m, "VK_VERSION_1_2", nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: node labels include the extension type and output index
//   - HidePromoted: extensions already in core are left out entirely
//   - Focus: restrict the graph to one extension and its transitive
//     requirements
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. The DOT source from [ToDOT] can also be fed to external
// Graphviz tools.
package nodelink
