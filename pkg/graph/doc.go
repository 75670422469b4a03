// Package graph provides the resolution graph of a Cargo workspace.
//
// # Overview
//
// A resolution graph is the concrete, mutually consistent set of package
// versions a build of the workspace would use. Each [Node] is one resolved
// package (name plus exactly one version); each [Edge] records that one
// package depends on another, under the name the dependent uses for it.
//
// The graph is read-only input to source-unit construction: the resolver in
// [scan] looks up a package's own node, walks its [Graph.Dependencies] for
// candidates matching a declared dependency, and falls back to
// [Graph.Named] for a workspace-wide search.
//
// # Basic Usage
//
//	g := graph.New()
//	g.AddNode(graph.Node{ID: "foo 0.1.0", Name: "foo", Version: "0.1.0"})
//	g.AddNode(graph.Node{ID: "bar 1.2.0", Name: "bar", Version: "1.2.0"})
//	g.AddEdge(graph.Edge{From: "foo 0.1.0", To: "bar 1.2.0", Name: "bar"})
//
// # Determinism
//
// [Graph.Nodes] and [Graph.Named] return nodes sorted by ID so callers that
// iterate them produce stable output. [Graph.Dependencies] keeps insertion
// order, which for graphs built from provider output is the provider's own
// (already sorted) order.
//
// [scan]: github.com/matzehuels/srclib-cargo/pkg/scan
package graph
