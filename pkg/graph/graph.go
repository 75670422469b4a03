package graph

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")
)

// Node is one resolved package: a provider-assigned identifier plus the
// package name and the single concrete version chosen for the workspace.
type Node struct {
	ID      string // Opaque provider ID, e.g. "serde 1.0.188 (registry+https://...)"
	Name    string // Package name as published
	Version string // Concrete version
}

// Edge is a resolved dependency from one package node to another.
//
// Name is the name the dependent uses for the dependency, which differs
// from the target's package name for renamed dependencies. Kinds lists the
// dependency kinds ("normal", "dev", "build") the edge was resolved for.
type Edge struct {
	From  string
	To    string
	Name  string
	Kinds []string
}

// Graph is the resolution graph of one workspace. Node IDs are unique; edges
// are directed from dependent to dependency. Cycles are permitted because
// dev-dependencies may legally point back at their dependents.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]int    // nodeID -> indices into edges
	names    map[string][]string // package name -> node IDs
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]int),
		names:    make(map[string][]string),
	}
}

// AddNode adds a node to the graph and indexes it by package name.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	g.nodes[node.ID] = node
	g.names[node.Name] = append(g.names[node.Name], node.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode if the From node doesn't exist, or
// ErrUnknownTargetNode if the To node doesn't exist.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	e.Kinds = slices.Clone(e.Kinds)
	g.outgoing[e.From] = append(g.outgoing[e.From], len(g.edges))
	g.edges = append(g.edges, e)
	return nil
}

// Node returns the node with the given ID and true, or nil and false if not found.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes sorted by ID.
func (g *Graph) Nodes() []*Node {
	ids := slices.Sorted(maps.Keys(g.nodes))
	nodes := make([]*Node, len(ids))
	for i, id := range ids {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Dependencies returns the node's outgoing edges in insertion order.
// Returns nil if the node has none or doesn't exist.
func (g *Graph) Dependencies(id string) []Edge {
	idx := g.outgoing[id]
	if len(idx) == 0 {
		return nil
	}
	out := make([]Edge, len(idx))
	for i, j := range idx {
		out[i] = g.edges[j]
		out[i].Kinds = slices.Clone(out[i].Kinds)
	}
	return out
}

// Named returns every node carrying the given package name, sorted by ID.
// A workspace may resolve the same package at several versions.
func (g *Graph) Named(name string) []*Node {
	ids := slices.Sorted(slices.Values(g.names[name]))
	nodes := make([]*Node, len(ids))
	for i, id := range ids {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// Validate checks that every edge connects existing nodes.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		_, okS := g.nodes[e.From]
		_, okD := g.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
	}
	return nil
}
