package graph

import (
	"errors"
	"slices"
	"testing"
)

func buildTestGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, n := range []Node{
		{ID: "foo 0.1.0", Name: "foo", Version: "0.1.0"},
		{ID: "bar 1.2.0", Name: "bar", Version: "1.2.0"},
		{ID: "bar 0.9.1", Name: "bar", Version: "0.9.1"},
		{ID: "baz 2.0.0", Name: "baz", Version: "2.0.0"},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	for _, e := range []Edge{
		{From: "foo 0.1.0", To: "bar 1.2.0", Name: "bar", Kinds: []string{"normal"}},
		{From: "foo 0.1.0", To: "baz 2.0.0", Name: "baz", Kinds: []string{"dev"}},
		{From: "baz 2.0.0", To: "bar 0.9.1", Name: "bar", Kinds: []string{"normal"}},
		{From: "baz 2.0.0", To: "foo 0.1.0", Name: "foo", Kinds: []string{"dev"}},
	} {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s -> %s): %v", e.From, e.To, err)
		}
	}
	return g
}

func TestAddNode(t *testing.T) {
	g := New()

	if err := g.AddNode(Node{ID: ""}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("empty ID: got %v, want %v", err, ErrInvalidNodeID)
	}
	if err := g.AddNode(Node{ID: "a 1.0.0", Name: "a", Version: "1.0.0"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := g.AddNode(Node{ID: "a 1.0.0"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate: got %v, want %v", err, ErrDuplicateNodeID)
	}
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want 1", g.NodeCount())
	}
}

func TestAddEdge(t *testing.T) {
	g := New()
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})

	tests := []struct {
		name string
		edge Edge
		want error
	}{
		{"valid", Edge{From: "a", To: "b"}, nil},
		{"unknown source", Edge{From: "x", To: "b"}, ErrUnknownSourceNode},
		{"unknown target", Edge{From: "a", To: "x"}, ErrUnknownTargetNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddEdge(tt.edge); !errors.Is(err, tt.want) {
				t.Errorf("AddEdge() = %v, want %v", err, tt.want)
			}
		})
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
}

func TestAddEdgeCopiesKinds(t *testing.T) {
	g := New()
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})
	kinds := []string{"normal"}
	_ = g.AddEdge(Edge{From: "a", To: "b", Kinds: kinds})
	kinds[0] = "dev"

	if got := g.Dependencies("a")[0].Kinds[0]; got != "normal" {
		t.Errorf("Kinds[0] = %q, want %q", got, "normal")
	}
	g.Dependencies("a")[0].Kinds[0] = "build"
	if got := g.Dependencies("a")[0].Kinds[0]; got != "normal" {
		t.Errorf("Kinds[0] = %q after modifying a returned edge", got)
	}
}

func TestDependencies(t *testing.T) {
	g := buildTestGraph(t)

	var to []string
	for _, e := range g.Dependencies("foo 0.1.0") {
		to = append(to, e.To)
	}
	if want := []string{"bar 1.2.0", "baz 2.0.0"}; !slices.Equal(to, want) {
		t.Errorf("Dependencies(foo) = %v, want %v", to, want)
	}
	if e := g.Dependencies("baz 2.0.0")[1]; e.Name != "foo" || !slices.Equal(e.Kinds, []string{"dev"}) {
		t.Errorf("baz -> foo edge = %+v", e)
	}
	if got := g.Dependencies("bar 1.2.0"); got != nil {
		t.Errorf("Dependencies(bar) = %v, want nil", got)
	}
	if got := g.Dependencies("missing"); got != nil {
		t.Errorf("Dependencies(missing) = %v, want nil", got)
	}
}

func TestNodesSorted(t *testing.T) {
	g := buildTestGraph(t)

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	want := []string{"bar 0.9.1", "bar 1.2.0", "baz 2.0.0", "foo 0.1.0"}
	if !slices.Equal(ids, want) {
		t.Errorf("Nodes = %v, want %v", ids, want)
	}
}

func TestNamed(t *testing.T) {
	g := buildTestGraph(t)

	got := g.Named("bar")
	if len(got) != 2 {
		t.Fatalf("Named(bar) returned %d nodes, want 2", len(got))
	}
	if got[0].Version != "0.9.1" || got[1].Version != "1.2.0" {
		t.Errorf("Named(bar) = [%s %s], want sorted by ID", got[0].Version, got[1].Version)
	}
	if got := g.Named("qux"); len(got) != 0 {
		t.Errorf("Named(qux) = %v, want empty", got)
	}
}

func TestCyclesAllowed(t *testing.T) {
	g := buildTestGraph(t)
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestNodeLookup(t *testing.T) {
	g := buildTestGraph(t)

	n, ok := g.Node("baz 2.0.0")
	if !ok || n.Name != "baz" {
		t.Errorf("Node(baz) = %v, %v", n, ok)
	}
	if _, ok := g.Node("nope"); ok {
		t.Error("Node(nope) found, want missing")
	}
}
