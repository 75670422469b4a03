package graph_test

import (
	"fmt"

	"github.com/matzehuels/srclib-cargo/pkg/graph"
)

func ExampleGraph() {
	g := graph.New()
	_ = g.AddNode(graph.Node{ID: "foo 0.1.0", Name: "foo", Version: "0.1.0"})
	_ = g.AddNode(graph.Node{ID: "bar 1.2.0", Name: "bar", Version: "1.2.0"})
	_ = g.AddEdge(graph.Edge{From: "foo 0.1.0", To: "bar 1.2.0", Name: "bar"})

	for _, e := range g.Dependencies("foo 0.1.0") {
		n, _ := g.Node(e.To)
		fmt.Println(n.Name, n.Version)
	}
	// Output:
	// bar 1.2.0
}
