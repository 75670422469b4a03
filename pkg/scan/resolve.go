package scan

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/srclib-cargo/pkg/cargo"
	"github.com/matzehuels/srclib-cargo/pkg/errors"
	"github.com/matzehuels/srclib-cargo/pkg/graph"
	"github.com/matzehuels/srclib-cargo/pkg/observability"
	"github.com/matzehuels/srclib-cargo/pkg/unit"
)

// Resolver matches declared dependencies against a resolution graph.
type Resolver struct {
	DefaultRegistry string
	Logger          *log.Logger
}

// NewResolver creates a resolver. Dependencies without a source locator get
// defaultRegistry.
func NewResolver(defaultRegistry string, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Resolver{DefaultRegistry: defaultRegistry, Logger: logger}
}

// Resolve returns one ResolvedDependency per declared dependency of pkg, in
// declaration order. manifest is recorded as the Path of every entry.
//
// With a nil graph (declared-only mode) every entry is unresolved. With a
// graph, pkg must have a node in it; a missing node is a GRAPH_CONSISTENCY
// error. Candidates are the package's direct dependencies carrying the
// declared name, then any node in the graph carrying it; among them the
// highest version satisfying the requirement wins. When none satisfies it the
// entry has no Version.
func (r *Resolver) Resolve(ctx context.Context, pkg *cargo.Package, g *graph.Graph, manifest string) ([]unit.ResolvedDependency, error) {
	var edges []graph.Edge
	if g != nil {
		if _, ok := g.Node(pkg.ID); !ok {
			return nil, errors.New(errors.ErrCodeGraphConsistency, "package %s (%s) is missing from its resolution graph", pkg.Name, pkg.ID)
		}
		edges = g.Dependencies(pkg.ID)
	}

	out := make([]unit.ResolvedDependency, 0, len(pkg.Dependencies))
	for _, d := range pkg.Dependencies {
		rd := unit.ResolvedDependency{
			Name:            d.Name,
			Optional:        d.Optional,
			Source:          d.Source,
			Scope:           string(d.Scope),
			DefaultFeatures: d.DefaultFeatures,
			Features:        slices.Clone(d.Features),
			Platform:        d.Platform,
			Path:            manifest,
		}
		if rd.Source == "" {
			rd.Source = r.DefaultRegistry
		}
		if rd.Features == nil {
			rd.Features = []string{}
		}

		if g != nil {
			if n := r.match(d, edges, g); n != nil {
				rd.Version = n.Version
			}
		}
		if rd.Version == "" {
			r.Logger.Debug("unresolved dependency", "package", pkg.Name, "dependency", d.Name, "req", d.Req)
			observability.Scan().OnDependencyUnresolved(ctx, pkg.Name, d.Name, d.Req)
		}
		out = append(out, rd)
	}
	return out, nil
}

// match selects the graph node that d resolves to, or nil. Direct edges
// resolved for d's scope are tried first, then any direct edge, then the
// whole graph.
func (r *Resolver) match(d cargo.Dependency, edges []graph.Edge, g *graph.Graph) *graph.Node {
	req, err := ParseRequirement(d.Req)
	if err != nil {
		r.Logger.Debug("unparsable requirement", "dependency", d.Name, "req", d.Req, "err", err)
		return nil
	}

	var scoped, direct []*graph.Node
	for _, e := range edges {
		n, ok := g.Node(e.To)
		if !ok || n.Name != d.Name {
			continue
		}
		direct = append(direct, n)
		if len(e.Kinds) == 0 || slices.Contains(e.Kinds, string(d.Scope)) {
			scoped = append(scoped, n)
		}
	}
	if n := best(req, scoped); n != nil {
		return n
	}
	if n := best(req, direct); n != nil {
		return n
	}
	return best(req, g.Named(d.Name))
}

// best returns the highest-versioned candidate satisfying req. Ties and
// unparsable versions are ordered by node ID so the choice is stable.
func best(req *Requirement, candidates []*graph.Node) *graph.Node {
	if len(candidates) == 0 {
		return nil
	}
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b *graph.Node) int {
		va, errA := semver.NewVersion(a.Version)
		vb, errB := semver.NewVersion(b.Version)
		switch {
		case errA == nil && errB == nil:
			if c := vb.Compare(va); c != 0 {
				return c
			}
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	for _, n := range sorted {
		if req.Matches(n.Version) {
			return n
		}
	}
	return nil
}
