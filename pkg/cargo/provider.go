package cargo

import "context"

// Mode selects how much the provider resolves.
type Mode int

const (
	// ModeResolve loads the full resolution graph.
	ModeResolve Mode = iota
	// ModeDeclared loads only locally declared data; Workspace.Graph is nil.
	ModeDeclared
)

func (m Mode) String() string {
	if m == ModeDeclared {
		return "declared"
	}
	return "resolve"
}

// Provider loads package metadata for the workspace containing a manifest.
//
// Implementations perform at most one query per Load call. A failure to
// parse the manifest or resolve the graph is returned as a PROVIDER_ERROR;
// callers decide whether it aborts the run.
type Provider interface {
	// Name returns the provider identifier (e.g., "cargo").
	Name() string
	// IncludesGraph reports whether Load can return a resolution graph.
	IncludesGraph() bool
	// Load queries the provider for the workspace containing manifestPath.
	Load(ctx context.Context, manifestPath string, mode Mode) (*Workspace, error)
}
