package cargo

import (
	"path/filepath"

	"github.com/matzehuels/srclib-cargo/pkg/graph"
)

// Scope is the kind of a declared dependency.
type Scope string

const (
	ScopeNormal Scope = "normal" // [dependencies]
	ScopeDev    Scope = "dev"    // [dev-dependencies]
	ScopeBuild  Scope = "build"  // [build-dependencies]
)

// ParseScope maps a cargo dependency kind to a Scope. The provider reports
// normal dependencies with a null kind, so the empty string is normal too.
func ParseScope(kind string) Scope {
	switch kind {
	case "dev":
		return ScopeDev
	case "build":
		return ScopeBuild
	default:
		return ScopeNormal
	}
}

// Dependency is one dependency as declared in a manifest.
type Dependency struct {
	Name            string   // Package name of the dependency
	Rename          string   // Local name when declared with package = "...", else empty
	Req             string   // Version requirement, e.g. "^1.0"; "*" when none was written
	Optional        bool     // Declared optional = true
	Scope           Scope    // normal, dev or build
	DefaultFeatures bool     // default-features flag
	Features        []string // Explicitly enabled features
	Platform        string   // Target filter, e.g. "cfg(windows)"; empty when unconditional
	Source          string   // Source locator; empty when the declaration names none
	Path            string   // Absolute directory of a path dependency
}

// IsPath reports whether the dependency points at a local directory.
func (d Dependency) IsPath() bool { return d.Path != "" }

// Target is one build target of a package (lib, bin, test, ...).
type Target struct {
	Name    string
	Kinds   []string
	SrcPath string
}

// Package is one package read from the provider.
type Package struct {
	ID            string // Provider ID; matches the package's node in the resolution graph
	Name          string
	Version       string
	ManifestPath  string // Absolute path to Cargo.toml
	License       string
	LicenseFile   string
	Repository    string
	Description   string
	Homepage      string
	Documentation string
	Edition       string
	Authors       []string
	Keywords      []string
	Categories    []string
	Targets       []Target
	Source        string // Empty for local packages
	Dependencies  []Dependency
}

// Dir returns the package directory (the manifest's parent).
func (p *Package) Dir() string { return filepath.Dir(p.ManifestPath) }

// Clone returns a copy of p whose dependency slice can be modified without
// affecting p.
func (p *Package) Clone() *Package {
	c := *p
	c.Dependencies = make([]Dependency, len(p.Dependencies))
	copy(c.Dependencies, p.Dependencies)
	return &c
}

// Workspace is the result of one provider query: the workspace root, its
// members in provider order, every package the provider knows about, and the
// resolution graph.
type Workspace struct {
	Root     string     // Absolute workspace root directory
	Manifest string     // Manifest the provider was queried with
	Members  []*Package // Workspace members, provider order
	Packages []*Package // All packages, members included

	// Graph is nil when the provider ran in declared-only mode.
	Graph *graph.Graph
}

// Member returns the workspace member whose manifest is at manifestPath.
func (w *Workspace) Member(manifestPath string) (*Package, bool) {
	for _, p := range w.Members {
		if p.ManifestPath == manifestPath {
			return p, true
		}
	}
	return nil, false
}
