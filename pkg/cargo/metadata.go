package cargo

import (
	"bytes"
	"encoding/json"
	"path/filepath"

	"github.com/matzehuels/srclib-cargo/pkg/errors"
	"github.com/matzehuels/srclib-cargo/pkg/graph"
)

// MetadataFormatVersion is the `cargo metadata` output format this package
// understands.
const MetadataFormatVersion = 1

// Metadata mirrors the JSON document printed by
// `cargo metadata --format-version 1`. Nullable strings decode to "".
type Metadata struct {
	Packages         []metadataPackage `json:"packages"`
	WorkspaceMembers []string          `json:"workspace_members"`
	Resolve          *metadataResolve  `json:"resolve"`
	WorkspaceRoot    string            `json:"workspace_root"`
	TargetDirectory  string            `json:"target_directory"`
	Version          int               `json:"version"`
}

type metadataPackage struct {
	Name          string               `json:"name"`
	Version       string               `json:"version"`
	ID            string               `json:"id"`
	License       string               `json:"license"`
	LicenseFile   string               `json:"license_file"`
	Description   string               `json:"description"`
	Source        string               `json:"source"`
	Dependencies  []metadataDependency `json:"dependencies"`
	Targets       []metadataTarget     `json:"targets"`
	ManifestPath  string               `json:"manifest_path"`
	Authors       []string             `json:"authors"`
	Categories    []string             `json:"categories"`
	Keywords      []string             `json:"keywords"`
	Repository    string               `json:"repository"`
	Homepage      string               `json:"homepage"`
	Documentation string               `json:"documentation"`
	Edition       string               `json:"edition"`
}

type metadataDependency struct {
	Name                string   `json:"name"`
	Source              string   `json:"source"`
	Req                 string   `json:"req"`
	Kind                string   `json:"kind"`
	Rename              string   `json:"rename"`
	Optional            bool     `json:"optional"`
	UsesDefaultFeatures bool     `json:"uses_default_features"`
	Features            []string `json:"features"`
	Target              string   `json:"target"`
	Registry            string   `json:"registry"`
	Path                string   `json:"path"`
}

type metadataTarget struct {
	Name    string   `json:"name"`
	Kind    []string `json:"kind"`
	SrcPath string   `json:"src_path"`
}

type metadataResolve struct {
	Nodes []metadataNode `json:"nodes"`
	Root  string         `json:"root"`
}

type metadataNode struct {
	ID   string            `json:"id"`
	Deps []metadataNodeDep `json:"deps"`
}

type metadataNodeDep struct {
	Name     string `json:"name"`
	Pkg      string `json:"pkg"`
	DepKinds []struct {
		Kind   string `json:"kind"`
		Target string `json:"target"`
	} `json:"dep_kinds"`
}

// ParseMetadata decodes `cargo metadata` output into a Workspace. The
// resolution graph is built only when the document carries a resolve
// section, i.e. when the provider was not run with --no-deps.
func ParseMetadata(data []byte) (*Workspace, error) {
	var m Metadata
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "decode cargo metadata")
	}
	if m.Version != MetadataFormatVersion {
		return nil, errors.New(errors.ErrCodeProvider, "unsupported cargo metadata format version %d", m.Version)
	}
	return m.Workspace()
}

// Workspace converts the raw document.
func (m *Metadata) Workspace() (*Workspace, error) {
	ws := &Workspace{Root: m.WorkspaceRoot}

	byID := make(map[string]*Package, len(m.Packages))
	for _, mp := range m.Packages {
		p := mp.toPackage()
		byID[p.ID] = p
		ws.Packages = append(ws.Packages, p)
	}

	for _, id := range m.WorkspaceMembers {
		p, ok := byID[id]
		if !ok {
			return nil, errors.New(errors.ErrCodeProvider, "workspace member %q missing from package list", id)
		}
		ws.Members = append(ws.Members, p)
	}

	if m.Resolve != nil {
		g, err := m.Resolve.graph(ws.Packages)
		if err != nil {
			return nil, err
		}
		ws.Graph = g
	}
	return ws, nil
}

func (mp metadataPackage) toPackage() *Package {
	p := &Package{
		ID:            mp.ID,
		Name:          mp.Name,
		Version:       mp.Version,
		ManifestPath:  mp.ManifestPath,
		License:       mp.License,
		LicenseFile:   mp.LicenseFile,
		Repository:    mp.Repository,
		Description:   mp.Description,
		Homepage:      mp.Homepage,
		Documentation: mp.Documentation,
		Edition:       mp.Edition,
		Authors:       mp.Authors,
		Keywords:      mp.Keywords,
		Categories:    mp.Categories,
		Source:        mp.Source,
	}
	for _, t := range mp.Targets {
		p.Targets = append(p.Targets, Target{Name: t.Name, Kinds: t.Kind, SrcPath: t.SrcPath})
	}
	for _, md := range mp.Dependencies {
		p.Dependencies = append(p.Dependencies, md.toDependency())
	}
	return p
}

func (md metadataDependency) toDependency() Dependency {
	d := Dependency{
		Name:            md.Name,
		Rename:          md.Rename,
		Req:             md.Req,
		Optional:        md.Optional,
		Scope:           ParseScope(md.Kind),
		DefaultFeatures: md.UsesDefaultFeatures,
		Features:        md.Features,
		Platform:        md.Target,
		Source:          md.Source,
	}
	if d.Req == "" {
		d.Req = "*"
	}
	if md.Path != "" {
		d.Path = filepath.Clean(md.Path)
		if d.Source == "" {
			d.Source = PathSource(d.Path).String()
		}
	}
	return d
}

func (r *metadataResolve) graph(pkgs []*Package) (*graph.Graph, error) {
	g := graph.New()
	for _, p := range pkgs {
		if err := g.AddNode(graph.Node{ID: p.ID, Name: p.Name, Version: p.Version}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeProvider, err, "package %q", p.ID)
		}
	}
	for _, n := range r.Nodes {
		for _, d := range n.Deps {
			var kinds []string
			for _, k := range d.DepKinds {
				kinds = append(kinds, string(ParseScope(k.Kind)))
			}
			if err := g.AddEdge(graph.Edge{From: n.ID, To: d.Pkg, Name: d.Name, Kinds: kinds}); err != nil {
				return nil, errors.Wrap(errors.ErrCodeProvider, err, "resolve edge %q -> %q", n.ID, d.Pkg)
			}
		}
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "resolution graph")
	}
	return g, nil
}
