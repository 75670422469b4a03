package scan

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gobwas/glob"

	"github.com/matzehuels/srclib-cargo/pkg/cargo"
	"github.com/matzehuels/srclib-cargo/pkg/errors"
	"github.com/matzehuels/srclib-cargo/pkg/observability"
	"github.com/matzehuels/srclib-cargo/pkg/unit"
)

// Driver runs a scan: it discovers manifests, loads each workspace once and
// turns every package into a source unit.
//
// A Driver holds no per-run state and may be reused.
type Driver struct {
	provider   cargo.Provider
	opts       Options
	logger     *log.Logger
	exclude    []glob.Glob
	files      *FileEnumerator
	resolver   *Resolver
	normalizer *Normalizer
}

// NewDriver validates opts and creates a driver backed by provider.
// Requesting graph resolution from a provider that cannot produce a graph is
// an INVALID_CONFIG error.
func NewDriver(provider cargo.Provider, opts Options) (*Driver, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no metadata provider")
	}
	if !opts.DeclaredOnly && !provider.IncludesGraph() {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "provider %q cannot resolve dependencies; use declared-only mode", provider.Name())
	}

	exclude, err := compileGlobs(opts.Exclude)
	if err != nil {
		return nil, err
	}
	files, err := NewFileEnumerator(opts.FilePattern, opts.Logger)
	if err != nil {
		return nil, err
	}
	return &Driver{
		provider:   provider,
		opts:       opts,
		logger:     opts.Logger,
		exclude:    exclude,
		files:      files,
		resolver:   NewResolver(opts.DefaultRegistry, opts.Logger),
		normalizer: NewNormalizer(opts.DefaultRegistry, opts.Logger),
	}, nil
}

// Run scans the configured root and returns one unit per package, in
// discovery order. Without KeepGoing the first provider or package error
// aborts the run and no units are returned. With KeepGoing such errors are
// logged and the failing workspace or package is skipped; configuration
// errors and broken invariants still abort.
func (d *Driver) Run(ctx context.Context) ([]unit.SourceUnit, error) {
	root, err := realPath(d.opts.ScanRoot())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "scan root %s", d.opts.ScanRoot())
	}

	manifests, err := Discover(root, d.opts.Discovery, d.exclude, d.logger)
	if err != nil {
		return nil, err
	}

	mode := cargo.ModeResolve
	if d.opts.DeclaredOnly {
		mode = cargo.ModeDeclared
	}

	var (
		units   = []unit.SourceUnit{}
		loaded  = map[string]bool{} // workspace roots
		covered = map[string]bool{} // manifests of loaded workspaces
		emitted = map[string]bool{} // manifests already turned into units
	)
	for _, manifest := range manifests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if covered[manifest] {
			continue
		}

		ws, err := d.load(ctx, manifest, mode)
		if err != nil {
			if d.skip(ctx, manifest, err) {
				covered[manifest] = true
				continue
			}
			return nil, err
		}
		covered[manifest] = true

		members := make([]*cargo.Package, 0, len(ws.Members))
		for _, p := range ws.Members {
			real, err := realPath(p.ManifestPath)
			if err != nil {
				real = filepath.Clean(p.ManifestPath)
			}
			covered[real] = true
			if real != p.ManifestPath {
				p = p.Clone()
				p.ManifestPath = real
			}
			members = append(members, p)
		}
		wsRoot, err := realPath(ws.Root)
		if err != nil {
			wsRoot = filepath.Clean(ws.Root)
		}
		if loaded[wsRoot] {
			continue
		}
		loaded[wsRoot] = true

		if d.opts.Discovery == DiscoverySingle {
			members = single(members, manifest)
		}
		for _, p := range members {
			if emitted[p.ManifestPath] {
				continue
			}
			emitted[p.ManifestPath] = true
			if !within(root, p.Dir()) {
				d.logger.Warn("skipping package outside the scan root", "package", p.Name, "manifest", p.ManifestPath)
				continue
			}

			u, err := d.build(ctx, root, p, ws)
			if err != nil {
				if d.skip(ctx, p.ManifestPath, err) {
					continue
				}
				return nil, err
			}
			units = append(units, u)
		}
	}

	d.logger.Debug("scan complete", "root", root, "units", len(units))
	return units, nil
}

func (d *Driver) load(ctx context.Context, manifest string, mode cargo.Mode) (*cargo.Workspace, error) {
	start := time.Now()
	ws, err := d.provider.Load(ctx, manifest, mode)
	members := 0
	if ws != nil {
		members = len(ws.Members)
	}
	observability.Scan().OnWorkspaceLoad(ctx, manifest, members, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	attrs := []any{
		"provider", d.provider.Name(),
		"manifest", manifest,
		"root", ws.Root,
		"members", members,
		"duration", time.Since(start),
	}
	if ws.Graph != nil {
		attrs = append(attrs, "nodes", ws.Graph.NodeCount(), "edges", ws.Graph.EdgeCount())
	}
	d.logger.Debug("loaded workspace", attrs...)
	return ws, nil
}

// build turns one workspace member into a source unit.
func (d *Driver) build(ctx context.Context, root string, pkg *cargo.Package, ws *cargo.Workspace) (unit.SourceUnit, error) {
	if !d.opts.KeepDanglingPaths {
		pkg = d.normalizer.Normalize(ctx, pkg)
	}

	files, err := d.files.Files(root, pkg.Dir())
	if err != nil {
		return unit.SourceUnit{}, err
	}
	deps, err := d.resolver.Resolve(ctx, pkg, ws.Graph, relSlash(root, pkg.ManifestPath))
	if err != nil {
		return unit.SourceUnit{}, err
	}

	u, err := Assemble(root, d.opts.Repo, Parts{
		Package:      pkg,
		Files:        files,
		Dependencies: deps,
		Data:         Payload(d.opts.Data, root, pkg),
	})
	if err != nil {
		return unit.SourceUnit{}, err
	}
	observability.Scan().OnUnitBuilt(ctx, u.Name, len(u.Files), len(u.Dependencies))
	return u, nil
}

// skip reports whether the run continues past err.
func (d *Driver) skip(ctx context.Context, manifest string, err error) bool {
	if !d.opts.KeepGoing || errors.IsFatal(err) || ctx.Err() != nil {
		return false
	}
	d.logger.Warn("skipping", "manifest", manifest, "err", err)
	observability.Scan().OnUnitSkipped(ctx, manifest, err)
	return true
}

// single narrows members to the package at manifest. A virtual manifest has
// no package of its own, so all members are kept.
func single(members []*cargo.Package, manifest string) []*cargo.Package {
	for _, p := range members {
		if p.ManifestPath == manifest {
			return []*cargo.Package{p}
		}
	}
	return members
}

func realPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
