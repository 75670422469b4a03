package cargo

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/gobwas/glob"

	"github.com/matzehuels/srclib-cargo/pkg/errors"
)

// ManifestFile is the name of a Cargo manifest.
const ManifestFile = "Cargo.toml"

// ManifestReader is an offline Provider that reads Cargo.toml files directly.
// It understands workspaces, inherited fields and dependencies, renamed and
// platform-specific dependencies, but it never resolves versions: it only
// supports ModeDeclared.
type ManifestReader struct {
	logger *log.Logger
}

// NewManifestReader creates a manifest reader. A nil logger discards output.
func NewManifestReader(logger *log.Logger) *ManifestReader {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &ManifestReader{logger: logger}
}

func (r *ManifestReader) Name() string        { return "manifest" }
func (r *ManifestReader) IncludesGraph() bool { return false }

// Load reads the manifest at manifestPath, locates its workspace and reads
// every member manifest.
func (r *ManifestReader) Load(ctx context.Context, manifestPath string, mode Mode) (*Workspace, error) {
	if mode != ModeDeclared {
		return nil, errors.New(errors.ErrCodeUnsupported, "the manifest reader cannot resolve a dependency graph")
	}

	path, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "manifest path %s", manifestPath)
	}
	mf, err := readManifest(path)
	if err != nil {
		return nil, err
	}

	rootPath, root, err := r.findRoot(path, mf)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{Root: filepath.Dir(rootPath), Manifest: path}
	members, err := r.members(ctx, rootPath, root)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(members, path) && mf.Package != nil {
		// A package that is not part of the workspace it sits in is its own root.
		ws.Root = filepath.Dir(path)
		members = []string{path}
		root = mf
		rootPath = path
	}

	for _, m := range members {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mmf := mf
		if m != path {
			if mmf, err = readManifest(m); err != nil {
				return nil, err
			}
		}
		if mmf.Package == nil {
			continue
		}
		p, err := newPackage(m, mmf, filepath.Dir(rootPath), root.Workspace)
		if err != nil {
			return nil, err
		}
		ws.Members = append(ws.Members, p)
	}
	slices.SortStableFunc(ws.Members, func(a, b *Package) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ManifestPath, b.ManifestPath)
	})
	ws.Packages = ws.Members

	r.logger.Debug("read manifests", "root", ws.Root, "members", len(ws.Members))
	return ws, nil
}

// findRoot returns the workspace root manifest for the package at path.
// An explicit package.workspace key wins; otherwise ancestors are searched
// for a [workspace] table that lists the package as a member.
func (r *ManifestReader) findRoot(path string, mf *manifestFile) (string, *manifestFile, error) {
	if mf.Workspace != nil {
		return path, mf, nil
	}
	if mf.Package != nil {
		if ws, ok := mf.Package["workspace"].(string); ok && ws != "" {
			rootPath := filepath.Join(filepath.Dir(path), ws, ManifestFile)
			root, err := readManifest(rootPath)
			if err != nil {
				return "", nil, err
			}
			return rootPath, root, nil
		}
	}

	dir := filepath.Dir(path)
	for parent := filepath.Dir(dir); parent != dir; parent, dir = filepath.Dir(parent), parent {
		candidate := filepath.Join(parent, ManifestFile)
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		root, err := readManifest(candidate)
		if err != nil {
			r.logger.Debug("skipping unreadable ancestor manifest", "path", candidate, "err", err)
			continue
		}
		if root.Workspace == nil {
			continue
		}
		if root.Workspace.includes(parent, filepath.Dir(path)) {
			return candidate, root, nil
		}
	}
	return path, mf, nil
}

// members lists the member manifests of the workspace rooted at rootPath:
// the root package, expanded members globs minus excludes, and path
// dependencies that live inside the workspace directory.
func (r *ManifestReader) members(ctx context.Context, rootPath string, root *manifestFile) ([]string, error) {
	rootDir := filepath.Dir(rootPath)
	if root.Workspace == nil {
		return []string{rootPath}, nil
	}

	var queue []string
	if root.Package != nil {
		queue = append(queue, rootPath)
	}
	for _, pattern := range root.Workspace.Members {
		matches, err := filepath.Glob(filepath.Join(rootDir, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "workspace member pattern %q in %s", pattern, rootPath)
		}
		slices.Sort(matches)
		for _, dir := range matches {
			m := filepath.Join(dir, ManifestFile)
			if _, err := os.Stat(m); err != nil {
				r.logger.Debug("member has no manifest", "dir", dir)
				continue
			}
			if root.Workspace.excluded(rootDir, dir) {
				continue
			}
			queue = append(queue, m)
		}
	}

	seen := make(map[string]bool)
	var out []string
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := queue[0]
		queue = queue[1:]
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)

		mf, err := readManifest(m)
		if err != nil {
			return nil, err
		}
		for _, dir := range mf.pathDependencies(filepath.Dir(m)) {
			rel, err := filepath.Rel(rootDir, dir)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				continue
			}
			if root.Workspace.excluded(rootDir, dir) {
				continue
			}
			dep := filepath.Join(dir, ManifestFile)
			if _, err := os.Stat(dep); err == nil {
				queue = append(queue, dep)
			}
		}
	}
	return out, nil
}

type manifestFile struct {
	Package           map[string]any         `toml:"package"`
	Dependencies      map[string]any         `toml:"dependencies"`
	DevDependencies   map[string]any         `toml:"dev-dependencies"`
	BuildDependencies map[string]any         `toml:"build-dependencies"`
	Target            map[string]targetTable `toml:"target"`
	Workspace         *workspaceTable        `toml:"workspace"`
	Lib               *targetDecl            `toml:"lib"`
	Bin               []targetDecl           `toml:"bin"`
}

type targetTable struct {
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

type targetDecl struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

type workspaceTable struct {
	Members      []string       `toml:"members"`
	Exclude      []string       `toml:"exclude"`
	Package      map[string]any `toml:"package"`
	Dependencies map[string]any `toml:"dependencies"`
}

func readManifest(path string) (*manifestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeManifestNotFound, err, "manifest %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "read manifest %s", path)
	}
	var mf manifestFile
	if err := toml.Unmarshal(data, &mf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "parse manifest %s", path)
	}
	return &mf, nil
}

// includes reports whether dir is a member of the workspace rooted at rootDir.
func (w *workspaceTable) includes(rootDir, dir string) bool {
	if w.excluded(rootDir, dir) {
		return false
	}
	if dir == rootDir {
		return true
	}
	rel, err := filepath.Rel(rootDir, dir)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.Members {
		g, err := glob.Compile(strings.TrimSuffix(pattern, "/"), '/')
		if err != nil {
			continue
		}
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// excluded reports whether dir falls under one of the exclude entries.
func (w *workspaceTable) excluded(rootDir, dir string) bool {
	rel, err := filepath.Rel(rootDir, dir)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.Exclude {
		pattern = strings.TrimSuffix(pattern, "/")
		if rel == pattern || strings.HasPrefix(rel, pattern+"/") {
			return true
		}
		if g, err := glob.Compile(pattern, '/'); err == nil && g.Match(rel) {
			return true
		}
	}
	return false
}

// pathDependencies returns the absolute directories of every path
// dependency declared in the manifest.
func (mf *manifestFile) pathDependencies(dir string) []string {
	var out []string
	collect := func(table map[string]any) {
		for _, v := range table {
			if t, ok := v.(map[string]any); ok {
				if p, ok := t["path"].(string); ok && p != "" {
					out = append(out, filepath.Clean(filepath.Join(dir, filepath.FromSlash(p))))
				}
			}
		}
	}
	for _, table := range mf.dependencyTables() {
		collect(table.deps)
	}
	slices.Sort(out)
	return out
}

type dependencyTable struct {
	scope    Scope
	platform string
	deps     map[string]any
}

// dependencyTables lists every dependency table in a fixed order: the
// unconditional tables first, then the platform tables sorted by target.
func (mf *manifestFile) dependencyTables() []dependencyTable {
	tables := []dependencyTable{
		{ScopeNormal, "", mf.Dependencies},
		{ScopeDev, "", mf.DevDependencies},
		{ScopeBuild, "", mf.BuildDependencies},
	}
	targets := make([]string, 0, len(mf.Target))
	for t := range mf.Target {
		targets = append(targets, t)
	}
	slices.Sort(targets)
	for _, t := range targets {
		tt := mf.Target[t]
		tables = append(tables,
			dependencyTable{ScopeNormal, t, tt.Dependencies},
			dependencyTable{ScopeDev, t, tt.DevDependencies},
			dependencyTable{ScopeBuild, t, tt.BuildDependencies},
		)
	}
	return tables
}

func newPackage(path string, mf *manifestFile, rootDir string, ws *workspaceTable) (*Package, error) {
	var inherited map[string]any
	var inheritedDeps map[string]any
	if ws != nil {
		inherited = ws.Package
		inheritedDeps = ws.Dependencies
	}
	field := func(key string) (any, error) {
		v, ok := mf.Package[key]
		if !ok {
			return nil, nil
		}
		if t, ok := v.(map[string]any); ok && t["workspace"] == true {
			iv, ok := inherited[key]
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidManifest, "%s: package.%s inherits from a workspace that does not define it", path, key)
			}
			return iv, nil
		}
		return v, nil
	}

	p := &Package{ManifestPath: path}
	strs := []struct {
		key string
		dst *string
	}{
		{"name", &p.Name},
		{"version", &p.Version},
		{"license", &p.License},
		{"license-file", &p.LicenseFile},
		{"repository", &p.Repository},
		{"description", &p.Description},
		{"homepage", &p.Homepage},
		{"documentation", &p.Documentation},
		{"edition", &p.Edition},
	}
	for _, s := range strs {
		v, ferr := field(s.key)
		if ferr != nil {
			return nil, ferr
		}
		*s.dst, _ = v.(string)
	}
	lists := []struct {
		key string
		dst *[]string
	}{
		{"authors", &p.Authors},
		{"keywords", &p.Keywords},
		{"categories", &p.Categories},
	}
	for _, l := range lists {
		v, ferr := field(l.key)
		if ferr != nil {
			return nil, ferr
		}
		*l.dst = stringList(v)
	}
	if p.Version == "" {
		p.Version = "0.0.0"
	}
	if p.Edition == "" {
		p.Edition = "2015"
	}
	dir := filepath.Dir(path)
	p.ID = fmt.Sprintf("%s#%s@%s", PathSource(dir), p.Name, p.Version)
	p.Targets = mf.targets(dir, p.Name)

	for _, table := range mf.dependencyTables() {
		names := make([]string, 0, len(table.deps))
		for name := range table.deps {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			d, derr := parseDependency(name, table.deps[name], dir, rootDir, inheritedDeps)
			if derr != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidManifest, derr, "%s: dependency %q", path, name)
			}
			d.Scope = table.scope
			d.Platform = table.platform
			p.Dependencies = append(p.Dependencies, d)
		}
	}
	return p, nil
}

// parseDependency converts one declaration. Declarations are either a bare
// requirement string or a table; a table with workspace = true is merged
// with the workspace's entry of the same name.
func parseDependency(name string, v any, dir, rootDir string, inherited map[string]any) (Dependency, error) {
	d := Dependency{Name: name, DefaultFeatures: true}
	if req, ok := v.(string); ok {
		d.Req = NormalizeRequirement(req)
		d.Source = CratesIO
		return d, nil
	}
	t, ok := v.(map[string]any)
	if !ok {
		return d, fmt.Errorf("unsupported declaration type %T", v)
	}

	if t["workspace"] == true {
		base, ok := inherited[name]
		if !ok {
			return d, fmt.Errorf("inherits from a workspace that does not declare it")
		}
		wd, err := parseDependency(name, base, rootDir, rootDir, nil)
		if err != nil {
			return d, err
		}
		if opt, ok := t["optional"].(bool); ok {
			wd.Optional = opt
		}
		for _, f := range stringList(t["features"]) {
			if !slices.Contains(wd.Features, f) {
				wd.Features = append(wd.Features, f)
			}
		}
		return wd, nil
	}

	if pkg, ok := t["package"].(string); ok && pkg != "" {
		d.Rename = name
		d.Name = pkg
	}
	d.Req = "*"
	if req, ok := t["version"].(string); ok {
		d.Req = NormalizeRequirement(req)
	}
	d.Optional, _ = t["optional"].(bool)
	if df, ok := t["default-features"].(bool); ok {
		d.DefaultFeatures = df
	} else if df, ok := t["default_features"].(bool); ok {
		d.DefaultFeatures = df
	}
	d.Features = stringList(t["features"])

	switch {
	case t["path"] != nil:
		p, _ := t["path"].(string)
		d.Path = filepath.Clean(filepath.Join(dir, filepath.FromSlash(p)))
		d.Source = PathSource(d.Path).String()
	case t["git"] != nil:
		d.Source = gitSource(t)
	case t["registry"] != nil || t["registry-index"] != nil:
		if idx, ok := t["registry-index"].(string); ok {
			d.Source = "registry+" + idx
		}
		// Named registries are configured outside the manifest.
	default:
		d.Source = CratesIO
	}
	return d, nil
}

func gitSource(t map[string]any) string {
	u, _ := t["git"].(string)
	src := "git+" + u
	for _, ref := range []string{"branch", "tag", "rev"} {
		if v, ok := t[ref].(string); ok && v != "" {
			return src + "?" + ref + "=" + v
		}
	}
	return src
}

// targets lists the package's build targets: explicit [lib] and [[bin]]
// sections plus the conventional src/lib.rs and src/main.rs.
func (mf *manifestFile) targets(dir, name string) []Target {
	var out []Target
	libName := strings.ReplaceAll(name, "-", "_")
	switch {
	case mf.Lib != nil:
		src := mf.Lib.Path
		if src == "" {
			src = "src/lib.rs"
		}
		if mf.Lib.Name != "" {
			libName = mf.Lib.Name
		}
		out = append(out, Target{Name: libName, Kinds: []string{"lib"}, SrcPath: filepath.Join(dir, filepath.FromSlash(src))})
	case fileExists(filepath.Join(dir, "src", "lib.rs")):
		out = append(out, Target{Name: libName, Kinds: []string{"lib"}, SrcPath: filepath.Join(dir, "src", "lib.rs")})
	}

	hasMain := false
	for _, b := range mf.Bin {
		src := b.Path
		if src == "" {
			src = "src/bin/" + b.Name + ".rs"
			if b.Name == name {
				src = "src/main.rs"
			}
		}
		if src == "src/main.rs" {
			hasMain = true
		}
		out = append(out, Target{Name: b.Name, Kinds: []string{"bin"}, SrcPath: filepath.Join(dir, filepath.FromSlash(src))})
	}
	if !hasMain && fileExists(filepath.Join(dir, "src", "main.rs")) {
		out = append(out, Target{Name: name, Kinds: []string{"bin"}, SrcPath: filepath.Join(dir, "src", "main.rs")})
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s, ok := v.([]string); ok {
			return slices.Clone(s)
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// NormalizeRequirement rewrites a requirement the way cargo reports it:
// comparators without an operator are caret requirements ("1.0" becomes
// "^1.0") unless they are wildcards; an empty requirement matches anything.
func NormalizeRequirement(req string) string {
	req = strings.TrimSpace(req)
	if req == "" {
		return "*"
	}
	parts := strings.Split(req, ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" && part[0] >= '0' && part[0] <= '9' && !strings.Contains(part, "*") {
			part = "^" + part
		}
		parts[i] = part
	}
	return strings.Join(parts, ", ")
}
