package cargo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/srclib-cargo/pkg/errors"
)

// overlay is a temporary mirror of a workspace in which the manifests that
// declare dangling path dependencies are rewritten to use a registry instead.
// Everything else in the mirror is a symlink into the real workspace, so
// cargo sees the same sources without the missing directories.
type overlay struct {
	root     string   // real workspace root
	dir      string   // mirror of root
	dangling []string // directories of the redirected path dependencies
}

// newOverlay mirrors the workspace of manifestPath if any of its manifests
// declares a path dependency whose directory does not exist. It returns nil
// when no manifest needs rewriting.
func (c *Command) newOverlay(ctx context.Context, manifestPath string) (*overlay, error) {
	registry, err := ParseSourceID(c.opts.Registry)
	if err != nil {
		return nil, err
	}
	if !registry.IsRegistry() || registry.Kind == KindLocalRegistry {
		return nil, errors.New(errors.ErrCodeInvalidLocator, "cannot redirect dependencies to %q", c.opts.Registry)
	}

	ws, err := NewManifestReader(c.opts.Logger).Load(ctx, manifestPath, ModeDeclared)
	if err != nil {
		return nil, err
	}
	manifests := []string{filepath.Join(ws.Root, ManifestFile), manifestPath}
	for _, p := range ws.Members {
		manifests = append(manifests, p.ManifestPath)
	}
	slices.Sort(manifests)
	manifests = slices.Compact(manifests)

	o := &overlay{root: ws.Root}
	rewrites := make(map[string][]byte)
	for _, m := range manifests {
		if !fileExists(m) {
			continue
		}
		data, dangling, err := redirectManifest(m, registry)
		if err != nil {
			return nil, err
		}
		if data == nil {
			continue
		}
		if !within(ws.Root, m) {
			return nil, errors.New(errors.ErrCodeInvalidPath, "manifest %s lies outside its workspace %s", m, ws.Root)
		}
		rewrites[m] = data
		o.dangling = append(o.dangling, dangling...)
	}
	if len(rewrites) == 0 {
		return nil, nil
	}

	dir, err := os.MkdirTemp("", "srclib-cargo-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create workspace mirror")
	}
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		dir = real
	}
	o.dir = dir
	if err := mirror(ws.Root, dir, rewrites); err != nil {
		o.remove()
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "mirror workspace %s", ws.Root)
	}
	c.opts.Logger.Debug("redirecting dangling path dependencies", "root", ws.Root, "mirror", dir, "dangling", o.dangling)
	return o, nil
}

// path maps a path in the real workspace into the mirror.
func (o *overlay) path(p string) string {
	rel, err := filepath.Rel(o.root, p)
	if err != nil {
		return p
	}
	return filepath.Join(o.dir, rel)
}

// restore rewrites mirror paths in cargo's output back to the real
// workspace, both as plain JSON strings and inside package IDs.
func (o *overlay) restore(out []byte) []byte {
	out = bytes.ReplaceAll(out, jsonText(o.dir), jsonText(o.root))
	return bytes.ReplaceAll(out, []byte(urlPath(o.dir)), []byte(urlPath(o.root)))
}

func (o *overlay) remove() {
	if o.dir != "" {
		os.RemoveAll(o.dir)
	}
}

// inputs lists the files whose appearance invalidates a result loaded
// through the overlay.
func (o *overlay) inputs() []string {
	out := make([]string, len(o.dangling))
	for i, d := range o.dangling {
		out[i] = filepath.Join(d, ManifestFile)
	}
	return out
}

// redirectManifest returns the manifest at path with every dangling path
// dependency turned into a dependency on registry, or nil when it declares
// none. The second result lists the missing directories.
func redirectManifest(path string, registry SourceID) ([]byte, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeProvider, err, "read manifest %s", path)
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeProvider, err, "parse manifest %s", path)
	}

	dir := filepath.Dir(path)
	var dangling []string
	for _, table := range dependencyTablesOf(doc) {
		for _, v := range table {
			decl, ok := v.(map[string]any)
			if !ok {
				continue
			}
			p, ok := decl["path"].(string)
			if !ok || p == "" {
				continue
			}
			target := filepath.Clean(filepath.Join(dir, filepath.FromSlash(p)))
			if _, err := os.Stat(target); !os.IsNotExist(err) {
				continue
			}
			delete(decl, "path")
			if _, ok := decl["version"]; !ok {
				decl["version"] = "*"
			}
			if registry.String() != CratesIO {
				delete(decl, "registry")
				decl["registry-index"] = registryIndex(registry)
			}
			dangling = append(dangling, target)
		}
	}
	if len(dangling) == 0 {
		return nil, nil, nil
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "encode manifest %s", path)
	}
	slices.Sort(dangling)
	return buf.Bytes(), dangling, nil
}

// dependencyTablesOf returns every dependency table of a decoded manifest,
// including platform-specific tables and [workspace.dependencies].
func dependencyTablesOf(doc map[string]any) []map[string]any {
	keys := []string{"dependencies", "dev-dependencies", "dev_dependencies", "build-dependencies", "build_dependencies"}
	var out []map[string]any
	collect := func(t map[string]any) {
		for _, k := range keys {
			if deps, ok := t[k].(map[string]any); ok {
				out = append(out, deps)
			}
		}
	}
	collect(doc)
	if targets, ok := doc["target"].(map[string]any); ok {
		for _, t := range targets {
			if tt, ok := t.(map[string]any); ok {
				collect(tt)
			}
		}
	}
	if ws, ok := doc["workspace"].(map[string]any); ok {
		if deps, ok := ws["dependencies"].(map[string]any); ok {
			out = append(out, deps)
		}
	}
	return out
}

// registryIndex returns the registry-index value cargo accepts for s.
func registryIndex(s SourceID) string {
	if s.Kind == KindSparse {
		return s.String()
	}
	return s.URL.String()
}

// mirror populates dst with symlinks to the entries of src. Files in
// rewrites are written with the new content instead, directories holding one
// of them are recreated, and the lock file is copied since cargo may update
// it.
func mirror(src, dst string, rewrites map[string][]byte) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		from, to := filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())
		if data, ok := rewrites[from]; ok {
			if err := os.WriteFile(to, data, 0o644); err != nil {
				return err
			}
			continue
		}
		switch {
		case e.IsDir() && holdsRewrite(from, rewrites):
			if err := os.Mkdir(to, 0o755); err != nil {
				return err
			}
			if err := mirror(from, to, rewrites); err != nil {
				return err
			}
		case e.Name() == LockFile && e.Type().IsRegular():
			if err := copyFile(from, to); err != nil {
				return err
			}
		default:
			if err := os.Symlink(from, to); err != nil {
				return err
			}
		}
	}
	return nil
}

func holdsRewrite(dir string, rewrites map[string][]byte) bool {
	for p := range rewrites {
		if strings.HasPrefix(p, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func copyFile(from, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(to)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// jsonText returns s as it appears inside a JSON string.
func jsonText(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return []byte(s)
	}
	b := bytes.TrimSpace(buf.Bytes())
	return b[1 : len(b)-1]
}

// urlPath returns dir as it appears in a file URL.
func urlPath(dir string) string {
	return (&url.URL{Path: filepath.ToSlash(dir)}).EscapedPath()
}
