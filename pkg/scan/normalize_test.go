package scan

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/matzehuels/srclib-cargo/pkg/cargo"
	"github.com/matzehuels/srclib-cargo/pkg/observability"
)

func pathDependency(name, dir string) cargo.Dependency {
	return cargo.Dependency{
		Name:            name,
		Req:             "*",
		Scope:           cargo.ScopeNormal,
		DefaultFeatures: true,
		Source:          cargo.PathSource(dir).String(),
		Path:            dir,
	}
}

func TestNormalize(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"present/Cargo.toml": ""})
	present := filepath.Join(root, "present")
	missing := filepath.Join(root, "missing")

	hooks := &recordingHooks{}
	observability.SetScanHooks(hooks)
	t.Cleanup(observability.Reset)

	pkg := fooPackage(pathDependency("present", present), pathDependency("missing", missing), barDependency("^1"))
	got := NewNormalizer(cargo.CratesIO, nil).Normalize(context.Background(), pkg)

	if got == pkg {
		t.Fatal("Normalize returned its input although a dependency changed")
	}
	if d := got.Dependencies[0]; d.Path != present || d.Source != cargo.PathSource(present).String() {
		t.Errorf("existing path dependency rewritten: %+v", d)
	}
	if d := got.Dependencies[1]; d.Path != "" || d.Source != cargo.CratesIO {
		t.Errorf("dangling path dependency = %+v, want crates.io source", d)
	}
	if d := got.Dependencies[2]; d.Source != cargo.CratesIO {
		t.Errorf("registry dependency = %+v", d)
	}
	if pkg.Dependencies[1].Path != missing {
		t.Error("Normalize modified its input")
	}
	if hooks.overrides != 1 {
		t.Errorf("override hook calls = %d, want 1", hooks.overrides)
	}
}

func TestNormalizeUnchanged(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"bar/Cargo.toml": ""})

	pkg := fooPackage(pathDependency("bar", filepath.Join(root, "bar")), barDependency("^1"))
	if got := NewNormalizer(cargo.CratesIO, nil).Normalize(context.Background(), pkg); got != pkg {
		t.Error("Normalize copied a package with nothing to rewrite")
	}
}

func TestNormalizeSourceOnly(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	dep := pathDependency("gone", missing)
	dep.Path = ""

	got := NewNormalizer(cargo.CratesIO, nil).Normalize(context.Background(), fooPackage(dep))
	if got.Dependencies[0].Source != cargo.CratesIO {
		t.Errorf("Source = %q, want crates.io", got.Dependencies[0].Source)
	}
}

func TestNormalizeMalformedRegistry(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	pkg := fooPackage(pathDependency("gone", missing))

	for _, registry := range []string{"not a locator", "path+file:///elsewhere", "git+https://example.com/index.git"} {
		t.Run(registry, func(t *testing.T) {
			got := NewNormalizer(registry, nil).Normalize(context.Background(), pkg)
			if got != pkg {
				t.Error("Normalize rewrote a dependency without a usable default registry")
			}
			if got.Dependencies[0].Path != missing {
				t.Errorf("Path = %q, want %q", got.Dependencies[0].Path, missing)
			}
		})
	}
}
