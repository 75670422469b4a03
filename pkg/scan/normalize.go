package scan

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/srclib-cargo/pkg/cargo"
	"github.com/matzehuels/srclib-cargo/pkg/errors"
	"github.com/matzehuels/srclib-cargo/pkg/observability"
)

// Normalizer re-points path dependencies whose directory no longer exists at
// the default registry, so a package checked out without its path siblings
// still yields a self-consistent unit.
type Normalizer struct {
	DefaultRegistry string
	Logger          *log.Logger
}

// NewNormalizer creates a normalizer that substitutes defaultRegistry.
func NewNormalizer(defaultRegistry string, logger *log.Logger) *Normalizer {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Normalizer{DefaultRegistry: defaultRegistry, Logger: logger}
}

// Normalize returns pkg when no dependency needs rewriting and a modified
// copy otherwise; pkg itself is never changed. If the default registry
// locator is malformed or names no registry the dangling dependencies are
// kept as they are.
func (n *Normalizer) Normalize(ctx context.Context, pkg *cargo.Package) *cargo.Package {
	out := pkg
	for i, d := range pkg.Dependencies {
		dir := dependencyDir(d)
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err == nil || !os.IsNotExist(err) {
			continue
		}

		registry, err := cargo.ParseSourceID(n.DefaultRegistry)
		if err == nil && !registry.IsRegistry() {
			err = errors.New(errors.ErrCodeInvalidLocator, "%q is not a registry", n.DefaultRegistry)
		}
		if err != nil {
			n.Logger.Warn("cannot override dangling path dependency", "package", pkg.Name, "dependency", d.Name, "err", err)
			continue
		}
		if out == pkg {
			out = pkg.Clone()
		}
		out.Dependencies[i].Source = registry.String()
		out.Dependencies[i].Path = ""
		n.Logger.Debug("path dependency overridden", "package", pkg.Name, "dependency", d.Name, "path", dir, "source", registry.String())
		observability.Scan().OnPathOverride(ctx, pkg.Name, d.Name, dir)
	}
	return out
}

// dependencyDir returns the local directory of a path dependency, or "".
func dependencyDir(d cargo.Dependency) string {
	if d.Path != "" {
		return d.Path
	}
	if s, err := cargo.ParseSourceID(d.Source); err == nil && s.IsPath() {
		return s.Path()
	}
	return ""
}
