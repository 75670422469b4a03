package scan

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gobwas/glob"

	"github.com/matzehuels/srclib-cargo/pkg/cargo"
	"github.com/matzehuels/srclib-cargo/pkg/errors"
)

// Discover returns the manifests a scan of root visits, shallowest first.
//
// The recursive strategy collects every Cargo.toml below root, skipping
// target/ directories, hidden directories and directories matching one of the
// exclude globs (relative to root, "/"-separated). The workspace and single
// strategies use root/Cargo.toml only. Finding no manifest is a
// MANIFEST_NOT_FOUND error.
func Discover(root string, strategy Discovery, exclude []glob.Glob, logger *log.Logger) ([]string, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if strategy != DiscoveryRecursive {
		path := filepath.Join(root, cargo.ManifestFile)
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrap(errors.ErrCodeManifestNotFound, err, "no %s in %s", cargo.ManifestFile, root)
		}
		return []string{path}, nil
	}

	var manifests []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Debug("skipping unreadable entry", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skipDiscovery(root, path, d.Name(), exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == cargo.ManifestFile {
			manifests = append(manifests, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "walk %s", root)
	}
	if len(manifests) == 0 {
		return nil, errors.New(errors.ErrCodeManifestNotFound, "no %s found under %s", cargo.ManifestFile, root)
	}

	slices.SortStableFunc(manifests, func(a, b string) int {
		da, db := strings.Count(a, string(filepath.Separator)), strings.Count(b, string(filepath.Separator))
		if da != db {
			return da - db
		}
		return strings.Compare(a, b)
	})
	logger.Debug("discovered manifests", "root", root, "count", len(manifests))
	return manifests, nil
}

func skipDiscovery(root, path, name string, exclude []glob.Glob) bool {
	if name == "target" || strings.HasPrefix(name, ".") {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, g := range exclude {
		if g.Match(rel) || g.Match(rel+"/") {
			return true
		}
	}
	return false
}
