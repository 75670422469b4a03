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

// FileEnumerator lists the source files of a package.
type FileEnumerator struct {
	pattern glob.Glob
	logger  *log.Logger
}

// NewFileEnumerator compiles pattern, a glob matched against paths relative
// to the package directory with "/" separators. "**" crosses directories.
func NewFileEnumerator(pattern string, logger *log.Logger) (*FileEnumerator, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "file pattern %q", pattern)
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &FileEnumerator{pattern: g, logger: logger}, nil
}

// Files is a convenience wrapper around [FileEnumerator.Files].
func Files(root, dir, pattern string) ([]string, error) {
	e, err := NewFileEnumerator(pattern, nil)
	if err != nil {
		return nil, err
	}
	return e.Files(root, dir)
}

// Files returns the files under dir that match the pattern, as sorted
// "/"-separated paths relative to root. dir must be root or a descendant of
// it; anything else is a PATH_ERROR.
//
// The target/ directory, hidden directories and nested packages (directories
// holding their own Cargo.toml) are skipped. Symlinked files are included;
// symlinked directories are not followed. Unreadable or dangling entries are
// skipped with a debug log.
func (e *FileEnumerator) Files(root, dir string) ([]string, error) {
	root = filepath.Clean(root)
	dir = filepath.Clean(dir)
	if !within(root, dir) {
		return nil, errors.New(errors.ErrCodePath, "package directory %s is outside the scan root %s", dir, root)
	}

	files := []string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				e.logger.Warn("cannot read package directory", "dir", dir, "err", err)
				return filepath.SkipDir
			}
			e.logger.Debug("skipping unreadable entry", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == dir {
				return nil
			}
			if skipDir(dir, path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				e.logger.Debug("skipping dangling symlink", "path", path, "err", err)
				return nil
			}
			if info.IsDir() {
				e.logger.Debug("not following symlinked directory", "path", path)
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		if !e.pattern.Match(filepath.ToSlash(rel)) {
			return nil
		}
		out, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(out))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "walk %s", dir)
	}

	slices.Sort(files)
	return files, nil
}

// skipDir reports whether a directory below the package directory is
// excluded from enumeration.
func skipDir(pkgDir, path, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if name == "target" && filepath.Dir(path) == pkgDir {
		return true
	}
	if _, err := os.Stat(filepath.Join(path, cargo.ManifestFile)); err == nil {
		return true
	}
	return false
}

// within reports whether dir is root or a descendant of it. Both must be
// clean paths of the same kind (absolute or relative).
func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
