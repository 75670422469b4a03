package cargo

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/matzehuels/srclib-cargo/pkg/errors"
)

// CratesIO is the source locator of the crates.io registry.
const CratesIO = "registry+https://github.com/rust-lang/crates.io-index"

// Source locator kinds.
const (
	KindRegistry      = "registry"
	KindSparse        = "sparse"
	KindPath          = "path"
	KindGit           = "git"
	KindDirectory     = "directory"
	KindLocalRegistry = "local-registry"
)

// SourceID is a parsed source locator of the form <kind>+<url>.
type SourceID struct {
	Kind string
	URL  *url.URL
	raw  string
}

// ParseSourceID parses a locator such as
// "registry+https://github.com/rust-lang/crates.io-index" or
// "path+file:///src/foo". It returns an INVALID_LOCATOR error for anything
// else.
func ParseSourceID(s string) (SourceID, error) {
	if err := errors.ValidateLocator(s); err != nil {
		return SourceID{}, err
	}
	kind, rest, _ := strings.Cut(s, "+")
	u, err := url.Parse(rest)
	if err != nil {
		return SourceID{}, errors.Wrap(errors.ErrCodeInvalidLocator, err, "source locator %q", s)
	}
	return SourceID{Kind: kind, URL: u, raw: s}, nil
}

// PathSource returns the locator of a local directory.
func PathSource(dir string) SourceID {
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(dir)}
	return SourceID{Kind: KindPath, URL: u, raw: KindPath + "+" + u.String()}
}

// String returns the locator text.
func (s SourceID) String() string { return s.raw }

// IsPath reports whether the locator points at a local directory.
func (s SourceID) IsPath() bool { return s.Kind == KindPath }

// IsRegistry reports whether the locator points at a package registry.
func (s SourceID) IsRegistry() bool {
	return s.Kind == KindRegistry || s.Kind == KindSparse || s.Kind == KindLocalRegistry
}

// Path returns the local directory of a path locator, or "" for other kinds.
func (s SourceID) Path() string {
	if !s.IsPath() || s.URL == nil {
		return ""
	}
	return filepath.FromSlash(s.URL.Path)
}
