package scan

import (
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/gobwas/glob"

	"github.com/matzehuels/srclib-cargo/pkg/cargo"
	"github.com/matzehuels/srclib-cargo/pkg/errors"
)

// Discovery selects which manifests a scan visits.
type Discovery string

const (
	// DiscoveryRecursive visits every Cargo.toml under the scan root.
	DiscoveryRecursive Discovery = "recursive"
	// DiscoveryWorkspace visits the whole workspace of the root manifest.
	DiscoveryWorkspace Discovery = "workspace"
	// DiscoverySingle visits only the package of the root manifest, or the
	// members of a virtual root manifest.
	DiscoverySingle Discovery = "single"
)

// Discoveries lists the valid discovery strategies.
var Discoveries = []Discovery{DiscoveryRecursive, DiscoveryWorkspace, DiscoverySingle}

// DataMode selects the metadata payload attached to each unit.
type DataMode string

const (
	DataLicense DataMode = "license" // {"License": ...}
	DataFull    DataMode = "full"    // license plus provenance
	DataNone    DataMode = "none"    // no payload
)

// DataModes lists the valid payload modes.
var DataModes = []DataMode{DataLicense, DataFull, DataNone}

// DefaultFilePattern matches the Rust sources of a package, relative to the
// package directory.
const DefaultFilePattern = "src/**.rs"

// Options configures a scan.
type Options struct {
	Root              string      // Scan root directory (default: ".")
	Subdir            string      // Subdirectory of Root to scope the scan to
	Repo              string      // Repository URL stamped onto every unit
	Discovery         Discovery   // Manifest discovery strategy (default: recursive)
	DeclaredOnly      bool        // Skip graph resolution; every dependency is unresolved
	KeepGoing         bool        // Skip failing workspaces and packages instead of aborting
	KeepDanglingPaths bool        // Disable path-dependency normalization
	DefaultRegistry   string      // Locator for dependencies without one (default: crates.io)
	FilePattern       string      // Source file glob (default: src/**.rs)
	Exclude           []string    // Globs of directories, relative to the scan root, to skip
	Data              DataMode    // Metadata payload (default: license)
	Logger            *log.Logger // Diagnostics (default: discard)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Discovery == "" {
		opts.Discovery = DiscoveryRecursive
	}
	if opts.DefaultRegistry == "" {
		opts.DefaultRegistry = cargo.CratesIO
	}
	if opts.FilePattern == "" {
		opts.FilePattern = DefaultFilePattern
	}
	if opts.Data == "" {
		opts.Data = DataLicense
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return opts
}

// Validate reports configuration errors. It does not check DefaultRegistry:
// a malformed default locator only disables path normalization.
func (o Options) Validate() error {
	if err := errors.ValidatePath(o.Subdir); err != nil {
		return err
	}
	if err := errors.ValidateURL(o.Repo); err != nil {
		return err
	}
	info, err := os.Stat(o.ScanRoot())
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "scan root")
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidConfig, "scan root %s is not a directory", o.ScanRoot())
	}
	if !slices.Contains(Discoveries, o.Discovery) {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown discovery strategy %q (want one of %v)", o.Discovery, Discoveries)
	}
	if !slices.Contains(DataModes, o.Data) {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown data mode %q (want one of %v)", o.Data, DataModes)
	}
	if _, err := glob.Compile(o.FilePattern, '/'); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "file pattern %q", o.FilePattern)
	}
	if _, err := compileGlobs(o.Exclude); err != nil {
		return err
	}
	return nil
}

// ScanRoot returns Root joined with Subdir.
func (o Options) ScanRoot() string {
	return filepath.Join(o.Root, filepath.FromSlash(o.Subdir))
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "exclude pattern %q", p)
		}
		out = append(out, g)
	}
	return out, nil
}
