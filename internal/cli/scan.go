package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/srclib-cargo/pkg/cache"
	"github.com/matzehuels/srclib-cargo/pkg/cargo"
	"github.com/matzehuels/srclib-cargo/pkg/errors"
	"github.com/matzehuels/srclib-cargo/pkg/observability"
	"github.com/matzehuels/srclib-cargo/pkg/scan"
	"github.com/matzehuels/srclib-cargo/pkg/unit"
)

// Metadata providers selectable with --provider.
const (
	providerCargo    = "cargo"
	providerManifest = "manifest"
)

// scanOpts holds the command-line flags for the scan command.
type scanOpts struct {
	repo              string
	subdir            string
	discovery         string
	declaredOnly      bool
	keepGoing         bool
	keepDanglingPaths bool
	registry          string
	files             string
	exclude           []string
	data              string

	provider          string
	cargo             string
	timeout           time.Duration
	offline           bool
	locked            bool
	frozen            bool
	features          []string
	allFeatures       bool
	noDefaultFeatures bool
	cache             bool
	cacheTTL          time.Duration

	pretty bool
	output string
	config string
}

// options converts the flags into scan options rooted at dir.
func (o *scanOpts) options(dir string, logger *log.Logger) scan.Options {
	return scan.Options{
		Root:              dir,
		Subdir:            o.subdir,
		Repo:              o.repo,
		Discovery:         scan.Discovery(o.discovery),
		DeclaredOnly:      o.declaredOnly,
		KeepGoing:         o.keepGoing,
		KeepDanglingPaths: o.keepDanglingPaths,
		DefaultRegistry:   o.registry,
		FilePattern:       o.files,
		Exclude:           o.exclude,
		Data:              scan.DataMode(o.data),
		Logger:            logger,
	}
}

// newProvider creates the metadata provider selected by --provider.
func (c *CLI) newProvider(o scanOpts, logger *log.Logger) (cargo.Provider, error) {
	switch o.provider {
	case providerCargo:
		if o.timeout < 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "timeout cannot be negative: %s", o.timeout)
		}
		if o.cacheTTL < 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "cache TTL cannot be negative: %s", o.cacheTTL)
		}
		var metadataCache cache.Cache
		if o.cache {
			metadataCache = c.newCache()
		}
		return cargo.NewCommand(cargo.CommandOptions{
			Binary:            o.cargo,
			Timeout:           o.timeout,
			Offline:           o.offline,
			Locked:            o.locked,
			Frozen:            o.frozen,
			Features:          o.features,
			AllFeatures:       o.allFeatures,
			NoDefaultFeatures: o.noDefaultFeatures,
			Registry:          o.registry,
			KeepDanglingPaths: o.keepDanglingPaths,
			Cache:             metadataCache,
			CacheTTL:          o.cacheTTL,
			Logger:            logger,
		}), nil
	case providerManifest:
		return cargo.NewManifestReader(logger), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown provider %q (want %s or %s)", o.provider, providerCargo, providerManifest)
	}
}

// scanCommand creates the scan command.
func (c *CLI) scanCommand() *cobra.Command {
	opts := scanOpts{
		discovery: string(scan.DiscoveryRecursive),
		registry:  cargo.CratesIO,
		files:     scan.DefaultFilePattern,
		data:      string(scan.DataLicense),
		provider:  providerCargo,
		timeout:   cargo.DefaultTimeout,
		cacheTTL:  cargo.DefaultCacheTTL,
	}

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Emit source units for the Cargo packages under a directory",
		Long: `Emit source units for the Cargo packages under a directory.

The scan command finds Cargo.toml manifests below dir (default: the current
directory), loads each workspace once with 'cargo metadata' and prints a JSON
array with one source unit per package. Every declared dependency is listed
with the version cargo resolved for it.

With --declared-only (or --provider manifest, which implies reading manifests
without cargo) dependencies are listed as declared, without versions.

Flags can also be set in the [scan] table of a TOML config file (--config, or
~/.config/srclib-cargo/config.toml); flags given on the command line win.

Examples:
  srclib-cargo scan                                  # Scan the current directory
  srclib-cargo scan --subdir crates/core             # Scope the scan to a subdirectory
  srclib-cargo scan --declared-only --provider manifest
  srclib-cargo scan --data full --pretty -o units.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(cmd.Flags(), opts.config); err != nil {
				return err
			}
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runScan(cmd.Context(), dir, opts)
		},
	}

	// Scan flags
	cmd.Flags().StringVar(&opts.repo, "repo", "", "repository URL stamped onto every unit")
	cmd.Flags().StringVar(&opts.subdir, "subdir", "", "subdirectory of dir to scan")
	cmd.Flags().StringVar(&opts.discovery, "discovery", opts.discovery, "manifest discovery: recursive, workspace, single")
	cmd.Flags().BoolVar(&opts.declaredOnly, "declared-only", false, "do not resolve dependency versions")
	cmd.Flags().BoolVar(&opts.keepGoing, "keep-going", false, "skip failing workspaces and packages instead of aborting")
	cmd.Flags().BoolVar(&opts.keepDanglingPaths, "keep-dangling-paths", false, "keep path dependencies whose directory is missing")
	cmd.Flags().StringVar(&opts.registry, "registry", opts.registry, "source locator for dependencies without one")
	cmd.Flags().StringVar(&opts.files, "files", opts.files, "source file glob, relative to each package directory")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "directory globs to skip during discovery (repeatable)")
	cmd.Flags().StringVar(&opts.data, "data", opts.data, "unit metadata: license, full, none")

	// Provider flags
	cmd.Flags().StringVar(&opts.provider, "provider", opts.provider, "metadata provider: cargo, manifest")
	cmd.Flags().StringVar(&opts.cargo, "cargo", "", "cargo binary (default: $CARGO or cargo)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "timeout per cargo metadata call")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "run cargo without network access")
	cmd.Flags().BoolVar(&opts.locked, "locked", false, "require Cargo.lock to be up to date")
	cmd.Flags().BoolVar(&opts.frozen, "frozen", false, "require Cargo.lock and cache to be up to date")
	cmd.Flags().StringSliceVar(&opts.features, "features", nil, "features to activate (comma-separated)")
	cmd.Flags().BoolVar(&opts.allFeatures, "all-features", false, "activate all features")
	cmd.Flags().BoolVar(&opts.noDefaultFeatures, "no-default-features", false, "do not activate the default features")
	cmd.Flags().BoolVar(&opts.cache, "cache", false, "reuse cargo metadata while manifests and Cargo.lock are unchanged")
	cmd.Flags().DurationVar(&opts.cacheTTL, "cache-ttl", opts.cacheTTL, "lifetime of cached cargo metadata")

	// Output flags
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&opts.config, "config", "", "TOML config file with a [scan] table")
	registerScanCompletions(cmd)

	return cmd
}

// runScan performs the scan and writes the units. Nothing is written unless
// the whole scan succeeds.
func (c *CLI) runScan(ctx context.Context, dir string, opts scanOpts) error {
	logger := loggerFromContext(ctx)

	provider, err := c.newProvider(opts, logger)
	if err != nil {
		return err
	}
	driver, err := scan.NewDriver(provider, opts.options(dir, logger))
	if err != nil {
		return err
	}

	stats := &scanStats{}
	observability.SetScanHooks(stats)
	defer observability.Reset()

	prog := newProgress(logger)
	var spinner *Spinner
	if !c.quiet() && logger.GetLevel() > LogDebug && isTerminal(c.Stderr) {
		spinner = newSpinner(ctx, c.Stderr, fmt.Sprintf("Scanning %s...", dir), stats.progress)
		spinner.Start()
	}

	units, err := driver.Run(ctx)
	if spinner != nil {
		if err != nil {
			spinner.StopWithError("Scan failed")
		} else {
			spinner.Stop()
		}
	}
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := unit.WriteJSON(&buf, units, opts.pretty); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode units")
	}
	if err := c.writeOutput(opts.output, buf.Bytes()); err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Scanned %d packages with %s", len(units), provider.Name()))
	if !c.quiet() {
		printSummary(c.Stderr, stats.snapshot())
		if opts.output != "" && opts.output != "-" {
			printSuccess(c.Stderr, "Wrote %d units", len(units))
			printFile(c.Stderr, opts.output)
		}
	}
	return nil
}

// writeOutput writes data to path, or to stdout when path is empty.
func (c *CLI) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		if _, err := c.Stdout.Write(data); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write units")
		}
		return nil
	}
	if strings.HasSuffix(path, string(os.PathSeparator)) {
		return errors.New(errors.ErrCodeInvalidPath, "output %s is a directory", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}
