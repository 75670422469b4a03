package cargo

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/srclib-cargo/pkg/cache"
	"github.com/matzehuels/srclib-cargo/pkg/errors"
)

// DefaultTimeout bounds a single `cargo metadata` invocation.
const DefaultTimeout = 5 * time.Minute

// DefaultCacheTTL is how long cached metadata is reused while its input files
// are unchanged. Registry state is not an input, so entries expire.
const DefaultCacheTTL = 24 * time.Hour

// Runner executes a command and returns its standard output and standard
// error. Tests substitute a Runner that replays recorded output.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// ExecRunner runs the command with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// CommandOptions configures the cargo metadata provider.
type CommandOptions struct {
	Binary            string        // cargo binary (default: $CARGO, then "cargo")
	Timeout           time.Duration // per-invocation timeout (default: 5m)
	Offline           bool          // --offline
	Locked            bool          // --locked
	Frozen            bool          // --frozen
	Features          []string      // --features
	AllFeatures       bool          // --all-features
	NoDefaultFeatures bool          // --no-default-features
	Runner            Runner        // command runner (default: ExecRunner)
	Registry          string        // registry dangling path dependencies resolve against (default: crates.io)
	KeepDanglingPaths bool          // pass dangling path dependencies to cargo unchanged
	Cache             cache.Cache   // metadata cache (default: none)
	CacheTTL          time.Duration // cache entry lifetime (default: 24h)
	Logger            *log.Logger   // debug logging (default: discard)
}

// WithDefaults returns a copy of CommandOptions with zero values replaced by defaults.
func (o CommandOptions) WithDefaults() CommandOptions {
	opts := o
	if opts.Binary == "" {
		opts.Binary = os.Getenv("CARGO")
	}
	if opts.Binary == "" {
		opts.Binary = "cargo"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner
	}
	if opts.Registry == "" {
		opts.Registry = CratesIO
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return opts
}

// Command is the Provider backed by `cargo metadata`.
type Command struct {
	opts CommandOptions
}

// NewCommand creates a cargo metadata provider.
func NewCommand(opts CommandOptions) *Command {
	return &Command{opts: opts.WithDefaults()}
}

func (c *Command) Name() string        { return "cargo" }
func (c *Command) IncludesGraph() bool { return true }

// Args returns the argument list passed to the cargo binary.
func (c *Command) Args(manifestPath string, mode Mode) []string {
	args := []string{"metadata", "--format-version", "1", "--manifest-path", manifestPath}
	if mode == ModeDeclared {
		args = append(args, "--no-deps")
	}
	if c.opts.Offline {
		args = append(args, "--offline")
	}
	if c.opts.Locked {
		args = append(args, "--locked")
	}
	if c.opts.Frozen {
		args = append(args, "--frozen")
	}
	if c.opts.AllFeatures {
		args = append(args, "--all-features")
	}
	if c.opts.NoDefaultFeatures {
		args = append(args, "--no-default-features")
	}
	if len(c.opts.Features) > 0 {
		args = append(args, "--features", strings.Join(c.opts.Features, ","))
	}
	return args
}

// Load runs `cargo metadata` once for manifestPath, unless the metadata
// cache holds a result whose input files are unchanged.
//
// In ModeResolve, path dependencies whose directory is missing would make
// cargo fail for the whole workspace. Unless KeepDanglingPaths is set, cargo
// then runs on a mirror of the workspace in which those dependencies point at
// the Registry. If even that cannot be resolved, the workspace is loaded
// without resolution and its graph holds the workspace packages only.
func (c *Command) Load(ctx context.Context, manifestPath string, mode Mode) (*Workspace, error) {
	args := c.Args(manifestPath, mode)
	key := c.metadataKey(args)
	if ws, ok := c.cached(ctx, key); ok {
		c.opts.Logger.Debug("metadata cache hit", "manifest", manifestPath)
		ws.Manifest = manifestPath
		return ws, nil
	}

	if mode == ModeResolve && !c.opts.KeepDanglingPaths {
		ov, err := c.newOverlay(ctx, manifestPath)
		if err != nil {
			c.opts.Logger.Debug("not checking for dangling path dependencies", "manifest", manifestPath, "err", err)
		}
		if ov != nil {
			defer ov.remove()
			return c.loadOverlay(ctx, key, manifestPath, ov)
		}
	}

	stdout, err := c.run(ctx, manifestPath, args)
	if err != nil {
		return nil, err
	}
	ws, err := ParseMetadata(stdout)
	if err != nil {
		return nil, err
	}
	ws.Manifest = manifestPath
	c.store(ctx, key, manifestPath, stdout, ws, nil)
	return ws, nil
}

// loadOverlay resolves the mirrored workspace and maps the result back onto
// the real one.
func (c *Command) loadOverlay(ctx context.Context, key, manifestPath string, ov *overlay) (*Workspace, error) {
	target := ov.path(manifestPath)
	stdout, err := c.run(ctx, manifestPath, c.Args(target, ModeResolve))
	resolved := err == nil
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		c.opts.Logger.Warn("cannot resolve with dangling path dependencies redirected; dependencies stay unresolved",
			"manifest", manifestPath, "registry", c.opts.Registry, "err", errors.UserMessage(err))
		if stdout, err = c.run(ctx, manifestPath, c.Args(target, ModeDeclared)); err != nil {
			return nil, err
		}
	}

	stdout = ov.restore(stdout)
	ws, err := ParseMetadata(stdout)
	if err != nil {
		return nil, err
	}
	ws.Manifest = manifestPath
	if !resolved {
		if ws.Graph, err = (&metadataResolve{}).graph(ws.Packages); err != nil {
			return nil, err
		}
		return ws, nil
	}
	c.store(ctx, key, manifestPath, stdout, ws, ov.inputs())
	return ws, nil
}

// run invokes cargo with args. manifestPath names the query in errors.
func (c *Command) run(ctx context.Context, manifestPath string, args []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	c.opts.Logger.Debug("running provider", "cmd", c.opts.Binary, "args", strings.Join(args, " "))

	start := time.Now()
	stdout, stderr, err := c.opts.Runner(ctx, c.opts.Binary, args...)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.Wrap(errors.ErrCodeProvider,
				errors.New(errors.ErrCodeTimeout, "timed out after %s", c.opts.Timeout),
				"cargo metadata %s", manifestPath)
		}
		if msg := errorLine(stderr); msg != "" {
			return nil, errors.Wrap(errors.ErrCodeProvider, stderrors.New(msg), "cargo metadata %s", manifestPath)
		}
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "cargo metadata %s", manifestPath)
	}
	c.opts.Logger.Debug("provider finished", "manifest", manifestPath, "bytes", len(stdout), "duration", time.Since(start).Round(time.Millisecond))
	return stdout, nil
}

// errorLine picks the line of cargo's stderr that carries the error message
// ("error: failed to parse manifest at ..."), falling back to the last
// non-empty line.
func errorLine(b []byte) string {
	var last string
	for _, l := range strings.Split(string(b), "\n") {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "error:") {
			return l
		}
		if l != "" {
			last = l
		}
	}
	return last
}
