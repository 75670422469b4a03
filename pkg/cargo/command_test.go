package cargo

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/srclib-cargo/pkg/cache"
	"github.com/matzehuels/srclib-cargo/pkg/errors"
)

type recordedRun struct {
	name string
	args []string
}

func replay(stdout, stderr []byte, err error, calls *[]recordedRun) Runner {
	return func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		*calls = append(*calls, recordedRun{name: name, args: args})
		return stdout, stderr, err
	}
}

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		name string
		opts CommandOptions
		mode Mode
		want []string
	}{
		{
			name: "resolve",
			mode: ModeResolve,
			want: []string{"metadata", "--format-version", "1", "--manifest-path", "/w/Cargo.toml"},
		},
		{
			name: "declared",
			mode: ModeDeclared,
			want: []string{"metadata", "--format-version", "1", "--manifest-path", "/w/Cargo.toml", "--no-deps"},
		},
		{
			name: "all flags",
			opts: CommandOptions{Offline: true, Locked: true, Frozen: true, AllFeatures: true, NoDefaultFeatures: true, Features: []string{"a", "b"}},
			mode: ModeResolve,
			want: []string{"metadata", "--format-version", "1", "--manifest-path", "/w/Cargo.toml",
				"--offline", "--locked", "--frozen", "--all-features", "--no-default-features", "--features", "a,b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCommand(tt.opts).Args("/w/Cargo.toml", tt.mode)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Args() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandBinary(t *testing.T) {
	t.Setenv("CARGO", "/opt/rust/bin/cargo")
	if got := (CommandOptions{}).WithDefaults().Binary; got != "/opt/rust/bin/cargo" {
		t.Errorf("Binary = %q, want $CARGO", got)
	}
	if got := (CommandOptions{Binary: "cargo-nightly"}).WithDefaults().Binary; got != "cargo-nightly" {
		t.Errorf("Binary = %q, want explicit value", got)
	}

	t.Setenv("CARGO", "")
	if got := (CommandOptions{}).WithDefaults().Binary; got != "cargo" {
		t.Errorf("Binary = %q, want cargo", got)
	}
}

func TestCommandLoad(t *testing.T) {
	var calls []recordedRun
	c := NewCommand(CommandOptions{
		Binary: "cargo",
		Runner: replay(readFixture(t, "workspace.json"), nil, nil, &calls),
	})

	ws, err := c.Load(context.Background(), "/work/Cargo.toml", ModeResolve)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("runner called %d times, want 1", len(calls))
	}
	if calls[0].name != "cargo" || calls[0].args[0] != "metadata" {
		t.Errorf("ran %s %v", calls[0].name, calls[0].args)
	}
	if ws.Manifest != "/work/Cargo.toml" {
		t.Errorf("Manifest = %q", ws.Manifest)
	}
	if ws.Graph == nil {
		t.Error("Graph is nil")
	}
	if !c.IncludesGraph() || c.Name() != "cargo" {
		t.Error("unexpected provider identity")
	}
}

func TestCommandLoadCached(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	manifest := filepath.Join(t.TempDir(), ManifestFile)
	if err := os.WriteFile(manifest, []byte("[package]\nname = \"foo\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls []recordedRun
	c := NewCommand(CommandOptions{
		Runner: replay(readFixture(t, "workspace.json"), nil, nil, &calls),
		Cache:  fc,
	})
	load := func() *Workspace {
		t.Helper()
		ws, err := c.Load(context.Background(), manifest, ModeResolve)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		return ws
	}

	first := load()
	second := load()
	if len(calls) != 1 {
		t.Fatalf("runner called %d times, want 1", len(calls))
	}
	if second.Manifest != manifest || second.Graph == nil || len(second.Members) != len(first.Members) {
		t.Errorf("cached workspace = %+v", second)
	}

	if err := os.WriteFile(manifest, []byte("[package]\nname = \"bar\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	load()
	if len(calls) != 2 {
		t.Errorf("runner called %d times after the manifest changed, want 2", len(calls))
	}

	// Different flags are a different invocation.
	if _, err := c.Load(context.Background(), manifest, ModeDeclared); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 3 {
		t.Errorf("runner called %d times, want 3", len(calls))
	}
}

// deleteCounter counts evictions from the wrapped cache.
type deleteCounter struct {
	cache.Cache
	deletes int
}

func (c *deleteCounter) Delete(ctx context.Context, key string) error {
	c.deletes++
	return c.Cache.Delete(ctx, key)
}

func TestCommandLoadEvictsUnusableEntry(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	counter := &deleteCounter{Cache: fc}
	var calls []recordedRun
	c := NewCommand(CommandOptions{
		Runner: replay(readFixture(t, "workspace.json"), nil, nil, &calls),
		Cache:  counter,
	})
	key := c.metadataKey(c.Args("/work/Cargo.toml", ModeResolve))
	if err := fc.Set(context.Background(), key, []byte("not json"), time.Hour); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Load(context.Background(), "/work/Cargo.toml", ModeResolve); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if counter.deletes != 1 || len(calls) != 1 {
		t.Errorf("deletes = %d, runner calls = %d; want the corrupt entry evicted and cargo run", counter.deletes, len(calls))
	}
	if _, err := c.Load(context.Background(), "/work/Cargo.toml", ModeResolve); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(calls) != 1 {
		t.Errorf("runner called %d times, want the fresh entry reused", len(calls))
	}
}

func TestCommandLoadFailureNotCached(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var calls []recordedRun
	c := NewCommand(CommandOptions{
		Runner: replay(nil, []byte("error: boom\n"), stderrors.New("exit status 101"), &calls),
		Cache:  fc,
	})
	for range 2 {
		if _, err := c.Load(context.Background(), "/work/Cargo.toml", ModeResolve); err == nil {
			t.Fatal("Load succeeded")
		}
	}
	if len(calls) != 2 {
		t.Errorf("runner called %d times, want 2", len(calls))
	}
}

func TestCommandLoadFailure(t *testing.T) {
	stderr := []byte("    Updating crates.io index\nerror: failed to parse manifest at `/work/Cargo.toml`\n\nCaused by:\n  missing field `name`\n")
	var calls []recordedRun
	c := NewCommand(CommandOptions{Runner: replay(nil, stderr, stderrors.New("exit status 101"), &calls)})

	_, err := c.Load(context.Background(), "/work/Cargo.toml", ModeResolve)
	if !errors.Is(err, errors.ErrCodeProvider) {
		t.Fatalf("Load() error = %v, want %s", err, errors.ErrCodeProvider)
	}
	if !strings.Contains(errors.UserMessage(err), "failed to parse manifest") {
		t.Errorf("UserMessage = %q, want cargo's error line", errors.UserMessage(err))
	}
}

func TestCommandLoadTimeout(t *testing.T) {
	c := NewCommand(CommandOptions{
		Timeout: 10 * time.Millisecond,
		Runner: func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
			<-ctx.Done()
			return nil, nil, ctx.Err()
		},
	})

	_, err := c.Load(context.Background(), "/work/Cargo.toml", ModeResolve)
	if !errors.Is(err, errors.ErrCodeProvider) {
		t.Fatalf("Load() error = %v, want %s", err, errors.ErrCodeProvider)
	}
	if !strings.Contains(err.Error(), string(errors.ErrCodeTimeout)) {
		t.Errorf("error %q does not mention the timeout", err)
	}
}

func TestErrorLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"warning: x\nerror: boom\n\nCaused by:\n  y\n", "error: boom"},
		{"something went wrong\n\n", "something went wrong"},
	}
	for _, tt := range tests {
		if got := errorLine([]byte(tt.in)); got != tt.want {
			t.Errorf("errorLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
