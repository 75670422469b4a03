package cli

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/pflag"

	"github.com/matzehuels/srclib-cargo/pkg/errors"
)

func writeConfig(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// scanFlags returns the flag set of a fresh scan command.
func scanFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	c := New(io.Discard, io.Discard, LogInfo)
	return c.scanCommand().Flags()
}

func TestApplyConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := writeConfig(t, filepath.Join(t.TempDir(), "config.toml"), `
[scan]
discovery = "workspace"
declared-only = true
exclude = ["vendor/**", "third_party/**"]
timeout = "10m"
registry = "registry+https://example.com/index"
`)

	fs := scanFlags(t)
	if err := fs.Parse([]string{"--discovery", "single"}); err != nil {
		t.Fatal(err)
	}
	if err := applyConfig(fs, path); err != nil {
		t.Fatalf("applyConfig: %v", err)
	}

	tests := []struct {
		flag string
		want string
	}{
		{"discovery", "single"},
		{"declared-only", "true"},
		{"exclude", "[vendor/**,third_party/**]"},
		{"timeout", "10m0s"},
		{"registry", "registry+https://example.com/index"},
		{"files", "src/**.rs"},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			if got := fs.Lookup(tt.flag).Value.String(); got != tt.want {
				t.Errorf("--%s = %q, want %q", tt.flag, got, tt.want)
			}
		})
	}
}

func TestApplyConfigErrors(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "[scan]\nnope = true\n"},
		{"nested config", "[scan]\nconfig = \"other.toml\"\n"},
		{"bad value", "[scan]\ntimeout = \"soon\"\n"},
		{"unsupported type", "[scan]\ndiscovery = 1.5\n"},
		{"not toml", "[scan\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, filepath.Join(dir, tt.name+".toml"), tt.content)
			err := applyConfig(scanFlags(t), path)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("err = %v, want INVALID_CONFIG", err)
			}
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		err := applyConfig(scanFlags(t), filepath.Join(dir, "missing.toml"))
		if !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("err = %v, want INVALID_CONFIG", err)
		}
	})
}

func TestApplyConfigDefaultFile(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	fs := scanFlags(t)
	if err := applyConfig(fs, ""); err != nil {
		t.Fatalf("applyConfig without a config file: %v", err)
	}

	writeConfig(t, filepath.Join(xdg, appName, configFile), "[scan]\ndata = \"full\"\n")
	if err := applyConfig(fs, ""); err != nil {
		t.Fatalf("applyConfig: %v", err)
	}
	if got := fs.Lookup("data").Value.String(); got != "full" {
		t.Errorf("--data = %q, want full", got)
	}
}

func TestScanUsesConfigFile(t *testing.T) {
	dir := fooCrate(t)
	path := writeConfig(t, filepath.Join(t.TempDir(), "config.toml"), `
[scan]
provider = "manifest"
declared-only = true
data = "none"
`)

	stdout, _, err := execute(t, "scan", dir, "--config", path)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(decodeUnits(t, stdout)) != 1 {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestFlagValues(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    []string
		wantErr bool
	}{
		{"string", "workspace", []string{"workspace"}, false},
		{"bool", true, []string{"true"}, false},
		{"int", int64(3), []string{"3"}, false},
		{"strings", []any{"a", "b"}, []string{"a", "b"}, false},
		{"empty array", []any{}, []string{}, false},
		{"mixed array", []any{"a", int64(1)}, nil, true},
		{"float", 1.5, nil, true},
		{"table", map[string]any{"a": "b"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flagValues(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("flagValues(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && !slices.Equal(got, tt.want) {
				t.Errorf("flagValues(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
