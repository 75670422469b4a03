package cargo

import (
	"path/filepath"
	"testing"

	"github.com/matzehuels/srclib-cargo/pkg/errors"
)

func TestParseSourceID(t *testing.T) {
	tests := []struct {
		in         string
		kind       string
		isPath     bool
		isRegistry bool
	}{
		{CratesIO, KindRegistry, false, true},
		{"sparse+https://index.crates.io/", KindSparse, false, true},
		{"git+https://github.com/a/b?branch=main", KindGit, false, false},
		{"path+file:///src/foo", KindPath, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := ParseSourceID(tt.in)
			if err != nil {
				t.Fatalf("ParseSourceID: %v", err)
			}
			if s.Kind != tt.kind || s.IsPath() != tt.isPath || s.IsRegistry() != tt.isRegistry {
				t.Errorf("got kind=%s path=%v registry=%v", s.Kind, s.IsPath(), s.IsRegistry())
			}
			if s.String() != tt.in {
				t.Errorf("String() = %q, want %q", s.String(), tt.in)
			}
		})
	}
}

func TestParseSourceIDInvalid(t *testing.T) {
	for _, in := range []string{"", "crates.io", "registry+", "bogus+https://x"} {
		if _, err := ParseSourceID(in); !errors.Is(err, errors.ErrCodeInvalidLocator) {
			t.Errorf("ParseSourceID(%q) error = %v, want %s", in, err, errors.ErrCodeInvalidLocator)
		}
	}
}

func TestPathSource(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my crate")
	s := PathSource(dir)

	if !s.IsPath() {
		t.Fatal("IsPath() = false")
	}
	if s.Path() != dir {
		t.Errorf("Path() = %q, want %q", s.Path(), dir)
	}

	parsed, err := ParseSourceID(s.String())
	if err != nil {
		t.Fatalf("ParseSourceID(%q): %v", s.String(), err)
	}
	if parsed.Path() != dir {
		t.Errorf("round trip Path() = %q, want %q", parsed.Path(), dir)
	}

	registry, _ := ParseSourceID(CratesIO)
	if registry.Path() != "" {
		t.Errorf("registry Path() = %q, want empty", registry.Path())
	}
}
