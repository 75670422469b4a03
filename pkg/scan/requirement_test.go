package scan

import "testing"

func TestRequirementMatches(t *testing.T) {
	tests := []struct {
		req     string
		version string
		want    bool
	}{
		{"^1.0", "1.2.0", true},
		{"^1.0", "2.0.0", false},
		{"1.2", "1.9.0", true},
		{"1.2", "1.1.0", false},
		{"1.2", "2.0.0", false},
		{"0.2", "0.2.9", true},
		{"0.2", "0.3.0", false},
		{"~1.2", "1.2.5", true},
		{"~1.2", "1.3.0", false},
		{"=1.2.3", "1.2.3", true},
		{"=1.2.3", "1.2.4", false},
		{">=1, <2", "1.5.0", true},
		{">=1, <2", "2.0.0", false},
		{"*", "3.0.0", true},
		{"", "0.1.0", true},
		{"1.*", "1.7.0", true},
		{"1.*", "2.0.0", false},
		{"^1.0", "1.3.0-beta.1", false},
		{"^1.0", "not-a-version", false},
		{">=1.0.0-alpha", "1.0.0-beta", true},
		{">=1.0.0-alpha", "1.0.1", true},
		{">=1.0.0-alpha", "1.0.1-beta", false},
		{"^0.1.0-alpha.1", "0.1.0-alpha.2", true},
		{"^0.1.0-alpha.1", "0.1.1-beta", false},
		{">=1.0.0-rc.1, <2", "1.5.0-rc.1", false},
		{"*", "1.0.0-alpha", false},
	}
	for _, tt := range tests {
		t.Run(tt.req+"/"+tt.version, func(t *testing.T) {
			r, err := ParseRequirement(tt.req)
			if err != nil {
				t.Fatalf("ParseRequirement(%q): %v", tt.req, err)
			}
			if got := r.Matches(tt.version); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}

func TestParseRequirementInvalid(t *testing.T) {
	for _, req := range []string{"not a req", "^banana"} {
		if _, err := ParseRequirement(req); err == nil {
			t.Errorf("ParseRequirement(%q) succeeded, want error", req)
		}
	}
}

func TestRequirementString(t *testing.T) {
	r, err := ParseRequirement("1.2")
	if err != nil {
		t.Fatal(err)
	}
	if r.String() != "1.2" {
		t.Errorf("String() = %q, want the declared text", r.String())
	}
}
