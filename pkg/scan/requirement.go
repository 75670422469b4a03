package scan

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/srclib-cargo/pkg/cargo"
)

// Requirement is a parsed Cargo version requirement.
type Requirement struct {
	raw         string
	constraints *semver.Constraints
	prereleases []*semver.Version // comparator versions carrying a pre-release tag
}

// ParseRequirement parses a Cargo requirement such as "^1.2", "~1",
// "=1.2.3", ">=1, <2", "1.*" or "*". Comparators without an operator are
// caret requirements, as in Cargo; the comma means AND in both syntaxes.
func ParseRequirement(req string) (*Requirement, error) {
	normalized := cargo.NormalizeRequirement(req)
	c, err := semver.NewConstraint(normalized)
	if err != nil {
		return nil, err
	}
	r := &Requirement{raw: req, constraints: c}
	for _, part := range strings.Split(normalized, ",") {
		part = strings.TrimLeft(strings.TrimSpace(part), "^~=<>! ")
		if v, err := semver.NewVersion(part); err == nil && v.Prerelease() != "" {
			r.prereleases = append(r.prereleases, v)
		}
	}
	return r, nil
}

// Matches reports whether version satisfies the requirement. Unparsable
// versions never match. As in Cargo, a pre-release version only matches when
// a comparator names a pre-release of the same major.minor.patch.
func (r *Requirement) Matches(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	if v.Prerelease() != "" && !r.allowsPrerelease(v) {
		return false
	}
	return r.constraints.Check(v)
}

func (r *Requirement) allowsPrerelease(v *semver.Version) bool {
	for _, p := range r.prereleases {
		if p.Major() == v.Major() && p.Minor() == v.Minor() && p.Patch() == v.Patch() {
			return true
		}
	}
	return false
}

func (r *Requirement) String() string { return r.raw }
