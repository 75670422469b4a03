package unit

import (
	"bytes"
	"encoding/json"
)

// Type is the unit-type tag of every unit this tool emits.
const Type = "RustCargoPackage"

// SourceUnit describes one package for the indexer.
type SourceUnit struct {
	Name         string               `json:"Name"`
	Type         string               `json:"Type"`
	Repo         string               `json:"Repo,omitempty"`
	Files        []string             `json:"Files"`
	Dir          string               `json:"Dir"`
	Dependencies []ResolvedDependency `json:"Dependencies"`
	Data         Data                 `json:"Data,omitempty"`
}

// ResolvedDependency is a declared dependency together with the concrete
// version the resolution graph chose for it. An empty Version means the
// dependency was declared but could not be resolved.
type ResolvedDependency struct {
	Name            string   `json:"Name"`
	Version         string   `json:"Version,omitempty"`
	Optional        bool     `json:"Optional"`
	Source          string   `json:"Source"`
	Scope           string   `json:"Scope"`
	DefaultFeatures bool     `json:"DefaultFeatures"`
	Features        []string `json:"Features"`
	Platform        string   `json:"Platform,omitempty"`
	Path            string   `json:"Path,omitempty"`
}

// Resolved reports whether a concrete version was found.
func (d ResolvedDependency) Resolved() bool { return d.Version != "" }

// MarshalJSON encodes Files, Dependencies and every Features list as arrays
// even when they are nil.
func (u SourceUnit) MarshalJSON() ([]byte, error) {
	type plain SourceUnit
	p := plain(u)
	if p.Files == nil {
		p.Files = []string{}
	}
	deps := make([]ResolvedDependency, len(u.Dependencies))
	for i, d := range u.Dependencies {
		if d.Features == nil {
			d.Features = []string{}
		}
		deps[i] = d
	}
	p.Dependencies = deps

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
