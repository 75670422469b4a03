package unit

// Data is the package-level metadata payload of a unit: [License],
// [FullMetadata], or nil when no payload was requested.
type Data interface {
	isData()
}

// License is the default payload: the declared license expression.
type License struct {
	License string `json:"License"`
}

func (License) isData() {}

// FullMetadata is the extended payload: license and provenance details.
type FullMetadata struct {
	License       string   `json:"License"`
	SPDX          string   `json:"SPDX,omitempty"` // normalized expression, set only when valid
	PURL          string   `json:"PURL"`
	Version       string   `json:"Version"`
	Description   string   `json:"Description,omitempty"`
	Authors       []string `json:"Authors,omitempty"`
	Homepage      string   `json:"Homepage,omitempty"`
	Documentation string   `json:"Documentation,omitempty"`
	Keywords      []string `json:"Keywords,omitempty"`
	Categories    []string `json:"Categories,omitempty"`
	Edition       string   `json:"Edition,omitempty"`
	Targets       []Target `json:"Targets,omitempty"`
}

func (FullMetadata) isData() {}

// Target is a build target; SrcPath is relative to the scan root.
type Target struct {
	Name    string   `json:"Name"`
	Kind    []string `json:"Kind"`
	SrcPath string   `json:"SrcPath"`
}
