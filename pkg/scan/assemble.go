package scan

import (
	"path/filepath"
	"strings"

	spdxexp "github.com/github/go-spdx/v2/spdxexp"
	packageurl "github.com/package-url/packageurl-go"

	"github.com/matzehuels/srclib-cargo/pkg/cargo"
	"github.com/matzehuels/srclib-cargo/pkg/errors"
	"github.com/matzehuels/srclib-cargo/pkg/unit"
)

// Parts are the inputs of one source unit.
type Parts struct {
	Package      *cargo.Package
	Files        []string
	Dependencies []unit.ResolvedDependency
	Data         unit.Data
}

// Assemble combines parts into a SourceUnit. root is the scan root that
// Files are relative to; repo, when set, overrides the package's declared
// repository. Assemble performs no I/O. It fails only when the package has no
// name or a name cargo would not accept.
func Assemble(root, repo string, parts Parts) (unit.SourceUnit, error) {
	pkg := parts.Package
	if pkg == nil || pkg.Name == "" {
		manifest := ""
		if pkg != nil {
			manifest = pkg.ManifestPath
		}
		return unit.SourceUnit{}, errors.New(errors.ErrCodeInvalidManifest, "package at %q has no name", manifest)
	}
	if err := errors.ValidateCratesPackageName(pkg.Name); err != nil {
		return unit.SourceUnit{}, errors.Wrap(errors.ErrCodeInvalidManifest, err, "package at %q", pkg.ManifestPath)
	}

	if repo == "" {
		repo = pkg.Repository
	}
	files := parts.Files
	if files == nil {
		files = []string{}
	}
	deps := parts.Dependencies
	if deps == nil {
		deps = []unit.ResolvedDependency{}
	}

	return unit.SourceUnit{
		Name:         pkg.Name,
		Type:         unit.Type,
		Repo:         repo,
		Files:        files,
		Dir:          relSlash(root, pkg.Dir()),
		Dependencies: deps,
		Data:         parts.Data,
	}, nil
}

// Payload builds the metadata payload for pkg in the given mode.
func Payload(mode DataMode, root string, pkg *cargo.Package) unit.Data {
	switch mode {
	case DataNone:
		return nil
	case DataFull:
		return fullMetadata(root, pkg)
	default:
		return unit.License{License: pkg.License}
	}
}

func fullMetadata(root string, pkg *cargo.Package) unit.FullMetadata {
	m := unit.FullMetadata{
		License:       pkg.License,
		SPDX:          spdxExpression(pkg.License),
		PURL:          packageurl.NewPackageURL(packageurl.TypeCargo, "", pkg.Name, pkg.Version, nil, "").ToString(),
		Version:       pkg.Version,
		Description:   strings.TrimSpace(pkg.Description),
		Authors:       pkg.Authors,
		Homepage:      pkg.Homepage,
		Documentation: pkg.Documentation,
		Keywords:      pkg.Keywords,
		Categories:    pkg.Categories,
		Edition:       pkg.Edition,
	}
	for _, t := range pkg.Targets {
		m.Targets = append(m.Targets, unit.Target{Name: t.Name, Kind: t.Kinds, SrcPath: relSlash(root, t.SrcPath)})
	}
	return m
}

// spdxExpression returns the license as a valid SPDX expression, or "".
// The legacy "MIT/Apache-2.0" form crates.io still accepts is read as OR.
func spdxExpression(license string) string {
	expr := strings.TrimSpace(license)
	if expr == "" {
		return ""
	}
	if strings.Contains(expr, "/") {
		parts := strings.Split(expr, "/")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		expr = strings.Join(parts, " OR ")
	}
	if valid, _ := spdxexp.ValidateLicenses([]string{expr}); !valid {
		return ""
	}
	return expr
}

// relSlash returns path relative to root with "/" separators, or path
// unchanged when it cannot be made relative.
func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
