// Package pkg provides the libraries behind srclib-cargo.
//
// # Overview
//
// srclib-cargo turns the Cargo packages of a source tree into source units:
// one JSON record per package listing its source files and its dependencies
// with the versions cargo resolved for them. The pkg directory is organized
// by stage:
//
//  1. [cargo] - package metadata providers (cargo metadata, plain manifests)
//  2. [graph] - the resolution graph a provider returns
//  3. [scan] - discovery, resolution, normalization and unit assembly
//  4. [unit] - the source-unit record and its JSON encoding
//
// Supporting packages: [errors] (coded errors), [observability] (scan hooks),
// [cache] (cached provider output) and [buildinfo] (version stamping).
//
// # Architecture
//
// The data flow of one scan:
//
//	Cargo.toml files below the scan root
//	         ↓
//	    [scan] Discover
//	         ↓
//	    [cargo] Provider.Load, once per workspace
//	         ↓
//	    [scan] Normalize → Files → Resolve → Assemble
//	         ↓
//	    [unit] WriteJSON
//
// # Quick Start
//
//	provider := cargo.NewCommand(cargo.CommandOptions{})
//	driver, err := scan.NewDriver(provider, scan.Options{Root: "."})
//	if err != nil {
//	    return err
//	}
//	units, err := driver.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	return unit.WriteJSON(os.Stdout, units, false)
//
// [cargo]: github.com/matzehuels/srclib-cargo/pkg/cargo
// [graph]: github.com/matzehuels/srclib-cargo/pkg/graph
// [scan]: github.com/matzehuels/srclib-cargo/pkg/scan
// [unit]: github.com/matzehuels/srclib-cargo/pkg/unit
// [errors]: github.com/matzehuels/srclib-cargo/pkg/errors
// [observability]: github.com/matzehuels/srclib-cargo/pkg/observability
// [cache]: github.com/matzehuels/srclib-cargo/pkg/cache
// [buildinfo]: github.com/matzehuels/srclib-cargo/pkg/buildinfo
package pkg
