// Package cargo reads Cargo package metadata.
//
// # Overview
//
// Source-unit construction needs three things from the build tool: the
// packages of a workspace, their declared dependencies, and the resolution
// graph a build would use. This package models them as [Workspace],
// [Package], [Dependency] and a [graph.Graph], and obtains them through the
// [Provider] interface.
//
// # Providers
//
//   - [Command] runs `cargo metadata --format-version 1` once per workspace.
//     In [ModeDeclared] it adds --no-deps and the returned Workspace has no
//     graph. The binary is taken from [CommandOptions], then $CARGO, then
//     "cargo". With [CommandOptions].Cache set, the raw output is cached
//     and reused while the requested manifest, the workspace manifest, the
//     lock file and every member manifest are unchanged.
//   - [ManifestReader] parses Cargo.toml files with BurntSushi/toml. It works
//     without a Rust toolchain but only supports [ModeDeclared].
//
// Both return PROVIDER_ERROR for unreadable manifests or failed resolution.
//
// # Source locators
//
// Dependencies and packages carry cargo source locators of the form
// <kind>+<url>, e.g. [CratesIO]. [ParseSourceID] validates them and
// [PathSource] builds the locator of a local directory.
//
// [graph.Graph]: github.com/matzehuels/srclib-cargo/pkg/graph.Graph
package cargo
