// Package scan turns Cargo packages into source units.
//
// A scan discovers Cargo.toml manifests below a root directory, asks a
// [cargo.Provider] for the workspace of each one and builds a
// [unit.SourceUnit] per workspace member. Each workspace is loaded once and
// each package emitted once, however many manifests point at it.
//
// # Pipeline
//
// For every package the [Driver] runs four steps:
//
//  1. [Normalizer]: re-point path dependencies whose directory is missing at
//     the default registry
//  2. [FileEnumerator]: list the package's source files
//  3. [Resolver]: pick the resolved version of each declared dependency from
//     the workspace's resolution graph
//  4. [Assemble]: combine the above with the metadata [Payload]
//
// # Usage
//
//	provider := cargo.NewCommand(cargo.CommandOptions{Logger: logger})
//	driver, err := scan.NewDriver(provider, scan.Options{
//	    Root:   ".",
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//	units, err := driver.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	return unit.WriteJSON(os.Stdout, units, false)
//
// # Requirements
//
// Cargo requirement syntax is matched with Masterminds/semver. A comparator
// without an operator is a caret requirement, so "1.2" accepts 1.9.0 but not
// 2.0.0.
package scan
