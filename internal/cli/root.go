// Package cli implements the srclib-cargo command-line interface.
//
// The scan command walks a source tree, loads every Cargo workspace it finds
// through cargo metadata (or the manifests alone in declared-only mode) and
// prints one source unit per package as a JSON array on stdout. The CLI is
// built using cobra and logs via the charmbracelet/log library.
//
// # Commands
//
//   - scan: Emit source units for the packages under a directory
//   - cache: Inspect or clear the cargo metadata cache (scan --cache)
//   - completion: Generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and --quiet
// (-q) to keep only warnings and errors. Logs and the end-of-run summary go
// to stderr so stdout carries nothing but the JSON output. Loggers are passed
// through context.Context.
//
// # Example
//
//	import "github.com/matzehuels/srclib-cargo/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(context.Background(), os.Args[1:]); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"os"
)

// Execute runs the srclib-cargo CLI with args and returns an error if the
// command fails. Nothing is printed for the error; the caller reports it.
func Execute(ctx context.Context, args []string) error {
	c := New(os.Stdout, os.Stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
