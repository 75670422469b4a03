package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/srclib-cargo/pkg/cache"
	"github.com/matzehuels/srclib-cargo/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the cargo metadata cache",
		Long: `Manage the cargo metadata cache used by 'scan --cache'.

Entries are reused while the manifests and lock file they were loaded from
are unchanged, and expire after --cache-ttl regardless.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "cache directory")
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printSuccess(c.Stderr, "Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "open cache %s", dir)
			}
			n, err := fc.Clear()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "clear cache %s", dir)
			}
			printSuccess(c.Stderr, "Cleared %d cached entries", n)
			printFile(c.Stderr, dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "cache directory")
			}
			fmt.Fprintln(c.Stdout, dir)
			return nil
		},
	}
}

// newCache opens the metadata cache, falling back to no caching when the
// cache directory cannot be used.
func (c *CLI) newCache() cache.Cache {
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("metadata cache disabled", "err", err)
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("metadata cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// cacheDir returns the cache directory using XDG standard (~/.cache/srclib-cargo/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
