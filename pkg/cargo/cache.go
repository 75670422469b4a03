package cargo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/matzehuels/srclib-cargo/pkg/cache"
)

// LockFile is the name of cargo's lock file at a workspace root.
const LockFile = "Cargo.lock"

// metadataEntry is a cached `cargo metadata` result. Inputs maps every file
// the result depends on to its content hash ("" when the file was absent).
type metadataEntry struct {
	Output []byte            `json:"output"`
	Inputs map[string]string `json:"inputs"`
}

// metadataKey identifies one invocation. The manifest path is part of args.
func (c *Command) metadataKey(args []string) string {
	return cache.Key("cargo-metadata", c.opts.Binary, args)
}

// cached returns the workspace stored under key if every input file it was
// loaded from is unchanged.
func (c *Command) cached(ctx context.Context, key string) (*Workspace, bool) {
	data, ok, err := c.opts.Cache.Get(ctx, key)
	if err != nil {
		c.opts.Logger.Debug("metadata cache read failed", "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var entry metadataEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.evict(ctx, key)
		return nil, false
	}
	for path, hash := range entry.Inputs {
		if fingerprint(path) != hash {
			c.opts.Logger.Debug("metadata cache stale", "changed", path)
			c.evict(ctx, key)
			return nil, false
		}
	}
	ws, err := ParseMetadata(entry.Output)
	if err != nil {
		c.evict(ctx, key)
		return nil, false
	}
	return ws, true
}

func (c *Command) evict(ctx context.Context, key string) {
	if err := c.opts.Cache.Delete(ctx, key); err != nil {
		c.opts.Logger.Debug("metadata cache delete failed", "err", err)
	}
}

// store caches output together with the fingerprints of the requested
// manifest, the workspace manifest and lock file, every member manifest and
// any extra inputs. Cache failures only cost the next run a cargo invocation.
func (c *Command) store(ctx context.Context, key, manifestPath string, output []byte, ws *Workspace, extra []string) {
	paths := append([]string{manifestPath}, extra...)
	if ws.Root != "" {
		paths = append(paths, filepath.Join(ws.Root, ManifestFile), filepath.Join(ws.Root, LockFile))
	}
	for _, p := range ws.Members {
		paths = append(paths, p.ManifestPath)
	}

	entry := metadataEntry{Output: output, Inputs: make(map[string]string, len(paths))}
	for _, p := range paths {
		entry.Inputs[p] = fingerprint(p)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.opts.Cache.Set(ctx, key, data, c.opts.CacheTTL); err != nil {
		c.opts.Logger.Debug("metadata cache write failed", "err", err)
	}
}

// fingerprint returns the content hash of the file at path, or "" if it
// cannot be read.
func fingerprint(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
