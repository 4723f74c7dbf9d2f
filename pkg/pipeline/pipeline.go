// Package pipeline acquires the package index used for upgrades.
//
// Acquisition has three stages:
//
//  1. Probe: resolve the commit at the tip of the index branch
//  2. Snapshot: shallow-clone that commit into a temporary directory
//  3. Parse: build a [registry.Index] from the snapshot tree
//
// The parsed index is cached keyed by the probed commit, so a run against an
// unchanged remote costs one reference listing and no clone or parse. A
// local snapshot directory bypasses probe and cache entirely.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, nil, logger)
//	idx, info, err := runner.LoadIndex(ctx, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	logger.Info("index ready", "commit", info.Commit, "cached", info.CacheHit)
package pipeline

import (
	"time"

	"github.com/matzehuels/wallyup/pkg/cache"
	"github.com/matzehuels/wallyup/pkg/registry"
	"github.com/matzehuels/wallyup/pkg/snapshot"
)

// TTLIndex bounds how long a parsed index stays cached. Entries are keyed
// by commit, so this only limits growth of the cache.
const TTLIndex = cache.DefaultTTL

// Options configures index acquisition.
type Options struct {
	// Source is the remote index (default: the public Wally index on main).
	Source snapshot.Source
	// Dir is a local snapshot directory. When set, no network access happens.
	Dir string
	// Refresh ignores cached indexes; the fresh result is still stored.
	Refresh bool
	// Concurrency bounds parallel domain parsing (default: registry.DefaultConcurrency).
	Concurrency int
}

// ValidateAndSetDefaults fills defaults and checks the source URL.
func (o *Options) ValidateAndSetDefaults() error {
	o.Source = o.Source.WithDefaults()
	if o.Concurrency <= 0 {
		o.Concurrency = registry.DefaultConcurrency
	}
	if o.Dir != "" {
		return nil
	}
	return validateSource(o.Source)
}

// Info describes how an index was obtained.
type Info struct {
	Source   snapshot.Source
	Dir      string // local snapshot, when used
	Commit   string // empty for local snapshots
	CacheHit bool
	Packages int
	Records  int
	Duration time.Duration
}
