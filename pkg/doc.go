// Package pkg provides the core libraries for wallyup, the Wally dependency
// upgrader.
//
// # Overview
//
// wallyup reads a wally.toml manifest, looks every pinned dependency up in
// the Wally package index and rewrites each pin to the newest release its
// upgrade focus admits. The pkg directory is organized into three areas:
//
//  1. Domain logic: [version], [resolve], [manifest] and [upgrade]
//  2. Index acquisition: [snapshot], [registry] and [pipeline]
//  3. Infrastructure: [cache], [install], [errors], [observability] and
//     [buildinfo]
//
// # Architecture
//
// The typical data flow through wallyup:
//
//	Index git repository
//	         ↓
//	    [snapshot] package (probe HEAD, shallow clone)
//	         ↓
//	    [registry] package (parse package files into an Index)
//	         ↓
//	    [resolve] + [upgrade] packages (pick the best version per focus)
//	         ↓
//	    [manifest] package (rewrite wally.toml)
//	         ↓
//	    [install] package (run "wally install")
//
// [pipeline] orchestrates the first two steps and caches parsed indexes per
// index commit through [cache].
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil, nil)
//	idx, _, err := runner.LoadIndex(ctx, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//
//	m, err := manifest.Load("wally.toml")
//	if err != nil {
//	    return err
//	}
//	u := &upgrade.Upgrader{Index: idx, Focus: version.FocusMinor}
//	report, err := u.Plan(m)
//	if err != nil {
//	    return err
//	}
//	upgrade.Apply(m, report.Changes)
//	return m.Save("wally.toml")
package pkg
