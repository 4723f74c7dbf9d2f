// Package resolve picks the best published version for a dependency
// reference under an upgrade focus.
//
// Resolution is greedy and per dependency: nothing here looks at other
// dependencies or at transitive requirements.
package resolve

import (
	"fmt"
	"slices"

	"github.com/matzehuels/wallyup/pkg/errors"
	"github.com/matzehuels/wallyup/pkg/registry"
	"github.com/matzehuels/wallyup/pkg/version"
)

// Lookuper returns the published records of a package.
// *registry.Index satisfies it.
type Lookuper interface {
	Lookup(domain, pkg string) ([]registry.Record, error)
}

// Resolve returns ref rewritten to the highest release that focus allows.
//
// A reference without a version, or pinned to a pre-release, is returned
// unchanged. Pre-release candidates are ignored. Under FocusMajor a newer
// major adopts that release's own minor and patch. If no candidate beats
// the pinned version the result is still normalized to domain/package@M.m.p.
//
// Lookup failures (UNKNOWN_PACKAGE) are returned, not masked.
func Resolve(ref string, focus version.Focus, idx Lookuper) (string, error) {
	r, err := ParseReference(ref)
	if err != nil {
		return ref, err
	}
	if !r.Resolvable() {
		return ref, nil
	}

	best, err := Best(r, focus, idx)
	if err != nil {
		return ref, err
	}
	return r.With(best), nil
}

// Best returns the best version for a resolvable reference. It scans the
// candidates once, replacing the running best whenever focus says a
// candidate improves on it.
func Best(r Reference, focus version.Focus, idx Lookuper) (version.Version, error) {
	if !focus.Valid() {
		return version.Version{}, errors.New(errors.ErrCodeInvalidFocus, "unknown upgrade focus %q", focus)
	}

	best, err := version.Parse(r.Version)
	if err != nil {
		return version.Version{}, fmt.Errorf("%s: %w", r.Raw, err)
	}

	records, err := idx.Lookup(r.Domain, r.Package)
	if err != nil {
		return version.Version{}, err
	}

	for i := range records {
		if records[i].IsPrerelease() {
			continue
		}
		candidate, err := records[i].ParsedVersion()
		if err != nil {
			return version.Version{}, fmt.Errorf("%s: registry entry %d: %w", r.Address(), i+1, err)
		}
		if focus.Improves(best, candidate) {
			best = candidate
		}
	}
	return best, nil
}

// Candidates returns the releases of a reference's package that focus
// admits from the pinned version, newest first. Pre-releases are excluded.
func Candidates(r Reference, focus version.Focus, idx Lookuper) ([]version.Version, error) {
	base, err := version.Parse(r.Version)
	if err != nil {
		return nil, err
	}
	records, err := idx.Lookup(r.Domain, r.Package)
	if err != nil {
		return nil, err
	}

	var out []version.Version
	for i := range records {
		if records[i].IsPrerelease() {
			continue
		}
		v, err := records[i].ParsedVersion()
		if err != nil {
			return nil, err
		}
		if focus.Admits(base, v) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b version.Version) int { return b.Compare(a) })
	return slices.CompactFunc(out, func(a, b version.Version) bool { return a.Compare(b) == 0 }), nil
}
