// Package version implements the three-component versions published to a
// Wally registry and the upgrade focus that bounds how far a pinned version
// may move.
//
// Versions are plain major.minor.patch triples. Anything after the first
// dash is an opaque pre-release tag: it is kept for display but never
// decomposed, and pre-release versions never take part in upgrade
// comparisons at all.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/matzehuels/wallyup/pkg/errors"
)

// Version is an immutable parsed version.
type Version struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Prerelease string // text after the first '-'; empty for releases
}

// Parse parses "M.m.p" or "M.m.p-tag". The numeric part must split into
// exactly three unsigned integers; anything else is MALFORMED_VERSION.
func Parse(s string) (Version, error) {
	core, pre, hasPre := strings.Cut(s, "-")

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return Version{}, errors.New(errors.ErrCodeMalformedVersion,
			"version %q: expected major.minor.patch", s)
	}

	var nums [3]uint64
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return Version{}, errors.Wrap(errors.ErrCodeMalformedVersion, err,
				"version %q: component %q is not a non-negative integer", s, p)
		}
		nums[i] = n
	}

	if hasPre && pre == "" {
		return Version{}, errors.New(errors.ErrCodeMalformedVersion,
			"version %q: empty pre-release suffix", s)
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Prerelease: pre}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsPrerelease reports whether v carries a pre-release marker.
func (v Version) IsPrerelease() bool {
	return v.Prerelease != ""
}

// String returns the canonical version string.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// Release returns v without its pre-release marker.
func (v Version) Release() Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
}

// Compare returns -1 if v < other, 0 if equal, 1 if v > other, ordering
// major, then minor, then patch. Pre-release tags are ignored.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.Release().semver(), other.Release().semver())
}

// semver renders v in the "vM.m.p" form golang.org/x/mod/semver expects.
func (v Version) semver() string {
	return "v" + v.String()
}

// LessThan reports whether v < other.
func (v Version) LessThan(other Version) bool {
	return v.Compare(other) < 0
}

// IsPrereleaseString reports whether a raw version string carries a
// pre-release marker without parsing it.
func IsPrereleaseString(s string) bool {
	return strings.Contains(s, "-")
}
