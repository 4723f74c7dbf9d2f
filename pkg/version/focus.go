package version

import (
	"strings"

	"github.com/matzehuels/wallyup/pkg/errors"
)

// Focus bounds how much a version may increase during an upgrade.
type Focus string

const (
	FocusMajor Focus = "major" // any newer release
	FocusMinor Focus = "minor" // newer releases sharing the major
	FocusPatch Focus = "patch" // newer releases sharing major and minor
)

// DefaultFocus is used when no focus is given on the command line.
const DefaultFocus = FocusPatch

// Foci lists the valid focus values, widest first.
var Foci = []Focus{FocusMajor, FocusMinor, FocusPatch}

// ParseFocus validates a focus name. An empty string selects DefaultFocus;
// anything other than major, minor or patch is INVALID_FOCUS.
func ParseFocus(s string) (Focus, error) {
	if s == "" {
		return DefaultFocus, nil
	}
	f := Focus(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", errors.New(errors.ErrCodeInvalidFocus,
			"unknown upgrade focus %q (want major, minor or patch)", s)
	}
	return f, nil
}

// Valid reports whether f is one of the known focus values.
func (f Focus) Valid() bool {
	switch f {
	case FocusMajor, FocusMinor, FocusPatch:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (f Focus) String() string { return string(f) }

// Admits reports whether candidate lies inside the bump scope that f
// allows from base. It does not check that candidate is newer.
func (f Focus) Admits(base, candidate Version) bool {
	switch f {
	case FocusMajor:
		return true
	case FocusMinor:
		return candidate.Major == base.Major
	case FocusPatch:
		return candidate.Major == base.Major && candidate.Minor == base.Minor
	}
	return false
}

// Improves reports whether candidate should replace best under f. The
// comparison is lexicographic over the fields f lets move, so a single
// left-to-right scan keeping the winner finds the maximum regardless of
// input order.
func (f Focus) Improves(best, candidate Version) bool {
	if candidate.IsPrerelease() || !f.Admits(best, candidate) {
		return false
	}
	return candidate.Compare(best) > 0
}
