package resolve

import (
	"fmt"
	"strings"

	"github.com/matzehuels/wallyup/pkg/errors"
	"github.com/matzehuels/wallyup/pkg/version"
)

// Reference is a parsed dependency string "domain/package@version".
type Reference struct {
	Raw     string // input, byte for byte
	Domain  string
	Package string
	Version string // raw version text after '@'; empty when absent
}

// ParseReference splits a dependency string. References that cannot be
// resolved (no '@', or a pre-release version) are returned without error;
// check Resolvable before using Domain or Package on them.
func ParseReference(s string) (Reference, error) {
	ref := Reference{Raw: s}

	addr, ver, ok := strings.Cut(s, "@")
	if !ok {
		return ref, nil
	}
	ref.Version = ver
	if version.IsPrereleaseString(ver) {
		return ref, nil
	}

	domain, pkg, ok := strings.Cut(addr, "/")
	if !ok || domain == "" || pkg == "" || strings.Contains(pkg, "/") {
		return ref, errors.New(errors.ErrCodeInvalidReference,
			"%q: expected domain/package@version", s)
	}
	for _, name := range []string{domain, pkg} {
		if err := errors.ValidateName(name); err != nil {
			return ref, errors.Wrap(errors.ErrCodeInvalidReference, err, "%q", s)
		}
	}
	ref.Domain = domain
	ref.Package = pkg
	return ref, nil
}

// Resolvable reports whether the reference is eligible for resolution.
func (r Reference) Resolvable() bool {
	return r.Domain != "" && r.Version != "" && !version.IsPrereleaseString(r.Version)
}

// Address returns "domain/package".
func (r Reference) Address() string {
	return r.Domain + "/" + r.Package
}

// With returns the reference string pinned to v.
func (r Reference) With(v version.Version) string {
	return fmt.Sprintf("%s/%s@%d.%d.%d", r.Domain, r.Package, v.Major, v.Minor, v.Patch)
}

// String returns the reference as written.
func (r Reference) String() string {
	return r.Raw
}
