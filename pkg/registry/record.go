package registry

import "github.com/matzehuels/wallyup/pkg/version"

// Field is one flattened leaf of a registry entry. Path joins the
// normalized object keys leading to the leaf with '/'.
type Field struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Record is one published version of one package, as found in a package
// file of the index. The typed fields are the ones wallyup consumes; Fields
// keeps every leaf of the source entry in document order, typed ones
// included.
type Record struct {
	Name        string  `json:"name"`
	Version     string  `json:"version"`
	Registry    string  `json:"registry,omitempty"`
	Realm       string  `json:"realm,omitempty"`
	Description string  `json:"description,omitempty"`
	License     string  `json:"license,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
}

// Paths of the leaves backing the typed fields of Record.
const (
	PathName        = "package/name"
	PathVersion     = "package/version"
	PathRegistry    = "package/registry"
	PathRealm       = "package/realm"
	PathDescription = "package/description"
	PathLicense     = "package/license"
)

// IsPrerelease reports whether the record's raw version carries a
// pre-release marker. It does not parse the version.
func (r *Record) IsPrerelease() bool {
	return version.IsPrereleaseString(r.Version)
}

// ParsedVersion parses the record's version string.
func (r *Record) ParsedVersion() (version.Version, error) {
	return version.Parse(r.Version)
}

// Get returns the value stored under path. When several leaves normalize
// to the same path the last one wins.
func (r *Record) Get(path string) (any, bool) {
	for i := len(r.Fields) - 1; i >= 0; i-- {
		if r.Fields[i].Path == path {
			return r.Fields[i].Value, true
		}
	}
	return nil, false
}

// String returns the string stored under path, or "" when the path is
// absent or not a string.
func (r *Record) String(path string) string {
	v, ok := r.Get(path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (r *Record) populate() {
	r.Name = r.String(PathName)
	r.Version = r.String(PathVersion)
	r.Registry = r.String(PathRegistry)
	r.Realm = r.String(PathRealm)
	r.Description = r.String(PathDescription)
	r.License = r.String(PathLicense)
}
