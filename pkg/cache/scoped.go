package cache

// Keyer derives cache keys.
type Keyer interface {
	// IndexKey identifies a parsed index by its source and snapshot commit.
	IndexKey(url, branch, commit string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// IndexKey hashes the index coordinates. The format version is part of the
// hash so a change to the record layout invalidates old entries.
func (DefaultKeyer) IndexKey(url, branch, commit string) string {
	return hashKey("index", indexFormat, url, branch, commit)
}

// indexFormat is bumped whenever the serialized index layout changes.
const indexFormat = 1

// ScopedKeyer wraps a Keyer with a prefix. Shared backends such as redis
// use it to keep wallyup's keys apart from other tenants of the instance.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "wallyup:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// IndexKey generates a prefixed index key.
func (k *ScopedKeyer) IndexKey(url, branch, commit string) string {
	return k.prefix + k.inner.IndexKey(url, branch, commit)
}
