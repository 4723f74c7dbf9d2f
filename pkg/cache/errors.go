package cache

import "errors"

// ErrUnsupportedURL is returned by Open for cache URLs with an unknown scheme.
var ErrUnsupportedURL = errors.New("unsupported cache url")
