package cache

import (
	"fmt"
	"strings"
)

// Open selects a backend from a cache URL:
//   - "" uses a FileCache in dir
//   - "none" disables caching
//   - "redis://..." or "rediss://..." uses a RedisCache
func Open(url, dir string) (Cache, error) {
	switch {
	case url == "":
		if dir == "" {
			return NewNullCache(), nil
		}
		return NewFileCache(dir)
	case url == "none":
		return NewNullCache(), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return NewRedisCache(url)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, url)
}
