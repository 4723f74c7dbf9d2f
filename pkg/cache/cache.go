// Package cache stores parsed registry indexes between runs.
//
// Cloning and parsing the full Wally index takes seconds; when the remote
// branch has not moved since the last run, the parsed index can be reused.
// Entries are keyed by index URL, branch and commit (see [Keyer]), so a new
// commit on the remote is always a miss.
//
// Three backends implement [Cache]:
//   - [FileCache]: one file per entry under the user cache directory
//   - [RedisCache]: a shared redis instance, for CI fleets
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// DefaultTTL bounds how long an index entry is reused even when the remote
// commit is unchanged.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
