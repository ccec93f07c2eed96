package querycraft

import (
	"context"
	"strconv"
	"time"
)

// Cache is the interface for storing rendered statements.
// Users may implement this interface with their preferred caching solution
// (e.g., Redis, Memcached, in-memory).
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey identifies a rendered statement in a Cache.
type CacheKey struct {
	Dialect   string // Engine the statement was rendered for
	Statement string // Caller chosen statement name
	Version   int    // Bumped by the caller when the statement shape changes
}

// String returns the string representation of the cache key.
// Keys of one dialect share the "<dialect>:" prefix.
func (k CacheKey) String() string {
	return k.Dialect + ":" + k.Statement + ":" + strconv.Itoa(k.Version)
}
