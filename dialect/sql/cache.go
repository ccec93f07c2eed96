package sql

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/syssam/querycraft"
	"github.com/syssam/querycraft/ast"
)

// DefaultCacheSize is the capacity of the cache created by
// NewCachedRenderer when no cache is given.
const DefaultCacheSize = 1024

// CachedRenderer memoizes the output of a Renderer under caller-chosen
// statement names. Concurrent renders of one key share a single call.
//
// Queries whose arguments are not plain driver values (such as array
// parameters or []byte) are rendered on every call and never stored.
// Integer arguments of stored queries are returned as int64 and floats as
// float64, on hits and misses alike.
type CachedRenderer struct {
	*Renderer
	cache querycraft.Cache
	ttl   time.Duration
	group singleflight.Group
}

// CacheOption configures a CachedRenderer.
type CacheOption func(*CachedRenderer)

// WithCache sets the cache backend.
func WithCache(c querycraft.Cache) CacheOption {
	return func(r *CachedRenderer) { r.cache = c }
}

// WithTTL sets the lifetime of cached entries. Zero keeps them until
// evicted.
func WithTTL(ttl time.Duration) CacheOption {
	return func(r *CachedRenderer) { r.ttl = ttl }
}

// NewCachedRenderer wraps r. Without WithCache, entries are kept in an
// in-process LRU cache of DefaultCacheSize entries.
func NewCachedRenderer(r *Renderer, opts ...CacheOption) *CachedRenderer {
	c := &CachedRenderer{Renderer: r}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = MustLRUCache(DefaultCacheSize)
	}
	return c
}

// Key returns the cache key of a statement name and version for the
// dialect of c.
func (c *CachedRenderer) Key(name string, version int) querycraft.CacheKey {
	return querycraft.CacheKey{Dialect: c.Dialect(), Statement: name, Version: version}
}

// RenderCached returns the cached query of key, rendering and storing stmt
// on a miss. Cache read errors fall back to rendering.
func (c *CachedRenderer) RenderCached(ctx context.Context, key querycraft.CacheKey, stmt ast.Statement) (*Query, error) {
	k := key.String()
	if data, err := c.cache.Get(ctx, k); err == nil && data != nil {
		if q, err := decodeQuery(data); err == nil {
			return q, nil
		}
	}
	v, err, _ := c.group.Do(k, func() (any, error) {
		q, err := c.Render(stmt)
		if err != nil {
			return nil, err
		}
		if !cacheable(q.Args) {
			return q, nil
		}
		q.Args = widen(q.Args)
		data, err := msgpack.Marshal(q)
		if err != nil {
			return nil, fmt.Errorf("querycraft: encode cached query: %w", err)
		}
		if err := c.cache.Set(ctx, k, data, c.ttl); err != nil {
			return nil, fmt.Errorf("querycraft: store cached query: %w", err)
		}
		return q, nil
	})
	if err != nil {
		return nil, err
	}
	q := v.(*Query)
	return &Query{SQL: q.SQL, Args: append([]any(nil), q.Args...)}, nil
}

// Invalidate removes every version of the named statement.
func (c *CachedRenderer) Invalidate(ctx context.Context, name string) error {
	return c.cache.DeletePrefix(ctx, c.Dialect()+":"+name+":")
}

// Purge removes every statement cached for the dialect of c.
func (c *CachedRenderer) Purge(ctx context.Context) error {
	return c.cache.DeletePrefix(ctx, c.Dialect()+":")
}

// decodeQuery decodes a cached query. Interface values decode loosely, so
// integers come back as int64 and floats as float64.
func decodeQuery(data []byte) (*Query, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var q Query
	if err := dec.Decode(&q); err != nil {
		return nil, err
	}
	q.Args = widen(q.Args)
	return &q, nil
}

// cacheable reports whether every argument survives a msgpack round trip
// as a driver value.
func cacheable(args []any) bool {
	for _, a := range args {
		switch a.(type) {
		case nil, bool, string,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
		default:
			return false
		}
	}
	return true
}

// widen converts integers to int64 and float32 to float64. Unsigned values
// above math.MaxInt64 stay uint64.
func widen(args []any) []any {
	for i, a := range args {
		switch v := a.(type) {
		case int:
			args[i] = int64(v)
		case int8:
			args[i] = int64(v)
		case int16:
			args[i] = int64(v)
		case int32:
			args[i] = int64(v)
		case uint:
			args[i] = widenUint(uint64(v))
		case uint8:
			args[i] = int64(v)
		case uint16:
			args[i] = int64(v)
		case uint32:
			args[i] = int64(v)
		case uint64:
			args[i] = widenUint(v)
		case float32:
			args[i] = float64(v)
		}
	}
	return args
}

func widenUint(v uint64) any {
	if v > math.MaxInt64 {
		return v
	}
	return int64(v)
}

// LRUCache is an in-process querycraft.Cache bounded by entry count.
type LRUCache struct {
	lru *lru.Cache[string, lruEntry]
}

type lruEntry struct {
	data    []byte
	expires time.Time
}

// NewLRUCache returns an LRUCache holding at most size entries.
func NewLRUCache(size int) (*LRUCache, error) {
	c, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{lru: c}, nil
}

// MustLRUCache is like NewLRUCache but panics on a non-positive size.
func MustLRUCache(size int) *LRUCache {
	c, err := NewLRUCache(size)
	if err != nil {
		panic(err)
	}
	return c
}

// Get implements querycraft.Cache.
func (c *LRUCache) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		c.lru.Remove(key)
		return nil, nil
	}
	return e.data, nil
}

// Set implements querycraft.Cache.
func (c *LRUCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := lruEntry{data: value}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	c.lru.Add(key, e)
	return nil
}

// Delete implements querycraft.Cache.
func (c *LRUCache) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// DeletePrefix implements querycraft.Cache.
func (c *LRUCache) DeletePrefix(_ context.Context, prefix string) error {
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
	return nil
}

// Clear implements querycraft.Cache.
func (c *LRUCache) Clear(context.Context) error {
	c.lru.Purge()
	return nil
}

// Len returns the number of cached entries.
func (c *LRUCache) Len() int { return c.lru.Len() }

var _ querycraft.Cache = (*LRUCache)(nil)
