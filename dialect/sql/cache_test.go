package sql

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/querycraft"
	"github.com/syssam/querycraft/ast"
	"github.com/syssam/querycraft/dialect"
)

func TestLRUCache(t *testing.T) {
	ctx := context.Background()
	c := MustLRUCache(2)

	data, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))
	assert.Equal(t, 2, c.Len())
	data, _ = c.Get(ctx, "a")
	assert.Nil(t, data, "least recently used entry is evicted")

	require.NoError(t, c.Delete(ctx, "b"))
	assert.Equal(t, 1, c.Len())
	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Len())

	_, err = NewLRUCache(0)
	assert.Error(t, err)
	assert.Panics(t, func() { MustLRUCache(-1) })
}

func TestLRUCacheTTL(t *testing.T) {
	ctx := context.Background()
	c := MustLRUCache(8)
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Millisecond))
	require.NoError(t, c.Set(ctx, "forever", []byte("v"), 0))
	time.Sleep(5 * time.Millisecond)

	data, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, data)
	data, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
	assert.Equal(t, 1, c.Len())
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := MustLRUCache(8)
	for _, k := range []string{"postgres:users:1", "postgres:users:2", "postgres:orders:1", "mysql:users:1"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), 0))
	}
	require.NoError(t, c.DeletePrefix(ctx, "postgres:users:"))
	assert.Equal(t, 2, c.Len())
	require.NoError(t, c.DeletePrefix(ctx, "postgres:"))
	assert.Equal(t, 1, c.Len())
	data, _ := c.Get(ctx, "mysql:users:1")
	assert.Equal(t, []byte("mysql:users:1"), data)
}

func TestRenderCached(t *testing.T) {
	ctx := context.Background()
	cache := MustLRUCache(8)
	cr := NewCachedRenderer(MustFor(dialect.Postgres), WithCache(cache))
	stmt := &ast.Select{
		Columns: []string{"id"},
		From:    ast.Table{Name: "users"},
		Where: []ast.Condition{
			{Column: "age", Operator: ast.OpGT, Value: 18},
			{Column: "name", Value: "john"},
			{Column: "score", Operator: ast.OpLT, Value: 1.5},
			{Column: "level", Operator: ast.OpLTE, Value: uint16(200)},
		},
	}
	key := cr.Key("adults", 1)
	assert.Equal(t, "postgres:adults:1", key.String())

	first, err := cr.RenderCached(ctx, key, stmt)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "users" WHERE "age" > $1 AND "name" = $2 AND "score" < $3 AND "level" <= $4`, first.SQL)
	assert.Equal(t, []any{int64(18), "john", 1.5, int64(200)}, first.Args)
	assert.Equal(t, 1, cache.Len())

	// A hit is served from the cache even when the statement changed.
	hit, err := cr.RenderCached(ctx, key, &ast.Select{From: ast.Table{Name: "other"}})
	require.NoError(t, err)
	assert.Equal(t, first.SQL, hit.SQL)
	assert.Equal(t, first.Args, hit.Args, "hits and misses return the same argument types")

	hit.Args[0] = 99
	again, err := cr.RenderCached(ctx, key, stmt)
	require.NoError(t, err)
	assert.Equal(t, int64(18), again.Args[0])

	next, err := cr.RenderCached(ctx, cr.Key("adults", 2), &ast.Select{From: ast.Table{Name: "other"}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "other"`, next.SQL)
	assert.Equal(t, 2, cache.Len())

	require.NoError(t, cr.Invalidate(ctx, "adults"))
	assert.Zero(t, cache.Len())
}

func TestRenderCachedErrors(t *testing.T) {
	ctx := context.Background()
	cache := MustLRUCache(8)
	cr := NewCachedRenderer(MustFor(dialect.MySQL), WithCache(cache), WithTTL(time.Hour))

	_, err := cr.RenderCached(ctx, cr.Key("bad", 1), &ast.Delete{From: "users"})
	assert.True(t, querycraft.IsValidationError(err))
	_, err = cr.RenderCached(ctx, cr.Key("merge", 1), &ast.Merge{
		Into:        "users",
		Using:       ast.Table{Name: "staging"},
		On:          []ast.Condition{{Column: "users.id", Value: "staging.id"}},
		WhenMatched: &ast.MergeMatched{Delete: true},
	})
	assert.True(t, querycraft.IsUnsupportedFeature(err))
	assert.Zero(t, cache.Len())
}

func TestRenderCachedSkipsDriverValues(t *testing.T) {
	ctx := context.Background()
	cache := MustLRUCache(8)
	cr := NewCachedRenderer(MustFor(dialect.Postgres), WithCache(cache))
	stmt := &ast.Select{
		From:     ast.Table{Name: "posts"},
		ArrayOps: []ast.ArrayOperation{{Column: "tags", Op: ast.ArrayContains, Value: []string{"go"}}},
	}
	q, err := cr.RenderCached(ctx, cr.Key("tagged", 1), stmt)
	require.NoError(t, err)
	assert.Equal(t, []any{pq.Array([]string{"go"})}, q.Args)
	assert.Zero(t, cache.Len())
}

func TestRenderCachedPurge(t *testing.T) {
	ctx := context.Background()
	cache := MustLRUCache(8)
	pg := NewCachedRenderer(MustFor(dialect.Postgres), WithCache(cache))
	lite := NewCachedRenderer(MustFor(dialect.SQLite), WithCache(cache))
	stmt := &ast.Select{From: ast.Table{Name: "users"}}

	_, err := pg.RenderCached(ctx, pg.Key("all", 1), stmt)
	require.NoError(t, err)
	_, err = lite.RenderCached(ctx, lite.Key("all", 1), stmt)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	require.NoError(t, pg.Purge(ctx))
	assert.Equal(t, 1, cache.Len())
}

// countingCache counts writes and can fail reads.
type countingCache struct {
	*LRUCache
	sets    atomic.Int32
	readErr error
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.readErr != nil {
		return nil, c.readErr
	}
	return c.LRUCache.Get(ctx, key)
}

func (c *countingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.sets.Add(1)
	return c.LRUCache.Set(ctx, key, value, ttl)
}

func TestRenderCachedReadError(t *testing.T) {
	ctx := context.Background()
	cache := &countingCache{LRUCache: MustLRUCache(8), readErr: errors.New("unavailable")}
	cr := NewCachedRenderer(MustFor(dialect.SQLite), WithCache(cache))
	stmt := &ast.Select{From: ast.Table{Name: "users"}, Where: []ast.Condition{{Column: "id", Value: 1}}}

	q, err := cr.RenderCached(ctx, cr.Key("by-id", 1), stmt)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE "id" = ?`, q.SQL)
	assert.Equal(t, []any{int64(1)}, q.Args)
}

func TestRenderCachedConcurrent(t *testing.T) {
	ctx := context.Background()
	cache := &countingCache{LRUCache: MustLRUCache(8)}
	cr := NewCachedRenderer(MustFor(dialect.Postgres), WithCache(cache))
	stmt := &ast.Select{Columns: []string{"id"}, From: ast.Table{Name: "users"}}
	key := cr.Key("ids", 1)

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			q, err := cr.RenderCached(ctx, key, stmt)
			if err != nil {
				return err
			}
			if q.SQL != `SELECT "id" FROM "users"` {
				return errors.New("unexpected SQL: " + q.SQL)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.LessOrEqual(t, cache.sets.Load(), int32(32))
	assert.Equal(t, 1, cache.Len())
}
