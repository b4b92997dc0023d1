package counterstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwool/viewcounter/pkg/service/counterstore"
)

func TestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("Missing Connection String", func(t *testing.T) {
		t.Parallel()
		_, err := counterstore.Open(ctx, counterstore.Config{Backend: counterstore.BackendMongo})
		assert.EqualError(t, err, "missing connection string for mongodb backend")
	})

	t.Run("Unknown Backend", func(t *testing.T) {
		t.Parallel()
		_, err := counterstore.Open(ctx, counterstore.Config{Backend: "couchdb", URI: "x"})
		assert.EqualError(t, err, `unknown counter store backend "couchdb"`)
	})

	t.Run("SQLite", func(t *testing.T) {
		t.Parallel()
		c, err := counterstore.Open(ctx, counterstore.Config{
			Backend: counterstore.BackendSQLite,
			URI:     filepath.Join(t.TempDir(), "counter.db"),
		})
		require.NoError(t, err, "Should open SQLite backend.")
		defer func() { _ = c.Close(ctx) }()
		assert.IsType(t, &counterstore.SQLiteAdapter{}, c)

		v, err := c.IncrementAndGet(ctx, "website_views")
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)
	})

	t.Run("Redis", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)
		c, err := counterstore.Open(ctx, counterstore.Config{
			Backend: counterstore.BackendRedis,
			URI:     mr.Addr(),
		})
		require.NoError(t, err, "Should open Redis backend.")
		defer func() { _ = c.Close(ctx) }()
		assert.IsType(t, &counterstore.RedisAdapter{}, c)
	})

	t.Run("Redis Unreachable", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		c, err := counterstore.Open(ctx, counterstore.Config{
			Backend: counterstore.BackendRedis,
			URI:     addr,
			Timeout: 200 * time.Millisecond,
		})
		require.Error(t, err)
		assert.True(t, counterstore.IsUnavailable(err), "Failed ping should be a store failure.")
		assert.True(t, c == nil, "Failed open should return a nil Counter interface.")
	})

	t.Run("SQLite Unopenable", func(t *testing.T) {
		t.Parallel()
		c, err := counterstore.Open(ctx, counterstore.Config{
			Backend: counterstore.BackendSQLite,
			URI:     filepath.Join(t.TempDir(), "missing", "dir", "counter.db"),
		})
		require.Error(t, err)
		assert.True(t, c == nil, "Failed open should return a nil Counter interface.")
	})
}

func TestIsUnavailable(t *testing.T) {
	t.Parallel()
	assert.False(t, counterstore.IsUnavailable(nil))
	assert.False(t, counterstore.IsUnavailable(errors.New("other")))
	assert.False(t, counterstore.IsUnavailable(counterstore.ErrInvalidName))
	assert.True(t, counterstore.IsUnavailable(counterstore.ErrStoreUnavailable))
	assert.True(t, counterstore.IsUnavailable(errors.Wrap(counterstore.ErrStoreUnavailable, "wrapped")))
}
