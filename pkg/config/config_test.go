package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwool/viewcounter/pkg/config"
	"github.com/rwool/viewcounter/pkg/service/counterstore"
)

func env(m map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestFromEnv(t *testing.T) {
	t.Parallel()

	t.Run("Defaults", func(t *testing.T) {
		t.Parallel()
		conf, err := config.FromEnv(env(map[string]string{
			"MONGODB_URI": "mongodb://localhost:27017/views",
		}))
		require.NoError(t, err)
		assert.Equal(t, "3001", conf.Port)
		assert.Equal(t, ":3001", conf.Addr())
		assert.Equal(t, counterstore.BackendMongo, conf.Store.Backend)
		assert.Equal(t, "mongodb://localhost:27017/views", conf.Store.URI)
		assert.Equal(t, config.DefaultStoreTimeout, conf.Store.Timeout)
		assert.Equal(t, config.DefaultAllowedOrigins, conf.AllowedOrigins)
	})

	t.Run("Missing Connection String", func(t *testing.T) {
		t.Parallel()
		_, err := config.FromEnv(env(map[string]string{}))
		assert.EqualError(t, err, "missing MONGODB_URI")

		_, err = config.FromEnv(env(map[string]string{"COUNTER_STORE": "redis", "MONGODB_URI": "mongodb://x"}))
		assert.EqualError(t, err, "missing REDIS_ADDRESS")
	})

	t.Run("Unknown Backend", func(t *testing.T) {
		t.Parallel()
		_, err := config.FromEnv(env(map[string]string{"COUNTER_STORE": "couchdb"}))
		assert.EqualError(t, err, `unknown COUNTER_STORE "couchdb"`)
	})

	t.Run("Redis", func(t *testing.T) {
		t.Parallel()
		conf, err := config.FromEnv(env(map[string]string{
			"COUNTER_STORE":  "Redis",
			"REDIS_ADDRESS":  "127.0.0.1:6379",
			"REDIS_PASSWORD": "secret",
			"PORT":           "8080",
			"STORE_TIMEOUT":  "3s",
		}))
		require.NoError(t, err)
		assert.Equal(t, counterstore.BackendRedis, conf.Store.Backend)
		assert.Equal(t, "127.0.0.1:6379", conf.Store.URI)
		assert.Equal(t, "secret", conf.Store.RedisPassword)
		assert.Equal(t, 3*time.Second, conf.Store.Timeout)
		assert.Equal(t, ":8080", conf.Addr())
	})

	t.Run("Connection String From File", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "uri")
		require.NoError(t, os.WriteFile(path, []byte("mongodb://db:27017\n"), 0o600))

		conf, err := config.FromEnv(env(map[string]string{"MONGODB_URI": "file://" + path}))
		require.NoError(t, err)
		assert.Equal(t, "mongodb://db:27017", conf.Store.URI)
	})

	t.Run("Connection String From Env Indirection", func(t *testing.T) {
		t.Parallel()
		conf, err := config.FromEnv(env(map[string]string{
			"COUNTER_STORE":                 "redis",
			"REDIS_ADDRESS":                 "env://VIEWCOUNTER_TEST_REDIS_SECRET",
			"VIEWCOUNTER_TEST_REDIS_SECRET": " cache:6379 ",
		}))
		require.NoError(t, err)
		assert.Equal(t, "cache:6379", conf.Store.URI, "env:// should resolve through the given lookup.")

		_, err = config.FromEnv(env(map[string]string{
			"MONGODB_URI": "env://VIEWCOUNTER_TEST_UNSET",
		}))
		assert.EqualError(t, err, "unable to read MONGODB_URI: VIEWCOUNTER_TEST_UNSET is not set")
	})

	t.Run("Allowed Origins", func(t *testing.T) {
		t.Parallel()
		conf, err := config.FromEnv(env(map[string]string{
			"SQLITE_PATH":          "counter.db",
			"COUNTER_STORE":        "sqlite",
			"CORS_ALLOWED_ORIGINS": " https://b.example , https://a.example,https://b.example,",
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, conf.AllowedOrigins)
	})

	t.Run("Mixed Wildcard", func(t *testing.T) {
		t.Parallel()
		_, err := config.FromEnv(env(map[string]string{
			"MONGODB_URI":          "mongodb://x",
			"CORS_ALLOWED_ORIGINS": "*,https://a.example",
		}))
		assert.Error(t, err)
	})

	t.Run("Invalid Values", func(t *testing.T) {
		t.Parallel()
		_, err := config.FromEnv(env(map[string]string{"MONGODB_URI": "mongodb://x", "STORE_TIMEOUT": "soon"}))
		assert.Error(t, err)
		_, err = config.FromEnv(env(map[string]string{"MONGODB_URI": "mongodb://x", "STORE_TIMEOUT": "0"}))
		assert.Error(t, err)
		_, err = config.FromEnv(env(map[string]string{"MONGODB_URI": "mongodb://x", "PORT": "host:80"}))
		assert.Error(t, err)
	})
}
