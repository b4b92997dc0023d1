package counterstore

import (
	"context"
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Backend names a supported store.
type Backend string

// Supported backends.
const (
	BackendMongo     Backend = "mongodb"
	BackendRedis     Backend = "redis"
	BackendSQLite    Backend = "sqlite"
	BackendDatastore Backend = "datastore"
)

// Config selects and configures a backend.
type Config struct {
	Backend Backend
	// URI is the backend's connection string: a MongoDB URI, a Redis address,
	// a SQLite path or a Datastore project ID.
	URI string
	// RedisPassword is only used by the Redis backend.
	RedisPassword string
	// Timeout bounds connection establishment.
	Timeout time.Duration
}

// Open creates the Counter described by conf and verifies the store can be
// reached.
func Open(ctx context.Context, conf Config) (Counter, error) {
	if conf.URI == "" {
		return nil, errors.Errorf("missing connection string for %s backend", conf.Backend)
	}
	if conf.Timeout <= 0 {
		conf.Timeout = 10 * time.Second
	}

	var (
		c   Counter
		err error
	)
	switch conf.Backend {
	case BackendMongo:
		ctx, cancel := context.WithTimeout(ctx, conf.Timeout)
		defer cancel()
		var m *MongoAdapter
		m, err = OpenMongo(ctx, conf.URI, options.Client().
			SetConnectTimeout(conf.Timeout).
			SetServerSelectionTimeout(conf.Timeout))
		c = m
	case BackendRedis:
		var r *RedisAdapter
		r, err = openRedis(ctx, conf)
		c = r
	case BackendSQLite:
		var s *SQLiteAdapter
		s, err = OpenSQLite(ctx, conf.URI)
		c = s
	case BackendDatastore:
		var d *DatastoreAdapter
		d, err = OpenDatastore(ctx, conf.URI)
		c = d
	default:
		return nil, errors.Errorf("unknown counter store backend %q", conf.Backend)
	}
	// The adapters return typed nil pointers on failure, which must not leak
	// out as a non-nil Counter.
	if err != nil {
		return nil, err
	}
	return c, nil
}

func openRedis(ctx context.Context, conf Config) (*RedisAdapter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         conf.URI,
		Password:     conf.RedisPassword,
		DB:           0,
		MaxRetries:   0, // An increment is never replayed.
		DialTimeout:  conf.Timeout,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := client.WithContext(ctx).Ping().Err(); err != nil {
		_ = client.Close()
		return nil, unavailable(err, "unable to ping Redis at %s", conf.URI)
	}
	return NewRedisAdapter(client), nil
}
