// Package redistest implements support code for testing with Redis.
package redistest

import (
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis"
)

// RedisCredentials holds the credentials for connecting to Redis.
type RedisCredentials struct {
	Password string
	IP       string
}

// GetCredentials gets the Redis credentials from environment variables.
func GetCredentials() (rc RedisCredentials, ok bool) {
	p := os.Getenv("REDIS_PASS")
	i := os.Getenv("REDIS_IP")
	if len(i) > 0 {
		return RedisCredentials{
			Password: p,
			IP:       i,
		}, true
	}
	return RedisCredentials{}, false
}

// Connect connects to Redis and returns the Client object.
//
// Without credentials in the environment an in-process miniredis server is
// started and torn down with the test.
func Connect(t *testing.T) *redis.Client {
	creds, ok := GetCredentials()
	if !ok {
		mr := miniredis.RunT(t)
		creds = RedisCredentials{IP: mr.Addr()}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         creds.IP,
		Password:     creds.Password,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     100,
	})
	return client
}

// Unreachable returns a client for a Redis server that has already been shut
// down, for exercising failure paths.
func Unreachable(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 200 * time.Millisecond,
	})
}
