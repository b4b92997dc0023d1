// Package config reads the service configuration from the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-secure-stdlib/parseutil"
	"github.com/hashicorp/go-secure-stdlib/strutil"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/rwool/viewcounter/pkg/service/counterstore"
)

const (
	// DefaultPort is the listen port used when PORT is unset.
	DefaultPort = "3001"
	// DefaultStoreTimeout bounds connecting to the store.
	DefaultStoreTimeout = 10 * time.Second
)

// DefaultAllowedOrigins are the local development origins allowed when
// CORS_ALLOWED_ORIGINS is unset.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// uriVariables maps each backend to the variable holding its connection
// string.
var uriVariables = map[counterstore.Backend]string{
	counterstore.BackendMongo:     "MONGODB_URI",
	counterstore.BackendRedis:     "REDIS_ADDRESS",
	counterstore.BackendSQLite:    "SQLITE_PATH",
	counterstore.BackendDatastore: "DATASTORE_PROJECT_ID",
}

// Config contains all of the configuration for running the service.
type Config struct {
	Port           string
	Store          counterstore.Config
	AllowedOrigins []string
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads a .env file from the working directory, if there is one, and
// then the process environment.
func Load() (Config, error) {
	// A missing .env file is the normal case in deployment.
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from the variables returned by lookup.
func FromEnv(lookup LookupFunc) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	conf := Config{
		Port: get("PORT", DefaultPort),
		Store: counterstore.Config{
			Backend:       counterstore.Backend(strings.ToLower(get("COUNTER_STORE", string(counterstore.BackendMongo)))),
			RedisPassword: get("REDIS_PASSWORD", ""),
			Timeout:       DefaultStoreTimeout,
		},
		AllowedOrigins: DefaultAllowedOrigins,
	}

	uriVar, ok := uriVariables[conf.Store.Backend]
	if !ok {
		return Config{}, errors.Errorf("unknown COUNTER_STORE %q", conf.Store.Backend)
	}
	raw := get(uriVar, "")
	if raw == "" {
		return Config{}, errors.Errorf("missing %s", uriVar)
	}
	// Connection strings may point at a secret with file:// or env://. env://
	// goes through lookup so it sees the same environment as everything else.
	if name := strings.TrimPrefix(raw, "env://"); name != raw {
		v, ok := lookup(name)
		if !ok {
			return Config{}, errors.Errorf("unable to read %s: %s is not set", uriVar, name)
		}
		raw = strings.TrimSpace(v)
	}
	uri, err := parseutil.ParsePath(raw)
	if err != nil && !errors.Is(err, parseutil.ErrNotAUrl) {
		return Config{}, errors.Wrapf(err, "unable to read %s", uriVar)
	}
	if uri == "" {
		return Config{}, errors.Errorf("missing %s", uriVar)
	}
	conf.Store.URI = uri

	if v := get("STORE_TIMEOUT", ""); v != "" {
		d, err := parseutil.ParseDurationSecond(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "invalid STORE_TIMEOUT")
		}
		if d <= 0 {
			return Config{}, errors.New("STORE_TIMEOUT must be positive")
		}
		conf.Store.Timeout = d
	}

	if v := get("CORS_ALLOWED_ORIGINS", ""); v != "" {
		origins := strutil.ParseDedupAndSortStrings(v, ",")
		if strutil.StrListContains(origins, "*") && len(origins) > 1 {
			return Config{}, errors.New("CORS_ALLOWED_ORIGINS must only contain a wildcard or only non-wildcard values")
		}
		conf.AllowedOrigins = origins
	}

	if len(conf.Port) == 0 || strings.ContainsAny(conf.Port, ":/ ") {
		return Config{}, errors.Errorf("invalid PORT %q", conf.Port)
	}
	return conf, nil
}
