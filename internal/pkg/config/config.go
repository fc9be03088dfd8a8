package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage drivers for visitor sessions.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Backend BackendConfig
	Storage StorageConfig
	Session SessionConfig
	Screens ScreenConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type BackendConfig struct {
	URL     string        `env:"BACKEND_URL,     default=http://localhost:4000/api"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT, default=10s"`
}

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER, default=memory"`
	File   string `env:"STORAGE_FILE,   default=data/storage.json"`
	// TTL expires idle visitor storage in redis and mongo. Zero keeps it.
	TTL time.Duration `env:"STORAGE_TTL, default=720h"`
	// Timeout bounds connecting to redis or mongo and every storage call.
	Timeout time.Duration `env:"STORAGE_TIMEOUT, default=3s"`
}

type SessionConfig struct {
	Cookie string `env:"SESSION_COOKIE,        default=console_sid"`
	Secure bool   `env:"SESSION_COOKIE_SECURE, default=false"`
}

type ScreenConfig struct {
	PollInterval  time.Duration `env:"POLL_INTERVAL,         default=10s"`
	IdleTimeout   time.Duration `env:"SCREEN_IDLE_TIMEOUT,   default=30m"`
	SweepInterval time.Duration `env:"SCREEN_SWEEP_INTERVAL, default=1m"`
}

type MongoConfig struct {
	URI        string `env:"MONGO_URI,        default=mongodb://localhost:27017"`
	Database   string `env:"MONGO_DB,         default=reservation_console"`
	Collection string `env:"MONGO_COLLECTION, default=visitor_storage"`
}

type RedisConfig struct {
	Addr      string `env:"REDIS_ADDR,       default=localhost:6379"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB,         default=0"`
	PoolSize  int    `env:"REDIS_POOL_SIZE,  default=10"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX, default=console:"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through l. Tests use envconfig.MapLookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that parse but cannot work.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("BACKEND_URL %q must be an absolute URL", c.Backend.URL))
	}

	switch c.Storage.Driver {
	case StorageMemory, StorageRedis, StorageMongo:
	case StorageFile:
		if c.Storage.File == "" {
			errs = append(errs, errors.New("STORAGE_FILE is required for the file driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q is not one of memory, file, redis, mongo", c.Storage.Driver))
	}

	if c.Session.Cookie == "" {
		errs = append(errs, errors.New("SESSION_COOKIE must not be empty"))
	}
	if c.Screens.PollInterval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	if c.Screens.IdleTimeout <= 0 || c.Screens.SweepInterval <= 0 {
		errs = append(errs, errors.New("SCREEN_IDLE_TIMEOUT and SCREEN_SWEEP_INTERVAL must be positive"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether logs should be JSON rather than pretty.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
