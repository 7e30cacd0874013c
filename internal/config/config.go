// Package config handles server configuration: defaults, an optional JSON
// file, environment variables and finally command-line flags, each layer
// overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	StoreSQLite   = "sqlite3"
	StorePostgres = "pgx"
	StoreMongo    = "mongo"
)

// DefaultSecretKey is the development signing secret. Validate refuses it in
// production.
const DefaultSecretKey = "dev-secret-change-me"

// Config holds runtime settings for the blog server.
//
// Fields:
//   - Addr: HTTP bind address.
//   - Env: "production" enables Secure/SameSite=None cookies.
//   - StoreDriver: "sqlite3", "pgx" or "mongo".
//   - DatabaseDSN: DSN for the SQL drivers.
//   - MongoURI / MongoDatabase: document store location.
//   - SecretKey: HMAC secret for session tokens (HS256).
//   - TokenTTL: session token lifetime.
//   - RedisAddr: enables logout revocation when set.
//   - AllowedOrigin: the single frontend origin allowed by CORS.
type Config struct {
	Addr            string
	Env             string
	StoreDriver     string
	DatabaseDSN     string
	MongoURI        string
	MongoDatabase   string
	SecretKey       string
	TokenTTL        time.Duration
	RedisAddr       string
	AllowedOrigin   string
	ShutdownTimeout time.Duration
	Debug           bool
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.Env = EnvDevelopment
	c.StoreDriver = StoreSQLite
	c.DatabaseDSN = "blog.db"
	c.MongoURI = "mongodb://localhost:27017"
	c.MongoDatabase = "blog"
	c.SecretKey = DefaultSecretKey
	c.TokenTTL = 24 * time.Hour
	c.RedisAddr = ""
	c.AllowedOrigin = "http://localhost:5173"
	c.ShutdownTimeout = 10 * time.Second
	c.Debug = false
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreSQLite, StorePostgres, StoreMongo:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.SecretKey == "" {
		return errors.New("secret key is empty")
	}
	if c.IsProduction() && c.SecretKey == DefaultSecretKey {
		return errors.New("default secret key used in production")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	return nil
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config, then the environment, then flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

func load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := jsonConfigPath(args); path != "" {
		if err := parseJSON(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
