package config

import (
	"fmt"
	"time"
)

// parseEnv applies environment overrides. NODE_ENV is honoured as a fallback
// for APP_ENV so existing deployments keep their mode.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	if port, ok := lookup("PORT"); ok && port != "" {
		config.Addr = ":" + port
	}
	str(&config.Env, "APP_ENV", "NODE_ENV")
	str(&config.StoreDriver, "STORE_DRIVER")
	str(&config.DatabaseDSN, "DATABASE_URL")
	str(&config.MongoURI, "MONGODB_URI")
	str(&config.MongoDatabase, "MONGODB_DATABASE")
	str(&config.SecretKey, "JWT_SECRET")
	str(&config.RedisAddr, "REDIS_ADDR")
	str(&config.AllowedOrigin, "FRONTEND_ORIGIN")

	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
		config.TokenTTL = ttl
	}
	return nil
}
