package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Duration accepts either a Go duration string ("24h") or integer
// nanoseconds in JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// JsonConfig is the on-disk shape of the config file. Absent fields keep
// the value from the previous layer.
type JsonConfig struct {
	Addr            *string   `json:"addr"`
	Env             *string   `json:"env"`
	StoreDriver     *string   `json:"store_driver"`
	DatabaseDSN     *string   `json:"database_dsn"`
	MongoURI        *string   `json:"mongo_uri"`
	MongoDatabase   *string   `json:"mongo_database"`
	SecretKey       *string   `json:"secret_key"`
	TokenTTL        *Duration `json:"token_ttl"`
	RedisAddr       *string   `json:"redis_addr"`
	AllowedOrigin   *string   `json:"allowed_origin"`
	ShutdownTimeout *Duration `json:"shutdown_timeout"`
	Debug           *bool     `json:"debug"`
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *Duration) {
	if v != nil {
		*dst = v.Duration
	}
}

func parseJSON(config *Config, path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.Addr, c.Addr)
	setString(&config.Env, c.Env)
	setString(&config.StoreDriver, c.StoreDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.TokenTTL, c.TokenTTL)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.AllowedOrigin, c.AllowedOrigin)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	if c.Debug != nil {
		config.Debug = *c.Debug
	}
	return nil
}
