// Package config loads cloudKeys settings from defaults, an optional YAML
// file and CLOUDKEYS_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment overrides. Nested keys use a double underscore,
// e.g. CLOUDKEYS_STORAGE__BACKEND=redis.
const EnvPrefix = "CLOUDKEYS_"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Secrets   SecretsConfig   `koanf:"secrets"`
	Auth      AuthConfig      `koanf:"auth"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StorageConfig struct {
	Backend     string      `koanf:"backend"` // memory, postgres, sqlite or redis
	DatabaseURL string      `koanf:"database_url"`
	SQLitePath  string      `koanf:"sqlite_path"`
	Redis       RedisConfig `koanf:"redis"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type SecretsConfig struct {
	Generator string `koanf:"generator"` // uuid or random
	Prefix    string `koanf:"prefix"`
	Size      int    `koanf:"size"`
}

type AuthConfig struct {
	Mode   string `koanf:"mode"` // token, header or jwt
	Header string `koanf:"header"`
	// Tokens maps a hex SHA-256 token hash to the tenant subject it proves.
	Tokens map[string]string `koanf:"tokens"`
	JWT    JWTConfig         `koanf:"jwt"`
}

// JWTConfig points at the JWK set used to verify bearer JWTs. The "sub"
// claim becomes the tenant id.
type JWTConfig struct {
	JWKSURL          string `koanf:"jwks_url"`
	Issuer           string `koanf:"issuer"`
	Audience         string `koanf:"audience"`
	ClockSkewSeconds int    `koanf:"clock_skew_seconds"`
}

type TelemetryConfig struct {
	Tracing     bool   `koanf:"tracing"`
	ServiceName string `koanf:"service_name"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

var defaults = map[string]interface{}{
	"server.host":                 "0.0.0.0",
	"server.port":                 3000,
	"storage.backend":             "memory",
	"storage.sqlite_path":         "cloudkeys.db",
	"storage.redis.addr":          "localhost:6379",
	"secrets.generator":           "uuid",
	"secrets.prefix":              "ck_",
	"secrets.size":                24,
	"auth.mode":                   "token",
	"auth.header":                 "X-Tenant-ID",
	"auth.jwt.clock_skew_seconds": 60,
	"telemetry.service_name":      "cloudkeys",
	"log.level":                   "info",
}

// Load builds a Config. path may be empty to skip the YAML file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	// DATABASE_URL is honoured for compatibility with standard deployments.
	if !k.Exists("storage.database_url") {
		if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
			if err := k.Set("storage.database_url", dbURL); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the bootstrap cannot act on.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "sqlite", "redis":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage.database_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Secrets.Generator {
	case "uuid", "random":
	default:
		return fmt.Errorf("unknown secret generator %q", c.Secrets.Generator)
	}

	switch c.Auth.Mode {
	case "token", "header":
	case "jwt":
		if c.Auth.JWT.JWKSURL == "" {
			return fmt.Errorf("auth.jwt.jwks_url is required for jwt auth")
		}
	default:
		return fmt.Errorf("unknown auth mode %q", c.Auth.Mode)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}
