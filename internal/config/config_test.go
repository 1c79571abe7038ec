package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "uuid", cfg.Secrets.Generator)
	assert.Equal(t, "token", cfg.Auth.Mode)
	assert.Equal(t, "X-Tenant-ID", cfg.Auth.Header)
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
	assert.False(t, cfg.Telemetry.Tracing)
	assert.Equal(t, 60, cfg.Auth.JWT.ClockSkewSeconds)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloudkeys.yaml")
	yaml := `
server:
  port: 8080
storage:
  backend: redis
  redis:
    addr: redis:6379
secrets:
  generator: random
  size: 32
auth:
  mode: token
  tokens:
    abc123: tenant-a
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("CLOUDKEYS_SERVER__PORT", "9090")
	t.Setenv("CLOUDKEYS_STORAGE__REDIS__DB", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, "random", cfg.Secrets.Generator)
	assert.Equal(t, 32, cfg.Secrets.Size)
	assert.Equal(t, "ck_", cfg.Secrets.Prefix)
	assert.Equal(t, map[string]string{"abc123": "tenant-a"}, cfg.Auth.Tokens)
}

func TestLoad_DatabaseURLFallback(t *testing.T) {
	t.Setenv("CLOUDKEYS_STORAGE__BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/keys")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/keys", cfg.Storage.DatabaseURL)

	t.Setenv("CLOUDKEYS_STORAGE__DATABASE_URL", "postgres://primary/keys")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://primary/keys", cfg.Storage.DatabaseURL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:  ServerConfig{Port: 3000},
			Storage: StorageConfig{Backend: "memory"},
			Secrets: SecretsConfig{Generator: "uuid"},
			Auth:    AuthConfig{Mode: "header"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "mongo" }, true},
		{"postgres without url", func(c *Config) { c.Storage.Backend = "postgres" }, true},
		{"postgres with url", func(c *Config) {
			c.Storage.Backend = "postgres"
			c.Storage.DatabaseURL = "postgres://x"
		}, false},
		{"unknown generator", func(c *Config) { c.Secrets.Generator = "sequential" }, true},
		{"unknown auth mode", func(c *Config) { c.Auth.Mode = "basic" }, true},
		{"jwt without jwks url", func(c *Config) { c.Auth.Mode = "jwt" }, true},
		{"jwt with jwks url", func(c *Config) {
			c.Auth.Mode = "jwt"
			c.Auth.JWT.JWKSURL = "https://issuer.test/jwks"
		}, false},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
