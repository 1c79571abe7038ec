// Package app assembles cloudKeys components from configuration. Both the
// key server and the operator CLI build their stack through it.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/poyrazK/cloudKeys/internal/adapters/identity"
	"github.com/poyrazK/cloudKeys/internal/adapters/repository"
	"github.com/poyrazK/cloudKeys/internal/adapters/secret"
	"github.com/poyrazK/cloudKeys/internal/config"
	"github.com/poyrazK/cloudKeys/internal/core/ports"
	"github.com/poyrazK/cloudKeys/internal/core/services"
)

// NewLogger returns a JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// NewRepository opens the configured storage backend. The returned close
// function releases its connections.
func NewRepository(ctx context.Context, cfg config.StorageConfig) (ports.KeyRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "memory", "":
		return repository.NewMemoryRepository(), noop, nil
	case "postgres":
		db, err := repository.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPostgresRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to migrate postgres schema: %w", err)
		}
		return repo, repo.Close, nil
	case "sqlite":
		repo, err := repository.NewSQLiteRepository(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case "redis":
		repo := repository.NewRedisRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := repo.Ping(ctx); err != nil {
			_ = repo.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// NewGenerator returns the configured secret generator.
func NewGenerator(cfg config.SecretsConfig) (ports.SecretGenerator, error) {
	switch cfg.Generator {
	case "uuid", "":
		return secret.NewUUIDGenerator(), nil
	case "random":
		return secret.NewRandomGenerator(cfg.Prefix, cfg.Size), nil
	default:
		return nil, fmt.Errorf("unknown secret generator %q", cfg.Generator)
	}
}

// NewIdentityProvider returns the configured request identity provider.
func NewIdentityProvider(cfg config.AuthConfig) (ports.IdentityProvider, error) {
	switch cfg.Mode {
	case "token", "":
		if len(cfg.Tokens) == 0 {
			return nil, fmt.Errorf("auth.tokens must configure at least one token in token mode")
		}
		return identity.NewTokenProvider(cfg.Tokens), nil
	case "header":
		return identity.NewHeaderProvider(cfg.Header), nil
	case "jwt":
		return identity.NewJWTProvider(identity.JWTConfig{
			JWKSURL:   cfg.JWT.JWKSURL,
			Issuer:    cfg.JWT.Issuer,
			Audience:  cfg.JWT.Audience,
			ClockSkew: time.Duration(cfg.JWT.ClockSkewSeconds) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// NewKeyService builds the lifecycle manager over the configured backend and
// generator.
func NewKeyService(ctx context.Context, cfg *config.Config) (ports.KeyService, func() error, error) {
	gen, err := NewGenerator(cfg.Secrets)
	if err != nil {
		return nil, nil, err
	}
	repo, closeFn, err := NewRepository(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	return services.NewKeyService(repo, gen), closeFn, nil
}
