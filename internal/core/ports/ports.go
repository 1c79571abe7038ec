package ports

import (
	"context"
	"net/http"

	"github.com/poyrazK/cloudKeys/internal/core/domain"
)

// KeyRepository stores keys partitioned by tenant. Every method is scoped to
// the given tenant and must never observe or mutate another tenant's keys.
type KeyRepository interface {
	CreateKey(ctx context.Context, tenantID string, key domain.APIKey) error
	// ListKeys returns an empty slice for an unknown tenant. Order is not guaranteed.
	ListKeys(ctx context.Context, tenantID string) ([]domain.APIKey, error)
	DeleteKey(ctx context.Context, tenantID string, keyID string) error
	UpdateKey(ctx context.Context, tenantID string, key domain.APIKey) error
	// LookupKey returns (nil, nil) when no key of the tenant has that secret.
	LookupKey(ctx context.Context, tenantID string, secret string) (*domain.APIKey, error)
	Ping(ctx context.Context) error
}

// SecretGenerator produces unpredictable opaque secrets. It cannot fail.
type SecretGenerator interface {
	Generate() string
}

// KeyService is the key lifecycle manager exposed to transports.
type KeyService interface {
	CreateKey(ctx context.Context, tenantID string, name string) (*domain.APIKey, error)
	ListKeys(ctx context.Context, tenantID string) ([]domain.ProtectedAPIKey, error)
	DeleteKey(ctx context.Context, tenantID string, keyID string) error
	RegenerateKey(ctx context.Context, tenantID string, keyID string) (*domain.APIKey, error)
	LookupKey(ctx context.Context, tenantID string, secret string) (*domain.ProtectedAPIKey, error)
	HealthCheck(ctx context.Context) map[string]error
}

// IdentityProvider resolves a request to a verified tenant identifier.
type IdentityProvider interface {
	Identify(r *http.Request) (string, error)
}
