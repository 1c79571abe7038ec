package testutil

import (
	"context"
	"net/http"

	"github.com/poyrazK/cloudKeys/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) CreateKey(ctx context.Context, tenantID string, key domain.APIKey) error {
	args := m.Called(tenantID, key)
	return args.Error(0)
}

func (m *MockRepo) ListKeys(ctx context.Context, tenantID string) ([]domain.APIKey, error) {
	args := m.Called(tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.APIKey), args.Error(1)
}

func (m *MockRepo) DeleteKey(ctx context.Context, tenantID string, keyID string) error {
	args := m.Called(tenantID, keyID)
	return args.Error(0)
}

func (m *MockRepo) UpdateKey(ctx context.Context, tenantID string, key domain.APIKey) error {
	args := m.Called(tenantID, key)
	return args.Error(0)
}

func (m *MockRepo) LookupKey(ctx context.Context, tenantID string, secret string) (*domain.APIKey, error) {
	args := m.Called(tenantID, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockRepo) Ping(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}

type MockKeyService struct {
	mock.Mock
}

func (m *MockKeyService) CreateKey(ctx context.Context, tenantID string, name string) (*domain.APIKey, error) {
	args := m.Called(tenantID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockKeyService) ListKeys(ctx context.Context, tenantID string) ([]domain.ProtectedAPIKey, error) {
	args := m.Called(tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProtectedAPIKey), args.Error(1)
}

func (m *MockKeyService) DeleteKey(ctx context.Context, tenantID string, keyID string) error {
	args := m.Called(tenantID, keyID)
	return args.Error(0)
}

func (m *MockKeyService) RegenerateKey(ctx context.Context, tenantID string, keyID string) (*domain.APIKey, error) {
	args := m.Called(tenantID, keyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockKeyService) LookupKey(ctx context.Context, tenantID string, secret string) (*domain.ProtectedAPIKey, error) {
	args := m.Called(tenantID, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProtectedAPIKey), args.Error(1)
}

func (m *MockKeyService) HealthCheck(ctx context.Context) map[string]error {
	args := m.Called()
	return args.Get(0).(map[string]error)
}

// MockIdentity implements ports.IdentityProvider with a fixed outcome.
type MockIdentity struct {
	TenantID string
	Err      error
}

func (m *MockIdentity) Identify(_ *http.Request) (string, error) {
	return m.TenantID, m.Err
}
