package repository

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/poyrazK/cloudKeys/internal/core/domain"
)

// MemoryRepository implements ports.KeyRepository in process memory.
// A single mutex guards the whole tenant map, so every operation is strictly
// ordered relative to every other one, across tenants too.
type MemoryRepository struct {
	mu   sync.Mutex
	keys map[string][]domain.APIKey // tenant -> keys in insertion order
}

// NewMemoryRepository creates and returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{keys: make(map[string][]domain.APIKey)}
}

func (r *MemoryRepository) CreateKey(_ context.Context, tenantID string, key domain.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys[tenantID] = append(r.keys[tenantID], key)
	return nil
}

func (r *MemoryRepository) ListKeys(_ context.Context, tenantID string) ([]domain.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.APIKey, len(r.keys[tenantID]))
	copy(out, r.keys[tenantID])
	return out, nil
}

func (r *MemoryRepository) DeleteKey(_ context.Context, tenantID string, keyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := r.keys[tenantID]
	for i := range keys {
		if keys[i].ID == keyID {
			r.keys[tenantID] = append(keys[:i:i], keys[i+1:]...)
			if len(r.keys[tenantID]) == 0 {
				delete(r.keys, tenantID)
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *MemoryRepository) UpdateKey(_ context.Context, tenantID string, key domain.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := r.keys[tenantID]
	for i := range keys {
		if keys[i].ID == key.ID {
			keys[i] = key
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *MemoryRepository) LookupKey(_ context.Context, tenantID string, secret string) (*domain.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range r.keys[tenantID] {
		if subtle.ConstantTimeCompare([]byte(k.Secret), []byte(secret)) == 1 {
			found := k
			return &found, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Ping(_ context.Context) error {
	return nil
}
