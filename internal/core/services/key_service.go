package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/cloudKeys/internal/core/domain"
	"github.com/poyrazK/cloudKeys/internal/core/ports"
	"github.com/poyrazK/cloudKeys/internal/infrastructure/metrics"
)

// keyService is the key lifecycle manager. It holds only its collaborators
// and is safe for concurrent use.
type keyService struct {
	repo      ports.KeyRepository
	generator ports.SecretGenerator
	newID     func() string
}

// NewKeyService wires a lifecycle manager on top of repo and generator.
func NewKeyService(repo ports.KeyRepository, generator ports.SecretGenerator) ports.KeyService {
	return &keyService{
		repo:      repo,
		generator: generator,
		newID:     func() string { return uuid.New().String() },
	}
}

func (s *keyService) CreateKey(ctx context.Context, tenantID string, name string) (key *domain.APIKey, err error) {
	defer observe("create", time.Now(), &err)

	k := domain.APIKey{
		ID:     s.newID(),
		Name:   name,
		Secret: s.generator.Generate(),
	}
	if err = s.repo.CreateKey(ctx, tenantID, k); err != nil {
		return nil, err
	}
	return &k, nil
}

func (s *keyService) ListKeys(ctx context.Context, tenantID string) (views []domain.ProtectedAPIKey, err error) {
	defer observe("list", time.Now(), &err)

	keys, err := s.repo.ListKeys(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	views = make([]domain.ProtectedAPIKey, 0, len(keys))
	for _, k := range keys {
		views = append(views, k.Protect())
	}
	return views, nil
}

func (s *keyService) DeleteKey(ctx context.Context, tenantID string, keyID string) (err error) {
	defer observe("delete", time.Now(), &err)

	return s.repo.DeleteKey(ctx, tenantID, keyID)
}

// RegenerateKey replaces the secret of keyID, keeping its id and name.
// Two concurrent calls for the same key both succeed; the later storage write
// wins and the secret returned to the other caller is already invalid.
func (s *keyService) RegenerateKey(ctx context.Context, tenantID string, keyID string) (key *domain.APIKey, err error) {
	defer observe("regenerate", time.Now(), &err)

	keys, err := s.repo.ListKeys(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var current *domain.APIKey
	for i := range keys {
		if keys[i].ID == keyID {
			current = &keys[i]
			break
		}
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}

	updated := domain.APIKey{
		ID:     current.ID,
		Name:   current.Name,
		Secret: s.generator.Generate(),
	}
	if err = s.repo.UpdateKey(ctx, tenantID, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *keyService) LookupKey(ctx context.Context, tenantID string, secret string) (view *domain.ProtectedAPIKey, err error) {
	defer observe("lookup", time.Now(), &err)

	k, err := s.repo.LookupKey(ctx, tenantID, secret)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, domain.ErrNotFound
	}
	p := k.Protect()
	return &p, nil
}

func (s *keyService) HealthCheck(ctx context.Context) map[string]error {
	return map[string]error{
		"storage": s.repo.Ping(ctx),
	}
}

func observe(op string, start time.Time, errp *error) {
	metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	result := "ok"
	switch {
	case *errp == nil:
	case errors.Is(*errp, domain.ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	metrics.KeyOperations.WithLabelValues(op, result).Inc()
}
