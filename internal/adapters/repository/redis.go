package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/poyrazK/cloudKeys/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic transaction retries on concurrent writes.
const maxTxRetries = 5

type redisRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	KeyHash   string    `json:"key_hash"`
	KeyPrefix string    `json:"key_prefix"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisRepository implements ports.KeyRepository on Redis. Each tenant owns
// two hashes: id -> record and secret hash -> id. Secrets are stored hashed.
type RedisRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRepository creates a RedisRepository connected to addr.
func NewRedisRepository(addr string, password string, db int) *RedisRepository {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRepository{client: rdb, now: time.Now}
}

// The braces form a cluster hash tag so both hashes of a tenant share a slot.
func keysKey(tenantID string) string {
	return "apikeys:{" + tenantID + "}:keys"
}

func secretsKey(tenantID string) string {
	return "apikeys:{" + tenantID + "}:secrets"
}

func (r *RedisRepository) CreateKey(ctx context.Context, tenantID string, key domain.APIKey) error {
	rec := redisRecord{
		ID:        key.ID,
		Name:      key.Name,
		KeyHash:   HashSecret(key.Secret),
		KeyPrefix: domain.KeyPrefix(key.Secret),
		CreatedAt: r.now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return domain.NewInternalError("create key", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, keysKey(tenantID), rec.ID, data)
		pipe.HSet(ctx, secretsKey(tenantID), rec.KeyHash, rec.ID)
		return nil
	})
	if err != nil {
		return domain.NewInternalError("create key", err)
	}
	return nil
}

func (r *RedisRepository) ListKeys(ctx context.Context, tenantID string) ([]domain.APIKey, error) {
	vals, err := r.client.HVals(ctx, keysKey(tenantID)).Result()
	if err != nil {
		return nil, domain.NewInternalError("list keys", err)
	}

	keys := make([]domain.APIKey, 0, len(vals))
	for _, v := range vals {
		var rec redisRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, domain.NewInternalError("list keys", err)
		}
		keys = append(keys, domain.APIKey{ID: rec.ID, Name: rec.Name})
	}
	return keys, nil
}

func (r *RedisRepository) DeleteKey(ctx context.Context, tenantID string, keyID string) error {
	return r.watch(ctx, "delete key", func(tx *redis.Tx) error {
		rec, err := getRecord(ctx, tx, tenantID, keyID)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, keysKey(tenantID), keyID)
			pipe.HDel(ctx, secretsKey(tenantID), rec.KeyHash)
			return nil
		})
		return err
	}, keysKey(tenantID), secretsKey(tenantID))
}

func (r *RedisRepository) UpdateKey(ctx context.Context, tenantID string, key domain.APIKey) error {
	return r.watch(ctx, "update key", func(tx *redis.Tx) error {
		old, err := getRecord(ctx, tx, tenantID, key.ID)
		if err != nil {
			return err
		}
		rec := redisRecord{
			ID:        key.ID,
			Name:      key.Name,
			KeyHash:   HashSecret(key.Secret),
			KeyPrefix: domain.KeyPrefix(key.Secret),
			CreatedAt: old.CreatedAt,
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, secretsKey(tenantID), old.KeyHash)
			pipe.HSet(ctx, keysKey(tenantID), rec.ID, data)
			pipe.HSet(ctx, secretsKey(tenantID), rec.KeyHash, rec.ID)
			return nil
		})
		return err
	}, keysKey(tenantID), secretsKey(tenantID))
}

func (r *RedisRepository) LookupKey(ctx context.Context, tenantID string, secret string) (*domain.APIKey, error) {
	hash := HashSecret(secret)
	id, err := r.client.HGet(ctx, secretsKey(tenantID), hash).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewInternalError("lookup key", err)
	}

	rec, err := getRecord(ctx, r.client, tenantID, id)
	if errors.Is(err, domain.ErrNotFound) {
		// Index entry outlived its record; treat as no match.
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewInternalError("lookup key", err)
	}
	// The record may have been regenerated between the two reads.
	if rec.KeyHash != hash {
		return nil, nil
	}
	return &domain.APIKey{ID: rec.ID, Name: rec.Name, Secret: secret}, nil
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// watch runs fn in an optimistic transaction over keys, retrying when a
// concurrent writer touched them first. The last successful writer wins.
func (r *RedisRepository) watch(ctx context.Context, op string, fn func(*redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < maxTxRetries; i++ {
		err = r.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		break
	}
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return domain.NewInternalError(op, err)
}

// hashGetter is satisfied by both *redis.Client and *redis.Tx.
type hashGetter interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

func getRecord(ctx context.Context, c hashGetter, tenantID string, keyID string) (*redisRecord, error) {
	data, err := c.HGet(ctx, keysKey(tenantID), keyID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
