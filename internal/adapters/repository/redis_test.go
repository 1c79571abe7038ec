package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/poyrazK/cloudKeys/internal/core/domain"
)

func TestRedisRepository_StoresHashedSecret(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewRedisRepository(mr.Addr(), "", 0)
	ctx := context.Background()

	key := domain.APIKey{ID: "k1", Name: "billing", Secret: "ck_topsecret"}
	if err := repo.CreateKey(ctx, "u1", key); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	raw := mr.HGet(keysKey("u1"), "k1")
	var rec redisRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("stored record is not JSON: %v", err)
	}
	if rec.KeyHash != HashSecret("ck_topsecret") || rec.KeyPrefix != "ck_topse" {
		t.Errorf("unexpected stored record: %+v", rec)
	}
	if got := mr.HGet(secretsKey("u1"), HashSecret("ck_topsecret")); got != "k1" {
		t.Errorf("expected secret index to point at k1, got %q", got)
	}

	keys, _ := repo.ListKeys(ctx, "u1")
	if len(keys) != 1 || keys[0].Secret != "" {
		t.Errorf("expected one key without secret, got %+v", keys)
	}
}

func TestRedisRepository_UpdateDropsOldIndex(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(mr.Addr(), "", 0)
	ctx := context.Background()

	_ = repo.CreateKey(ctx, "u1", domain.APIKey{ID: "k1", Name: "n", Secret: "old"})
	if err := repo.UpdateKey(ctx, "u1", domain.APIKey{ID: "k1", Name: "n", Secret: "new"}); err != nil {
		t.Fatalf("UpdateKey failed: %v", err)
	}

	if mr.HGet(secretsKey("u1"), HashSecret("old")) != "" {
		t.Errorf("old secret hash must be removed from the index")
	}
	if mr.HGet(secretsKey("u1"), HashSecret("new")) != "k1" {
		t.Errorf("new secret hash must point at k1")
	}
}

func TestRedisRepository_LookupOldSecretAfterRegenerate(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(mr.Addr(), "", 0)
	ctx := context.Background()

	_ = repo.CreateKey(ctx, "u1", domain.APIKey{ID: "k1", Name: "n", Secret: "old"})
	_ = repo.UpdateKey(ctx, "u1", domain.APIKey{ID: "k1", Name: "n", Secret: "new"})

	// An index entry for the previous secret still points at the regenerated record.
	mr.HSet(secretsKey("u1"), HashSecret("old"), "k1")

	k, err := repo.LookupKey(ctx, "u1", "old")
	if err != nil || k != nil {
		t.Errorf("expected old secret to miss, got (%+v, %v)", k, err)
	}

	k, err = repo.LookupKey(ctx, "u1", "new")
	if err != nil || k == nil || k.ID != "k1" {
		t.Errorf("expected new secret to resolve to k1, got (%+v, %v)", k, err)
	}
}

func TestRedisRepository_StaleIndexIsNoMatch(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(mr.Addr(), "", 0)
	ctx := context.Background()

	mr.HSet(secretsKey("u1"), HashSecret("orphan"), "missing-id")

	k, err := repo.LookupKey(ctx, "u1", "orphan")
	if err != nil || k != nil {
		t.Errorf("expected (nil, nil), got (%+v, %v)", k, err)
	}
}

func TestRedisRepository_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(mr.Addr(), "", 0)
	ctx := context.Background()
	mr.Close()

	if err := repo.CreateKey(ctx, "u1", domain.APIKey{ID: "k1", Name: "n", Secret: "s"}); !domain.IsInternal(err) {
		t.Errorf("CreateKey: expected internal error, got %v", err)
	}
	if _, err := repo.ListKeys(ctx, "u1"); !domain.IsInternal(err) {
		t.Errorf("ListKeys: expected internal error, got %v", err)
	}
	if err := repo.DeleteKey(ctx, "u1", "k1"); !domain.IsInternal(err) {
		t.Errorf("DeleteKey: expected internal error, got %v", err)
	}
	if _, err := repo.LookupKey(ctx, "u1", "s"); !domain.IsInternal(err) {
		t.Errorf("LookupKey: expected internal error, got %v", err)
	}
	if err := repo.Ping(ctx); err == nil {
		t.Errorf("Ping: expected error on closed server")
	}
}

func TestRedisRepository_CorruptRecord(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := NewRedisRepository(mr.Addr(), "", 0)
	mr.HSet(keysKey("u1"), "k1", "{not json")

	if _, err := repo.ListKeys(context.Background(), "u1"); !domain.IsInternal(err) {
		t.Errorf("expected internal error for corrupt record, got %v", err)
	}
}
