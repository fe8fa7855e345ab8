package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/cashvault-backend/pkg/redis"
)

func newLockStore(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	store, mr := newLockStore(t)
	key := store.LockKey("cron-worker:test")

	first, err := NewRedisLock(store, key, time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(store, key, time.Minute)

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire should win, ok=%v err=%v", ok, err)
	}
	if ok, err := second.Acquire(ctx); err != nil || ok {
		t.Fatalf("second acquire should lose, ok=%v err=%v", ok, err)
	}
	if err := second.Release(ctx); err != nil || !mr.Exists(key) {
		t.Fatalf("non-owner release must be a no-op, err=%v", err)
	}
	if err := first.Release(ctx); err != nil || mr.Exists(key) {
		t.Fatalf("owner release should delete key, err=%v", err)
	}
}

func TestRedisLockExtendDetectsTakeover(t *testing.T) {
	ctx := context.Background()
	store, mr := newLockStore(t)
	key := store.LockKey("cron-worker:test")

	lock, _ := NewRedisLock(store, key, time.Minute)
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatalf("acquire failed")
	}
	mr.FastForward(30 * time.Second)
	if err := lock.Extend(ctx); err != nil {
		t.Fatalf("extend: %v", err)
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Fatalf("expected ttl reset to 1m, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	other, _ := NewRedisLock(store, key, time.Minute)
	if ok, _ := other.Acquire(ctx); !ok {
		t.Fatalf("expired lock should be acquirable")
	}
	if err := lock.Extend(ctx); !errors.Is(err, ErrLockLost) {
		t.Fatalf("expected ErrLockLost, got %v", err)
	}
	if err := lock.Release(ctx); err != nil || !mr.Exists(key) {
		t.Fatalf("stale owner must not release the new holder, err=%v", err)
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", time.Minute); err == nil {
		t.Fatalf("expected store error")
	}
	store, _ := newLockStore(t)
	if _, err := NewRedisLock(store, "", time.Minute); err == nil {
		t.Fatalf("expected key error")
	}
	lock, err := NewRedisLock(store, "k", 0)
	if err != nil || lock.ttl != defaultLockTTL {
		t.Fatalf("expected default ttl, got %v err=%v", lock.ttl, err)
	}
}
