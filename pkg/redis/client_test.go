package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/cashvault-backend/pkg/config"
)

func newMiniClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return NewFromClient(raw), mr
}

func TestSetNXGetDel(t *testing.T) {
	ctx := context.Background()
	client, mr := newMiniClient(t)
	key := client.IdempotencyKey("POST|/api/vault/receive", "abc")

	ok, err := client.SetNX(ctx, key, "first", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first setnx to win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, key, "second", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second setnx to lose, ok=%v err=%v", ok, err)
	}
	value, err := client.Get(ctx, key)
	if err != nil || value != "first" {
		t.Fatalf("unexpected value %q err=%v", value, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := client.Get(ctx, key); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected key to expire, got %v", err)
	}

	if _, err := client.SetNX(ctx, key, "third", time.Minute); err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("expected key deleted")
	}
}

func TestPingAndUninitialized(t *testing.T) {
	client, _ := newMiniClient(t)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	var empty Client
	if err := empty.Ping(context.Background()); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if err := empty.Close(); err != nil {
		t.Fatalf("close on empty client should be a no-op: %v", err)
	}
}

func TestNewConnectsFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr() + "/0", PoolSize: 2}, nil)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	defer client.Close()
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 3, PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 3 || opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "cv:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.IdempotencyKey("scope", " "); got != "cv:idempotency:scope" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
	if got := client.LockKey("cron"); got != "cv:lock:cron" {
		t.Fatalf("unexpected lock key %s", got)
	}
}

func TestSetOverwritesWithTTL(t *testing.T) {
	ctx := context.Background()
	client, mr := newMiniClient(t)
	key := client.IdempotencyKey("op|PUT|/api/atm-loading/1", "k")

	if _, err := client.SetNX(ctx, key, "pending", time.Minute); err != nil {
		t.Fatalf("setnx: %v", err)
	}
	if err := client.Set(ctx, key, "completed", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := client.Get(ctx, key); got != "completed" {
		t.Fatalf("expected overwrite, got %q", got)
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
}

func TestCompareAndDeleteAndExpire(t *testing.T) {
	ctx := context.Background()
	client, mr := newMiniClient(t)
	key := client.LockKey("cron-worker:test")

	if _, err := client.SetNX(ctx, key, "owner-a", time.Minute); err != nil {
		t.Fatalf("setnx: %v", err)
	}

	ok, err := client.CompareAndExpire(ctx, key, "owner-b", time.Hour)
	if err != nil || ok {
		t.Fatalf("foreign owner must not extend, ok=%v err=%v", ok, err)
	}
	ok, err = client.CompareAndExpire(ctx, key, "owner-a", time.Hour)
	if err != nil || !ok {
		t.Fatalf("owner should extend, ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}

	ok, err = client.CompareAndDelete(ctx, key, "owner-b")
	if err != nil || ok || !mr.Exists(key) {
		t.Fatalf("foreign owner must not delete, ok=%v err=%v", ok, err)
	}
	ok, err = client.CompareAndDelete(ctx, key, "owner-a")
	if err != nil || !ok || mr.Exists(key) {
		t.Fatalf("owner should delete, ok=%v err=%v", ok, err)
	}
}
