package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/codec"
	"github.com/alicebob/miniredis/v2"
	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
)

func TestRedisRetentionSetsPexpire(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	mr.SetTime(testEpoch)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	clk := clock.NewMock()
	clk.Set(testEpoch)
	store := NewStore(NewRedisBackend(rdb, "", time.Hour), WithClock(clk))
	ctx := context.Background()

	key, _, err := store.Create(ctx, testState(), time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ttl := mr.TTL("gs:" + key)
	if ttl <= time.Hour || ttl > 2*time.Hour {
		t.Fatalf("expected retention ttl in (1h, 2h], got %v", ttl)
	}

	clk.Add(30 * time.Minute)
	mr.SetTime(clk.Now())
	if _, err := store.RenewTTL(ctx, key, time.Hour); err != nil {
		t.Fatalf("renew: %v", err)
	}
	if got := mr.TTL("gs:" + key); got <= ttl-30*time.Minute {
		t.Fatalf("expected renew to push retention out, got %v", got)
	}
}

func TestRedisWithoutRetentionHasNoTTL(t *testing.T) {
	h, mr := newRedisHarness(t)
	key, _, err := h.store.Create(context.Background(), testState(), time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ttl := mr.TTL("gs:" + key); ttl != 0 {
		t.Fatalf("expected no redis ttl, got %v", ttl)
	}
	if !mr.Exists("gs:" + key) {
		t.Fatal("expected hash stored under prefixed key")
	}
}

func TestRedisMalformedHash(t *testing.T) {
	h, mr := newRedisHarness(t)
	mr.HSet("gs:brokenRecord", "d", "{}")

	_, _, err := h.store.Load(context.Background(), "brokenRecord")
	if !errors.Is(err, codec.ErrDeserialize) {
		t.Fatalf("expected ErrDeserialize for hash without expiry, got %v", err)
	}
}

func TestRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	store := NewStore(NewRedisBackend(rdb, "gs", 0), WithWriteTimeout(time.Second))
	mr.Close()

	ctx := context.Background()
	if _, _, err := store.Create(ctx, testState(), time.Hour); !errors.Is(err, ErrStorage) {
		t.Fatalf("create: expected ErrStorage, got %v", err)
	}
	if _, _, err := store.Load(ctx, "someKey"); !errors.Is(err, ErrStorage) {
		t.Fatalf("load: expected ErrStorage, got %v", err)
	}
	if err := store.Delete(ctx, "someKey"); !errors.Is(err, ErrStorage) {
		t.Fatalf("delete: expected ErrStorage, got %v", err)
	}
}
