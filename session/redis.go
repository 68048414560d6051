package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/goSession/codec"
	"github.com/redis/go-redis/v9"
)

// Records are Redis hashes with fields c (created, unix ms), e (expires,
// unix ms), and d (encoded state).
const (
	fieldCreated = "c"
	fieldExpires = "e"
	fieldData    = "d"
)

const insertSessionScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "c", ARGV[1], "e", ARGV[2], "d", ARGV[3])
local retain = tonumber(ARGV[4])
if retain > 0 then
  redis.call("PEXPIREAT", KEYS[1], tonumber(ARGV[2]) + retain)
end
return 1
`

const replaceSessionScript = `
local e = redis.call("HGET", KEYS[1], "e")
if not e or tonumber(e) <= tonumber(ARGV[3]) then
  return 0
end
redis.call("HSET", KEYS[1], "e", ARGV[1], "d", ARGV[2])
local retain = tonumber(ARGV[4])
if retain > 0 then
  redis.call("PEXPIREAT", KEYS[1], tonumber(ARGV[1]) + retain)
end
return 1
`

const touchSessionScript = `
local e = redis.call("HGET", KEYS[1], "e")
if not e or tonumber(e) <= tonumber(ARGV[2]) then
  return 0
end
redis.call("HSET", KEYS[1], "e", ARGV[1])
local retain = tonumber(ARGV[3])
if retain > 0 then
  redis.call("PEXPIREAT", KEYS[1], tonumber(ARGV[1]) + retain)
end
return 1
`

const removeSessionScript = `
local e = redis.call("HGET", KEYS[1], "e")
local existed = redis.call("DEL", KEYS[1])
if existed == 0 then
  return 0
end
if e and tonumber(e) > tonumber(ARGV[1]) then
  return 2
end
return 1
`

var (
	insertSessionLua  = redis.NewScript(insertSessionScript)
	replaceSessionLua = redis.NewScript(replaceSessionScript)
	touchSessionLua   = redis.NewScript(touchSessionScript)
	removeSessionLua  = redis.NewScript(removeSessionScript)
)

const (
	removeStatusMissing int64 = 0
	removeStatusExpired int64 = 1
	removeStatusLive    int64 = 2
)

// RedisBackend stores sessions as Redis hashes under prefix:key.
//
// Expiry is enforced by the scripts against the caller's clock, not by Redis
// TTLs. When retention is positive each record also carries a PEXPIREAT of
// expires+retention so Redis reclaims sessions nobody reads again.
type RedisBackend struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisBackend creates a [RedisBackend]. An empty prefix defaults to "gs".
func NewRedisBackend(client redis.UniversalClient, prefix string, retention time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "gs"
	}
	if retention < 0 {
		retention = 0
	}
	return &RedisBackend{
		redis:     client,
		prefix:    prefix,
		retention: retention,
	}
}

func (b *RedisBackend) key(key string) string {
	return b.prefix + ":" + key
}

// Insert implements [Backend].
func (b *RedisBackend) Insert(ctx context.Context, rec *Record) error {
	res, err := insertSessionLua.Run(ctx, b.redis, []string{b.key(rec.Key)},
		rec.CreatedAt.UnixMilli(),
		rec.ExpiresAt.UnixMilli(),
		rec.Data,
		b.retention.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if res == 0 {
		return ErrKeyExists
	}
	return nil
}

// Get implements [Backend].
func (b *RedisBackend) Get(ctx context.Context, key string) (*Record, error) {
	vals, err := b.redis.HMGet(ctx, b.key(key), fieldCreated, fieldExpires, fieldData).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if len(vals) != 3 || (vals[0] == nil && vals[1] == nil && vals[2] == nil) {
		return nil, ErrNotFound
	}

	created, err := parseMillis(vals[0])
	if err != nil {
		return nil, fmt.Errorf("%w: created_at: %v", codec.ErrDeserialize, err)
	}
	expires, err := parseMillis(vals[1])
	if err != nil {
		return nil, fmt.Errorf("%w: expires_at: %v", codec.ErrDeserialize, err)
	}
	data, ok := vals[2].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing data field", codec.ErrDeserialize)
	}

	return &Record{
		Key:       key,
		CreatedAt: created,
		Data:      []byte(data),
		ExpiresAt: expires,
	}, nil
}

// Replace implements [Backend].
func (b *RedisBackend) Replace(ctx context.Context, key string, data []byte, expiresAt, now time.Time) error {
	res, err := replaceSessionLua.Run(ctx, b.redis, []string{b.key(key)},
		expiresAt.UnixMilli(),
		data,
		now.UnixMilli(),
		b.retention.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if res == 0 {
		return ErrNotFound
	}
	return nil
}

// Touch implements [Backend].
func (b *RedisBackend) Touch(ctx context.Context, key string, expiresAt, now time.Time) error {
	res, err := touchSessionLua.Run(ctx, b.redis, []string{b.key(key)},
		expiresAt.UnixMilli(),
		now.UnixMilli(),
		b.retention.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if res == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove implements [Backend].
func (b *RedisBackend) Remove(ctx context.Context, key string, now time.Time) (bool, error) {
	res, err := removeSessionLua.Run(ctx, b.redis, []string{b.key(key)}, now.UnixMilli()).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return res == removeStatusLive, nil
}

func parseMillis(v interface{}) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, errors.New("missing field")
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
