package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL = 15 * time.Minute

	// versionTTL only has to outlive an in-flight fill.
	versionTTL = 24 * time.Hour
)

// fillScript writes the cart only while the version key still holds the
// value the reader saw. KEYS: cart, version. ARGV: version, payload, ttl ms.
var fillScript = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = DefaultTTL
	}
	return &RedisCache{client: client, baseTTL: baseTTL}
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cached cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("decode cached cart: %w", err)
	}
	return &cart, nil
}

// Version is zero for a user that was never invalidated.
func (r *RedisCache) Version(ctx context.Context, userID string) (int64, error) {
	v, err := r.client.Get(ctx, versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cart version: %w", err)
	}
	return v, nil
}

// Fill reports false when an invalidation happened after version was read.
func (r *RedisCache) Fill(ctx context.Context, userID string, version int64, cart *domain.Cart) (bool, error) {
	payload, err := json.Marshal(cart)
	if err != nil {
		return false, fmt.Errorf("encode cart: %w", err)
	}

	keys := []string{cartKey(userID), versionKey(userID)}
	stored, err := fillScript.Run(ctx, r.client, keys,
		strconv.FormatInt(version, 10), payload, r.ttl().Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("fill cached cart: %w", err)
	}
	return stored == 1, nil
}

// Invalidate bumps the version and drops the cart in one MULTI/EXEC.
func (r *RedisCache) Invalidate(ctx context.Context, userID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(userID))
		pipe.Expire(ctx, versionKey(userID), versionTTL)
		pipe.Del(ctx, cartKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate cached cart: %w", err)
	}
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// ttl adds up to a third of the base so carts filled together expire apart.
func (r *RedisCache) ttl() time.Duration {
	return r.baseTTL + time.Duration(rand.Int63n(int64(r.baseTTL/3)+1))
}

// Both keys share a hash tag so the script stays on one cluster slot.
func cartKey(userID string) string {
	return "cart:{" + userID + "}"
}

func versionKey(userID string) string {
	return "cart:{" + userID + "}:version"
}
