package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache is a JSON value store with expiry. Cached values are addressed by a
// generation counter: a writer bumps the counter after committing, and a
// reader only fills the key of the generation it read before loading, so a
// fill racing a write lands under a key nobody reads again.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Generation(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// BalanceGenerationKey is bumped by every write touching the account.
func BalanceGenerationKey(accountID uuid.UUID) string {
	return "balance-gen:" + accountID.String()
}

func BalanceKey(accountID uuid.UUID, generation int64) string {
	return fmt.Sprintf("balance:%s:%d", accountID, generation)
}

// RankingGenerationKey is bumped by every ledger write of the user.
func RankingGenerationKey(userID uuid.UUID) string {
	return "ranking-gen:" + userID.String()
}

// RankingKey identifies one spending ranking. Empty bounds are kept as "-".
func RankingKey(userID uuid.UUID, generation int64, start, end, transactionType string) string {
	return fmt.Sprintf("ranking:%s:%d:%s:%s:%s", userID, generation, orDash(start), orDash(end), transactionType)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Generation returns the counter stored at key, 0 when it was never bumped.
func (c *RedisCache) Generation(ctx context.Context, key string) (int64, error) {
	gen, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Bump increments every counter in one MULTI. Counters never expire.
func (c *RedisCache) Bump(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	pipe := c.rdb.TxPipeline()
	for _, key := range keys {
		pipe.Incr(ctx, key)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Noop never stores anything; every Get is a miss.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) Get(context.Context, string, any) (bool, error) {
	return false, nil
}

func (Noop) Set(context.Context, string, any, time.Duration) error {
	return nil
}

func (Noop) Delete(context.Context, ...string) error {
	return nil
}

func (Noop) Generation(context.Context, string) (int64, error) {
	return 0, nil
}

func (Noop) Bump(context.Context, ...string) error {
	return nil
}

func (Noop) Ping(context.Context) error {
	return nil
}
