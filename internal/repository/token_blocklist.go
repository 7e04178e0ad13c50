package repository

import (
	"context"
	"sync"
	"time"

	"github.com/edututor/edututor-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// TokenBlocklist records logged-out token ids until the token would have expired anyway.
type TokenBlocklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type RedisTokenBlocklist struct {
	rdb *redis.Client
}

func NewRedisTokenBlocklist(rdb *redis.Client) *RedisTokenBlocklist {
	return &RedisTokenBlocklist{rdb: rdb}
}

func (b *RedisTokenBlocklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, config.CacheKey.RevokedTokenKey(jti), 1, ttl).Err()
}

func (b *RedisTokenBlocklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.rdb.Exists(ctx, config.CacheKey.RevokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryTokenBlocklist is the in-process TokenBlocklist used with the memory driver.
type MemoryTokenBlocklist struct {
	mu      sync.Mutex
	now     func() time.Time
	revoked map[string]time.Time
}

func NewMemoryTokenBlocklist() *MemoryTokenBlocklist {
	return &MemoryTokenBlocklist{now: time.Now, revoked: make(map[string]time.Time)}
}

func (b *MemoryTokenBlocklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	b.revoked[jti] = b.now().Add(ttl)
	b.mu.Unlock()
	return nil
}

func (b *MemoryTokenBlocklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	until, ok := b.revoked[jti]
	if !ok {
		return false, nil
	}
	if b.now().After(until) {
		delete(b.revoked, jti)
		return false, nil
	}
	return true, nil
}
