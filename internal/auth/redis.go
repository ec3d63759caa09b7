package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevocations keeps revoked token ids in redis with the remaining token
// lifetime as TTL.
type RedisRevocations struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisRevocations(client *redis.Client, timeout time.Duration) *RedisRevocations {
	return &RedisRevocations{client: client, timeout: timeout}
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("session_revoked_%s", tokenID)
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.client.Set(ctx, revokedKey(tokenID), 1, ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
