package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "spt:session:"

// RedisStore is the production TokenStore. Keys carry the session TTL
// so abandoned sessions expire server-side.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an established Redis client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Set(ctx context.Context, sessionID, token string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+sessionID, token, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session token: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (string, error) {
	token, err := s.client.Get(ctx, redisKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("load session token: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}
