package revocation

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "revoked:"

// Redis実装。複数インスタンスで失効を共有できる。
// TTLはRedis側のEXPIREに任せる。
type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Add(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, redisKeyPrefix+tokenHash, 1, ttl).Err()
}

func (s *redisStore) Contains(ctx context.Context, tokenHash string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+tokenHash).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
