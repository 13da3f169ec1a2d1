package repository

import (
	"context"
	"fmt"
	"time"
)

// DedupRepository атомарная вставка ключа с TTL в Redis, общая для всех инстансов
type DedupRepository interface {
	SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type dedupRepository struct {
	redis *RedisDB
}

func NewDedupRepository(redis *RedisDB) DedupRepository {
	return &dedupRepository{redis: redis}
}

// SetIfAbsent выполняет SET NX PX: true, если ключа не было
func (r *dedupRepository) SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.redis.Client.SetNX(ctx, r.key(key), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set dedup key: %w", err)
	}
	return ok, nil
}

func (r *dedupRepository) key(key string) string {
	return "visit:dedup:" + key
}
