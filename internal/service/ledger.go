package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisEventLedger remembers processed webhook event ids for a day, which
// comfortably outlives the provider's redelivery window.
type RedisEventLedger struct {
	rdb *redis.Client
}

func NewRedisEventLedger(rdb *redis.Client) *RedisEventLedger {
	return &RedisEventLedger{rdb: rdb}
}

func (l *RedisEventLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	val, err := l.rdb.Get(ctx, "webhook-event:"+eventID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return val != "", nil
}

func (l *RedisEventLedger) Mark(ctx context.Context, eventID string) error {
	return l.rdb.Set(ctx, "webhook-event:"+eventID, "processed", 24*time.Hour).Err()
}
