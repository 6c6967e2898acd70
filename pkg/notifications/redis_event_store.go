package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dhvanit-ts/hrms-sub001/pkg/eventbus"
)

const redisEventKeyPrefix = "notifier:event:"

// RedisEventStore implements EventStore on Redis using SETNX, so the
// idempotence gate holds across process restarts and multiple instances.
type RedisEventStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisEventStore creates a Redis-backed event store. Keys expire after
// ttl; a non-positive ttl defaults to 24 hours.
func NewRedisEventStore(client redis.UniversalClient, ttl time.Duration) *RedisEventStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisEventStore{client: client, ttl: ttl}
}

func (s *RedisEventStore) Store(ctx context.Context, evt eventbus.Event) (bool, error) {
	key := redisEventKeyPrefix + storedEventKey(evt)

	created, err := s.client.SetNX(ctx, key, evt.ID, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("store event key: %w", err)
	}
	return created, nil
}

func (s *RedisEventStore) Delete(ctx context.Context, evt eventbus.Event) error {
	key := redisEventKeyPrefix + storedEventKey(evt)

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete event key: %w", err)
	}
	return nil
}
