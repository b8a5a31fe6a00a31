package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/kazi-platform/delivery-access-service/internal/ports"
	"github.com/redis/go-redis/v9"
)

// RedisAttemptStore implements brute-force lockout storage in Redis, keyed
// per delivery and caller address. Keeping it in Redis rather than process
// memory means the counter survives restarts and is shared across instances.
type RedisAttemptStore struct {
	client *redis.Client
}

// NewRedisAttemptStore creates an attempt store backed by Redis hashes.
func NewRedisAttemptStore(client *redis.Client) *RedisAttemptStore {
	return &RedisAttemptStore{client: client}
}

func (s *RedisAttemptStore) Get(ctx context.Context, key string) (ports.AttemptState, error) {
	data, err := s.client.HGetAll(ctx, "delivery:attempts:"+key).Result()
	if err != nil {
		return ports.AttemptState{}, err
	}
	if len(data) == 0 {
		return ports.AttemptState{}, nil
	}

	state := ports.AttemptState{}
	if raw, ok := data["failed_count"]; ok {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			state.FailedCount = n
		}
	}
	if raw, ok := data["locked_until"]; ok && raw != "" {
		if unix, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil && unix > 0 {
			t := time.Unix(unix, 0).UTC()
			state.LockedUntil = &t
		}
	}
	return state, nil
}

func (s *RedisAttemptStore) RecordFailure(ctx context.Context, key string, now time.Time, threshold int, coolDown time.Duration) (ports.AttemptState, error) {
	redisKey := "delivery:attempts:" + key

	count, err := s.client.HIncrBy(ctx, redisKey, "failed_count", 1).Result()
	if err != nil {
		return ports.AttemptState{}, err
	}

	state := ports.AttemptState{FailedCount: int(count)}
	if int(count) >= threshold {
		lockedUntil := now.Add(coolDown).UTC()
		_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, redisKey, "locked_until", lockedUntil.Unix())
			p.Expire(ctx, redisKey, coolDown+30*time.Minute) // TTL buffer so stale lockouts self-clear
			return nil
		})
		if err != nil {
			return ports.AttemptState{}, err
		}
		state.LockedUntil = &lockedUntil
		return state, nil
	}

	_ = s.client.Expire(ctx, redisKey, 24*time.Hour).Err() // auto-clear stale counters
	return state, nil
}

func (s *RedisAttemptStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, "delivery:attempts:"+key).Err()
}
