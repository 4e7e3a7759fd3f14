package matchmaking

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each queue in a Redis list so several server instances can
// pool their players. Entries are stored as JSON in enqueue order.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Push(ctx context.Context, key string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal queue entry: %w", err)
	}
	return s.rdb.RPush(ctx, key, raw).Err()
}

func (s *RedisStore) List(ctx context.Context, key string) ([]Entry, error) {
	raws, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			// a corrupt entry should not wedge the whole queue
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *RedisStore) PopN(ctx context.Context, key string, n int) ([]Entry, error) {
	raws, err := s.rdb.LPopCount(ctx, key, n).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *RedisStore) RemovePlayer(ctx context.Context, key, playerID string) error {
	raws, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return err
	}
	for _, raw := range raws {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		if e.PlayerID == playerID {
			return s.rdb.LRem(ctx, key, 1, raw).Err()
		}
	}
	return nil
}
