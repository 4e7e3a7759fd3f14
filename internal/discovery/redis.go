package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

const activeRoomsKey = "hry:rooms:active"

// RedisDirectory keeps the room listing in one Redis hash keyed by room code.
type RedisDirectory struct {
	rdb *redis.Client
}

func NewRedisDirectory(rdb *redis.Client) *RedisDirectory {
	return &RedisDirectory{rdb: rdb}
}

func (d *RedisDirectory) Publish(ctx context.Context, s RoomSummary) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal room summary: %w", err)
	}
	return d.rdb.HSet(ctx, activeRoomsKey, s.Code, raw).Err()
}

func (d *RedisDirectory) Remove(ctx context.Context, code string) error {
	return d.rdb.HDel(ctx, activeRoomsKey, code).Err()
}

func (d *RedisDirectory) List(ctx context.Context) ([]RoomSummary, error) {
	raws, err := d.rdb.HGetAll(ctx, activeRoomsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]RoomSummary, 0, len(raws))
	for _, raw := range raws {
		var s RoomSummary
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
