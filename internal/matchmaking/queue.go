// Package matchmaking pools waiting players per queue until enough of them
// arrive for a full table, or until the wait runs out and bots fill the rest.
package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kwaczek/hry-portal/internal/game/prsi"
	"github.com/kwaczek/hry-portal/internal/metrics"
)

// DefaultWaitTimeout is how long a player waits before bots backfill.
const DefaultWaitTimeout = 30 * time.Second

var ErrAlreadyQueued = errors.New("player already in queue")

// Config identifies one queue.
type Config struct {
	MaxPlayers  int
	RuleVariant prsi.RuleVariant
}

// Key is the queue's storage key, shared with the Redis store so several
// instances can pool players.
func (c Config) Key() string {
	return fmt.Sprintf("hry:match:%d:%s", c.MaxPlayers, c.RuleVariant)
}

// Configs enumerates every queue the portal runs.
func Configs() []Config {
	out := make([]Config, 0, 6)
	for _, variant := range []prsi.RuleVariant{prsi.VariantClassic, prsi.VariantStacking} {
		for players := 2; players <= 4; players++ {
			out = append(out, Config{MaxPlayers: players, RuleVariant: variant})
		}
	}
	return out
}

// Entry is one waiting player.
type Entry struct {
	PlayerID   string    `json:"playerId"`
	Username   string    `json:"username"`
	IsGuest    bool      `json:"isGuest"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// Store is the FIFO backing a queue. MemoryStore serves a single instance,
// RedisStore a fleet.
type Store interface {
	Push(ctx context.Context, key string, e Entry) error
	List(ctx context.Context, key string) ([]Entry, error)
	PopN(ctx context.Context, key string, n int) ([]Entry, error)
	RemovePlayer(ctx context.Context, key, playerID string) error
}

// Queue runs the matchmaking logic over a Store. The mutex makes the
// check-then-dequeue in JoinQueue atomic, so a burst of joins can never build
// two half-tables out of the same players.
type Queue struct {
	mu      sync.Mutex
	store   Store
	timeout time.Duration
}

func NewQueue(store Store, timeout time.Duration) *Queue {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	return &Queue{store: store, timeout: timeout}
}

// JoinQueue enqueues the player. When the queue reaches the table size it
// atomically drains a full table and returns it; otherwise it returns nil and
// the player keeps waiting.
func (q *Queue) JoinQueue(ctx context.Context, cfg Config, e Entry) ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := cfg.Key()
	waiting, err := q.store.List(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list queue %s: %w", key, err)
	}
	for _, w := range waiting {
		if w.PlayerID == e.PlayerID {
			return nil, ErrAlreadyQueued
		}
	}

	if e.EnqueuedAt.IsZero() {
		e.EnqueuedAt = time.Now()
	}
	if err := q.store.Push(ctx, key, e); err != nil {
		return nil, fmt.Errorf("push to queue %s: %w", key, err)
	}

	size := len(waiting) + 1
	metrics.MatchmakingQueueSize.WithLabelValues(key).Set(float64(size))
	if size < cfg.MaxPlayers {
		return nil, nil
	}

	matched, err := q.store.PopN(ctx, key, cfg.MaxPlayers)
	if err != nil {
		return nil, fmt.Errorf("drain queue %s: %w", key, err)
	}
	metrics.MatchmakingQueueSize.WithLabelValues(key).Set(float64(size - len(matched)))
	return matched, nil
}

// LeaveQueue removes the player; leaving a queue they are not in is a no-op.
func (q *Queue) LeaveQueue(ctx context.Context, cfg Config, playerID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.RemovePlayer(ctx, cfg.Key(), playerID)
}

// Size reports how many players are waiting.
func (q *Queue) Size(ctx context.Context, cfg Config) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	waiting, err := q.store.List(ctx, cfg.Key())
	if err != nil {
		return 0, err
	}
	return len(waiting), nil
}

// TakeTimedOut drains the queue when its oldest player has waited past the
// timeout, returning up to a table's worth of entries for bot backfill.
// Returns nil while nobody has timed out yet.
func (q *Queue) TakeTimedOut(ctx context.Context, cfg Config) ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := cfg.Key()
	waiting, err := q.store.List(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list queue %s: %w", key, err)
	}
	if len(waiting) == 0 || time.Since(waiting[0].EnqueuedAt) < q.timeout {
		return nil, nil
	}

	n := len(waiting)
	if n > cfg.MaxPlayers {
		n = cfg.MaxPlayers
	}
	matched, err := q.store.PopN(ctx, key, n)
	if err != nil {
		return nil, fmt.Errorf("drain queue %s: %w", key, err)
	}
	metrics.MatchmakingQueueSize.WithLabelValues(key).Set(float64(len(waiting) - len(matched)))
	return matched, nil
}
