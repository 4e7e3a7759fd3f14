// Package discovery is the room listing side channel: coordinators publish
// their shape here and the lobby browser reads it back.
package discovery

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RoomSummary is what the lobby browser sees about one room.
type RoomSummary struct {
	Code        string    `json:"code"`
	Phase       string    `json:"phase"`
	Players     int       `json:"players"`
	MaxPlayers  int       `json:"maxPlayers"`
	RuleVariant string    `json:"ruleVariant"`
	Public      bool      `json:"public"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Directory stores room summaries. MemoryDirectory serves a single instance,
// RedisDirectory shares the listing across a fleet.
type Directory interface {
	Publish(ctx context.Context, s RoomSummary) error
	Remove(ctx context.Context, code string) error
	List(ctx context.Context) ([]RoomSummary, error)
}

// MemoryDirectory is the in-process default.
type MemoryDirectory struct {
	mu    sync.RWMutex
	rooms map[string]RoomSummary
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{rooms: map[string]RoomSummary{}}
}

func (d *MemoryDirectory) Publish(_ context.Context, s RoomSummary) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms[s.Code] = s
	return nil
}

func (d *MemoryDirectory) Remove(_ context.Context, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.rooms, code)
	return nil
}

func (d *MemoryDirectory) List(_ context.Context) ([]RoomSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RoomSummary, 0, len(d.rooms))
	for _, s := range d.rooms {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
