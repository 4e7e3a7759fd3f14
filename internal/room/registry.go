package room

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/kwaczek/hry-portal/internal/logger"
	"github.com/kwaczek/hry-portal/internal/metrics"
)

// codeAlphabet avoids 0/O and 1/I so codes survive being read out loud.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// StaleRoomAge is how long a finished room lingers before cleanup.
const StaleRoomAge = 5 * time.Minute

var ErrTooManyRooms = errors.New("could not allocate a room code")

// Registry tracks live coordinators by room code.
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]*Coordinator
	ratings MatchSaver
	opts    Options
}

func NewRegistry(ratings MatchSaver, opts Options) *Registry {
	return &Registry{
		rooms:   map[string]*Coordinator{},
		ratings: ratings,
		opts:    opts,
	}
}

func generateCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// CreateRoom allocates a fresh code, starts the coordinator goroutine and
// registers it. The caller joins players separately via Coordinator.Join.
func (r *Registry) CreateRoom(cfg Config) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code := ""
	for attempt := 0; attempt < 100; attempt++ {
		candidate := generateCode()
		if _, taken := r.rooms[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		return nil, ErrTooManyRooms
	}

	c := NewCoordinator(code, cfg, r.ratings, r.opts, r.remove)
	r.rooms[code] = c
	go c.Run()

	metrics.RoomsActive.Inc()
	logger.Info("room created", "room", code, "maxPlayers", cfg.MaxPlayers, "variant", cfg.RuleVariant)
	return c, nil
}

// Get returns the coordinator for a code, or nil.
func (r *Registry) Get(code string) *Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[code]
}

// remove is the coordinator's onEmpty callback.
func (r *Registry) remove(code string) {
	r.mu.Lock()
	c, ok := r.rooms[code]
	if ok {
		delete(r.rooms, code)
	}
	r.mu.Unlock()

	if ok {
		c.Stop()
		metrics.RoomsActive.Dec()
		logger.Info("room removed", "room", code)
	}
}

// list copies the coordinators out so snapshots never run under the mutex.
func (r *Registry) list() []*Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Coordinator, 0, len(r.rooms))
	for _, c := range r.rooms {
		out = append(out, c)
	}
	return out
}

// Snapshots returns the current shape of every live room.
func (r *Registry) Snapshots() []Snapshot {
	rooms := r.list()
	out := make([]Snapshot, 0, len(rooms))
	for _, c := range rooms {
		s := c.Snapshot()
		if !s.Stopped {
			out = append(out, s)
		}
	}
	return out
}

// CleanupStaleRooms stops and removes rooms that finished more than
// StaleRoomAge ago, plus any room that already stopped on its own. Returns how
// many rooms were removed.
func (r *Registry) CleanupStaleRooms() int {
	removed := 0
	for _, c := range r.list() {
		s := c.Snapshot()
		stale := s.Stopped ||
			(!s.FinishedAt.IsZero() && time.Since(s.FinishedAt) >= StaleRoomAge)
		if stale {
			r.remove(c.Code())
			removed++
		}
	}
	return removed
}
