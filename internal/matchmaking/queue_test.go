package matchmaking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kwaczek/hry-portal/internal/game/prsi"
)

func entry(id string) Entry {
	return Entry{PlayerID: id, Username: "hrac-" + id}
}

func classic(players int) Config {
	return Config{MaxPlayers: players, RuleVariant: prsi.VariantClassic}
}

func TestQueueKeys(t *testing.T) {
	cfg := Config{MaxPlayers: 3, RuleVariant: prsi.VariantStacking}
	if got := cfg.Key(); got != "hry:match:3:stacking" {
		t.Errorf("key = %q", got)
	}
	if got := len(Configs()); got != 6 {
		t.Errorf("Configs() has %d queues, want 6 (2-4 players x 2 variants)", got)
	}
}

func TestJoinBelowThresholdWaits(t *testing.T) {
	q := NewQueue(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	matched, err := q.JoinQueue(ctx, classic(2), entry("a"))
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if matched != nil {
		t.Fatalf("lone player matched: %v", matched)
	}

	size, err := q.Size(ctx, classic(2))
	if err != nil || size != 1 {
		t.Fatalf("size = %d (%v), want 1", size, err)
	}
}

func TestJoinAtThresholdDrainsFullTable(t *testing.T) {
	q := NewQueue(NewMemoryStore(), time.Minute)
	ctx := context.Background()
	cfg := classic(3)

	for _, id := range []string{"a", "b"} {
		if matched, _ := q.JoinQueue(ctx, cfg, entry(id)); matched != nil {
			t.Fatalf("matched early on %s", id)
		}
	}

	matched, err := q.JoinQueue(ctx, cfg, entry("c"))
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(matched) != 3 {
		t.Fatalf("matched %d players, want 3", len(matched))
	}
	// FIFO order preserved
	for i, want := range []string{"a", "b", "c"} {
		if matched[i].PlayerID != want {
			t.Errorf("matched[%d] = %s, want %s", i, matched[i].PlayerID, want)
		}
	}

	if size, _ := q.Size(ctx, cfg); size != 0 {
		t.Errorf("queue size after match = %d, want 0", size)
	}
}

func TestQueuesAreIndependent(t *testing.T) {
	q := NewQueue(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	q.JoinQueue(ctx, classic(2), entry("a"))
	matched, _ := q.JoinQueue(ctx, classic(3), entry("b"))
	if matched != nil {
		t.Fatal("players in different queues matched with each other")
	}

	matched, _ = q.JoinQueue(ctx, classic(2), entry("c"))
	if len(matched) != 2 {
		t.Fatalf("2-player queue matched %d, want 2", len(matched))
	}
}

func TestDuplicateJoinRejected(t *testing.T) {
	q := NewQueue(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	q.JoinQueue(ctx, classic(2), entry("a"))
	if _, err := q.JoinQueue(ctx, classic(2), entry("a")); err != ErrAlreadyQueued {
		t.Fatalf("err = %v, want ErrAlreadyQueued", err)
	}
}

func TestLeaveQueue(t *testing.T) {
	q := NewQueue(NewMemoryStore(), time.Minute)
	ctx := context.Background()
	cfg := classic(2)

	q.JoinQueue(ctx, cfg, entry("a"))
	if err := q.LeaveQueue(ctx, cfg, "a"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if size, _ := q.Size(ctx, cfg); size != 0 {
		t.Errorf("size = %d, want 0", size)
	}

	// leaving twice is fine
	if err := q.LeaveQueue(ctx, cfg, "a"); err != nil {
		t.Fatalf("second leave: %v", err)
	}

	// a left, so b + c are needed for a table again
	q.JoinQueue(ctx, cfg, entry("b"))
	matched, _ := q.JoinQueue(ctx, cfg, entry("c"))
	if len(matched) != 2 || matched[0].PlayerID != "b" {
		t.Errorf("matched = %v, want b,c", matched)
	}
}

func TestTakeTimedOut(t *testing.T) {
	q := NewQueue(NewMemoryStore(), 50*time.Millisecond)
	ctx := context.Background()
	cfg := classic(4)

	q.JoinQueue(ctx, cfg, entry("a"))
	q.JoinQueue(ctx, cfg, entry("b"))

	// nobody has waited long enough yet
	if taken, _ := q.TakeTimedOut(ctx, cfg); taken != nil {
		t.Fatalf("premature drain: %v", taken)
	}

	time.Sleep(80 * time.Millisecond)
	taken, err := q.TakeTimedOut(ctx, cfg)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if len(taken) != 2 {
		t.Fatalf("drained %d entries, want 2", len(taken))
	}
	if size, _ := q.Size(ctx, cfg); size != 0 {
		t.Errorf("size after drain = %d, want 0", size)
	}

	// empty queue stays quiet
	if taken, _ := q.TakeTimedOut(ctx, cfg); taken != nil {
		t.Fatalf("empty queue drained: %v", taken)
	}
}

func TestConcurrentJoinsBuildDisjointTables(t *testing.T) {
	q := NewQueue(NewMemoryStore(), time.Minute)
	ctx := context.Background()
	cfg := classic(2)

	const players = 40
	var mu sync.Mutex
	seen := map[string]int{}

	var wg sync.WaitGroup
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			matched, err := q.JoinQueue(ctx, cfg, entry(fmt.Sprintf("p%02d", i)))
			if err != nil {
				t.Errorf("join: %v", err)
				return
			}
			mu.Lock()
			for _, e := range matched {
				seen[e.PlayerID]++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	// an even number of joiners pairs off completely, each exactly once
	if len(seen) != players {
		t.Errorf("%d players matched, want %d", len(seen), players)
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("player %s matched %d times", id, n)
		}
	}
	if size, _ := q.Size(ctx, cfg); size != 0 {
		t.Errorf("leftover queue size = %d, want 0", size)
	}
}
