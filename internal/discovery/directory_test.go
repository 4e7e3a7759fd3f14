package discovery

import (
	"context"
	"testing"
)

func TestMemoryDirectoryPublishListRemove(t *testing.T) {
	d := NewMemoryDirectory()
	ctx := context.Background()

	d.Publish(ctx, RoomSummary{Code: "BBBBBB", Phase: "waiting", Players: 1, MaxPlayers: 4})
	d.Publish(ctx, RoomSummary{Code: "AAAAAA", Phase: "playing", Players: 2, MaxPlayers: 2})

	rooms, err := d.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("listed %d rooms, want 2", len(rooms))
	}
	if rooms[0].Code != "AAAAAA" || rooms[1].Code != "BBBBBB" {
		t.Errorf("rooms not sorted by code: %v", rooms)
	}

	// republishing the same code overwrites
	d.Publish(ctx, RoomSummary{Code: "BBBBBB", Phase: "waiting", Players: 3, MaxPlayers: 4})
	rooms, _ = d.List(ctx)
	if rooms[1].Players != 3 {
		t.Errorf("republish did not overwrite: %+v", rooms[1])
	}

	d.Remove(ctx, "AAAAAA")
	rooms, _ = d.List(ctx)
	if len(rooms) != 1 || rooms[0].Code != "BBBBBB" {
		t.Errorf("after remove: %v", rooms)
	}
}
