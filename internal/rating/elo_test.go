package rating

import (
	"testing"

	"github.com/kwaczek/hry-portal/internal/domain"
)

func findChange(t *testing.T, changes []domain.EloChange, id string) domain.EloChange {
	t.Helper()
	for _, c := range changes {
		if c.PlayerID == id {
			return c
		}
	}
	t.Fatalf("no change for %s in %v", id, changes)
	return domain.EloChange{}
}

func sumChanges(changes []domain.EloChange) int {
	total := 0
	for _, c := range changes {
		total += c.Change
	}
	return total
}

func TestEloEqualRatingsTwoPlayers(t *testing.T) {
	changes := CalculateEloChanges([]PlayerStanding{
		{ID: "a", Elo: 1000, Placement: 1},
		{ID: "b", Elo: 1000, Placement: 2},
	})

	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	winner := findChange(t, changes, "a")
	loser := findChange(t, changes, "b")

	// K/2 = 16 for equal ratings
	if winner.Change != 16 || winner.NewElo != 1016 {
		t.Errorf("winner = %+v, want change 16 newElo 1016", winner)
	}
	if loser.Change != -16 || loser.NewElo != 984 {
		t.Errorf("loser = %+v, want change -16 newElo 984", loser)
	}
}

func TestEloFavoriteWinsGainsLess(t *testing.T) {
	changes := CalculateEloChanges([]PlayerStanding{
		{ID: "a", Elo: 1400, Placement: 1},
		{ID: "b", Elo: 1000, Placement: 2},
	})

	winner := findChange(t, changes, "a")
	if winner.Change <= 0 || winner.Change >= 16 {
		t.Errorf("favorite's gain = %d, want in (0, 16)", winner.Change)
	}
	if sumChanges(changes) != 0 {
		t.Errorf("changes sum to %d, want 0", sumChanges(changes))
	}
}

func TestEloUpsetGainsMore(t *testing.T) {
	changes := CalculateEloChanges([]PlayerStanding{
		{ID: "a", Elo: 1000, Placement: 1},
		{ID: "b", Elo: 1400, Placement: 2},
	})

	winner := findChange(t, changes, "a")
	loser := findChange(t, changes, "b")
	if winner.Change <= 16 {
		t.Errorf("upset winner's gain = %d, want > 16", winner.Change)
	}
	if loser.Change >= -16 {
		t.Errorf("upset loser's change = %d, want < -16", loser.Change)
	}
}

func TestEloGuestsExcluded(t *testing.T) {
	changes := CalculateEloChanges([]PlayerStanding{
		{ID: "a", Elo: 1000, Placement: 1, IsGuest: true},
		{ID: "b", Elo: 1000, Placement: 2},
	})

	// lone rated player has no one to compare against
	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(changes))
	}
	if changes[0].PlayerID != "b" || changes[0].Change != 0 {
		t.Errorf("lone rated change = %+v, want b with 0", changes[0])
	}

	changes = CalculateEloChanges([]PlayerStanding{
		{ID: "a", Elo: 1000, Placement: 1, IsGuest: true},
		{ID: "b", Elo: 1000, Placement: 2, IsGuest: true},
	})
	if len(changes) != 0 {
		t.Fatalf("all-guest match produced %d changes, want 0", len(changes))
	}
}

func TestEloThreePlayerPairwise(t *testing.T) {
	changes := CalculateEloChanges([]PlayerStanding{
		{ID: "a", Elo: 1000, Placement: 1},
		{ID: "b", Elo: 1000, Placement: 2},
		{ID: "c", Elo: 1000, Placement: 3},
	})

	if len(changes) != 3 {
		t.Fatalf("got %d changes, want 3", len(changes))
	}
	if first := findChange(t, changes, "a"); first.Change <= 0 {
		t.Errorf("1st place change = %d, want > 0", first.Change)
	}
	if third := findChange(t, changes, "c"); third.Change >= 0 {
		t.Errorf("3rd place change = %d, want < 0", third.Change)
	}
	if sumChanges(changes) != 0 {
		t.Errorf("changes sum to %d, want 0", sumChanges(changes))
	}
}

func TestEloFourPlayerRatingOrderFinish(t *testing.T) {
	changes := CalculateEloChanges([]PlayerStanding{
		{ID: "a", Elo: 1200, Placement: 1},
		{ID: "b", Elo: 1100, Placement: 2},
		{ID: "c", Elo: 1000, Placement: 3},
		{ID: "d", Elo: 900, Placement: 4},
	})

	if sumChanges(changes) != 0 {
		t.Fatalf("changes sum to %d, want 0", sumChanges(changes))
	}

	first := findChange(t, changes, "a")
	last := findChange(t, changes, "d")
	if first.Change <= 0 {
		t.Errorf("1st place change = %d, want > 0", first.Change)
	}
	if last.Change >= 0 {
		t.Errorf("4th place change = %d, want < 0", last.Change)
	}
	for _, other := range []string{"b", "c", "d"} {
		if c := findChange(t, changes, other); c.Change >= first.Change {
			t.Errorf("%s change %d >= 1st place change %d", other, c.Change, first.Change)
		}
		if c := findChange(t, changes, other); other != "d" && c.Change <= last.Change {
			t.Errorf("%s change %d <= 4th place change %d", other, c.Change, last.Change)
		}
	}
}

func TestEloFourPlayerMixedGuests(t *testing.T) {
	changes := CalculateEloChanges([]PlayerStanding{
		{ID: "a", Elo: 1000, Placement: 1},
		{ID: "b", Elo: 1000, Placement: 2, IsGuest: true},
		{ID: "c", Elo: 1000, Placement: 3},
		{ID: "d", Elo: 1000, Placement: 4, IsGuest: true},
	})

	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2 (rated only)", len(changes))
	}
	for _, c := range changes {
		if c.PlayerID == "b" || c.PlayerID == "d" {
			t.Errorf("guest %s received a change", c.PlayerID)
		}
	}
}

func TestEloFloorClampRecomputesChange(t *testing.T) {
	changes := CalculateEloChanges([]PlayerStanding{
		{ID: "a", Elo: 100, Placement: 1},
		{ID: "b", Elo: 5, Placement: 2},
	})

	loser := findChange(t, changes, "b")
	if loser.NewElo < 0 {
		t.Fatalf("newElo = %d, want >= 0", loser.NewElo)
	}
	if loser.NewElo != loser.OldElo+loser.Change {
		t.Errorf("clamped change inconsistent: %+v", loser)
	}
}

func TestEloPreservesOldAndNew(t *testing.T) {
	changes := CalculateEloChanges([]PlayerStanding{
		{ID: "a", Elo: 1200, Placement: 1},
		{ID: "b", Elo: 800, Placement: 2},
	})

	winner := findChange(t, changes, "a")
	if winner.OldElo != 1200 || winner.NewElo != 1200+winner.Change {
		t.Errorf("winner fields inconsistent: %+v", winner)
	}
}
