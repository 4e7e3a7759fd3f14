// Package rating turns match placements into Elo updates and persists them.
package rating

import (
	"math"

	"github.com/kwaczek/hry-portal/internal/domain"
)

// PlayerStanding is one participant's input to the Elo calculation.
type PlayerStanding struct {
	ID        string
	Elo       int
	Placement int
	IsGuest   bool
}

// expectedScore is the standard Elo expectation:
// Ea = 1 / (1 + 10^((Rb-Ra)/400)).
func expectedScore(ratingA, ratingB int) float64 {
	return 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/400))
}

// CalculateEloChanges compares every unordered pair of rated players and sums
// the pairwise deltas per player. Guests get no change record at all. With
// fewer than two rated players there is nothing to compare against and all
// rated players get a zero change.
//
// For n rated players the pairwise K factor is K/(n-1), and each pair's
// deltas are forced to be exact negatives, so the grand total is always 0.
func CalculateEloChanges(players []PlayerStanding) []domain.EloChange {
	rated := make([]PlayerStanding, 0, len(players))
	for _, p := range players {
		if !p.IsGuest {
			rated = append(rated, p)
		}
	}

	if len(rated) <= 1 {
		changes := make([]domain.EloChange, 0, len(rated))
		for _, p := range rated {
			changes = append(changes, domain.EloChange{
				PlayerID: p.ID,
				OldElo:   p.Elo,
				NewElo:   p.Elo,
				Change:   0,
			})
		}
		return changes
	}

	k := float64(domain.EloKFactor) / float64(len(rated)-1)
	deltas := make(map[string]int, len(rated))

	for i := 0; i < len(rated); i++ {
		for j := i + 1; j < len(rated); j++ {
			a, b := rated[i], rated[j]

			ea := expectedScore(a.Elo, b.Elo)
			sa := 0.0
			if a.Placement < b.Placement { // lower placement finished better
				sa = 1.0
			}

			deltaA := int(math.Round(k * (sa - ea)))
			deltas[a.ID] += deltaA
			deltas[b.ID] -= deltaA
		}
	}

	changes := make([]domain.EloChange, 0, len(rated))
	for _, p := range rated {
		newElo := p.Elo + deltas[p.ID]
		if newElo < 0 {
			newElo = 0
		}
		changes = append(changes, domain.EloChange{
			PlayerID: p.ID,
			OldElo:   p.Elo,
			NewElo:   newElo,
			// recomputed so the reported delta stays consistent with the floor
			Change: newElo - p.Elo,
		})
	}
	return changes
}
