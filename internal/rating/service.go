package rating

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kwaczek/hry-portal/internal/domain"
	"github.com/kwaczek/hry-portal/internal/logger"
)

// RatingStore is the persistence contract for per-player ratings.
type RatingStore interface {
	GetByUserIDs(ctx context.Context, gameType string, userIDs []string) (map[string]domain.Rating, error)
	Upsert(ctx context.Context, r domain.Rating) error
}

// MatchStore records one row per finished match.
type MatchStore interface {
	Insert(ctx context.Context, result *domain.MatchResult) error
}

// Service converts finished matches into rating updates. A nil-store Service
// still computes display deltas from default ratings; the room never depends
// on persistence being available.
type Service struct {
	ratings RatingStore
	matches MatchStore
	log     *slog.Logger
}

func NewService(ratings RatingStore, matches MatchStore) *Service {
	return &Service{
		ratings: ratings,
		matches: matches,
		log:     logger.With("component", "rating"),
	}
}

// SaveMatchResult computes Elo changes for the match, persists the match row
// and the updated ratings, and returns the changes for broadcasting. If the
// current ratings cannot be read, all rated players get a zero change and
// nothing is written; the error is returned for logging only.
func (s *Service) SaveMatchResult(ctx context.Context, result *domain.MatchResult) ([]domain.EloChange, error) {
	ratedIDs := make([]string, 0, len(result.Players))
	for _, p := range result.Players {
		if !p.IsGuest {
			ratedIDs = append(ratedIDs, p.ID)
		}
	}

	current := map[string]domain.Rating{}
	if s.ratings != nil && len(ratedIDs) > 0 {
		var err error
		current, err = s.ratings.GetByUserIDs(ctx, result.GameType, ratedIDs)
		if err != nil {
			return s.zeroChanges(result), fmt.Errorf("read ratings: %w", err)
		}
	}

	standings := make([]PlayerStanding, 0, len(result.Players))
	for _, p := range result.Players {
		elo := domain.EloDefaultRating
		if r, ok := current[p.ID]; ok {
			elo = r.Elo
		}
		standings = append(standings, PlayerStanding{
			ID:        p.ID,
			Elo:       elo,
			Placement: p.Placement,
			IsGuest:   p.IsGuest,
		})
	}

	changes := CalculateEloChanges(standings)
	attachChanges(result, changes)

	if s.matches != nil {
		if err := s.matches.Insert(ctx, result); err != nil {
			s.log.Error("failed to insert match result", "room", result.RoomCode, "error", err)
		}
	}

	if s.ratings != nil {
		for _, change := range changes {
			s.upsertRating(ctx, result, change, current)
		}
	}

	return changes, nil
}

// attachChanges merges the computed deltas into the result before it is
// persisted, both as the summary list and per player, so the match history
// row carries them.
func attachChanges(result *domain.MatchResult, changes []domain.EloChange) {
	result.EloChanges = changes
	byID := make(map[string]int, len(changes))
	for _, ch := range changes {
		byID[ch.PlayerID] = ch.Change
	}
	for i := range result.Players {
		result.Players[i].EloChange = byID[result.Players[i].ID]
	}
}

func (s *Service) upsertRating(ctx context.Context, result *domain.MatchResult, change domain.EloChange, current map[string]domain.Rating) {
	var placement int
	for _, p := range result.Players {
		if p.ID == change.PlayerID {
			placement = p.Placement
			break
		}
	}
	isWinner := placement == 1

	rec, existed := current[change.PlayerID]
	if !existed {
		rec = domain.Rating{
			UserID:   change.PlayerID,
			GameType: result.GameType,
		}
	}

	rec.Elo = change.NewElo
	rec.GamesPlayed++
	if isWinner {
		rec.Wins++
		rec.WinStreak++
	} else {
		rec.Losses++
		rec.WinStreak = 0
	}
	if rec.WinStreak > rec.BestStreak {
		rec.BestStreak = rec.WinStreak
	}
	rec.UpdatedAt = time.Now()

	if err := s.ratings.Upsert(ctx, rec); err != nil {
		s.log.Error("failed to upsert rating", "player", change.PlayerID, "error", err)
	}
}

func (s *Service) zeroChanges(result *domain.MatchResult) []domain.EloChange {
	changes := make([]domain.EloChange, 0, len(result.Players))
	for _, p := range result.Players {
		if p.IsGuest {
			continue
		}
		changes = append(changes, domain.EloChange{
			PlayerID: p.ID,
			OldElo:   domain.EloDefaultRating,
			NewElo:   domain.EloDefaultRating,
			Change:   0,
		})
	}
	return changes
}
