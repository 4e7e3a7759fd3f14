package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kwaczek/hry-portal/internal/domain"
)

type RatingRepository struct {
	db *pgxpool.Pool
}

func NewRatingRepository(db *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{db: db}
}

// GetByUserIDs loads the ratings for the given players in one round trip.
// Players without a row are simply absent from the result.
func (r *RatingRepository) GetByUserIDs(ctx context.Context, gameType string, userIDs []string) (map[string]domain.Rating, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, game_type, elo, games_played, wins, losses, win_streak, best_streak, updated_at
		FROM ratings
		WHERE game_type = $1 AND user_id = ANY($2)
	`, gameType, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]domain.Rating{}
	for rows.Next() {
		var rt domain.Rating
		if err := rows.Scan(
			&rt.UserID, &rt.GameType, &rt.Elo, &rt.GamesPlayed,
			&rt.Wins, &rt.Losses, &rt.WinStreak, &rt.BestStreak, &rt.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out[rt.UserID] = rt
	}
	return out, rows.Err()
}

// Upsert writes the full rating row, inserting on first contact.
func (r *RatingRepository) Upsert(ctx context.Context, rt domain.Rating) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO ratings (user_id, game_type, elo, games_played, wins, losses, win_streak, best_streak, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, game_type) DO UPDATE SET
			elo = EXCLUDED.elo,
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			win_streak = EXCLUDED.win_streak,
			best_streak = EXCLUDED.best_streak,
			updated_at = EXCLUDED.updated_at
	`, rt.UserID, rt.GameType, rt.Elo, rt.GamesPlayed, rt.Wins, rt.Losses, rt.WinStreak, rt.BestStreak, rt.UpdatedAt)
	return err
}

// Top returns the leaderboard for a game type, rated players only.
func (r *RatingRepository) Top(ctx context.Context, gameType string, minGames, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.user_id, COALESCE(u.username, ''), r.elo, r.games_played, r.wins, r.losses, r.best_streak
		FROM ratings r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.game_type = $1 AND r.games_played >= $2
		ORDER BY r.elo DESC, r.games_played DESC
		LIMIT $3
	`, gameType, minGames, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.LeaderboardEntry{}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Elo, &e.GamesPlayed, &e.Wins, &e.Losses, &e.BestStreak); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
