package domain

import "time"

const (
	EloDefaultRating          = 1000
	EloKFactor                = 32
	EloMinGamesForLeaderboard = 5
)

// Rating is the per (player, game) skill record.
type Rating struct {
	UserID      string    `json:"userId"`
	GameType    string    `json:"gameType"`
	Elo         int       `json:"elo"`
	GamesPlayed int       `json:"gamesPlayed"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	WinStreak   int       `json:"winStreak"`
	BestStreak  int       `json:"bestStreak"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EloChange is one player's rating delta from a finished match.
type EloChange struct {
	PlayerID string `json:"playerId"`
	OldElo   int    `json:"oldElo"`
	NewElo   int    `json:"newElo"`
	Change   int    `json:"change"`
}

// LeaderboardEntry is a single row of the public ranking.
type LeaderboardEntry struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	Elo         int    `json:"elo"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	BestStreak  int    `json:"bestStreak"`
}
