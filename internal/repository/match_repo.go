// Package repository holds the Postgres persistence layer.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kwaczek/hry-portal/internal/domain"
)

type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// Insert records one finished match. Participants travel as a JSONB blob, the
// match history is read back whole and never queried per player column.
func (r *MatchRepository) Insert(ctx context.Context, result *domain.MatchResult) error {
	players, err := json.Marshal(result.Players)
	if err != nil {
		return fmt.Errorf("marshal match players: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO matches (game_type, room_code, rule_variant, duration_sec, players, finished_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, result.GameType, result.RoomCode, result.RuleVariant, result.DurationSec, players)
	return err
}
