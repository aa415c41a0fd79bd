package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wordrun/wordrun-platform/internal/run"
)

// RoomRepository archives room lifecycles. Implements run.RoomStore.
type RoomRepository struct {
	pool *pgxpool.Pool
}

// NewRoomRepository wraps a pgx pool for room archival.
func NewRoomRepository(pool *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

// InsertRoom writes a freshly created room.
func (r *RoomRepository) InsertRoom(ctx context.Context, room *run.Room) error {
	players, err := json.Marshal(room.Players)
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO rooms (room_id, created_by, status, games_played,
			current_run_id, players, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		room.RoomID, room.CreatedBy, room.Status, room.GamesPlayed,
		nullableRunID(room.CurrentRunID), players, room.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// UpdateRoom rewrites the mutable room columns.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room *run.Room) error {
	players, err := json.Marshal(room.Players)
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE rooms
		SET status = $2, games_played = $3, current_run_id = $4,
			players = $5, updated_at = now()
		WHERE room_id = $1`,
		room.RoomID, room.Status, room.GamesPlayed,
		nullableRunID(room.CurrentRunID), players)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

func nullableRunID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
