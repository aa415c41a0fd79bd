package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wordrun/wordrun-platform/internal/run"
)

// RunRepository persists durable run rows. The hot copy of an active run
// lives in Redis; these rows are the archive. Implements run.Store.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository wraps a pgx pool for run archival.
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// InsertRun writes a freshly started run.
func (r *RunRepository) InsertRun(ctx context.Context, rn *run.Run) error {
	usedWords, history, err := marshalRunBlobs(rn)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO runs (run_id, user_id, room_id, is_multiplayer, status,
			current_score, max_attempts, attempts_used, used_words, history,
			created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rn.ID, rn.UserID, rn.RoomID, rn.IsMultiplayer, rn.Status,
		rn.CurrentScore, rn.MaxAttempts, rn.AttemptsUsed, usedWords, history,
		rn.CreatedAt, rn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRun rewrites the mutable run columns after a transition.
func (r *RunRepository) UpdateRun(ctx context.Context, rn *run.Run) error {
	usedWords, history, err := marshalRunBlobs(rn)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE runs
		SET status = $2, current_score = $3, attempts_used = $4,
			used_words = $5, history = $6, updated_at = $7
		WHERE run_id = $1`,
		rn.ID, rn.Status, rn.CurrentScore, rn.AttemptsUsed,
		usedWords, history, rn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func marshalRunBlobs(rn *run.Run) (usedWords, history []byte, err error) {
	usedWords, err = json.Marshal(rn.UsedWords)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal used words: %w", err)
	}
	history, err = json.Marshal(rn.History)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal history: %w", err)
	}
	return usedWords, history, nil
}
