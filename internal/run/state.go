package run

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	lockTTL = 30 * time.Second

	// Coop runs die with their room; solo runs survive client absence.
	coopRunTTL = 12 * time.Hour
)

// StateManager keeps hot run state in Redis with atomic per-scope locks.
type StateManager struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewStateManager creates a state manager backed by Redis.
func NewStateManager(redisClient *redis.Client, logger zerolog.Logger) *StateManager {
	return &StateManager{
		redis:  redisClient,
		logger: logger,
	}
}

// Lock acquires a distributed lock for run state transitions within a scope.
// Returns unlock function and error. Lock expires after 30s.
func (s *StateManager) Lock(ctx context.Context, scope string) (func() error, error) {
	key := fmt.Sprintf("run:lock:%s", scope)
	lockValue := uuid.New().String()

	acquired, err := s.redis.SetNX(ctx, key, lockValue, lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return nil, Errorf(KindConflict, "another operation is in progress")
	}

	unlock := func() error {
		// Lua script ensures we only delete our own lock
		script := `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			else
				return 0
			end
		`
		return s.redis.Eval(ctx, script, []string{key}, lockValue).Err()
	}

	return unlock, nil
}

// GetSoloRun loads a user's solo run. Returns nil when none exists.
func (s *StateManager) GetSoloRun(ctx context.Context, userID uuid.UUID) (*Run, error) {
	return s.getRun(ctx, soloKey(userID))
}

// SaveSoloRun stores a user's solo run. Terminal runs are removed so the
// next start yields a fresh one. Solo runs never expire on their own.
func (s *StateManager) SaveSoloRun(ctx context.Context, run *Run) error {
	key := soloKey(run.UserID)
	if run.IsTerminal() {
		return s.redis.Del(ctx, key).Err()
	}
	return s.saveRun(ctx, key, run, 0)
}

// GetCoopRun loads the run attached to a room. Returns nil when none exists.
func (s *StateManager) GetCoopRun(ctx context.Context, roomID string) (*Run, error) {
	return s.getRun(ctx, coopKey(roomID))
}

// SaveCoopRun stores a room's run. Terminal coop runs stay readable until
// the TTL fires so late room events can still render the final board.
func (s *StateManager) SaveCoopRun(ctx context.Context, run *Run) error {
	return s.saveRun(ctx, coopKey(run.RoomID), run, coopRunTTL)
}

// DeleteCoopRun drops a room's run, used when the room itself is torn down.
func (s *StateManager) DeleteCoopRun(ctx context.Context, roomID string) error {
	return s.redis.Del(ctx, coopKey(roomID)).Err()
}

func (s *StateManager) getRun(ctx context.Context, key string) (*Run, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("corrupted run state")
		return nil, Errorf(KindStateCorruption, "run state is unreadable")
	}
	return &run, nil
}

func (s *StateManager) saveRun(ctx context.Context, key string, run *Run, ttl time.Duration) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	return s.redis.Set(ctx, key, data, ttl).Err()
}

func soloKey(userID uuid.UUID) string { return fmt.Sprintf("run:solo:%s", userID.String()) }
func coopKey(roomID string) string    { return fmt.Sprintf("run:coop:%s", roomID) }
