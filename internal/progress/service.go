// Package progress tracks per-user infinite-run progress and the
// all-time record high-water mark.
package progress

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Update carries a progress change for a terminal or in-flight run transition.
type Update struct {
	Status       string // "active", "failed" or "completed"
	CurrentScore int
	Record       int // score achieved; applied as a monotone max, never decreases
}

// Row is a user's persisted progress state.
type Row struct {
	UserID       uuid.UUID
	Username     string
	Status       string
	CurrentScore int
	Record       int
}

// Entry is one record-list line sent to clients.
type Entry struct {
	Rank     int       `json:"rank"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Record   int       `json:"record"`
}

// Store persists progress durably.
type Store interface {
	// ApplyProgress writes status/score and raises the record to at
	// least the given value, returning the resulting row.
	ApplyProgress(ctx context.Context, userID uuid.UUID, update Update) (Row, error)
	// TopRecords returns the highest records, descending.
	TopRecords(ctx context.Context, limit int) ([]Row, error)
}

// ServiceOptions configures the progress service.
type ServiceOptions struct {
	RedisKeyPrefix string
	TopN           int
}

// Service mirrors durable progress into a Redis sorted set so record
// lookups avoid the database on the hot path.
type Service struct {
	store  Store
	redis  *redis.Client
	logger zerolog.Logger
	prefix string
	topN   int
}

// NewService constructs a progress service.
func NewService(store Store, redisClient *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "records"
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	return &Service{
		store:  store,
		redis:  redisClient,
		logger: logger.With().Str("component", "progress").Logger(),
		prefix: prefix,
		topN:   topN,
	}
}

// UpdateProgress applies a run transition to a user's persisted progress.
// The record only ever goes up; the database applies the max so two
// racing updates cannot lower it.
func (s *Service) UpdateProgress(ctx context.Context, userID uuid.UUID, update Update) error {
	row, err := s.store.ApplyProgress(ctx, userID, update)
	if err != nil {
		return fmt.Errorf("apply progress: %w", err)
	}

	if s.redis != nil {
		if err := s.mirrorRecord(ctx, row); err != nil {
			// Redis is a cache here; the snapshot worker repairs drift.
			s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to mirror record")
		}
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("status", update.Status).
		Int("current_score", update.CurrentScore).
		Int("record", row.Record).
		Msg("progress updated")
	return nil
}

// TopRecords returns the highest records from the Redis mirror, falling
// back to the database when the mirror is empty.
func (s *Service) TopRecords(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	if s.redis != nil {
		entries, err := s.topFromRedis(ctx, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("record mirror read failed; falling back to db")
		}
	}

	rows, err := s.store.TopRecords(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top records: %w", err)
	}
	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = Entry{Rank: i + 1, UserID: row.UserID, Username: row.Username, Record: row.Record}
	}
	return entries, nil
}

func (s *Service) mirrorRecord(ctx context.Context, row Row) error {
	member := row.UserID.String()
	if err := s.redis.ZAddGT(ctx, s.recordsKey(), redis.Z{
		Score:  float64(row.Record),
		Member: member,
	}).Err(); err != nil {
		return err
	}
	return s.redis.HSet(ctx, s.namesKey(), member, row.Username).Err()
}

func (s *Service) topFromRedis(ctx context.Context, limit int) ([]Entry, error) {
	members, err := s.redis.ZRevRangeWithScores(ctx, s.recordsKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(members))
	for i, z := range members {
		memberID, ok := z.Member.(string)
		if !ok {
			continue
		}
		userID, err := uuid.Parse(memberID)
		if err != nil {
			continue
		}
		username, _ := s.redis.HGet(ctx, s.namesKey(), memberID).Result()
		entries = append(entries, Entry{
			Rank:     i + 1,
			UserID:   userID,
			Username: username,
			Record:   int(z.Score),
		})
	}
	return entries, nil
}

func (s *Service) recordsKey() string { return s.prefix + ":alltime" }
func (s *Service) namesKey() string   { return s.prefix + ":names" }
