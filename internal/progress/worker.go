package progress

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SnapshotWorker periodically rebuilds the Redis record mirror from the
// database, so a flushed or restarted Redis converges back to truth.
type SnapshotWorker struct {
	service  *Service
	interval time.Duration
	topN     int
	logger   zerolog.Logger
}

// NewSnapshotWorker constructs the worker.
func NewSnapshotWorker(service *Service, interval time.Duration, topN int, logger zerolog.Logger) *SnapshotWorker {
	if topN <= 0 {
		topN = 50
	}
	return &SnapshotWorker{
		service:  service,
		interval: interval,
		topN:     topN,
		logger:   logger.With().Str("component", "record_snapshot").Logger(),
	}
}

// Run loops until the context is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.snapshot(ctx); err != nil {
				w.logger.Warn().Err(err).Msg("record snapshot failed")
			}
		}
	}
}

func (w *SnapshotWorker) snapshot(ctx context.Context) error {
	rows, err := w.service.store.TopRecords(ctx, w.topN)
	if err != nil {
		return err
	}

	for _, row := range rows {
		member := row.UserID.String()
		if err := w.service.redis.ZAddGT(ctx, w.service.recordsKey(), redis.Z{
			Score:  float64(row.Record),
			Member: member,
		}).Err(); err != nil {
			return err
		}
		if err := w.service.redis.HSet(ctx, w.service.namesKey(), member, row.Username).Err(); err != nil {
			return err
		}
	}

	w.logger.Debug().Int("rows", len(rows)).Msg("record mirror refreshed")
	return nil
}
