package run

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wordrun/wordrun-platform/internal/progress"
)

// SoloService drives single-player runs. All mutations execute under a
// per-user distributed lock so concurrent requests from the same account
// serialize.
type SoloService struct {
	engine
	store       Store
	maxAttempts int
}

// SoloOptions configures the solo engine.
type SoloOptions struct {
	State       StateStore
	Store       Store
	Words       WordSource
	Progress    ProgressSink
	Logger      zerolog.Logger
	MaxAttempts int
}

// NewSoloService creates the solo run engine.
func NewSoloService(opts SoloOptions) *SoloService {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	return &SoloService{
		engine: engine{
			state:    opts.State,
			words:    opts.Words,
			progress: opts.Progress,
			logger:   opts.Logger,
		},
		store:       opts.Store,
		maxAttempts: maxAttempts,
	}
}

// Start returns the user's active run, creating one if none exists.
// Calling it twice is safe and never resets progress.
func (s *SoloService) Start(ctx context.Context, userID uuid.UUID) (*Run, error) {
	unlock, err := s.state.Lock(ctx, soloScope(userID))
	if err != nil {
		return nil, err
	}
	defer s.unlockQuietly(unlock)

	existing, err := s.state.GetSoloRun(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == StatusActive {
		return existing, nil
	}

	target, ok := s.words.Pick(nil)
	if !ok {
		return nil, Errorf(KindStateCorruption, "word pool is empty")
	}

	now := time.Now().UTC()
	run := &Run{
		ID:          uuid.New(),
		UserID:      userID,
		Status:      StatusActive,
		MaxAttempts: s.maxAttempts,
		TargetWord:  target,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.state.SaveSoloRun(ctx, run); err != nil {
		return nil, err
	}
	if err := s.store.InsertRun(ctx, run); err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID.String()).Msg("persist run failed")
	}
	s.updateProgress(ctx, run.UserID, progress.Update{Status: StatusActive})

	s.logger.Info().
		Str("run_id", run.ID.String()).
		Str("user_id", userID.String()).
		Msg("solo run started")
	return run, nil
}

// Get returns the user's active run.
func (s *SoloService) Get(ctx context.Context, userID uuid.UUID) (*Run, error) {
	run, err := s.state.GetSoloRun(ctx, userID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, Errorf(KindNotFound, "no active run")
	}
	return run, nil
}

// SubmitGuess scores one guess against the current target word and
// advances the run.
func (s *SoloService) SubmitGuess(ctx context.Context, userID uuid.UUID, rawGuess string) (*Result, error) {
	unlock, err := s.state.Lock(ctx, soloScope(userID))
	if err != nil {
		return nil, err
	}
	defer s.unlockQuietly(unlock)

	run, err := s.state.GetSoloRun(ctx, userID)
	if err != nil {
		return nil, err
	}
	if run == nil || run.IsTerminal() {
		return nil, Errorf(KindNotFound, "no active run")
	}

	word, err := s.validateGuess(run, rawGuess)
	if err != nil {
		return nil, err
	}

	result, err := s.applyGuess(run, word, nil)
	if err != nil {
		return nil, err
	}

	if err := s.state.SaveSoloRun(ctx, run); err != nil {
		return nil, err
	}
	if err := s.store.UpdateRun(ctx, run); err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID.String()).Msg("persist run failed")
	}
	s.reportProgress(ctx, run, result)
	return result, nil
}

// Abandon ends the run immediately. The in-flight word counts as lost.
func (s *SoloService) Abandon(ctx context.Context, userID uuid.UUID) (*Result, error) {
	unlock, err := s.state.Lock(ctx, soloScope(userID))
	if err != nil {
		return nil, err
	}
	defer s.unlockQuietly(unlock)

	run, err := s.state.GetSoloRun(ctx, userID)
	if err != nil {
		return nil, err
	}
	if run == nil || run.IsTerminal() {
		return nil, Errorf(KindNotFound, "no active run")
	}

	result := s.failRun(run)

	if err := s.state.SaveSoloRun(ctx, run); err != nil {
		return nil, err
	}
	if err := s.store.UpdateRun(ctx, run); err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID.String()).Msg("persist run failed")
	}
	s.reportProgress(ctx, run, result)

	s.logger.Info().
		Str("run_id", run.ID.String()).
		Int("final_score", result.FinalScore).
		Msg("solo run abandoned")
	return result, nil
}

func soloScope(userID uuid.UUID) string { return fmt.Sprintf("solo:%s", userID.String()) }
