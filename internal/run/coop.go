package run

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wordrun/wordrun-platform/internal/progress"
)

// CoopService drives two-player shared runs. Players alternate guesses on
// one shared board; turn ownership is derived from the room's game count
// and the attempt number. All mutations execute under a per-room lock.
type CoopService struct {
	engine
	store       Store
	rooms       *RoomManager
	maxAttempts int
}

// CoopOptions configures the coop engine.
type CoopOptions struct {
	State       StateStore
	Store       Store
	Words       WordSource
	Progress    ProgressSink
	Rooms       *RoomManager
	Logger      zerolog.Logger
	MaxAttempts int
}

// NewCoopService creates the coop run engine.
func NewCoopService(opts CoopOptions) *CoopService {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &CoopService{
		engine: engine{
			state:    opts.State,
			words:    opts.Words,
			progress: opts.Progress,
			logger:   opts.Logger,
		},
		store:       opts.Store,
		rooms:       opts.Rooms,
		maxAttempts: maxAttempts,
	}
}

// Rooms exposes the room registry for membership operations.
func (s *CoopService) Rooms() *RoomManager { return s.rooms }

// Start deals the first word for a full room. Calling it again while a
// run is live returns the existing run.
func (s *CoopService) Start(ctx context.Context, roomID string) (*Run, *Room, error) {
	unlock, err := s.state.Lock(ctx, coopScope(roomID))
	if err != nil {
		return nil, nil, err
	}
	defer s.unlockQuietly(unlock)

	room, err := s.rooms.GetRoom(roomID)
	if err != nil {
		return nil, nil, err
	}
	if room.Status != RoomStatusPlaying || len(room.Players) < roomMaxPlayers {
		return nil, nil, Errorf(KindConflict, "room %s is not ready to play", roomID)
	}

	existing, err := s.state.GetCoopRun(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil && existing.Status == StatusActive {
		return existing, room, nil
	}

	target, ok := s.words.Pick(nil)
	if !ok {
		return nil, nil, Errorf(KindStateCorruption, "word pool is empty")
	}

	now := time.Now().UTC()
	run := &Run{
		ID:            uuid.New(),
		UserID:        room.Players[0].UserID,
		Status:        StatusActive,
		MaxAttempts:   s.maxAttempts,
		TargetWord:    target,
		UsedWords:     []string{target},
		CreatedAt:     now,
		UpdatedAt:     now,
		RoomID:        roomID,
		IsMultiplayer: true,
	}
	turn := room.TurnPlayer(1)
	run.CurrentTurnPlayerID = &turn.UserID

	if err := s.state.SaveCoopRun(ctx, run); err != nil {
		return nil, nil, err
	}
	if err := s.store.InsertRun(ctx, run); err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID.String()).Msg("persist run failed")
	}
	room, err = s.rooms.MarkPlaying(ctx, roomID, run.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Str("run_id", run.ID.String()).
		Str("room_id", roomID).
		Msg("coop run started")
	return run, room, nil
}

// Get returns the room's live run.
func (s *CoopService) Get(ctx context.Context, roomID string) (*Run, error) {
	run, err := s.state.GetCoopRun(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, Errorf(KindNotFound, "no active run for room %s", roomID)
	}
	return run, nil
}

// SubmitGuess scores a guess from userID if it is their turn.
func (s *CoopService) SubmitGuess(ctx context.Context, roomID string, userID uuid.UUID, rawGuess string) (*Result, *Room, error) {
	unlock, err := s.state.Lock(ctx, coopScope(roomID))
	if err != nil {
		return nil, nil, err
	}
	defer s.unlockQuietly(unlock)

	room, err := s.rooms.GetRoom(roomID)
	if err != nil {
		return nil, nil, err
	}
	if !room.HasPlayer(userID) {
		return nil, nil, Errorf(KindForbidden, "not a member of room %s", roomID)
	}

	run, err := s.state.GetCoopRun(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if run == nil || run.IsTerminal() {
		return nil, nil, Errorf(KindNotFound, "no active run for room %s", roomID)
	}

	attemptNumber := run.AttemptsUsed + 1
	if !room.IsPlayerTurn(userID, attemptNumber) {
		turn := room.TurnPlayer(attemptNumber)
		return nil, nil, Errorf(KindForbidden, "it is %s's turn", turn.Username)
	}

	word, err := s.validateGuess(run, rawGuess)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.applyGuess(run, word, &userID)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case result.IsCorrect && !result.IsGameOver:
		// Word won, next word dealt. The game counter flips parity so
		// the other player opens the new word.
		room, err = s.rooms.MarkGameWon(ctx, roomID)
		if err != nil {
			return nil, nil, err
		}
		turn := room.TurnPlayer(1)
		run.CurrentTurnPlayerID = &turn.UserID
	case result.IsGameOver:
		run.CurrentTurnPlayerID = nil
		if result.IsCorrect {
			if _, err = s.rooms.MarkGameWon(ctx, roomID); err != nil {
				return nil, nil, err
			}
		}
		room, err = s.rooms.CloseRoom(ctx, roomID)
		if err != nil {
			return nil, nil, err
		}
	default:
		turn := room.TurnPlayer(run.AttemptsUsed + 1)
		run.CurrentTurnPlayerID = &turn.UserID
	}

	if err := s.state.SaveCoopRun(ctx, run); err != nil {
		return nil, nil, err
	}
	if err := s.store.UpdateRun(ctx, run); err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID.String()).Msg("persist run failed")
	}
	s.reportRoomProgress(ctx, room, run, result)
	return result, room, nil
}

// Abandon ends the room's run on behalf of userID. The shared board
// counts as lost for both players and the room closes.
func (s *CoopService) Abandon(ctx context.Context, roomID string, userID uuid.UUID) (*Result, *Room, error) {
	unlock, err := s.state.Lock(ctx, coopScope(roomID))
	if err != nil {
		return nil, nil, err
	}
	defer s.unlockQuietly(unlock)

	room, err := s.rooms.GetRoom(roomID)
	if err != nil {
		return nil, nil, err
	}
	if !room.HasPlayer(userID) {
		return nil, nil, Errorf(KindForbidden, "not a member of room %s", roomID)
	}

	run, err := s.state.GetCoopRun(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if run == nil || run.IsTerminal() {
		return nil, nil, Errorf(KindNotFound, "no active run for room %s", roomID)
	}

	result := s.failRun(run)
	run.CurrentTurnPlayerID = nil

	if err := s.state.SaveCoopRun(ctx, run); err != nil {
		return nil, nil, err
	}
	if err := s.store.UpdateRun(ctx, run); err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID.String()).Msg("persist run failed")
	}
	room, err = s.rooms.CloseRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	s.reportRoomProgress(ctx, room, run, result)

	s.logger.Info().
		Str("run_id", run.ID.String()).
		Str("room_id", roomID).
		Str("user_id", userID.String()).
		Msg("coop run abandoned")
	return result, room, nil
}

// RequestRematch casts userID's rematch vote. When both players agree a
// fresh room with swapped seats starts playing immediately.
func (s *CoopService) RequestRematch(ctx context.Context, roomID string, userID uuid.UUID) (*Room, *Run, error) {
	_, next, err := s.rooms.RequestRematch(ctx, roomID, userID)
	if err != nil {
		return nil, nil, err
	}
	if next == nil {
		return nil, nil, nil
	}
	// The old room is gone; its terminal run blob can go with it.
	if err := s.state.DeleteCoopRun(ctx, roomID); err != nil {
		s.logger.Warn().Err(err).Str("room_id", roomID).Msg("delete finished coop run failed")
	}
	run, next, err := s.Start(ctx, next.RoomID)
	if err != nil {
		return nil, nil, err
	}
	return next, run, nil
}

// DeclineRematch clears all rematch votes in the room.
func (s *CoopService) DeclineRematch(ctx context.Context, roomID string, userID uuid.UUID) (*Room, error) {
	return s.rooms.DeclineRematch(ctx, roomID, userID)
}

// reportRoomProgress mirrors the run outcome onto every seat. Both
// players share the board, so both share the score and the record.
func (s *CoopService) reportRoomProgress(ctx context.Context, room *Room, run *Run, result *Result) {
	update := progress.Update{
		Status:       run.Status,
		CurrentScore: run.CurrentScore,
		Record:       run.CurrentScore,
	}
	if result.IsGameOver {
		// A terminal run has no live score; the achieved score survives
		// only as the record high-water mark.
		update.CurrentScore = 0
		update.Record = result.FinalScore
	}
	for _, player := range room.Players {
		s.updateProgress(ctx, player.UserID, update)
	}
}

func coopScope(roomID string) string { return fmt.Sprintf("coop:%s", roomID) }
