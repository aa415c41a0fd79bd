package run

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSoloFixture(script []string, extraAllowed ...string) (*SoloService, *stubProgress) {
	sink := newStubProgress()
	svc := NewSoloService(SoloOptions{
		State:       newMemoryState(),
		Store:       &stubRunStore{},
		Words:       newScriptedWords(script, extraAllowed...),
		Progress:    sink,
		Logger:      zerolog.New(io.Discard),
		MaxAttempts: 4,
	})
	return svc, sink
}

func TestSoloStartIsIdempotent(t *testing.T) {
	svc, _ := newSoloFixture([]string{"CRANE", "SLATE"})
	userID := uuid.New()

	first, err := svc.Start(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, first.Status)
	assert.Equal(t, 4, first.MaxAttempts)
	assert.Equal(t, "CRANE", first.TargetWord)

	second, err := svc.Start(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TargetWord, second.TargetWord)
}

func TestSoloExhaustedAttemptsFailsRun(t *testing.T) {
	svc, sink := newSoloFixture([]string{"CRANE"}, "STONE", "SLATE", "HOUSE", "MOUSE")
	userID := uuid.New()
	_, err := svc.Start(context.Background(), userID)
	require.NoError(t, err)

	for _, w := range []string{"STONE", "SLATE", "HOUSE"} {
		result, err := svc.SubmitGuess(context.Background(), userID, w)
		require.NoError(t, err)
		assert.False(t, result.IsCorrect)
		assert.False(t, result.IsGameOver)
	}

	result, err := svc.SubmitGuess(context.Background(), userID, "MOUSE")
	require.NoError(t, err)
	assert.True(t, result.IsGameOver)
	assert.False(t, result.IsCorrect)
	assert.Equal(t, 0, result.FinalScore)
	assert.Equal(t, "CRANE", result.CorrectWord)

	run := result.Run
	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, 0, run.CurrentScore)
	require.Len(t, run.History, 1)
	assert.Equal(t, ResultLost, run.History[0].Result)
	assert.Equal(t, "CRANE", run.History[0].Word)
	assert.Equal(t, 4, run.History[0].AttemptsUsed)
	require.Len(t, run.History[0].Guesses, 4)
	assert.Equal(t, []string{"CRANE"}, run.UsedWords, "lost word is archived")

	// Terminal run is gone; the next start deals fresh.
	_, err = svc.Get(context.Background(), userID)
	assert.True(t, IsKind(err, KindNotFound))

	last, ok := sink.last(userID)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, last.Status)
	assert.Equal(t, 0, last.CurrentScore)
	assert.Equal(t, 0, last.Record)
}

func TestSoloWinsAccumulateScore(t *testing.T) {
	svc, sink := newSoloFixture([]string{"CRANE", "SLATE", "HOUSE"})
	userID := uuid.New()
	_, err := svc.Start(context.Background(), userID)
	require.NoError(t, err)

	first, err := svc.SubmitGuess(context.Background(), userID, "CRANE")
	require.NoError(t, err)
	assert.True(t, first.IsCorrect)
	assert.False(t, first.IsGameOver)
	assert.Equal(t, 1, first.Run.CurrentScore)
	assert.Equal(t, "SLATE", first.Run.TargetWord)
	assert.Equal(t, 0, first.Run.AttemptsUsed, "attempt counter resets per word")
	assert.Empty(t, first.Run.CurrentGuesses)

	second, err := svc.SubmitGuess(context.Background(), userID, "SLATE")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Run.CurrentScore)
	require.Len(t, second.Run.History, 2)
	assert.Equal(t, 1, second.Run.History[0].Order)
	assert.Equal(t, 2, second.Run.History[1].Order)

	last, ok := sink.last(userID)
	require.True(t, ok)
	assert.Equal(t, 2, last.Record)
}

func TestSoloPoolExhaustionCompletesRun(t *testing.T) {
	svc, sink := newSoloFixture([]string{"CRANE"})
	userID := uuid.New()
	_, err := svc.Start(context.Background(), userID)
	require.NoError(t, err)

	result, err := svc.SubmitGuess(context.Background(), userID, "CRANE")
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.True(t, result.IsGameOver)
	assert.Equal(t, 1, result.FinalScore)
	assert.Equal(t, 1, result.TotalWords)
	assert.Equal(t, StatusCompleted, result.Run.Status)
	assert.Empty(t, result.Run.TargetWord)

	// The achieved score lives on only as the record.
	last, ok := sink.last(userID)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, last.Status)
	assert.Equal(t, 0, last.CurrentScore)
	assert.Equal(t, 1, last.Record)
}

func TestSoloGuessValidation(t *testing.T) {
	svc, _ := newSoloFixture([]string{"CRANE"}, "STONE")
	userID := uuid.New()

	_, err := svc.SubmitGuess(context.Background(), userID, "STONE")
	assert.True(t, IsKind(err, KindNotFound), "no run yet")

	_, err = svc.Start(context.Background(), userID)
	require.NoError(t, err)

	_, err = svc.SubmitGuess(context.Background(), userID, "")
	assert.True(t, IsKind(err, KindInvalidInput))

	_, err = svc.SubmitGuess(context.Background(), userID, "CAT")
	assert.True(t, IsKind(err, KindInvalidInput))

	_, err = svc.SubmitGuess(context.Background(), userID, "ZZZZZ")
	assert.True(t, IsKind(err, KindInvalidInput), "not in dictionary")

	_, err = svc.SubmitGuess(context.Background(), userID, "STONE")
	require.NoError(t, err)

	_, err = svc.SubmitGuess(context.Background(), userID, "stone")
	assert.True(t, IsKind(err, KindConflict), "duplicate after normalization")

	run, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, run.AttemptsUsed, "rejected guesses consume no attempts")
}

func TestSoloAbandon(t *testing.T) {
	svc, sink := newSoloFixture([]string{"CRANE", "SLATE"})
	userID := uuid.New()
	_, err := svc.Start(context.Background(), userID)
	require.NoError(t, err)

	_, err = svc.SubmitGuess(context.Background(), userID, "CRANE")
	require.NoError(t, err)

	result, err := svc.Abandon(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, result.IsGameOver)
	assert.Equal(t, 1, result.FinalScore, "score achieved before abandoning")
	assert.Equal(t, StatusFailed, result.Run.Status)
	require.Len(t, result.Run.History, 2)
	assert.Equal(t, ResultLost, result.Run.History[1].Result)
	assert.Equal(t, "SLATE", result.Run.History[1].Word)
	assert.Equal(t, []string{"CRANE", "SLATE"}, result.Run.UsedWords)

	last, ok := sink.last(userID)
	require.True(t, ok)
	assert.Equal(t, 1, last.Record)

	_, err = svc.Abandon(context.Background(), userID)
	assert.True(t, IsKind(err, KindNotFound))
}
