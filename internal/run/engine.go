package run

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wordrun/wordrun-platform/internal/progress"
	"github.com/wordrun/wordrun-platform/internal/run/guess"
	"github.com/wordrun/wordrun-platform/internal/words"
)

// engine holds the guess pipeline shared by the solo and coop services.
type engine struct {
	state    StateStore
	words    WordSource
	progress ProgressSink
	logger   zerolog.Logger
}

// validateGuess normalizes and checks a raw guess against the run.
func (e *engine) validateGuess(run *Run, rawGuess string) (string, error) {
	word := words.Normalize(rawGuess)
	if word == "" {
		return "", Errorf(KindInvalidInput, "guess is empty")
	}
	if run.TargetWord == "" {
		return "", Errorf(KindStateCorruption, "run has no target word")
	}
	if len(word) != len(run.TargetWord) {
		return "", Errorf(KindInvalidInput, "guess must be %d letters", len(run.TargetWord))
	}
	if run.HasGuessed(word) {
		return "", Errorf(KindConflict, "word %s was already guessed", word)
	}
	if !e.words.IsAllowed(word) {
		return "", Errorf(KindInvalidInput, "word %s is not in the dictionary", word)
	}
	return word, nil
}

// applyGuess scores the guess and mutates the run through exactly one
// transition. playerID is non-nil for coop guesses.
func (e *engine) applyGuess(run *Run, word string, playerID *uuid.UUID) (*Result, error) {
	eval, err := guess.Evaluate(word, run.TargetWord)
	if err != nil {
		return nil, Errorf(KindStateCorruption, "evaluate guess: %v", err)
	}

	run.AttemptsUsed++
	record := GuessRecord{
		AttemptNumber: run.AttemptsUsed,
		GuessWord:     word,
		Pattern:       eval.Pattern,
		PlayerID:      playerID,
		CreatedAt:     time.Now().UTC(),
	}
	run.CurrentGuesses = append(run.CurrentGuesses, record)
	run.UpdatedAt = record.CreatedAt

	result := &Result{
		Run:        run,
		Guess:      &record,
		IsCorrect:  eval.IsCorrect,
		TotalWords: e.words.Total(),
	}
	guessesEvaluated.WithLabelValues(runMode(run), strconv.FormatBool(eval.IsCorrect)).Inc()

	switch {
	case eval.IsCorrect:
		e.completeWord(run)
		if run.Status == StatusCompleted {
			result.IsGameOver = true
			result.FinalScore = run.CurrentScore
		}
	case run.AttemptsUsed >= run.MaxAttempts:
		failed := e.failRun(run)
		result.IsGameOver = true
		result.FinalScore = failed.FinalScore
		result.CorrectWord = failed.CorrectWord
	}
	return result, nil
}

// completeWord archives the won word, bumps the score and picks the next
// target. An exhausted pool completes the run.
func (e *engine) completeWord(run *Run) {
	now := time.Now().UTC()
	run.History = append(run.History, HistoryEntry{
		Order:        len(run.History) + 1,
		Word:         run.TargetWord,
		Result:       ResultWon,
		AttemptsUsed: run.AttemptsUsed,
		Guesses:      run.CurrentGuesses,
		FinishedAt:   now,
	})
	if !run.hasUsedWord(run.TargetWord) {
		run.UsedWords = append(run.UsedWords, run.TargetWord)
	}
	run.CurrentScore++
	run.AttemptsUsed = 0
	run.CurrentGuesses = nil
	run.UpdatedAt = now

	next, ok := e.words.Pick(run.usedWordSet())
	if !ok {
		run.Status = StatusCompleted
		run.TargetWord = ""
		runsFinished.WithLabelValues(runMode(run), run.Status).Inc()
		e.logger.Info().
			Str("run_id", run.ID.String()).
			Int("final_score", run.CurrentScore).
			Msg("word pool exhausted, run completed")
		return
	}
	run.TargetWord = next
	// Coop runs track the live word as used from the moment it is dealt.
	if run.IsMultiplayer {
		run.UsedWords = append(run.UsedWords, next)
	}
}

// failRun transitions the run to failed. The in-flight word is archived
// as lost and the live score resets to zero; the score achieved is
// returned for record keeping.
func (e *engine) failRun(run *Run) *Result {
	now := time.Now().UTC()
	correctWord := run.TargetWord
	if run.TargetWord != "" {
		run.History = append(run.History, HistoryEntry{
			Order:        len(run.History) + 1,
			Word:         run.TargetWord,
			Result:       ResultLost,
			AttemptsUsed: run.AttemptsUsed,
			Guesses:      run.CurrentGuesses,
			FinishedAt:   now,
		})
		if !run.hasUsedWord(run.TargetWord) {
			run.UsedWords = append(run.UsedWords, run.TargetWord)
		}
	}
	finalScore := run.CurrentScore
	run.Status = StatusFailed
	run.CurrentScore = 0
	run.TargetWord = ""
	run.AttemptsUsed = 0
	run.CurrentGuesses = nil
	run.UpdatedAt = now
	runsFinished.WithLabelValues(runMode(run), run.Status).Inc()

	return &Result{
		Run:         run,
		IsGameOver:  true,
		FinalScore:  finalScore,
		TotalWords:  e.words.Total(),
		CorrectWord: correctWord,
	}
}

func (e *engine) reportProgress(ctx context.Context, run *Run, result *Result) {
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
	e.updateProgress(ctx, run.UserID, update)
}

func (e *engine) updateProgress(ctx context.Context, userID uuid.UUID, update progress.Update) {
	if err := e.progress.UpdateProgress(ctx, userID, update); err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("progress update failed")
	}
}

func (e *engine) unlockQuietly(unlock func() error) {
	if err := unlock(); err != nil {
		e.logger.Warn().Err(err).Msg("release lock failed")
	}
}
