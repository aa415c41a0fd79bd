package run

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wordrun/wordrun-platform/internal/progress"
)

// Run status lifecycle states.
const (
	StatusActive    = "active"
	StatusFailed    = "failed"
	StatusCompleted = "completed"
)

// HistoryEntry results.
const (
	ResultWon  = "won"
	ResultLost = "lost"
)

// GuessRecord stores one scored guess. Append-only; never mutated.
type GuessRecord struct {
	AttemptNumber int        `json:"attempt_number"`
	GuessWord     string     `json:"guess_word"`
	Pattern       string     `json:"pattern"`
	PlayerID      *uuid.UUID `json:"player_id,omitempty"` // coop only
	CreatedAt     time.Time  `json:"created_at"`
}

// HistoryEntry records one concluded word round. Created exactly once,
// immutable thereafter; Order increases by 1 per entry within a run.
type HistoryEntry struct {
	Order        int           `json:"order"`
	Word         string        `json:"word"`
	Result       string        `json:"result"` // "won" or "lost"
	AttemptsUsed int           `json:"attempts_used"`
	Guesses      []GuessRecord `json:"guesses"`
	FinishedAt   time.Time     `json:"finished_at"`
}

// Run is the persistent state of a word-guessing sequence.
type Run struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"` // owner (player 0 in coop)
	Status         string         `json:"status"`
	CurrentScore   int            `json:"current_score"`
	MaxAttempts    int            `json:"max_attempts"`
	AttemptsUsed   int            `json:"attempts_used"`
	TargetWord     string         `json:"target_word,omitempty"` // empty only when terminal or before first pick
	UsedWords      []string       `json:"used_words"`
	CurrentGuesses []GuessRecord  `json:"current_guesses"`
	History        []HistoryEntry `json:"history"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	// Multiplayer fields
	RoomID              string     `json:"room_id,omitempty"`
	IsMultiplayer       bool       `json:"is_multiplayer"`
	CurrentTurnPlayerID *uuid.UUID `json:"current_turn_player_id,omitempty"`
}

// IsTerminal reports whether no further guesses are accepted.
func (r *Run) IsTerminal() bool {
	return r.Status == StatusFailed || r.Status == StatusCompleted
}

// HasGuessed reports whether the word was already tried on the current word.
func (r *Run) HasGuessed(word string) bool {
	for _, g := range r.CurrentGuesses {
		if g.GuessWord == word {
			return true
		}
	}
	return false
}

// WordLength reports the letter count of this run's words. Falls back
// to the used-word list when the target is already cleared.
func (r *Run) WordLength() int {
	if r.TargetWord != "" {
		return len(r.TargetWord)
	}
	if n := len(r.UsedWords); n > 0 {
		return len(r.UsedWords[n-1])
	}
	return 0
}

func (r *Run) hasUsedWord(word string) bool {
	for _, w := range r.UsedWords {
		if w == word {
			return true
		}
	}
	return false
}

// usedWordSet materializes UsedWords for pool exclusion.
func (r *Run) usedWordSet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.UsedWords))
	for _, w := range r.UsedWords {
		set[w] = struct{}{}
	}
	return set
}

// Result is the wrapped outcome returned by run operations.
type Result struct {
	Run        *Run
	Guess      *GuessRecord
	IsCorrect  bool
	IsGameOver bool
	FinalScore int
	TotalWords int

	// CorrectWord is revealed only when a word was lost.
	CorrectWord string
}

// WordSource supplies the allow-list and the word pool.
type WordSource interface {
	IsAllowed(word string) bool
	Pick(excluded map[string]struct{}) (string, bool)
	Total() int
	Length() int
}

// ProgressSink receives user progress updates on run transitions.
type ProgressSink interface {
	UpdateProgress(ctx context.Context, userID uuid.UUID, update progress.Update) error
}

// StateStore holds hot run state with per-run serialization.
// Implementations must guarantee at-most-one writer per lock scope.
type StateStore interface {
	Lock(ctx context.Context, scope string) (func() error, error)
	GetSoloRun(ctx context.Context, userID uuid.UUID) (*Run, error)
	SaveSoloRun(ctx context.Context, run *Run) error
	GetCoopRun(ctx context.Context, roomID string) (*Run, error)
	SaveCoopRun(ctx context.Context, run *Run) error
	DeleteCoopRun(ctx context.Context, roomID string) error
}

// Store persists durable run rows.
type Store interface {
	InsertRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
}

// RoomStore persists durable room rows.
type RoomStore interface {
	InsertRoom(ctx context.Context, room *Room) error
	UpdateRoom(ctx context.Context, room *Room) error
}
