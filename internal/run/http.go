package run

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/wordrun/wordrun-platform/internal/auth/jwt"
	httperrors "github.com/wordrun/wordrun-platform/pkg/http/errors"
)

// SoloHandler exposes solo runs over REST.
type SoloHandler struct {
	solo   *SoloService
	logger zerolog.Logger
}

// NewSoloHandler creates the solo HTTP handler.
func NewSoloHandler(solo *SoloService, logger zerolog.Logger) *SoloHandler {
	return &SoloHandler{solo: solo, logger: logger}
}

// guessRequest is the body of POST /v1/runs/solo/guess.
type guessRequest struct {
	GuessWord string `json:"guess_word"`
}

// runView is the client-facing run. The target word never leaves the server.
type runView struct {
	ID             string        `json:"id"`
	Status         string        `json:"status"`
	CurrentScore   int           `json:"current_score"`
	MaxAttempts    int           `json:"max_attempts"`
	AttemptsUsed   int           `json:"attempts_used"`
	WordLength     int           `json:"word_length"`
	CurrentGuesses []guessView   `json:"current_guesses"`
	History        []historyView `json:"history"`
}

type guessView struct {
	AttemptNumber int    `json:"attempt_number"`
	GuessWord     string `json:"guess_word"`
	Pattern       string `json:"pattern"`
}

type historyView struct {
	Order        int    `json:"order"`
	Word         string `json:"word"`
	Result       string `json:"result"`
	AttemptsUsed int    `json:"attempts_used"`
}

type resultView struct {
	Run         runView    `json:"run"`
	Guess       *guessView `json:"guess,omitempty"`
	IsCorrect   bool       `json:"is_correct"`
	IsGameOver  bool       `json:"is_game_over"`
	FinalScore  int        `json:"final_score,omitempty"`
	TotalWords  int        `json:"total_words,omitempty"`
	CorrectWord string     `json:"correct_word,omitempty"`
}

// HandleStart handles POST /v1/runs/solo/start.
func (h *SoloHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*jwt.Claims)
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	run, err := h.solo.Start(r.Context(), claims.UserID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toRunView(run))
}

// HandleCurrent handles GET /v1/runs/solo.
func (h *SoloHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*jwt.Claims)
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	run, err := h.solo.Get(r.Context(), claims.UserID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toRunView(run))
}

// HandleGuess handles POST /v1/runs/solo/guess.
func (h *SoloHandler) HandleGuess(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*jwt.Claims)
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req guessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	result, err := h.solo.SubmitGuess(r.Context(), claims.UserID, req.GuessWord)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toResultView(result))
}

// HandleAbandon handles POST /v1/runs/solo/abandon.
func (h *SoloHandler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*jwt.Claims)
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	result, err := h.solo.Abandon(r.Context(), claims.UserID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toResultView(result))
}

func (h *SoloHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case IsKind(err, KindNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNoActiveRun, err.Error())
	case IsKind(err, KindInvalidInput):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidGuess, err.Error())
	case IsKind(err, KindConflict):
		httperrors.RespondConflict(w, httperrors.ErrCodeDuplicateGuess, err.Error())
	case IsKind(err, KindForbidden):
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, err.Error())
	default:
		h.logger.Error().Err(err).Msg("solo run operation failed")
		httperrors.RespondInternalError(w, "Something went wrong")
	}
}

func toRunView(run *Run) runView {
	view := runView{
		ID:             run.ID.String(),
		Status:         run.Status,
		CurrentScore:   run.CurrentScore,
		MaxAttempts:    run.MaxAttempts,
		AttemptsUsed:   run.AttemptsUsed,
		WordLength:     run.WordLength(),
		CurrentGuesses: make([]guessView, 0, len(run.CurrentGuesses)),
		History:        make([]historyView, 0, len(run.History)),
	}
	for _, g := range run.CurrentGuesses {
		view.CurrentGuesses = append(view.CurrentGuesses, guessView{
			AttemptNumber: g.AttemptNumber,
			GuessWord:     g.GuessWord,
			Pattern:       g.Pattern,
		})
	}
	for _, entry := range run.History {
		view.History = append(view.History, historyView{
			Order:        entry.Order,
			Word:         entry.Word,
			Result:       entry.Result,
			AttemptsUsed: entry.AttemptsUsed,
		})
	}
	return view
}

func toResultView(result *Result) resultView {
	view := resultView{
		Run:         toRunView(result.Run),
		IsCorrect:   result.IsCorrect,
		IsGameOver:  result.IsGameOver,
		FinalScore:  result.FinalScore,
		TotalWords:  result.TotalWords,
		CorrectWord: result.CorrectWord,
	}
	if result.Guess != nil {
		view.Guess = &guessView{
			AttemptNumber: result.Guess.AttemptNumber,
			GuessWord:     result.Guess.GuessWord,
			Pattern:       result.Guess.Pattern,
		}
	}
	return view
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
