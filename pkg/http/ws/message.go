package ws

import "encoding/json"

// MessageType constants for the WebSocket protocol.
const (
	// Client -> Server
	TypeCreateRoom      = "create_room"
	TypeJoinRoom        = "join_room"
	TypeLeaveRoom       = "leave_room"
	TypeSubmitGuess     = "submit_guess"
	TypeAbandonRun      = "abandon_run"
	TypeRematchRequest  = "rematch_request"
	TypeRematchResponse = "rematch_response"
	TypeRequestState    = "request_state"

	// Server -> Client
	TypeRoomCreated      = "room_created"
	TypeRoomState        = "room_state"
	TypePlayerJoined     = "player_joined"
	TypePlayerLeft       = "player_left"
	TypeGameStarted      = "game_started"
	TypeGuessMade        = "guess_made"
	TypeTurnChanged      = "turn_changed"
	TypeWordCompleted    = "word_completed"
	TypeGameOver         = "game_over"
	TypeRematchRequested = "rematch_requested"
	TypeRematchDeclined  = "rematch_declined"
	TypeRematchStarted   = "rematch_started"
	TypeError            = "error"
	TypePing             = "ping"
	TypePong             = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// Client Messages (incoming)

type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
}

type LeaveRoomPayload struct {
	RoomID string `json:"room_id"`
}

type SubmitGuessPayload struct {
	RoomID    string `json:"room_id"`
	GuessWord string `json:"guess_word"`
}

type AbandonRunPayload struct {
	RoomID string `json:"room_id"`
}

type RematchRequestPayload struct {
	RoomID string `json:"room_id"`
}

type RematchResponsePayload struct {
	RoomID string `json:"room_id"`
	Accept bool   `json:"accept"`
}

type RequestStatePayload struct {
	RoomID string `json:"room_id"`
}

// Server Messages (outgoing)

type Player struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type RoomCreatedPayload struct {
	RoomID  string   `json:"room_id"`
	Status  string   `json:"status"`
	Players []Player `json:"players"`
}

type RoomStatePayload struct {
	RoomID              string   `json:"room_id"`
	Status              string   `json:"status"`
	Players             []Player `json:"players"`
	GamesPlayed         int      `json:"games_played"`
	CurrentTurnPlayerID string   `json:"current_turn_player_id,omitempty"`
}

type PlayerJoinedPayload struct {
	RoomID string `json:"room_id"`
	Player Player `json:"player"`
}

type PlayerLeftPayload struct {
	RoomID string `json:"room_id"`
	Player Player `json:"player"`
	Reason string `json:"reason,omitempty"`
}

type GameStartedPayload struct {
	RoomID              string `json:"room_id"`
	RunID               string `json:"run_id"`
	WordLength          int    `json:"word_length"`
	MaxAttempts         int    `json:"max_attempts"`
	CurrentTurnPlayerID string `json:"current_turn_player_id"`
}

type GuessResult struct {
	AttemptNumber int    `json:"attempt_number"`
	GuessWord     string `json:"guess_word"`
	Pattern       string `json:"pattern"`
	PlayerID      string `json:"player_id,omitempty"`
}

type GuessMadePayload struct {
	RoomID     string      `json:"room_id"`
	PlayerID   string      `json:"player_id"`
	PlayerName string      `json:"player_name"`
	Guess      GuessResult `json:"guess"`
	IsCorrect  bool        `json:"is_correct"`
}

type TurnChangedPayload struct {
	RoomID                string `json:"room_id"`
	CurrentTurnPlayerID   string `json:"current_turn_player_id"`
	CurrentTurnPlayerName string `json:"current_turn_player_name"`
	AttemptNumber         int    `json:"attempt_number"`
}

type WordCompletedPayload struct {
	RoomID           string `json:"room_id"`
	Word             string `json:"word"`
	CurrentScore     int    `json:"current_score"`
	NextTurnPlayerID string `json:"next_turn_player_id"`
	AttemptsUsed     int    `json:"attempts_used"`
	GamesPlayed      int    `json:"games_played"`
}

type GameOverPayload struct {
	RoomID      string `json:"room_id"`
	Result      string `json:"result"` // "failed", "completed" or "abandoned"
	FinalScore  int    `json:"final_score"`
	CorrectWord string `json:"correct_word,omitempty"`
}

type RematchRequestedPayload struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

type RematchDeclinedPayload struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

type RematchStartedPayload struct {
	OldRoomID string   `json:"old_room_id"`
	RoomID    string   `json:"room_id"`
	Players   []Player `json:"players"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
