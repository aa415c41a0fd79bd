package run

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wordrun/wordrun-platform/internal/auth/jwt"
	httperrors "github.com/wordrun/wordrun-platform/pkg/http/errors"
	ws "github.com/wordrun/wordrun-platform/pkg/http/ws"
)

// TokenValidator authenticates the access token a WebSocket dial
// carries. Satisfied by auth.Service.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// Handler manages WebSocket connections and routes room messages.
type Handler struct {
	coop   *CoopService
	hub    *ws.Hub
	tokens TokenValidator
	logger zerolog.Logger
}

// NewHandler creates a room WebSocket handler.
func NewHandler(coop *CoopService, hub *ws.Hub, tokens TokenValidator, logger zerolog.Logger) *Handler {
	return &Handler{
		coop:   coop,
		hub:    hub,
		tokens: tokens,
		logger: logger,
	}
}

// HandleConnection processes an authenticated WebSocket connection.
func (h *Handler) HandleConnection(conn *websocket.Conn, userID uuid.UUID, username string) {
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(userID, wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(context.Background(), userID, username, msg)
	})

	h.hub.UnregisterConnection(userID)
}

// handleMessage routes incoming WebSocket messages.
func (h *Handler) handleMessage(ctx context.Context, userID uuid.UUID, username string, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeCreateRoom:
		return h.handleCreateRoom(ctx, userID, username)
	case ws.TypeJoinRoom:
		return h.handleJoinRoom(ctx, userID, username, msg.Payload)
	case ws.TypeLeaveRoom:
		return h.handleLeaveRoom(ctx, userID, username, msg.Payload)
	case ws.TypeSubmitGuess:
		return h.handleSubmitGuess(ctx, userID, username, msg.Payload)
	case ws.TypeAbandonRun:
		return h.handleAbandonRun(ctx, userID, msg.Payload)
	case ws.TypeRematchRequest:
		return h.handleRematchRequest(ctx, userID, msg.Payload)
	case ws.TypeRematchResponse:
		return h.handleRematchResponse(ctx, userID, msg.Payload)
	case ws.TypeRequestState:
		return h.handleRequestState(ctx, userID, msg.Payload)
	case ws.TypePing:
		return h.hub.SendToUser(userID, ws.Message{Type: ws.TypePong})
	default:
		return h.sendError(userID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleCreateRoom(ctx context.Context, userID uuid.UUID, username string) error {
	room, err := h.coop.Rooms().CreateRoom(ctx, userID, username)
	if err != nil {
		return h.sendServiceError(userID, err, httperrors.ErrCodeRoomCreationFailed)
	}

	h.hub.JoinRoom(room.RoomID, userID)

	payload := ws.RoomCreatedPayload{
		RoomID:  room.RoomID,
		Status:  room.Status,
		Players: toWSPlayers(room.Players),
	}
	msg := ws.Message{Type: ws.TypeRoomCreated}
	msg.Payload, _ = json.Marshal(payload)
	return h.hub.SendToUser(userID, msg)
}

func (h *Handler) handleJoinRoom(ctx context.Context, userID uuid.UUID, username string, payload json.RawMessage) error {
	var req ws.JoinRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid join_room payload")
	}

	room, err := h.coop.Rooms().JoinRoom(ctx, req.RoomID, userID, username)
	if err != nil {
		return h.sendServiceError(userID, err, httperrors.ErrCodeJoinFailed)
	}

	h.hub.JoinRoom(room.RoomID, userID)

	joined := ws.PlayerJoinedPayload{
		RoomID: room.RoomID,
		Player: ws.Player{UserID: userID.String(), Username: username},
	}
	msg := ws.Message{Type: ws.TypePlayerJoined}
	msg.Payload, _ = json.Marshal(joined)
	if err := h.hub.BroadcastToRoom(room.RoomID, msg); err != nil {
		h.logger.Warn().Err(err).Str("room_id", room.RoomID).Msg("broadcast player_joined failed")
	}

	// Second seat filled: the shared run starts immediately.
	if room.Status == RoomStatusPlaying {
		run, room, err := h.coop.Start(ctx, room.RoomID)
		if err != nil {
			return h.sendServiceError(userID, err, httperrors.ErrCodeRunNotReady)
		}
		h.broadcastGameStarted(room, run)
	}
	return nil
}

func (h *Handler) handleLeaveRoom(ctx context.Context, userID uuid.UUID, username string, payload json.RawMessage) error {
	var req ws.LeaveRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid leave_room payload")
	}

	room, err := h.coop.Rooms().LeaveRoom(ctx, req.RoomID, userID)
	if err != nil {
		return h.sendServiceError(userID, err, httperrors.ErrCodeLeaveFailed)
	}

	h.hub.LeaveRoom(req.RoomID, userID)
	if room == nil {
		return nil
	}

	left := ws.PlayerLeftPayload{
		RoomID: req.RoomID,
		Player: ws.Player{UserID: userID.String(), Username: username},
	}
	msg := ws.Message{Type: ws.TypePlayerLeft}
	msg.Payload, _ = json.Marshal(left)
	return h.hub.BroadcastToRoom(req.RoomID, msg)
}

func (h *Handler) handleSubmitGuess(ctx context.Context, userID uuid.UUID, username string, payload json.RawMessage) error {
	var req ws.SubmitGuessPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid submit_guess payload")
	}

	result, room, err := h.coop.SubmitGuess(ctx, req.RoomID, userID, req.GuessWord)
	if err != nil {
		return h.sendServiceError(userID, err, httperrors.ErrCodeSubmitFailed)
	}

	made := ws.GuessMadePayload{
		RoomID:     room.RoomID,
		PlayerID:   userID.String(),
		PlayerName: username,
		Guess: ws.GuessResult{
			AttemptNumber: result.Guess.AttemptNumber,
			GuessWord:     result.Guess.GuessWord,
			Pattern:       result.Guess.Pattern,
			PlayerID:      userID.String(),
		},
		IsCorrect: result.IsCorrect,
	}
	msg := ws.Message{Type: ws.TypeGuessMade}
	msg.Payload, _ = json.Marshal(made)
	if err := h.hub.BroadcastToRoom(room.RoomID, msg); err != nil {
		h.logger.Warn().Err(err).Str("room_id", room.RoomID).Msg("broadcast guess_made failed")
	}

	switch {
	case result.IsGameOver:
		h.broadcastGameOver(room.RoomID, result, result.Run.Status)
	case result.IsCorrect:
		h.broadcastWordCompleted(room, result)
	default:
		h.broadcastTurnChanged(room, result.Run)
	}
	return nil
}

func (h *Handler) handleAbandonRun(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.AbandonRunPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid abandon_run payload")
	}

	result, room, err := h.coop.Abandon(ctx, req.RoomID, userID)
	if err != nil {
		return h.sendServiceError(userID, err, httperrors.ErrCodeNoActiveRun)
	}

	h.broadcastGameOver(room.RoomID, result, "abandoned")
	return nil
}

func (h *Handler) handleRematchRequest(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.RematchRequestPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid rematch_request payload")
	}
	return h.requestRematch(ctx, req.RoomID, userID)
}

func (h *Handler) handleRematchResponse(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.RematchResponsePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid rematch_response payload")
	}

	if !req.Accept {
		if _, err := h.coop.DeclineRematch(ctx, req.RoomID, userID); err != nil {
			return h.sendServiceError(userID, err, httperrors.ErrCodeRoomNotFound)
		}
		declined := ws.RematchDeclinedPayload{RoomID: req.RoomID, PlayerID: userID.String()}
		msg := ws.Message{Type: ws.TypeRematchDeclined}
		msg.Payload, _ = json.Marshal(declined)
		return h.hub.BroadcastToRoom(req.RoomID, msg)
	}
	return h.requestRematch(ctx, req.RoomID, userID)
}

func (h *Handler) requestRematch(ctx context.Context, roomID string, userID uuid.UUID) error {
	next, run, err := h.coop.RequestRematch(ctx, roomID, userID)
	if err != nil {
		return h.sendServiceError(userID, err, httperrors.ErrCodeRoomNotFound)
	}

	requested := ws.RematchRequestedPayload{RoomID: roomID, PlayerID: userID.String()}
	msg := ws.Message{Type: ws.TypeRematchRequested}
	msg.Payload, _ = json.Marshal(requested)
	if err := h.hub.BroadcastToRoom(roomID, msg); err != nil {
		h.logger.Warn().Err(err).Str("room_id", roomID).Msg("broadcast rematch_requested failed")
	}
	if next == nil {
		return nil
	}

	// Both agreed: migrate hub membership to the fresh room.
	for _, memberID := range h.hub.RoomMembers(roomID) {
		h.hub.LeaveRoom(roomID, memberID)
		h.hub.JoinRoom(next.RoomID, memberID)
	}

	started := ws.RematchStartedPayload{
		OldRoomID: roomID,
		RoomID:    next.RoomID,
		Players:   toWSPlayers(next.Players),
	}
	msg = ws.Message{Type: ws.TypeRematchStarted}
	msg.Payload, _ = json.Marshal(started)
	if err := h.hub.BroadcastToRoom(next.RoomID, msg); err != nil {
		h.logger.Warn().Err(err).Str("room_id", next.RoomID).Msg("broadcast rematch_started failed")
	}

	h.broadcastGameStarted(next, run)
	return nil
}

func (h *Handler) handleRequestState(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.RequestStatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid request_state payload")
	}

	room, err := h.coop.Rooms().GetRoom(req.RoomID)
	if err != nil {
		return h.sendServiceError(userID, err, httperrors.ErrCodeRoomNotFound)
	}

	state := ws.RoomStatePayload{
		RoomID:      room.RoomID,
		Status:      room.Status,
		Players:     toWSPlayers(room.Players),
		GamesPlayed: room.GamesPlayed,
	}
	if run, err := h.coop.Get(ctx, req.RoomID); err == nil && run.CurrentTurnPlayerID != nil {
		state.CurrentTurnPlayerID = run.CurrentTurnPlayerID.String()
	}

	msg := ws.Message{Type: ws.TypeRoomState}
	msg.Payload, _ = json.Marshal(state)
	return h.hub.SendToUser(userID, msg)
}

func (h *Handler) broadcastGameStarted(room *Room, run *Run) {
	payload := ws.GameStartedPayload{
		RoomID:      room.RoomID,
		RunID:       run.ID.String(),
		WordLength:  run.WordLength(),
		MaxAttempts: run.MaxAttempts,
	}
	if run.CurrentTurnPlayerID != nil {
		payload.CurrentTurnPlayerID = run.CurrentTurnPlayerID.String()
	}
	msg := ws.Message{Type: ws.TypeGameStarted}
	msg.Payload, _ = json.Marshal(payload)
	if err := h.hub.BroadcastToRoom(room.RoomID, msg); err != nil {
		h.logger.Warn().Err(err).Str("room_id", room.RoomID).Msg("broadcast game_started failed")
	}
}

func (h *Handler) broadcastWordCompleted(room *Room, result *Result) {
	run := result.Run
	word := ""
	if n := len(run.History); n > 0 {
		word = run.History[n-1].Word
	}
	payload := ws.WordCompletedPayload{
		RoomID:       room.RoomID,
		Word:         word,
		CurrentScore: run.CurrentScore,
		AttemptsUsed: result.Guess.AttemptNumber,
		GamesPlayed:  room.GamesPlayed,
	}
	if run.CurrentTurnPlayerID != nil {
		payload.NextTurnPlayerID = run.CurrentTurnPlayerID.String()
	}
	msg := ws.Message{Type: ws.TypeWordCompleted}
	msg.Payload, _ = json.Marshal(payload)
	if err := h.hub.BroadcastToRoom(room.RoomID, msg); err != nil {
		h.logger.Warn().Err(err).Str("room_id", room.RoomID).Msg("broadcast word_completed failed")
	}
}

func (h *Handler) broadcastTurnChanged(room *Room, run *Run) {
	payload := ws.TurnChangedPayload{
		RoomID:        room.RoomID,
		AttemptNumber: run.AttemptsUsed + 1,
	}
	if run.CurrentTurnPlayerID != nil {
		payload.CurrentTurnPlayerID = run.CurrentTurnPlayerID.String()
		for _, p := range room.Players {
			if p.UserID == *run.CurrentTurnPlayerID {
				payload.CurrentTurnPlayerName = p.Username
			}
		}
	}
	msg := ws.Message{Type: ws.TypeTurnChanged}
	msg.Payload, _ = json.Marshal(payload)
	if err := h.hub.BroadcastToRoom(room.RoomID, msg); err != nil {
		h.logger.Warn().Err(err).Str("room_id", room.RoomID).Msg("broadcast turn_changed failed")
	}
}

func (h *Handler) broadcastGameOver(roomID string, result *Result, outcome string) {
	payload := ws.GameOverPayload{
		RoomID:      roomID,
		Result:      outcome,
		FinalScore:  result.FinalScore,
		CorrectWord: result.CorrectWord,
	}
	msg := ws.Message{Type: ws.TypeGameOver}
	msg.Payload, _ = json.Marshal(payload)
	if err := h.hub.BroadcastToRoom(roomID, msg); err != nil {
		h.logger.Warn().Err(err).Str("room_id", roomID).Msg("broadcast game_over failed")
	}
}

// sendServiceError maps a domain error kind onto a wire error code.
func (h *Handler) sendServiceError(userID uuid.UUID, err error, fallback string) error {
	code := fallback
	switch {
	case IsKind(err, KindNotFound):
		code = httperrors.ErrCodeNotFound
	case IsKind(err, KindInvalidInput):
		code = httperrors.ErrCodeInvalidGuess
	case IsKind(err, KindConflict):
		code = httperrors.ErrCodeConflict
	case IsKind(err, KindForbidden):
		code = httperrors.ErrCodeForbidden
	case IsKind(err, KindStateCorruption):
		code = httperrors.ErrCodeStateCorruption
	}
	return h.sendError(userID, code, err.Error())
}

func (h *Handler) sendError(userID uuid.UUID, code, message string) error {
	payload := ws.ErrorPayload{Code: code, Message: message}
	msg := ws.Message{Type: ws.TypeError}
	msg.Payload, _ = json.Marshal(payload)
	return h.hub.SendToUser(userID, msg)
}

func toWSPlayers(players []RoomPlayer) []ws.Player {
	out := make([]ws.Player, len(players))
	for i, p := range players {
		out[i] = ws.Player{UserID: p.UserID.String(), Username: p.Username}
	}
	return out
}
