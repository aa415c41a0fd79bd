package run

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Room statuses.
const (
	RoomStatusWaiting  = "waiting"
	RoomStatusPlaying  = "playing"
	RoomStatusFinished = "finished"
)

const roomMaxPlayers = 2

// RoomPlayer is a seat in a room. Seat order decides turn order.
type RoomPlayer struct {
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	JoinedAt     time.Time `json:"joined_at"`
	WantsRematch bool      `json:"wants_rematch"`
}

// Room is a two-player coop session container. Turn ownership is derived
// from GamesPlayed and the run's attempt number, never stored.
type Room struct {
	RoomID       string       `json:"room_id"`
	Players      []RoomPlayer `json:"players"`
	Status       string       `json:"status"`
	CreatedBy    uuid.UUID    `json:"created_by"`
	GamesPlayed  int          `json:"games_played"`
	CurrentRunID uuid.UUID    `json:"current_run_id"`
	CreatedAt    time.Time    `json:"created_at"`
}

// TurnPlayer returns the seat that owns the given attempt number.
// Seat zero starts every even-numbered game; parity flips each rematch
// so the second seat opens the next game.
func (r *Room) TurnPlayer(attemptNumber int) *RoomPlayer {
	if len(r.Players) < roomMaxPlayers {
		return nil
	}
	evenGame := r.GamesPlayed%2 == 0
	oddAttempt := attemptNumber%2 == 1
	if evenGame == oddAttempt {
		return &r.Players[0]
	}
	return &r.Players[1]
}

// IsPlayerTurn reports whether userID owns the given attempt number.
func (r *Room) IsPlayerTurn(userID uuid.UUID, attemptNumber int) bool {
	turn := r.TurnPlayer(attemptNumber)
	return turn != nil && turn.UserID == userID
}

// HasPlayer reports whether userID holds a seat.
func (r *Room) HasPlayer(userID uuid.UUID) bool {
	return r.playerIndex(userID) >= 0
}

func (r *Room) playerIndex(userID uuid.UUID) int {
	for i := range r.Players {
		if r.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

// OtherPlayer returns the seat that is not userID, or nil.
func (r *Room) OtherPlayer(userID uuid.UUID) *RoomPlayer {
	for i := range r.Players {
		if r.Players[i].UserID != userID {
			return &r.Players[i]
		}
	}
	return nil
}

func (r *Room) clearRematchFlags() {
	for i := range r.Players {
		r.Players[i].WantsRematch = false
	}
}

func (r *Room) allWantRematch() bool {
	if len(r.Players) < roomMaxPlayers {
		return false
	}
	for i := range r.Players {
		if !r.Players[i].WantsRematch {
			return false
		}
	}
	return true
}

// RoomManager owns room membership. All mutations hold the manager mutex,
// which serializes join/leave/rematch decisions across connections.
type RoomManager struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	store  RoomStore
	logger zerolog.Logger
}

// NewRoomManager creates an empty room registry.
func NewRoomManager(store RoomStore, logger zerolog.Logger) *RoomManager {
	return &RoomManager{
		rooms:  make(map[string]*Room),
		store:  store,
		logger: logger,
	}
}

// CreateRoom opens a new waiting room with the creator in seat zero.
func (m *RoomManager) CreateRoom(ctx context.Context, userID uuid.UUID, username string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code, err := m.newRoomCode()
	if err != nil {
		return nil, err
	}

	room := &Room{
		RoomID: code,
		Players: []RoomPlayer{{
			UserID:   userID,
			Username: username,
			JoinedAt: time.Now().UTC(),
		}},
		Status:    RoomStatusWaiting,
		CreatedBy: userID,
		CreatedAt: time.Now().UTC(),
	}
	m.rooms[code] = room

	if err := m.store.InsertRoom(ctx, room); err != nil {
		m.logger.Error().Err(err).Str("room_id", code).Msg("persist room failed")
	}
	return room.snapshot(), nil
}

// JoinRoom seats userID in the room and flips it to playing once full.
func (m *RoomManager) JoinRoom(ctx context.Context, roomID string, userID uuid.UUID, username string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, Errorf(KindNotFound, "room %s not found", roomID)
	}
	if room.HasPlayer(userID) {
		return nil, Errorf(KindConflict, "already in room %s", roomID)
	}
	if room.Status != RoomStatusWaiting {
		return nil, Errorf(KindForbidden, "room %s is not accepting players", roomID)
	}
	if len(room.Players) >= roomMaxPlayers {
		return nil, Errorf(KindConflict, "room %s is full", roomID)
	}

	room.Players = append(room.Players, RoomPlayer{
		UserID:   userID,
		Username: username,
		JoinedAt: time.Now().UTC(),
	})
	if len(room.Players) == roomMaxPlayers {
		room.Status = RoomStatusPlaying
	}
	m.persist(ctx, room)
	return room.snapshot(), nil
}

// LeaveRoom removes userID. Leaving is only allowed before the game
// starts; an in-flight game must be abandoned instead. Empty rooms are
// deleted.
func (m *RoomManager) LeaveRoom(ctx context.Context, roomID string, userID uuid.UUID) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, Errorf(KindNotFound, "room %s not found", roomID)
	}
	idx := room.playerIndex(userID)
	if idx < 0 {
		return nil, Errorf(KindForbidden, "not a member of room %s", roomID)
	}
	if room.Status == RoomStatusPlaying {
		return nil, Errorf(KindConflict, "cannot leave a room mid-game")
	}

	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	if len(room.Players) == 0 {
		delete(m.rooms, roomID)
		room.Status = RoomStatusFinished
		m.persist(ctx, room)
		return nil, nil
	}
	m.persist(ctx, room)
	return room.snapshot(), nil
}

// GetRoom returns a copy of the room.
func (m *RoomManager) GetRoom(roomID string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, Errorf(KindNotFound, "room %s not found", roomID)
	}
	return room.snapshot(), nil
}

// MarkPlaying records the run now attached to the room.
func (m *RoomManager) MarkPlaying(ctx context.Context, roomID string, runID uuid.UUID) (*Room, error) {
	return m.update(ctx, roomID, func(room *Room) error {
		room.Status = RoomStatusPlaying
		room.CurrentRunID = runID
		return nil
	})
}

// MarkGameWon bumps GamesPlayed after a completed coop word, flipping
// which seat opens the next attempt cycle.
func (m *RoomManager) MarkGameWon(ctx context.Context, roomID string) (*Room, error) {
	return m.update(ctx, roomID, func(room *Room) error {
		room.GamesPlayed++
		return nil
	})
}

// CloseRoom marks the room finished. The room stays registered so the
// players can still vote on a rematch; it is dropped when the last
// player leaves or the rematch resolves.
func (m *RoomManager) CloseRoom(ctx context.Context, roomID string) (*Room, error) {
	return m.update(ctx, roomID, func(room *Room) error {
		room.Status = RoomStatusFinished
		return nil
	})
}

// RequestRematch flags userID's seat. When both seats agree a fresh room
// is opened with the seat order swapped, so the previous second player
// opens the new game. The old room is closed.
func (m *RoomManager) RequestRematch(ctx context.Context, roomID string, userID uuid.UUID) (current *Room, next *Room, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, nil, Errorf(KindNotFound, "room %s not found", roomID)
	}
	idx := room.playerIndex(userID)
	if idx < 0 {
		return nil, nil, Errorf(KindForbidden, "not a member of room %s", roomID)
	}
	if room.Status != RoomStatusFinished && room.Status != RoomStatusPlaying {
		return nil, nil, Errorf(KindConflict, "room %s has no game to rematch", roomID)
	}

	room.Players[idx].WantsRematch = true
	if !room.allWantRematch() {
		m.persist(ctx, room)
		return room.snapshot(), nil, nil
	}

	code, err := m.newRoomCode()
	if err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	fresh := &Room{
		RoomID: code,
		Players: []RoomPlayer{
			{UserID: room.Players[1].UserID, Username: room.Players[1].Username, JoinedAt: now},
			{UserID: room.Players[0].UserID, Username: room.Players[0].Username, JoinedAt: now},
		},
		Status:    RoomStatusPlaying,
		CreatedBy: room.Players[1].UserID,
		CreatedAt: now,
	}
	m.rooms[code] = fresh

	room.Status = RoomStatusFinished
	room.clearRematchFlags()
	delete(m.rooms, roomID)
	m.persist(ctx, room)

	if err := m.store.InsertRoom(ctx, fresh); err != nil {
		m.logger.Error().Err(err).Str("room_id", code).Msg("persist rematch room failed")
	}
	return room.snapshot(), fresh.snapshot(), nil
}

// DeclineRematch clears every rematch flag so a later request starts over.
func (m *RoomManager) DeclineRematch(ctx context.Context, roomID string, userID uuid.UUID) (*Room, error) {
	return m.update(ctx, roomID, func(room *Room) error {
		if !room.HasPlayer(userID) {
			return Errorf(KindForbidden, "not a member of room %s", roomID)
		}
		room.clearRematchFlags()
		return nil
	})
}

func (m *RoomManager) update(ctx context.Context, roomID string, fn func(*Room) error) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, Errorf(KindNotFound, "room %s not found", roomID)
	}
	if err := fn(room); err != nil {
		return nil, err
	}
	m.persist(ctx, room)
	return room.snapshot(), nil
}

func (m *RoomManager) persist(ctx context.Context, room *Room) {
	if err := m.store.UpdateRoom(ctx, room); err != nil {
		m.logger.Error().Err(err).Str("room_id", room.RoomID).Msg("persist room failed")
	}
}

// Excludes 0/O and 1/I to keep codes readable over voice.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func (m *RoomManager) newRoomCode() (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		buf := make([]byte, 6)
		for i := range buf {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomCodeAlphabet))))
			if err != nil {
				return "", err
			}
			buf[i] = roomCodeAlphabet[n.Int64()]
		}
		code := string(buf)
		if _, taken := m.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", Errorf(KindConflict, "could not allocate room code")
}

func (r *Room) snapshot() *Room {
	cp := *r
	cp.Players = make([]RoomPlayer, len(r.Players))
	copy(cp.Players, r.Players)
	return &cp
}
