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

type stubRoomStore struct {
	inserted []string
	updated  []string
}

func (s *stubRoomStore) InsertRoom(_ context.Context, room *Room) error {
	s.inserted = append(s.inserted, room.RoomID)
	return nil
}

func (s *stubRoomStore) UpdateRoom(_ context.Context, room *Room) error {
	s.updated = append(s.updated, room.RoomID)
	return nil
}

func newTestManager() *RoomManager {
	return NewRoomManager(&stubRoomStore{}, zerolog.New(io.Discard))
}

func fullRoom(t *testing.T, m *RoomManager) (*Room, uuid.UUID, uuid.UUID) {
	t.Helper()
	alice := uuid.New()
	bob := uuid.New()
	room, err := m.CreateRoom(context.Background(), alice, "alice")
	require.NoError(t, err)
	room, err = m.JoinRoom(context.Background(), room.RoomID, bob, "bob")
	require.NoError(t, err)
	return room, alice, bob
}

func TestTurnPlayerAlternatesWithinGame(t *testing.T) {
	m := newTestManager()
	room, alice, bob := fullRoom(t, m)

	// First game: creator opens, then strict alternation.
	want := []uuid.UUID{alice, bob, alice, bob, alice}
	for i, owner := range want {
		attempt := i + 1
		got := room.TurnPlayer(attempt)
		require.NotNil(t, got)
		assert.Equal(t, owner, got.UserID, "attempt %d", attempt)
		assert.True(t, room.IsPlayerTurn(owner, attempt))
		assert.False(t, room.IsPlayerTurn(room.OtherPlayer(owner).UserID, attempt))
	}
}

func TestTurnPlayerInvertsAfterWonGame(t *testing.T) {
	m := newTestManager()
	room, alice, bob := fullRoom(t, m)

	updated, err := m.MarkGameWon(context.Background(), room.RoomID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.GamesPlayed)

	// Second game: the other player opens.
	want := []uuid.UUID{bob, alice, bob, alice, bob}
	for i, owner := range want {
		got := updated.TurnPlayer(i + 1)
		require.NotNil(t, got)
		assert.Equal(t, owner, got.UserID, "attempt %d", i+1)
	}
}

func TestTurnPlayerNeedsFullRoom(t *testing.T) {
	m := newTestManager()
	room, err := m.CreateRoom(context.Background(), uuid.New(), "solo")
	require.NoError(t, err)
	assert.Nil(t, room.TurnPlayer(1))
}

func TestJoinRoomFillsAndStarts(t *testing.T) {
	m := newTestManager()
	creator := uuid.New()
	room, err := m.CreateRoom(context.Background(), creator, "alice")
	require.NoError(t, err)
	assert.Equal(t, RoomStatusWaiting, room.Status)
	assert.Len(t, room.RoomID, 6)
	assert.Equal(t, creator, room.CreatedBy)

	joined, err := m.JoinRoom(context.Background(), room.RoomID, uuid.New(), "bob")
	require.NoError(t, err)
	assert.Equal(t, RoomStatusPlaying, joined.Status)
	assert.Len(t, joined.Players, 2)
}

func TestJoinRoomRejections(t *testing.T) {
	m := newTestManager()
	room, alice, _ := fullRoom(t, m)

	_, err := m.JoinRoom(context.Background(), "ZZZZZZ", uuid.New(), "eve")
	assert.True(t, IsKind(err, KindNotFound))

	_, err = m.JoinRoom(context.Background(), room.RoomID, alice, "alice")
	assert.True(t, IsKind(err, KindConflict), "duplicate join")

	_, err = m.JoinRoom(context.Background(), room.RoomID, uuid.New(), "eve")
	assert.True(t, IsKind(err, KindForbidden), "room already playing")
}

func TestLeaveRoomBeforeStart(t *testing.T) {
	m := newTestManager()
	creator := uuid.New()
	room, err := m.CreateRoom(context.Background(), creator, "alice")
	require.NoError(t, err)

	remaining, err := m.LeaveRoom(context.Background(), room.RoomID, creator)
	require.NoError(t, err)
	assert.Nil(t, remaining, "empty room is deleted")

	_, err = m.GetRoom(room.RoomID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestLeaveRoomMidGameRejected(t *testing.T) {
	m := newTestManager()
	room, alice, _ := fullRoom(t, m)

	_, err := m.LeaveRoom(context.Background(), room.RoomID, alice)
	assert.True(t, IsKind(err, KindConflict))
}

func TestRematchSwapsSeatOrder(t *testing.T) {
	m := newTestManager()
	room, alice, bob := fullRoom(t, m)

	current, next, err := m.RequestRematch(context.Background(), room.RoomID, alice)
	require.NoError(t, err)
	assert.Nil(t, next, "one vote is not enough")
	assert.True(t, current.Players[0].WantsRematch)

	_, next, err = m.RequestRematch(context.Background(), room.RoomID, bob)
	require.NoError(t, err)
	require.NotNil(t, next)

	assert.Equal(t, RoomStatusPlaying, next.Status)
	assert.Equal(t, 0, next.GamesPlayed)
	assert.Equal(t, bob, next.Players[0].UserID, "previous second player opens")
	assert.Equal(t, alice, next.Players[1].UserID)
	assert.NotEqual(t, room.RoomID, next.RoomID)

	// Old room is gone from the registry.
	_, err = m.GetRoom(room.RoomID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestDeclineRematchClearsFlags(t *testing.T) {
	m := newTestManager()
	room, alice, bob := fullRoom(t, m)

	_, _, err := m.RequestRematch(context.Background(), room.RoomID, alice)
	require.NoError(t, err)

	cleared, err := m.DeclineRematch(context.Background(), room.RoomID, bob)
	require.NoError(t, err)
	for _, p := range cleared.Players {
		assert.False(t, p.WantsRematch)
	}
}
