package usecase

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alpinnnn/yupichess/internal/apperror"
	"github.com/Alpinnnn/yupichess/internal/broadcast"
	"github.com/Alpinnnn/yupichess/internal/entity"
	"github.com/Alpinnnn/yupichess/internal/rules"
	"github.com/Alpinnnn/yupichess/internal/store"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

type stubPosition struct {
	fen       string
	turn      string
	gameOver  bool
	checkmate bool
	stalemate bool
	draw      bool
	history   []string
}

func (that *stubPosition) FEN() string       { return that.fen }
func (that *stubPosition) Turn() string      { return that.turn }
func (that *stubPosition) IsGameOver() bool  { return that.gameOver }
func (that *stubPosition) IsCheck() bool     { return false }
func (that *stubPosition) IsCheckmate() bool { return that.checkmate }
func (that *stubPosition) IsDraw() bool      { return that.draw }
func (that *stubPosition) IsStalemate() bool { return that.stalemate }
func (that *stubPosition) History() []string { return that.history }

// fakeEngine accepts every move; with mateNext set, the first applied move
// ends the game by checkmate.
type fakeEngine struct {
	applyErr error
	mateNext bool
}

func (that *fakeEngine) NewGame() rules.Position {
	return &stubPosition{fen: startFEN, turn: rules.ColorWhite}
}

func (that *fakeEngine) Apply(pos rules.Position, move rules.Move) (rules.Position, rules.AppliedMove, error) {
	if that.applyErr != nil {
		return nil, rules.AppliedMove{}, that.applyErr
	}

	current, _ := pos.(*stubPosition)
	san := move.From + move.To

	next := &stubPosition{
		fen:     "fen-after-" + san,
		turn:    oppositeTurn(current.turn),
		history: append(append([]string{}, current.history...), san),
	}
	if that.mateNext {
		next.gameOver = true
		next.checkmate = true
	}

	applied := rules.AppliedMove{
		Color: current.turn,
		From:  move.From,
		To:    move.To,
		Piece: "p",
		San:   san,
	}

	return next, applied, nil
}

func oppositeTurn(turn string) string {
	if turn == rules.ColorWhite {
		return rules.ColorBlack
	}
	return rules.ColorWhite
}

type sentEvent struct {
	Kind   string // "to", "broadcast", "others"
	ConnID string
	Event  string
	Payload any
}

// fakeGateway records every dispatch.
type fakeGateway struct {
	mu     sync.Mutex
	events []sentEvent
}

func (that *fakeGateway) To(connID, event string, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.events = append(that.events, sentEvent{Kind: "to", ConnID: connID, Event: event, Payload: payload})
}

func (that *fakeGateway) Broadcast(room *entity.Room, event string, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()
	for _, player := range room.Players() {
		that.events = append(that.events, sentEvent{Kind: "broadcast", ConnID: player.ID, Event: event, Payload: payload})
	}
}

func (that *fakeGateway) NotifyOthers(room *entity.Room, exceptConnID, event string, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()
	for _, player := range room.Players() {
		if player.ID == exceptConnID {
			continue
		}
		that.events = append(that.events, sentEvent{Kind: "others", ConnID: player.ID, Event: event, Payload: payload})
	}
}

func (that *fakeGateway) eventsNamed(event string) []sentEvent {
	that.mu.Lock()
	defer that.mu.Unlock()

	var matched []sentEvent
	for _, e := range that.events {
		if e.Event == event {
			matched = append(matched, e)
		}
	}
	return matched
}

func newTestManager(engine rulesEngine) (*GameManager, *store.Store, *fakeGateway) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessionStore := store.New()
	gateway := &fakeGateway{}

	return NewGameManager(logger, sessionStore, engine, gateway), sessionStore, gateway
}

func TestGameManager_JoinGame(t *testing.T) {
	t.Run("First joiner becomes white in a fresh room", func(t *testing.T) {
		// Given: an empty store
		manager, sessionStore, gateway := newTestManager(&fakeEngine{})

		// When: a connection joins
		result := manager.JoinGame("conn-a")

		// Then: it plays white, alone, and nobody is notified
		assert.Equal(t, entity.ColorWhite, result.Color)
		assert.Equal(t, 1, result.PlayersCount)
		assert.Equal(t, startFEN, result.GameState.FEN)
		assert.Equal(t, 1, sessionStore.RoomCount())
		assert.Empty(t, gateway.eventsNamed(broadcast.EventPlayerJoined))
	})

	t.Run("Second joiner becomes black and the first is notified", func(t *testing.T) {
		// Given: one waiting player
		manager, sessionStore, gateway := newTestManager(&fakeEngine{})
		first := manager.JoinGame("conn-a")

		// When: a second connection joins
		second := manager.JoinGame("conn-b")

		// Then: same room, black seat, and conn-a got playerJoined with count 2
		assert.Equal(t, first.RoomID, second.RoomID)
		assert.Equal(t, entity.ColorBlack, second.Color)
		assert.Equal(t, 2, second.PlayersCount)
		assert.Equal(t, 1, sessionStore.RoomCount())

		notifications := gateway.eventsNamed(broadcast.EventPlayerJoined)
		require.Len(t, notifications, 1)
		assert.Equal(t, "conn-a", notifications[0].ConnID)
		assert.Equal(t, broadcast.PlayerJoinedPayload{PlayersCount: 2}, notifications[0].Payload)
	})

	t.Run("Third joiner opens a second room as white", func(t *testing.T) {
		// Given: one full room
		manager, sessionStore, _ := newTestManager(&fakeEngine{})
		first := manager.JoinGame("conn-a")
		_ = manager.JoinGame("conn-b")

		// When: a third connection joins
		third := manager.JoinGame("conn-c")

		// Then: a new room, white again
		assert.NotEqual(t, first.RoomID, third.RoomID)
		assert.Equal(t, entity.ColorWhite, third.Color)
		assert.Equal(t, 1, third.PlayersCount)
		assert.Equal(t, 2, sessionStore.RoomCount())
	})

	t.Run("Joining a room a disconnect tore down falls back to a fresh one", func(t *testing.T) {
		// Given: a waiting room whose only occupant's teardown already
		// closed it, while a joiner still holds the room from the scan
		manager, sessionStore, _ := newTestManager(&fakeEngine{})
		first := manager.JoinGame("conn-a")
		room := sessionStore.Room(first.RoomID)
		require.NotNil(t, room)
		manager.Disconnect("conn-a")

		// When: seating the late joiner straight into the stale room the
		// way an admission that lost the race would
		room.Lock()
		_, seatErr := room.Seat(&entity.Player{ID: "conn-b"})
		room.Unlock()

		// Then: the closed room refuses, and a real join lands in a live room
		assert.ErrorIs(t, seatErr, apperror.ErrRoomClosed)

		joined := manager.JoinGame("conn-b")
		require.NotNil(t, sessionStore.Room(joined.RoomID))
		assert.Equal(t, entity.ColorWhite, joined.Color)
	})

	t.Run("Racing joins and disconnects never bind a player to a deleted room", func(t *testing.T) {
		// Given: repeated rounds of one waiting player leaving exactly as
		// another connection is admitted
		manager, sessionStore, _ := newTestManager(&fakeEngine{})

		for i := 0; i < 200; i++ {
			_ = manager.JoinGame("conn-a")

			var wg sync.WaitGroup
			var joined *JoinResult
			wg.Add(2)
			go func() {
				defer wg.Done()
				manager.Disconnect("conn-a")
			}()
			go func() {
				defer wg.Done()
				joined = manager.JoinGame("conn-b")
			}()
			wg.Wait()

			// Then: whichever way the race went, the joiner's room exists
			require.NotNil(t, joined)
			require.NotNil(t, sessionStore.Room(joined.RoomID), "admitted to a room the store already deleted")

			manager.Disconnect("conn-b")
		}

		assert.Equal(t, 0, sessionStore.RoomCount())
	})

	t.Run("Concurrent joins never overfill a room", func(t *testing.T) {
		// Given: an empty store
		manager, sessionStore, _ := newTestManager(&fakeEngine{})

		// When: many connections join at once
		const joiners = 20
		results := make([]*JoinResult, joiners)
		var wg sync.WaitGroup
		for i := 0; i < joiners; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				results[n] = manager.JoinGame(connName(n))
			}(i)
		}
		wg.Wait()

		// Then: exactly one white and one black per room
		whites := make(map[string]int)
		blacks := make(map[string]int)
		for _, result := range results {
			require.NotNil(t, result)
			if result.Color == entity.ColorWhite {
				whites[result.RoomID]++
			} else {
				blacks[result.RoomID]++
			}
		}
		assert.Equal(t, joiners/2, sessionStore.RoomCount())
		for roomID, count := range whites {
			assert.Equal(t, 1, count, "room %s has %d whites", roomID, count)
		}
		for roomID, count := range blacks {
			assert.Equal(t, 1, count, "room %s has %d blacks", roomID, count)
		}
	})
}

func connName(n int) string {
	return "conn-" + string(rune('a'+n))
}

func TestGameManager_Disconnect(t *testing.T) {
	t.Run("Removes the player, notifies the peer, keeps the room", func(t *testing.T) {
		// Given: a full room
		manager, sessionStore, gateway := newTestManager(&fakeEngine{})
		result := manager.JoinGame("conn-a")
		_ = manager.JoinGame("conn-b")

		// When: white disconnects
		manager.Disconnect("conn-a")

		// Then: the binding is gone, the peer heard about it, the room lives
		assert.Nil(t, sessionStore.LookupPlayer("conn-a"))
		require.NotNil(t, sessionStore.Room(result.RoomID))

		notifications := gateway.eventsNamed(broadcast.EventOpponentDisconnected)
		require.Len(t, notifications, 1)
		assert.Equal(t, "conn-b", notifications[0].ConnID)
	})

	t.Run("Deletes the room once the last player leaves", func(t *testing.T) {
		// Given: a room with both players gone in turn
		manager, sessionStore, _ := newTestManager(&fakeEngine{})
		result := manager.JoinGame("conn-a")
		_ = manager.JoinGame("conn-b")

		// When: both disconnect
		manager.Disconnect("conn-a")
		manager.Disconnect("conn-b")

		// Then: the room is gone
		assert.Nil(t, sessionStore.Room(result.RoomID))
		assert.Equal(t, 0, sessionStore.RoomCount())
	})

	t.Run("Disconnecting twice has no additional effect", func(t *testing.T) {
		// Given: a full room
		manager, _, gateway := newTestManager(&fakeEngine{})
		_ = manager.JoinGame("conn-a")
		_ = manager.JoinGame("conn-b")

		// When: white disconnects twice
		manager.Disconnect("conn-a")
		manager.Disconnect("conn-a")

		// Then: the peer was notified exactly once
		assert.Len(t, gateway.eventsNamed(broadcast.EventOpponentDisconnected), 1)
	})

	t.Run("Disconnecting an unknown connection is a no-op", func(t *testing.T) {
		manager, _, gateway := newTestManager(&fakeEngine{})

		manager.Disconnect("ghost")

		assert.Empty(t, gateway.events)
	})
}
