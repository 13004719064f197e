package usecase

import (
	"log/slog"
	"sync"

	"github.com/Alpinnnn/yupichess/internal/broadcast"
	"github.com/Alpinnnn/yupichess/internal/entity"
	"github.com/Alpinnnn/yupichess/internal/rules"
	"github.com/Alpinnnn/yupichess/internal/store"
)

type broadcaster interface {
	To(connID, event string, payload any)
	Broadcast(room *entity.Room, event string, payload any)
	NotifyOthers(room *entity.Room, exceptConnID, event string, payload any)
}

type rulesEngine interface {
	NewGame() rules.Position
	Apply(pos rules.Position, move rules.Move) (rules.Position, rules.AppliedMove, error)
}

// GameManager owns the room lifecycle and turn arbitration: it admits
// connections into rooms, applies moves through the rules engine, and hands
// room-wide notifications to the broadcast gateway.
type GameManager struct {
	logger  *slog.Logger
	store   *store.Store
	engine  rulesEngine
	gateway broadcaster

	// joinMu serializes admissions so two racing joins can never both take
	// the last seat of the same room.
	joinMu sync.Mutex
}

func NewGameManager(logger *slog.Logger, sessionStore *store.Store, engine rulesEngine, gateway broadcaster) *GameManager {
	return &GameManager{
		logger:  logger,
		store:   sessionStore,
		engine:  engine,
		gateway: gateway,
	}
}

// JoinResult describes a completed admission.
type JoinResult struct {
	RoomID       string
	Color        entity.Color
	GameState    entity.GameState
	PlayersCount int
}

// JoinGame - seats the connection in the first room with a free seat, or a
// fresh room if none has one. The first seat of a room is always white.
// Joining never fails; the remaining occupant, if any, is notified.
func (that *GameManager) JoinGame(connID string) *JoinResult {
	log := that.logger.With("method", "JoinGame")

	that.joinMu.Lock()
	defer that.joinMu.Unlock()

	room := that.store.FindOpenRoom()
	if room == nil {
		room = that.store.CreateRoom(that.engine.NewGame())
	}

	player := &entity.Player{ID: connID}
	that.store.BindPlayer(player)

	room.Lock()
	color, err := room.Seat(player)
	if err != nil {
		// the scan ran without the room lock held: a disconnect may have
		// emptied and closed the room in between. Start a fresh one.
		room.Unlock()
		room = that.store.CreateRoom(that.engine.NewGame())
		room.Lock()
		color, _ = room.Seat(player)
	}

	result := &JoinResult{
		RoomID:       room.ID,
		Color:        color,
		GameState:    room.Snapshot(),
		PlayersCount: room.PlayerCount(),
	}

	that.gateway.NotifyOthers(room, connID, broadcast.EventPlayerJoined, broadcast.PlayerJoinedPayload{
		PlayersCount: result.PlayersCount,
	})
	room.Unlock()

	log.Info("player joined room", "connectionID", connID, "roomID", result.RoomID, "color", color)

	return result
}

// Disconnect - removes the connection's player from its room, notifies the
// remaining occupant, and deletes the room once it is empty. Idempotent:
// disconnecting an unknown or already-removed connection is a no-op.
func (that *GameManager) Disconnect(connID string) {
	log := that.logger.With("method", "Disconnect")

	player := that.store.LookupPlayer(connID)
	if player == nil {
		return
	}
	that.store.RemovePlayer(connID)

	room := that.store.Room(player.RoomID)
	if room == nil {
		return
	}

	room.Lock()
	removed := room.RemovePlayer(connID)
	if removed && room.PlayerCount() > 0 {
		that.gateway.Broadcast(room, broadcast.EventOpponentDisconnected, nil)
	}
	room.Unlock()

	if that.store.DeleteRoomIfEmpty(room.ID) {
		log.Info("room deleted", "roomID", room.ID)
	}

	log.Info("player disconnected", "connectionID", connID, "roomID", room.ID)
}
