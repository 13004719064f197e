package usecase

import (
	"errors"
	"fmt"

	"github.com/Alpinnnn/yupichess/internal/apperror"
	"github.com/Alpinnnn/yupichess/internal/broadcast"
	"github.com/Alpinnnn/yupichess/internal/entity"
	"github.com/Alpinnnn/yupichess/internal/rules"
)

// MoveOutcome carries what the room broadcast after a successful move.
type MoveOutcome struct {
	GameState   entity.GameState
	LastMove    rules.AppliedMove
	CurrentTurn entity.Color
}

// MakeMove - arbitrates and applies a move. Preconditions are checked in
// order, short-circuiting on the first failure; check-then-apply runs under
// the room lock so no other room mutation can interleave. On rejection the
// room is left untouched and nothing is broadcast.
func (that *GameManager) MakeMove(connID string, move rules.Move) (*MoveOutcome, error) {
	log := that.logger.With("method", "MakeMove")

	player := that.store.LookupPlayer(connID)
	if player == nil {
		return nil, apperror.ErrPlayerNotFound
	}

	room := that.store.Room(player.RoomID)
	if room == nil {
		return nil, apperror.ErrRoomNotFound
	}

	room.Lock()
	defer room.Unlock()

	if room.CurrentTurn != player.Color {
		return nil, apperror.ErrNotYourTurn
	}

	if room.IsFinished() || room.Position.IsGameOver() {
		return nil, apperror.ErrGameOver
	}

	if room.IsWaiting() {
		return nil, apperror.ErrOpponentNotPresent
	}

	updated, applied, err := that.engine.Apply(room.Position, move)
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidMove) {
			return nil, err
		}
		// any unexpected engine failure surfaces as a plain rejection,
		// never as partially applied state
		return nil, fmt.Errorf("%w: %s", apperror.ErrInvalidMove, err)
	}

	room.Position = updated
	room.CurrentTurn = room.CurrentTurn.Opposite()

	if room.Position.IsGameOver() {
		room.Finish(endReason(room.Position))
	}

	outcome := &MoveOutcome{
		GameState:   room.Snapshot(),
		LastMove:    applied,
		CurrentTurn: room.CurrentTurn,
	}

	that.gateway.Broadcast(room, broadcast.EventGameUpdate, broadcast.GameUpdatePayload{
		GameState:   outcome.GameState,
		LastMove:    outcome.LastMove,
		CurrentTurn: outcome.CurrentTurn.String(),
	})

	log.Info("move applied", "connectionID", connID, "roomID", room.ID, "san", applied.San, "currentTurn", room.CurrentTurn)

	return outcome, nil
}

// Resign - ends the game immediately in favor of the opponent. The room
// becomes terminal: no move may succeed in it afterward. Everyone in the
// room, the resigner included, receives the gameEnded event.
func (that *GameManager) Resign(connID string) error {
	log := that.logger.With("method", "Resign")

	player := that.store.LookupPlayer(connID)
	if player == nil {
		return apperror.ErrPlayerNotFound
	}

	room := that.store.Room(player.RoomID)
	if room == nil {
		return apperror.ErrRoomNotFound
	}

	room.Lock()
	defer room.Unlock()

	if room.IsFinished() || room.Position.IsGameOver() {
		return apperror.ErrGameOver
	}

	room.Finish(entity.EndResignation)

	that.gateway.Broadcast(room, broadcast.EventGameEnded, broadcast.GameEndedPayload{
		Result:         broadcast.ResultResignation,
		Winner:         player.Color.Opposite().String(),
		ResignedPlayer: player.Color.String(),
	})

	log.Info("player resigned", "connectionID", connID, "roomID", room.ID, "winner", player.Color.Opposite())

	return nil
}

// GameState - returns the current snapshot of the connection's room.
func (that *GameManager) GameState(connID string) (*entity.GameState, error) {
	player := that.store.LookupPlayer(connID)
	if player == nil {
		return nil, apperror.ErrPlayerNotFound
	}

	room := that.store.Room(player.RoomID)
	if room == nil {
		return nil, apperror.ErrRoomNotFound
	}

	room.Lock()
	defer room.Unlock()

	snapshot := room.Snapshot()

	return &snapshot, nil
}

func endReason(pos rules.Position) string {
	switch {
	case pos.IsCheckmate():
		return entity.EndCheckmate
	case pos.IsStalemate():
		return entity.EndStalemate
	default:
		return entity.EndDraw
	}
}
