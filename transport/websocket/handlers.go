package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Alpinnnn/yupichess/internal/apperror"
	"github.com/Alpinnnn/yupichess/internal/broadcast"
	"github.com/Alpinnnn/yupichess/internal/rules"
)

func (that *Server) handleJoinGame(connID string, _ json.RawMessage) error {
	result := that.game.JoinGame(connID)

	that.gateway.To(connID, broadcast.EventGameJoined, broadcast.GameJoinedPayload{
		Success:      true,
		Room:         result.RoomID,
		Color:        result.Color.String(),
		GameState:    &result.GameState,
		PlayersCount: result.PlayersCount,
	})

	return nil
}

func (that *Server) handleMakeMove(connID string, payload json.RawMessage) error {
	var move rules.Move
	if err := json.Unmarshal(payload, &move); err != nil {
		that.gateway.To(connID, broadcast.EventMoveResult, broadcast.MoveResultPayload{
			Success: false,
			Error:   errorMessage(apperror.ErrInvalidMove),
		})

		return fmt.Errorf("failed to unmarshal move: %w", err)
	}

	if _, err := that.game.MakeMove(connID, move); err != nil {
		// rejections go to the mover alone, the room hears nothing
		that.gateway.To(connID, broadcast.EventMoveResult, broadcast.MoveResultPayload{
			Success: false,
			Error:   errorMessage(err),
		})
	}

	return nil
}

func (that *Server) handleResign(connID string, _ json.RawMessage) error {
	if err := that.game.Resign(connID); err != nil {
		return fmt.Errorf("failed to resign: %w", err)
	}

	return nil
}

func (that *Server) handleRequestGameState(connID string, _ json.RawMessage) error {
	state, err := that.game.GameState(connID)
	if err != nil {
		return fmt.Errorf("failed to get game state: %w", err)
	}

	that.gateway.To(connID, broadcast.EventGameState, state)

	return nil
}

// errorMessage - maps domain errors to the protocol strings clients expect.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, apperror.ErrPlayerNotFound):
		return "Player not found"
	case errors.Is(err, apperror.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, apperror.ErrGameOver):
		return "Game is over"
	case errors.Is(err, apperror.ErrOpponentNotPresent):
		return "Opponent not present"
	default:
		return "Invalid move"
	}
}
