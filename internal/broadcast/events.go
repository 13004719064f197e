package broadcast

import (
	"github.com/Alpinnnn/yupichess/internal/entity"
	"github.com/Alpinnnn/yupichess/internal/rules"
)

// Server-to-client event names.
const (
	EventGameJoined           = "gameJoined"
	EventPlayerJoined         = "playerJoined"
	EventGameUpdate           = "gameUpdate"
	EventMoveResult           = "moveResult"
	EventGameEnded            = "gameEnded"
	EventOpponentDisconnected = "opponentDisconnected"
	EventGameState            = "gameState"
)

const ResultResignation = "resignation"

// GameJoinedPayload answers a joinGame request, for the joiner only.
type GameJoinedPayload struct {
	Success      bool              `json:"success"`
	Room         string            `json:"room,omitempty"`
	Color        string            `json:"color,omitempty"`
	GameState    *entity.GameState `json:"gameState,omitempty"`
	PlayersCount int               `json:"playersCount,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// PlayerJoinedPayload tells the existing occupant a peer arrived.
type PlayerJoinedPayload struct {
	PlayersCount int `json:"playersCount"`
}

// GameUpdatePayload is multicast to the whole room after a successful move.
type GameUpdatePayload struct {
	GameState   entity.GameState  `json:"gameState"`
	LastMove    rules.AppliedMove `json:"lastMove"`
	CurrentTurn string            `json:"currentTurn"`
}

// MoveResultPayload is only ever sent on rejection, to the mover alone.
type MoveResultPayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// GameEndedPayload is multicast to the whole room, resigner included.
type GameEndedPayload struct {
	Result         string `json:"result"`
	Winner         string `json:"winner"`
	ResignedPlayer string `json:"resignedPlayer"`
}
