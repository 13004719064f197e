package entity

import (
	"sync"

	"github.com/Alpinnnn/yupichess/internal/apperror"
	"github.com/Alpinnnn/yupichess/internal/rules"
)

const (
	StatusWaiting  = "waiting"
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
)

const (
	EndCheckmate   = "checkmate"
	EndStalemate   = "stalemate"
	EndDraw        = "draw"
	EndResignation = "resignation"
)

// GameState is the read-only snapshot of a room's position and status that
// clients receive. Field names mirror what the reference client consumes.
type GameState struct {
	FEN         string   `json:"fen"`
	Turn        string   `json:"turn"`
	IsGameOver  bool     `json:"isGameOver"`
	IsCheck     bool     `json:"isCheck"`
	IsCheckmate bool     `json:"isCheckmate"`
	IsDraw      bool     `json:"isDraw"`
	IsStalemate bool     `json:"isStalemate"`
	CurrentTurn string   `json:"currentTurn"`
	History     []string `json:"history"`
}

// Room is a paired play session: two named seats and one authoritative
// position. Every mutation of a Room must happen under its lock.
type Room struct {
	mu sync.Mutex

	ID          string
	White       *Player
	Black       *Player
	Position    rules.Position
	CurrentTurn Color
	Status      string
	EndReason   string

	closed bool
}

func NewRoom(id string, position rules.Position) *Room {
	return &Room{
		ID:          id,
		Position:    position,
		CurrentTurn: ColorWhite,
		Status:      StatusWaiting,
	}
}

// Lock - acquires the room's exclusion lock. Exactly one mutating operation
// (join, move, resignation, teardown) may be in flight per room.
func (that *Room) Lock() {
	that.mu.Lock()
}

func (that *Room) Unlock() {
	that.mu.Unlock()
}

// Seat - places a player on the first empty seat, white first. Seating the
// second player starts the game. A closed room refuses everyone: the caller
// picked it up before the registry tore it down.
func (that *Room) Seat(player *Player) (Color, error) {
	if that.closed {
		return "", apperror.ErrRoomClosed
	}

	switch {
	case that.White == nil:
		player.Color = ColorWhite
		that.White = player
	case that.Black == nil:
		player.Color = ColorBlack
		that.Black = player
	default:
		return "", apperror.ErrRoomFull
	}

	player.RoomID = that.ID

	if that.PlayerCount() == 2 && that.IsWaiting() {
		that.Status = StatusOngoing
	}

	return player.Color, nil
}

// RemovePlayer - clears the seat held by the given connection. Removing an
// absent player is a no-op.
func (that *Room) RemovePlayer(id string) bool {
	switch {
	case that.White != nil && that.White.ID == id:
		that.White = nil
	case that.Black != nil && that.Black.ID == id:
		that.Black = nil
	default:
		return false
	}

	return true
}

// Players - returns the occupants in seat order, white first.
func (that *Room) Players() []*Player {
	players := make([]*Player, 0, 2)
	if that.White != nil {
		players = append(players, that.White)
	}
	if that.Black != nil {
		players = append(players, that.Black)
	}

	return players
}

// Opponent - returns the occupant of the other seat, if any.
func (that *Room) Opponent(id string) *Player {
	if that.White != nil && that.White.ID != id {
		return that.White
	}
	if that.Black != nil && that.Black.ID != id {
		return that.Black
	}

	return nil
}

func (that *Room) PlayerCount() int {
	return len(that.Players())
}

func (that *Room) IsFull() bool {
	return that.White != nil && that.Black != nil
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

// Close - marks the room as removed from the registry. Must be called under
// the room lock, in the same critical section that observed it empty.
func (that *Room) Close() {
	that.closed = true
}

func (that *Room) IsClosed() bool {
	return that.closed
}

// Finish - moves the room to its terminal state. Finished rooms accept no
// further moves and are torn down only by their occupants leaving.
func (that *Room) Finish(reason string) {
	that.Status = StatusFinished
	that.EndReason = reason
}

// Snapshot - derives the client-facing view of the room. A room finished by
// resignation reports game over even though the position itself is not.
func (that *Room) Snapshot() GameState {
	return GameState{
		FEN:         that.Position.FEN(),
		Turn:        that.Position.Turn(),
		IsGameOver:  that.Position.IsGameOver() || that.IsFinished(),
		IsCheck:     that.Position.IsCheck(),
		IsCheckmate: that.Position.IsCheckmate(),
		IsDraw:      that.Position.IsDraw(),
		IsStalemate: that.Position.IsStalemate(),
		CurrentTurn: that.CurrentTurn.String(),
		History:     that.Position.History(),
	}
}
