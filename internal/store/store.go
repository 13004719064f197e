package store

import (
	"sync"

	"github.com/Alpinnnn/yupichess/internal/entity"
	"github.com/Alpinnnn/yupichess/internal/pkg"
	"github.com/Alpinnnn/yupichess/internal/rules"
)

// Store is the authoritative in-memory session registry: every room and
// every connection-to-player binding lives here and nowhere else. State is
// lost on process restart.
//
// The store mutex guards the two maps; mutating a room's internal state is
// the room's own concern (see entity.Room.Lock). A room lock may be taken
// while holding the store lock, never the other way around.
type Store struct {
	mu      sync.RWMutex
	rooms   map[string]*entity.Room
	order   []string // room ids in creation order, drives the first-fit scan
	players map[string]*entity.Player
}

func New() *Store {
	return &Store{
		rooms:   make(map[string]*entity.Room),
		players: make(map[string]*entity.Player),
	}
}

// CreateRoom - registers a new empty room owning the given position.
func (that *Store) CreateRoom(position rules.Position) *entity.Room {
	room := entity.NewRoom(pkg.GenerateRoomID(), position)

	that.mu.Lock()
	defer that.mu.Unlock()

	that.rooms[room.ID] = room
	that.order = append(that.order, room.ID)

	return room
}

// FindOpenRoom - linear scan over all rooms in creation order; the first
// room with a free seat wins. O(number of rooms), which is fine at the scale
// a single process serves. Finished rooms never take new players.
func (that *Store) FindOpenRoom() *entity.Room {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, id := range that.order {
		room := that.rooms[id]
		if roomIsOpen(room) {
			return room
		}
	}

	return nil
}

func roomIsOpen(room *entity.Room) bool {
	room.Lock()
	defer room.Unlock()

	return !room.IsFull() && !room.IsFinished()
}

// BindPlayer - records the connection-to-player binding.
func (that *Store) BindPlayer(player *entity.Player) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.players[player.ID] = player
}

// LookupPlayer - returns the player bound to the connection, or nil.
func (that *Store) LookupPlayer(connID string) *entity.Player {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.players[connID]
}

// RemovePlayer - drops the connection-to-player binding. Removing an unknown
// connection is a no-op.
func (that *Store) RemovePlayer(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.players, connID)
}

// Room - returns the room with the given id, or nil.
func (that *Store) Room(roomID string) *entity.Room {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.rooms[roomID]
}

// DeleteRoomIfEmpty - removes the room once its last seat is vacated. The
// room is closed under its own lock before it leaves the registry, so a join
// that picked it out of an earlier scan finds it unseatable instead of being
// admitted into a deleted room.
func (that *Store) DeleteRoomIfEmpty(roomID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if !ok {
		return false
	}

	room.Lock()
	empty := room.PlayerCount() == 0
	if empty {
		room.Close()
	}
	room.Unlock()

	if !empty {
		return false
	}

	delete(that.rooms, roomID)
	for i, id := range that.order {
		if id == roomID {
			that.order = append(that.order[:i], that.order[i+1:]...)
			break
		}
	}

	return true
}

// RoomCount - number of live rooms.
func (that *Store) RoomCount() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}
