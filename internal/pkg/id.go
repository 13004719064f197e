package pkg

import "github.com/google/uuid"

// GenerateRoomID - returns a unique identifier for a new room.
func GenerateRoomID() string {
	return "room_" + uuid.NewString()
}

// GenerateConnectionID - returns a unique identifier for a new connection.
func GenerateConnectionID() string {
	return uuid.NewString()
}
