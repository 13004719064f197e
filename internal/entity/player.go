package entity

// Color is a player's side in a room. The first joiner always plays white.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

func (that Color) Opposite() Color {
	if that == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

func (that Color) String() string {
	return string(that)
}

// Player binds a live connection to a seat in a room.
type Player struct {
	ID     string `json:"id"`
	Color  Color  `json:"color,omitempty"`
	RoomID string `json:"room_id,omitempty"`
}
