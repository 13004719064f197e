package broadcast

import (
	"log/slog"
	"sync"

	"github.com/Alpinnnn/yupichess/internal/entity"
)

// Sender delivers one event to a single connection. Implementations must not
// block: a send either enqueues immediately or fails.
type Sender interface {
	Send(event string, payload any) error
}

// Gateway fans events out to the connections belonging to a room. It is a
// stateless dispatcher over the room's occupant list; a failed send is
// logged and never aborts delivery to the other recipients.
type Gateway struct {
	logger *slog.Logger

	mu      sync.RWMutex
	senders map[string]Sender
}

func New(logger *slog.Logger) *Gateway {
	return &Gateway{
		logger:  logger.With("component", "broadcast"),
		senders: make(map[string]Sender),
	}
}

// Register - binds a connection's sender. Called by the transport when a
// connection is established.
func (that *Gateway) Register(connID string, sender Sender) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.senders[connID] = sender
}

// Unregister - drops a connection's sender. Safe to call twice.
func (that *Gateway) Unregister(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.senders, connID)
}

// To - sends an event to a single connection.
func (that *Gateway) To(connID, event string, payload any) {
	that.mu.RLock()
	sender, ok := that.senders[connID]
	that.mu.RUnlock()

	if !ok {
		that.logger.Debug("connection not found, dropping event", "connectionID", connID, "event", event)
		return
	}

	if err := sender.Send(event, payload); err != nil {
		that.logger.Error("failed to send event", "connectionID", connID, "event", event, "error", err)
	}
}

// Broadcast - sends an event to every occupant of the room.
func (that *Gateway) Broadcast(room *entity.Room, event string, payload any) {
	for _, player := range room.Players() {
		that.To(player.ID, event, payload)
	}
}

// NotifyOthers - sends an event to every occupant except the given one.
func (that *Gateway) NotifyOthers(room *entity.Room, exceptConnID, event string, payload any) {
	for _, player := range room.Players() {
		if player.ID == exceptConnID {
			continue
		}
		that.To(player.ID, event, payload)
	}
}
