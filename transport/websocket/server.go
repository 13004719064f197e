package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Alpinnnn/yupichess/internal/broadcast"
	"github.com/Alpinnnn/yupichess/internal/entity"
	"github.com/Alpinnnn/yupichess/internal/pkg"
	"github.com/Alpinnnn/yupichess/internal/rules"
	"github.com/Alpinnnn/yupichess/internal/usecase"
)

type gameService interface {
	JoinGame(connID string) *usecase.JoinResult
	MakeMove(connID string, move rules.Move) (*usecase.MoveOutcome, error)
	Resign(connID string) error
	Disconnect(connID string)
	GameState(connID string) (*entity.GameState, error)
}

// Server is the WebSocket entry point: it upgrades connections, assigns them
// ids, and dispatches inbound events to the game service.
type Server struct {
	logger   *slog.Logger
	game     gameService
	gateway  *broadcast.Gateway
	upgrader websocket.Upgrader

	handlers map[string]func(connID string, payload json.RawMessage) error
}

func New(logger *slog.Logger, game gameService, gateway *broadcast.Gateway, allowedOrigins []string) *Server {
	server := &Server{
		logger:  logger,
		game:    game,
		gateway: gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},

		handlers: make(map[string]func(string, json.RawMessage) error),
	}

	server.handlers["joinGame"] = server.handleJoinGame
	server.handlers["makeMove"] = server.handleMakeMove
	server.handlers["resign"] = server.handleResign
	server.handlers["requestGameState"] = server.handleRequestGameState

	return server
}

// Start - starts the WebSocket server and shuts it down when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.HandleWS)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// HandleWS - upgrades the connection and runs its read loop until the peer
// goes away, then triggers disconnect handling.
func (that *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "HandleWS")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	connID := pkg.GenerateConnectionID()
	log = log.With("connectionID", connID)

	client := newClient(connID, conn, that.logger)
	that.gateway.Register(connID, client)
	go client.writePump()

	log.Info("player connected")

	that.readLoop(client)

	that.gateway.Unregister(connID)
	that.game.Disconnect(connID)
	client.close()

	log.Info("player disconnected")
}

func (that *Server) readLoop(client *Client) {
	log := that.logger.With("method", "readLoop", "connectionID", client.id)

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("connection closed unexpectedly", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Event]
		if !ok {
			log.Warn("unknown event", "event", message.Event)
			continue
		}

		if err = handler(client.id, message.Payload); err != nil {
			log.Error("error processing event", "event", message.Event, "error", err)
		}
	}
}

// originChecker - allows listed origins plus non-browser clients (no Origin
// header). An empty list allows everything.
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowedOrigins) == 0 {
			return true
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		return false
	}
}
