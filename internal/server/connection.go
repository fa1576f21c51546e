package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/bingoparty/internal/gameid"
	"github.com/lox/bingoparty/internal/protocol"
	"github.com/lox/bingoparty/internal/theme"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection represents a WebSocket connection to a client. It binds at
// most one (gameId, playerId) pair for its lifetime; unbound connections
// may only probe or join.
type Connection struct {
	conn      *websocket.Conn
	send      chan any
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	server    *Server

	gameID   string
	playerID string
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan any, 256),
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
		server: server,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Send queues a message for the client. It implements game.Conn, which is
// how rooms push broadcasts without knowing about websockets.
func (c *Connection) Send(msg any) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown
			c.logger.Debug("Attempted to send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// IsOpen reports whether the transport is still usable. Rooms skip closed
// connections during fan-out.
func (c *Connection) IsOpen() bool {
	return c.ctx.Err() == nil
}

// bind associates this connection with a player in a game
func (c *Connection) bind(gameID, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameID = gameID
	c.playerID = playerID
}

// bound returns the associated game and player ids
func (c *Connection) bound() (gameID, playerID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameID, c.playerID
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(data)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage parses one inbound envelope and dispatches it. A bad
// message from one participant only ever produces an error to that
// participant; it never closes the connection or touches the room.
func (c *Connection) handleMessage(data []byte) {
	mt, err := protocol.PeekType(data)
	if err != nil {
		c.sendError("invalid_json")
		return
	}

	_, playerID := c.bound()
	c.logger.Debug("Received message", "type", mt, "player", playerID)

	switch mt {
	case protocol.TypeProbe:
		var msg protocol.Probe
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("invalid_json")
			return
		}
		c.handleProbe(msg)

	case protocol.TypeJoin:
		var msg protocol.Join
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("invalid_json")
			return
		}
		c.handleJoin(msg)

	case protocol.TypeMark:
		var msg protocol.Mark
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("invalid_mark")
			return
		}
		c.handleMark(msg)

	case protocol.TypeRequestBingo:
		c.handleRequestBingo()

	default:
		c.sendError("unknown_message_type")
	}
}

// handleProbe answers an existence check. Lookup only: probing an unseen
// game id must not create the room.
func (c *Connection) handleProbe(msg protocol.Probe) {
	resp := &protocol.GameExists{Type: protocol.TypeGameExists}
	if room, ok := c.server.registry.Lookup(msg.GameID); ok {
		resp.Exists = true
		resp.State = room.Snapshot()
	}
	_ = c.Send(resp)
}

// handleJoin registers the caller in a room, creating it if absent. The
// create flag on the wire is advisory; behaviour is always get-or-create.
func (c *Connection) handleJoin(msg protocol.Join) {
	if _, playerID := c.bound(); playerID != "" {
		c.sendError("already_joined")
		return
	}

	gameID := msg.GameID
	if gameID == "" {
		gameID = gameid.New()
	}

	var th *theme.Theme
	if msg.Theme != "" {
		var ok bool
		if th, ok = c.server.catalog.Get(msg.Theme); !ok {
			c.logger.Warn("Unknown theme requested, joining without one", "theme", msg.Theme)
		}
	}

	room := c.server.registry.GetOrCreate(gameID)
	playerID, state := room.Join(c, msg.Name, th)
	c.bind(gameID, playerID)

	c.logger.Info("Join request", "game", gameID, "player", playerID, "name", msg.Name)

	_ = c.Send(&protocol.Joined{Type: protocol.TypeJoined, PlayerID: playerID, State: state})
}

// handleMark applies a mark mutation for the caller's player
func (c *Connection) handleMark(msg protocol.Mark) {
	gameID, playerID := c.bound()
	if playerID == "" {
		c.sendError("not_joined")
		return
	}
	if msg.Row == nil || msg.Col == nil {
		c.sendError("invalid_mark")
		return
	}

	room, ok := c.server.registry.Lookup(gameID)
	if !ok {
		c.sendError("game_not_found")
		return
	}

	if err := room.Mark(playerID, *msg.Row, *msg.Col, msg.Marked); err != nil {
		c.sendError(err.Error())
		return
	}
}

// handleRequestBingo validates a win claim for the caller's player
func (c *Connection) handleRequestBingo() {
	gameID, playerID := c.bound()
	if playerID == "" {
		c.sendError("not_joined")
		return
	}

	room, ok := c.server.registry.Lookup(gameID)
	if !ok {
		c.sendError("game_not_found")
		return
	}

	if _, err := room.RequestBingo(playerID); err != nil {
		c.sendError(err.Error())
		return
	}
}

// sendError sends an error code to the client
func (c *Connection) sendError(code string) {
	_ = c.Send(&protocol.Error{Type: protocol.TypeError, Message: code})
}
