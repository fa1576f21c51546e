// Package client provides a WebSocket client for joining games and keeping
// a local copy of room state current. Incoming messages surface as typed
// events on a channel so a UI can consume them from its own loop.
package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/bingoparty/internal/protocol"
)

const (
	defaultProbeTimeout   = 1200 * time.Millisecond
	defaultReconnectDelay = 1500 * time.Millisecond
)

// Event is a message surfaced to the consumer. One of the concrete event
// types below.
type Event any

// JoinedEvent fires when the server accepts a join. Reconnected is set when
// the join was an automatic re-join after a dropped connection; the player
// id changes on every join.
type JoinedEvent struct {
	PlayerID    string
	State       *protocol.RoomState
	Reconnected bool
}

// StateEvent carries a full room snapshot
type StateEvent struct {
	State *protocol.RoomState
}

// BingoEvent announces the winner
type BingoEvent struct {
	PlayerID string
	Name     string
}

// ErrorEvent carries a server error code
type ErrorEvent struct {
	Code string
}

// GameExistsEvent answers a probe. A probe that gets no reply before the
// probe timeout is reported as not existing.
type GameExistsEvent struct {
	GameID string
	Exists bool
	State  *protocol.RoomState
}

// DisconnectedEvent fires when the connection drops and the client begins
// reconnecting
type DisconnectedEvent struct{}

// Client connects to the bingo server over WebSocket
type Client struct {
	serverURL      string
	name           string
	logger         *log.Logger
	clock          quartz.Clock
	probeTimeout   time.Duration
	reconnectDelay time.Duration

	mu         sync.RWMutex
	conn       *websocket.Conn
	gameID     string
	themeID    string
	playerID   string
	joined     bool
	probeTimer *quartz.Timer
	probeGame  string

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
}

// Option customises a client
type Option func(*Client)

// WithClock replaces the wall clock, used by tests
func WithClock(clock quartz.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithProbeTimeout overrides how long a probe waits for an answer
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Client) { c.probeTimeout = d }
}

// WithReconnectDelay overrides the pause between reconnect attempts
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.reconnectDelay = d }
}

// NewClient creates a client for the given server URL and display name
func NewClient(serverURL, name string, logger *log.Logger, opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		serverURL:      serverURL,
		name:           name,
		logger:         logger.WithPrefix("client"),
		clock:          quartz.NewReal(),
		probeTimeout:   defaultProbeTimeout,
		reconnectDelay: defaultReconnectDelay,
		events:         make(chan Event, 64),
		ctx:            ctx,
		cancel:         cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the channel the client delivers events on
func (c *Client) Events() <-chan Event {
	return c.events
}

// SetName changes the display name used on the next join
func (c *Client) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// PlayerID returns the id assigned by the most recent join, or empty
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// Connect dials the server and starts the read loop
func (c *Client) Connect() error {
	u, err := wsURL(c.serverURL)
	if err != nil {
		return err
	}

	c.logger.Info("Connecting to server", "url", u)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Close tears the client down. The events channel stays open but nothing
// further is delivered.
func (c *Client) Close() error {
	c.cancel()

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return conn.Close()
	}
	return nil
}

// Probe asks whether a game exists without joining it. The answer arrives
// as a GameExistsEvent; if the server stays silent past the probe timeout
// the game is reported as not existing.
func (c *Client) Probe(gameID string) error {
	c.mu.Lock()
	if c.probeTimer != nil {
		c.probeTimer.Stop()
	}
	c.probeGame = gameID
	c.probeTimer = c.clock.AfterFunc(c.probeTimeout, func() {
		c.mu.Lock()
		pending := c.probeGame == gameID
		c.probeGame = ""
		c.mu.Unlock()
		if pending {
			c.emit(GameExistsEvent{GameID: gameID, Exists: false})
		}
	})
	c.mu.Unlock()

	return c.send(&protocol.Probe{Type: protocol.TypeProbe, GameID: gameID})
}

// Join enters a game. An empty gameID asks the server to mint one; themeID
// only takes effect if the room does not already have a theme.
func (c *Client) Join(gameID, themeID string) error {
	c.mu.Lock()
	c.gameID = gameID
	c.themeID = themeID
	name := c.name
	c.mu.Unlock()

	return c.send(&protocol.Join{
		Type:   protocol.TypeJoin,
		GameID: gameID,
		Name:   name,
		Theme:  themeID,
	})
}

// Mark sets or clears one cell on the player's card
func (c *Client) Mark(row, col int, marked bool) error {
	return c.send(&protocol.Mark{Type: protocol.TypeMark, Row: &row, Col: &col, Marked: marked})
}

// RequestBingo claims a win
func (c *Client) RequestBingo() error {
	return c.send(&protocol.RequestBingo{Type: protocol.TypeRequestBingo})
}

func (c *Client) send(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Connection lost", "error", err)
			}
			c.handleDisconnect()
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			c.logger.Warn("Discarding unreadable message", "error", err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg any) {
	switch m := msg.(type) {
	case *protocol.GameExists:
		c.mu.Lock()
		gameID := c.probeGame
		if c.probeTimer != nil {
			c.probeTimer.Stop()
		}
		c.probeGame = ""
		c.mu.Unlock()
		c.emit(GameExistsEvent{GameID: gameID, Exists: m.Exists, State: m.State})

	case *protocol.Joined:
		c.mu.Lock()
		reconnected := c.joined
		c.joined = true
		c.playerID = m.PlayerID
		if m.State != nil {
			c.gameID = m.State.GameID
		}
		c.mu.Unlock()
		c.emit(JoinedEvent{PlayerID: m.PlayerID, State: m.State, Reconnected: reconnected})

	case *protocol.State:
		c.emit(StateEvent{State: m.State})

	case *protocol.Bingo:
		c.emit(BingoEvent{PlayerID: m.PlayerID, Name: m.Name})

	case *protocol.Error:
		c.emit(ErrorEvent{Code: m.Message})

	default:
		c.logger.Warn("Unexpected message from server", "type", fmt.Sprintf("%T", msg))
	}
}

// handleDisconnect retries the connection indefinitely, pausing between
// attempts. Once a dial succeeds the client re-joins the game it was in.
func (c *Client) handleDisconnect() {
	c.mu.RLock()
	joined := c.joined
	gameID := c.gameID
	themeID := c.themeID
	c.mu.RUnlock()

	if !joined {
		return
	}

	c.emit(DisconnectedEvent{})

	for {
		retry := make(chan struct{})
		timer := c.clock.AfterFunc(c.reconnectDelay, func() {
			close(retry)
		})

		select {
		case <-c.ctx.Done():
			timer.Stop()
			return
		case <-retry:
		}

		u, err := wsURL(c.serverURL)
		if err != nil {
			return
		}
		conn, _, err := websocket.DefaultDialer.Dial(u, nil)
		if err != nil {
			c.logger.Warn("Reconnect attempt failed", "error", err)
			continue
		}

		c.logger.Info("Reconnected, rejoining game", "game", gameID)
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		go c.readLoop(conn)
		if err := c.Join(gameID, themeID); err != nil {
			c.logger.Warn("Rejoin failed", "error", err)
		}
		return
	}
}

func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-c.ctx.Done():
	}
}

// wsURL normalizes an http(s) or ws(s) URL to the websocket endpoint
func wsURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		u.Scheme = "ws"
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}
