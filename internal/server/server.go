// Package server is the websocket gateway: it accepts connections, parses
// inbound envelopes, dispatches them into the room state machine and pushes
// serialized state back out.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/bingoparty/internal/auth"
	"github.com/lox/bingoparty/internal/game"
	"github.com/lox/bingoparty/internal/theme"
)

// Server represents the WebSocket server
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	registry    *game.Registry
	catalog     *theme.Catalog
	exchanger   auth.Exchanger
	httpServer  *http.Server
}

// Option customises a server
type Option func(*Server)

// WithExchanger wires in the identity-provider token exchange used by the
// /auth/exchange endpoint.
func WithExchanger(ex auth.Exchanger) Option {
	return func(s *Server) { s.exchanger = ex }
}

// WithAllowedOrigins restricts websocket upgrades to the given Origin
// header values. Empty means allow all, which suits local play.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[o] = true
		}
		if len(allowed) == 0 {
			return
		}
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			return allowed[r.Header.Get("Origin")]
		}
	}
}

// NewServer creates a new WebSocket server
func NewServer(addr string, logger *log.Logger, registry *game.Registry, catalog *theme.Catalog, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
		registry:    registry,
		catalog:     catalog,
		exchanger:   auth.NewNoopExchanger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts the WebSocket server and blocks until it stops
func (s *Server) Start() error {
	go s.run()

	s.httpServer = &http.Server{Addr: s.addr, Handler: s.Handler()}

	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the HTTP handler serving the websocket and admin routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/auth/exchange", s.handleAuthExchange)
	return mux
}

// Stop stops the WebSocket server
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				s.cleanupConnection(conn)
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// cleanupConnection removes the connection's bound player from its room.
// The room reassigns its host and broadcasts to the remaining players; the
// room itself is never removed.
func (s *Server) cleanupConnection(conn *Connection) {
	gameID, playerID := conn.bound()
	if playerID == "" {
		return
	}
	room, ok := s.registry.Lookup(gameID)
	if !ok {
		return
	}
	s.logger.Info("Cleaning up disconnected player", "player", playerID, "game", gameID)
	room.RemovePlayer(playerID)
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s)
	s.register <- client
	client.Start()

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// handleStats reports room and connection counts as plain text
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	conns := len(s.connections)
	s.mu.RUnlock()

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "Rooms: %d\n", s.registry.Len())
	_, _ = fmt.Fprintf(w, "Connections: %d\n", conns)
	_, _ = fmt.Fprintf(w, "Themes: %d\n", s.catalog.Len())
}

type exchangeRequest struct {
	Code string `json:"code"`
}

type exchangeResponse struct {
	AccessToken string `json:"accessToken"`
	Username    string `json:"username"`
}

// handleAuthExchange trades an identity-provider authorization code for the
// access token and username used to prefill a display name. The game state
// machine never sees credentials.
func (s *Server) handleAuthExchange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	identity, err := s.exchanger.Exchange(r.Context(), req.Code)
	switch {
	case errors.Is(err, auth.ErrInvalidCode):
		http.Error(w, "invalid code", http.StatusUnauthorized)
		return
	case err != nil:
		s.logger.Error("Token exchange failed", "error", err)
		http.Error(w, "identity provider unavailable", http.StatusBadGateway)
		return
	case identity == nil:
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(exchangeResponse{
		AccessToken: identity.AccessToken,
		Username:    identity.Username,
	})
}
