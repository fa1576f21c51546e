package server

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/lox/bingoparty/internal/game"
	"github.com/lox/bingoparty/internal/protocol"
	"github.com/lox/bingoparty/internal/theme"
)

// testLogger creates a logger that discards output for tests
func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// newTestServer spins up a fully wired gateway behind httptest
func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()

	logger := testLogger()
	registry := game.NewRegistry(logger, game.WithSeed(42))
	catalog, err := theme.NewCatalog(theme.Builtin()...)
	require.NoError(t, err)

	s := NewServer("127.0.0.1:0", logger, registry, catalog, opts...)
	go s.run()

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = s.Stop()
	})
	return s, ts
}

// dial opens a websocket client against the test server
func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func sendRaw(t *testing.T, conn *websocket.Conn, data string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(data)))
}

// recvMessage reads and decodes one protocol message
func recvMessage(t *testing.T, conn *websocket.Conn) any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	msg, err := protocol.Decode(data)
	require.NoError(t, err)
	return msg
}

// waitFor reads messages until one of type T arrives
func waitFor[T any](t *testing.T, conn *websocket.Conn) T {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		msg := recvMessage(t, conn)
		if typed, ok := msg.(T); ok {
			return typed
		}
	}
	var zero T
	t.Fatalf("timed out waiting for %T", zero)
	return zero
}

// joinGame performs a join and returns the response
func joinGame(t *testing.T, conn *websocket.Conn, gameID, name, themeID string) *protocol.Joined {
	t.Helper()
	sendJSON(t, conn, &protocol.Join{Type: protocol.TypeJoin, GameID: gameID, Name: name, Theme: themeID})
	return waitFor[*protocol.Joined](t, conn)
}

// markCell marks one cell for an already-joined connection
func markCell(t *testing.T, conn *websocket.Conn, r, c int, marked bool) {
	t.Helper()
	sendJSON(t, conn, &protocol.Mark{Type: protocol.TypeMark, Row: &r, Col: &c, Marked: marked})
}
