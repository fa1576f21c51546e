package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bingoparty/internal/game"
	"github.com/lox/bingoparty/internal/server"
	"github.com/lox/bingoparty/internal/theme"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// startServer runs the real gateway behind httptest
func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := testLogger()
	registry := game.NewRegistry(logger, game.WithSeed(7))
	catalog, err := theme.NewCatalog(theme.Builtin()...)
	require.NoError(t, err)

	s := server.NewServer("127.0.0.1:0", logger, registry, catalog)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = s.Stop()
	})
	return ts
}

func newTestClient(t *testing.T, ts *httptest.Server, name string, opts ...Option) *Client {
	t.Helper()

	c := NewClient(ts.URL, name, testLogger(), opts...)
	require.NoError(t, c.Connect())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// nextEvent waits for the next event of type T, skipping others
func nextEvent[T any](t *testing.T, c *Client) T {
	t.Helper()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-c.Events():
			if typed, ok := ev.(T); ok {
				return typed
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestJoinNewGame(t *testing.T) {
	ts := startServer(t)
	c := newTestClient(t, ts, "Alice")

	require.NoError(t, c.Join("", "ds9"))
	joined := nextEvent[JoinedEvent](t, c)

	assert.False(t, joined.Reconnected)
	assert.NotEmpty(t, joined.PlayerID)
	assert.Equal(t, joined.PlayerID, c.PlayerID())
	require.NotNil(t, joined.State)
	assert.Equal(t, "lobby", joined.State.Status)
	require.NotNil(t, joined.State.Theme)
	assert.Equal(t, "ds9", joined.State.Theme.ID)
}

func TestMarkRoundTrip(t *testing.T) {
	ts := startServer(t)
	c := newTestClient(t, ts, "Alice")

	require.NoError(t, c.Join("room1", "ds9"))
	nextEvent[JoinedEvent](t, c)

	require.NoError(t, c.Mark(1, 3, true))
	state := nextEvent[StateEvent](t, c)

	require.Len(t, state.State.Players, 1)
	assert.True(t, state.State.Players[0].Marks[1][3])
}

func TestProbeExistingGame(t *testing.T) {
	ts := startServer(t)

	host := newTestClient(t, ts, "Alice")
	require.NoError(t, host.Join("room1", "ds9"))
	nextEvent[JoinedEvent](t, host)

	c := newTestClient(t, ts, "Bob")
	require.NoError(t, c.Probe("room1"))
	resp := nextEvent[GameExistsEvent](t, c)

	assert.True(t, resp.Exists)
	assert.Equal(t, "room1", resp.GameID)
	require.NotNil(t, resp.State)
	require.Len(t, resp.State.Players, 1)
	assert.Equal(t, "Alice", resp.State.Players[0].Name)
}

func TestProbeUnknownGame(t *testing.T) {
	ts := startServer(t)
	c := newTestClient(t, ts, "Alice")

	require.NoError(t, c.Probe("no-such-game"))
	resp := nextEvent[GameExistsEvent](t, c)

	assert.False(t, resp.Exists)
	assert.Nil(t, resp.State)
}

// silentServer upgrades the websocket but never answers anything
func silentServer(t *testing.T) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestProbeTimesOut(t *testing.T) {
	ts := silentServer(t)
	ctx := context.Background()

	mockClock := quartz.NewMock(t)
	c := newTestClient(t, ts, "Alice", WithClock(mockClock))

	require.NoError(t, c.Probe("room1"))
	mockClock.Advance(defaultProbeTimeout).MustWait(ctx)

	resp := nextEvent[GameExistsEvent](t, c)
	assert.False(t, resp.Exists)
	assert.Equal(t, "room1", resp.GameID)
}

func TestReconnectRejoinsGame(t *testing.T) {
	ts := startServer(t)
	c := newTestClient(t, ts, "Alice", WithReconnectDelay(10*time.Millisecond))

	require.NoError(t, c.Join("room1", "ds9"))
	first := nextEvent[JoinedEvent](t, c)

	// Kill the underlying connection out from under the client
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	require.NoError(t, conn.Close())

	nextEvent[DisconnectedEvent](t, c)
	rejoined := nextEvent[JoinedEvent](t, c)

	assert.True(t, rejoined.Reconnected)
	assert.NotEqual(t, first.PlayerID, rejoined.PlayerID)
	assert.Equal(t, "room1", rejoined.State.GameID)
	require.NotNil(t, rejoined.State.Theme)
	assert.Equal(t, "ds9", rejoined.State.Theme.ID)
}

func TestSendBeforeConnect(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/ws", "Alice", testLogger())
	assert.Error(t, c.Mark(0, 0, true))
}

func TestWSURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://example.com:8080", "ws://example.com:8080/ws"},
		{"https://example.com", "wss://example.com/ws"},
		{"ws://example.com/ws", "ws://example.com/ws"},
	}
	for _, tt := range tests {
		got, err := wsURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
