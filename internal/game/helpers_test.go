package game

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/bingoparty/internal/protocol"
	"github.com/lox/bingoparty/internal/theme"
)

// testLogger creates a logger that discards output for tests
func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// fakeConn records everything sent to it
type fakeConn struct {
	mu     sync.Mutex
	closed bool
	msgs   []any
}

func (f *fakeConn) Send(msg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeConn) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeConn) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) sent() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]any, len(f.msgs))
	copy(out, f.msgs)
	return out
}

func (f *fakeConn) statesReceived() []*protocol.State {
	var states []*protocol.State
	for _, msg := range f.sent() {
		if s, ok := msg.(*protocol.State); ok {
			states = append(states, s)
		}
	}
	return states
}

func (f *fakeConn) bingosReceived() []*protocol.Bingo {
	var bingos []*protocol.Bingo
	for _, msg := range f.sent() {
		if b, ok := msg.(*protocol.Bingo); ok {
			bingos = append(bingos, b)
		}
	}
	return bingos
}

func ds9Theme() *theme.Theme {
	for _, th := range theme.Builtin() {
		if th.ID == "ds9" {
			return th
		}
	}
	panic("ds9 builtin missing")
}

// markAll marks every cell of a player's grid through the public operation
func markAll(room *Room, playerID string) error {
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			if err := room.Mark(playerID, r, c, true); err != nil {
				return err
			}
		}
	}
	return nil
}
