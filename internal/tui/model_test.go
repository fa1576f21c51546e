package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bingoparty/internal/client"
	"github.com/lox/bingoparty/internal/protocol"
)

// stubClient records calls so tests can assert on key handling. Its events
// channel is closed so the event pump command returns immediately.
type stubClient struct {
	events  chan client.Event
	name    string
	probes  []string
	joins   []string
	marks   [][3]any
	bingoed int
	closed  bool
}

func newStubClient() *stubClient {
	ch := make(chan client.Event)
	close(ch)
	return &stubClient{events: ch}
}

func (s *stubClient) Events() <-chan client.Event { return s.events }
func (s *stubClient) SetName(name string)         { s.name = name }
func (s *stubClient) Probe(gameID string) error   { s.probes = append(s.probes, gameID); return nil }
func (s *stubClient) Join(gameID, themeID string) error {
	s.joins = append(s.joins, gameID)
	return nil
}
func (s *stubClient) Mark(row, col int, marked bool) error {
	s.marks = append(s.marks, [3]any{row, col, marked})
	return nil
}
func (s *stubClient) RequestBingo() error { s.bingoed++; return nil }
func (s *stubClient) Close() error        { s.closed = true; return nil }

func testState(playerID string) *protocol.RoomState {
	var grid [5][5]string
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			grid[r][c] = "item"
		}
	}
	grid[2][2] = "FREE"
	var marks [5][5]bool
	marks[2][2] = true

	return &protocol.RoomState{
		GameID: "room1",
		Status: "lobby",
		HostID: playerID,
		Theme:  &protocol.ThemeInfo{ID: "ds9", Name: "Deep Space Nine"},
		Players: []protocol.PlayerState{
			{ID: playerID, Name: "Alice", Card: grid, Marks: marks},
		},
	}
}

// joinedModel builds a model already sitting in a game
func joinedModel(t *testing.T) (*Model, *stubClient) {
	t.Helper()

	stub := newStubClient()
	m := NewModel(stub, "room1", "ds9", "Alice")
	updated, _ := m.Update(eventMsg{ev: client.JoinedEvent{
		PlayerID: "p1",
		State:    testState("p1"),
	}})
	model, ok := updated.(*Model)
	require.True(t, ok)
	return model, stub
}

func TestNameFormSubmits(t *testing.T) {
	stub := newStubClient()
	m := NewModel(stub, "", "", "")

	assert.Contains(t, m.View(), "What should we call you?")

	for _, r := range "Alice" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drainCmd(m, cmd)

	assert.Equal(t, "Alice", stub.name)
	assert.Equal(t, []string{""}, stub.joins)
}

func TestNameFormRejectsEmpty(t *testing.T) {
	stub := newStubClient()
	m := NewModel(stub, "", "", "")

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, stub.joins)
}

func TestKnownGameProbesBeforeJoining(t *testing.T) {
	stub := newStubClient()
	m := NewModel(stub, "room1", "", "Alice")

	cmd := m.Init()
	require.NotNil(t, cmd)
	drainCmd(m, cmd)

	assert.Equal(t, []string{"room1"}, stub.probes)
}

func TestGameExistsTriggersJoin(t *testing.T) {
	stub := newStubClient()
	m := NewModel(stub, "room1", "", "Alice")

	_, cmd := m.Update(eventMsg{ev: client.GameExistsEvent{GameID: "room1", Exists: true}})
	drainCmd(m, cmd)

	assert.Equal(t, []string{"room1"}, stub.joins)
}

func TestJoinedRendersBoard(t *testing.T) {
	m, _ := joinedModel(t)

	view := m.View()
	assert.Contains(t, view, "room1")
	assert.Contains(t, view, "Deep Space Nine")
	assert.Contains(t, view, "FREE")
	assert.Contains(t, view, "Alice (1/24)")
	assert.Contains(t, view, "(host)")
	assert.Contains(t, view, "(you)")
}

func TestCursorMovementAndMark(t *testing.T) {
	m, stub := joinedModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	drainCmd(m, cmd)

	require.Len(t, stub.marks, 1)
	assert.Equal(t, [3]any{1, 1, true}, stub.marks[0])
}

func TestCursorStaysInBounds(t *testing.T) {
	m, _ := joinedModel(t)

	for i := 0; i < 10; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyUp})
		m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	}
	assert.Equal(t, 0, m.cursorRow)
	assert.Equal(t, 0, m.cursorCol)

	for i := 0; i < 10; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
		m.Update(tea.KeyMsg{Type: tea.KeyRight})
	}
	assert.Equal(t, 4, m.cursorRow)
	assert.Equal(t, 4, m.cursorCol)
}

func TestFreeCellCannotBeToggled(t *testing.T) {
	m, stub := joinedModel(t)

	m.cursorRow, m.cursorCol = 2, 2
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	drainCmd(m, cmd)

	assert.Empty(t, stub.marks)
}

func TestBingoKey(t *testing.T) {
	m, stub := joinedModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'b'}})
	drainCmd(m, cmd)

	assert.Equal(t, 1, stub.bingoed)
}

func TestWinnerBanner(t *testing.T) {
	m, _ := joinedModel(t)

	m.Update(eventMsg{ev: client.BingoEvent{PlayerID: "p1", Name: "Alice"}})
	assert.Contains(t, m.View(), "BINGO! Alice wins!")
}

func TestErrorLineAndClear(t *testing.T) {
	m, _ := joinedModel(t)

	m.Update(eventMsg{ev: client.ErrorEvent{Code: "invalid_bingo"}})
	assert.Contains(t, m.View(), "Not yet!")

	// The next action clears the error
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	drainCmd(m, cmd)
	assert.NotContains(t, m.View(), "Not yet!")
}

func TestDisconnectedNotice(t *testing.T) {
	m, _ := joinedModel(t)

	m.Update(eventMsg{ev: client.DisconnectedEvent{}})
	assert.Contains(t, m.View(), "reconnecting")

	m.Update(eventMsg{ev: client.JoinedEvent{PlayerID: "p2", State: testState("p2")}})
	assert.NotContains(t, m.View(), "reconnecting")
}

func TestQuitClosesClient(t *testing.T) {
	m, stub := joinedModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.True(t, stub.closed)
	assert.Empty(t, m.View())
}

// drainCmd executes a command tree, feeding any resulting messages back in
func drainCmd(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if msg == nil {
		return
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			drainCmd(m, c)
		}
		return
	}
	if _, ok := msg.(eventMsg); ok {
		updated, next := m.Update(msg)
		if mm, ok := updated.(*Model); ok {
			drainCmd(mm, next)
		}
	}
}
