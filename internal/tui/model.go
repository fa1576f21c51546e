// Package tui renders the interactive card view. It consumes events from the
// websocket client and turns key presses into game actions.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lox/bingoparty/internal/card"
	"github.com/lox/bingoparty/internal/client"
	"github.com/lox/bingoparty/internal/protocol"
)

const cellWidth = 14

// GameClient is the slice of the websocket client the TUI drives
type GameClient interface {
	Events() <-chan client.Event
	SetName(name string)
	Probe(gameID string) error
	Join(gameID, themeID string) error
	Mark(row, col int, marked bool) error
	RequestBingo() error
	Close() error
}

type phase int

const (
	phaseName phase = iota
	phaseJoining
	phasePlaying
)

// eventMsg wraps a client event for the bubbletea loop
type eventMsg struct {
	ev client.Event
}

// Model is the bubbletea model for a game session
type Model struct {
	client  GameClient
	styles  *Styles
	gameID  string
	themeID string

	nameInput textinput.Model
	phase     phase

	playerID     string
	room         *protocol.RoomState
	cursorRow    int
	cursorCol    int
	winner       string
	errLine      string
	disconnected bool
	quitting     bool
	width        int
}

// NewModel creates the session model. An empty name shows the name form
// first; otherwise the model joins immediately.
func NewModel(c GameClient, gameID, themeID, name string) *Model {
	ti := textinput.New()
	ti.Placeholder = "Your name"
	ti.CharLimit = 32
	ti.Width = 32
	ti.Prompt = "> "
	ti.Focus()

	m := &Model{
		client:    c,
		styles:    DefaultStyles(),
		gameID:    gameID,
		themeID:   themeID,
		nameInput: ti,
		phase:     phaseName,
	}
	if name != "" {
		c.SetName(name)
		m.phase = phaseJoining
	}
	return m
}

// Init starts the join handshake and the event pump
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForEvent(m.client.Events())}

	switch {
	case m.phase == phaseName:
		cmds = append(cmds, textinput.Blink)
	case m.gameID != "":
		cmds = append(cmds, m.doProbe)
	default:
		cmds = append(cmds, m.doJoin)
	}
	return tea.Batch(cmds...)
}

func (m *Model) doProbe() tea.Msg {
	if err := m.client.Probe(m.gameID); err != nil {
		return eventMsg{ev: client.ErrorEvent{Code: err.Error()}}
	}
	return nil
}

func (m *Model) doJoin() tea.Msg {
	if err := m.client.Join(m.gameID, m.themeID); err != nil {
		return eventMsg{ev: client.ErrorEvent{Code: err.Error()}}
	}
	return nil
}

// waitForEvent delivers the next client event into the update loop
func waitForEvent(events <-chan client.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg{ev: ev}
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case eventMsg:
		return m.handleEvent(msg.ev)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleEvent(ev client.Event) (tea.Model, tea.Cmd) {
	next := waitForEvent(m.client.Events())

	switch ev := ev.(type) {
	case client.GameExistsEvent:
		// Probing is informational; the join proceeds either way and
		// creates the room when it does not exist yet
		return m, tea.Batch(next, m.doJoin)

	case client.JoinedEvent:
		m.playerID = ev.PlayerID
		m.room = ev.State
		m.phase = phasePlaying
		m.disconnected = false
		m.errLine = ""

	case client.StateEvent:
		m.room = ev.State

	case client.BingoEvent:
		m.winner = ev.Name

	case client.ErrorEvent:
		m.errLine = friendlyError(ev.Code)

	case client.DisconnectedEvent:
		m.disconnected = true
	}
	return m, next
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.phase == phaseName && msg.String() == "q" {
			break // let "q" be typed into the name field
		}
		m.quitting = true
		_ = m.client.Close()
		return m, tea.Quit
	}

	switch m.phase {
	case phaseName:
		if msg.String() == "enter" {
			name := strings.TrimSpace(m.nameInput.Value())
			if name == "" {
				return m, nil
			}
			m.client.SetName(name)
			m.phase = phaseJoining
			if m.gameID != "" {
				return m, m.doProbe
			}
			return m, m.doJoin
		}
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd

	case phasePlaying:
		return m.handlePlayKey(msg)
	}
	return m, nil
}

func (m *Model) handlePlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursorRow > 0 {
			m.cursorRow--
		}
	case "down", "j":
		if m.cursorRow < card.Size-1 {
			m.cursorRow++
		}
	case "left", "h":
		if m.cursorCol > 0 {
			m.cursorCol--
		}
	case "right", "l":
		if m.cursorCol < card.Size-1 {
			m.cursorCol++
		}
	case " ", "enter":
		m.errLine = ""
		return m, m.toggleCursor()
	case "b":
		m.errLine = ""
		return m, func() tea.Msg {
			if err := m.client.RequestBingo(); err != nil {
				return eventMsg{ev: client.ErrorEvent{Code: err.Error()}}
			}
			return nil
		}
	}
	return m, nil
}

// toggleCursor flips the mark under the cursor on the player's own card
func (m *Model) toggleCursor() tea.Cmd {
	me := m.self()
	if me == nil {
		return nil
	}
	if me.Card[m.cursorRow][m.cursorCol] == card.FreeCell {
		return nil
	}
	r, c := m.cursorRow, m.cursorCol
	marked := me.Marks[r][c]
	return func() tea.Msg {
		if err := m.client.Mark(r, c, !marked); err != nil {
			return eventMsg{ev: client.ErrorEvent{Code: err.Error()}}
		}
		return nil
	}
}

// self finds the player's own entry in the latest snapshot
func (m *Model) self() *protocol.PlayerState {
	if m.room == nil {
		return nil
	}
	for i := range m.room.Players {
		if m.room.Players[i].ID == m.playerID {
			return &m.room.Players[i]
		}
	}
	return nil
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.phase {
	case phaseName:
		return m.viewNameForm()
	case phaseJoining:
		return "Joining game...\n"
	default:
		return m.viewBoard()
	}
}

func (m *Model) viewNameForm() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("BINGO PARTY"))
	b.WriteString("\n\n")
	b.WriteString("What should we call you?\n")
	b.WriteString(m.nameInput.View())
	b.WriteString("\n\n")
	b.WriteString(m.styles.Help.Render("Enter to join • Ctrl+C to quit"))
	return m.styles.FormPane.Render(b.String())
}

func (m *Model) viewBoard() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render(m.headerLine()))
	b.WriteString("\n\n")

	if me := m.self(); me != nil {
		b.WriteString(m.renderGrid(me))
		b.WriteString("\n")
	}

	b.WriteString(m.renderPlayers())

	if m.winner != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Winner.Render(fmt.Sprintf("BINGO! %s wins!", m.winner)))
		b.WriteString("\n")
	}
	if m.disconnected {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render("Connection lost, reconnecting..."))
		b.WriteString("\n")
	}
	if m.errLine != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(m.errLine))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("arrows move • space marks • b calls bingo • q quits"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) headerLine() string {
	if m.room == nil {
		return "BINGO PARTY"
	}
	themeName := "no theme"
	if m.room.Theme != nil {
		themeName = m.room.Theme.Name
	}
	return fmt.Sprintf("BINGO PARTY  %s  %s  [%s]", m.room.GameID, themeName, m.room.Status)
}

func (m *Model) renderGrid(me *protocol.PlayerState) string {
	rows := make([]string, 0, card.Size)
	for r := 0; r < card.Size; r++ {
		cells := make([]string, 0, card.Size)
		for c := 0; c < card.Size; c++ {
			cells = append(cells, m.renderCell(me, r, c))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderCell(me *protocol.PlayerState, r, c int) string {
	text := clipCell(me.Card[r][c])

	style := m.styles.Cell
	switch {
	case me.Card[r][c] == card.FreeCell:
		style = m.styles.Free
	case me.Marks[r][c]:
		style = m.styles.Marked
	}
	if r == m.cursorRow && c == m.cursorCol {
		style = m.styles.Cursor
		if me.Marks[r][c] {
			style = style.Foreground(lipgloss.Color("#04B575"))
		}
	}
	return style.Width(cellWidth).Render(text)
}

// clipCell truncates long theme items so the grid stays aligned
func clipCell(s string) string {
	runes := []rune(s)
	if len(runes) <= cellWidth-2 {
		return s
	}
	return string(runes[:cellWidth-3]) + "…"
}

func (m *Model) renderPlayers() string {
	if m.room == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range m.room.Players {
		marks := 0
		for r := 0; r < card.Size; r++ {
			for c := 0; c < card.Size; c++ {
				if p.Marks[r][c] && p.Card[r][c] != card.FreeCell {
					marks++
				}
			}
		}
		line := fmt.Sprintf("%s (%d/24)", p.Name, marks)
		style := m.styles.Player
		if p.ID == m.room.HostID {
			line += " (host)"
			style = m.styles.Host
		}
		if p.ID == m.playerID {
			line += " (you)"
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// friendlyError maps wire error codes to something readable
func friendlyError(code string) string {
	switch code {
	case "invalid_bingo":
		return "Not yet! Your card is not complete."
	case "invalid_mark":
		return "That cell cannot be marked."
	case "not_joined":
		return "You are not in a game."
	case "already_joined":
		return "You are already in a game."
	case "game_not_found":
		return "That game no longer exists."
	default:
		return "Error: " + code
	}
}
