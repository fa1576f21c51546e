// Package game owns the per-room bingo state machine and the process-wide
// room registry. Rooms are the single source of truth for game state; the
// websocket layer only dispatches into them.
package game

import (
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/bingoparty/internal/card"
	"github.com/lox/bingoparty/internal/protocol"
	"github.com/lox/bingoparty/internal/theme"
)

// Status is the lifecycle state of a room
type Status string

const (
	// StatusLobby accepts joins, marks and bingo calls
	StatusLobby Status = "lobby"

	// StatusEnded means a bingo was confirmed. Joins and marks are still
	// accepted for spectators and late joiners, but bingo validation is
	// disabled.
	StatusEnded Status = "ended"
)

// Conn is the capability set a room needs to push messages to a player's
// transport. It is deliberately decoupled from player identity.
type Conn interface {
	Send(msg any) error
	IsOpen() bool
}

// Player is one registered participant. The card is generated once at join
// time and never regenerated for the life of the membership.
type Player struct {
	ID    string
	Name  string
	Card  card.Grid
	Marks card.Marks
	conn  Conn
}

// Room is a single game session. All operations run to completion under the
// room mutex, which is what keeps join, host election and win validation
// race-free on a parallel runtime.
type Room struct {
	mu     sync.Mutex
	id     string
	logger *log.Logger
	rng    *rand.Rand
	clock  quartz.Clock

	status    Status
	hostID    string
	theme     *theme.Theme
	pool      []string
	called    []string
	players   map[string]*Player
	order     []string
	createdAt time.Time
	updatedAt time.Time
}

func newRoom(id string, logger *log.Logger, rng *rand.Rand, clock quartz.Clock) *Room {
	now := clock.Now()
	return &Room{
		id:        id,
		logger:    logger.With("game", id),
		rng:       rng,
		clock:     clock,
		status:    StatusLobby,
		players:   make(map[string]*Player),
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the room's game id
func (r *Room) ID() string {
	return r.id
}

// Status returns the room's lifecycle state
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// HostID returns the current host's player id, or "" when the room is empty
func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

// PlayerCount returns the number of registered players
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// CreatedAt returns when the room was created
func (r *Room) CreatedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createdAt
}

// Join registers a new player and returns their id plus a full state
// snapshot for the joining connection. If the room has no theme yet and one
// is supplied, it is assigned sticky: later joins with a different theme are
// ignored. The first player (or the first after the room emptied) becomes
// host. Everyone else in the room receives a state broadcast.
func (r *Room) Join(conn Conn, name string, th *theme.Theme) (string, *protocol.RoomState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.theme == nil && th != nil {
		r.theme = th
		r.pool = make([]string, len(th.Items))
		copy(r.pool, th.Items)
		r.rng.Shuffle(len(r.pool), func(i, j int) {
			r.pool[i], r.pool[j] = r.pool[j], r.pool[i]
		})
		r.logger.Info("Assigned theme", "theme", th.ID, "items", len(th.Items))
	}

	p := &Player{
		ID:    uuid.NewString(),
		Name:  name,
		Card:  card.Generate(r.pool, r.rng),
		Marks: card.NewMarks(),
		conn:  conn,
	}
	r.players[p.ID] = p
	r.order = append(r.order, p.ID)
	if r.hostID == "" {
		r.hostID = p.ID
	}
	r.touchLocked()

	r.logger.Info("Player joined", "player", p.ID, "name", name, "players", len(r.players))

	snap := r.snapshotLocked()
	r.broadcastLocked(&protocol.State{Type: protocol.TypeState, State: snap}, p.ID)
	return p.ID, snap
}

// Mark sets one cell of a player's mark grid and broadcasts the updated
// state. Setting an already-set cell is a no-op in effect but still
// broadcasts.
func (r *Room) Mark(playerID string, row, col int, marked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	if !card.InBounds(row, col) {
		return ErrInvalidMark
	}

	p.Marks.Set(row, col, marked)
	r.touchLocked()

	snap := r.snapshotLocked()
	r.broadcastLocked(&protocol.State{Type: protocol.TypeState, State: snap}, "")
	return nil
}

// RequestBingo validates the win condition for the given player: every
// non-free cell of their mark grid must be true. On success the room moves
// to ended and a bingo announcement followed by a state broadcast goes to
// every connection. On failure nothing changes and the caller alone gets
// the error.
func (r *Room) RequestBingo(playerID string) (*protocol.Bingo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if r.status == StatusEnded {
		return nil, ErrInvalidBingo
	}
	if !p.Marks.Complete() {
		return nil, ErrInvalidBingo
	}

	r.status = StatusEnded
	r.touchLocked()
	r.logger.Info("Bingo confirmed", "player", p.ID, "name", p.Name)

	ann := &protocol.Bingo{Type: protocol.TypeBingo, PlayerID: p.ID, Name: p.Name}
	r.broadcastLocked(ann, "")
	r.broadcastLocked(&protocol.State{Type: protocol.TypeState, State: r.snapshotLocked()}, "")
	return ann, nil
}

// RemovePlayer drops a player from the room, typically on transport close.
// If the host left, an arbitrary remaining player (first in join order)
// becomes host; if nobody remains the host becomes none. The room itself is
// never deleted. Remaining connections receive a state broadcast.
func (r *Room) RemovePlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[playerID]; !ok {
		return false
	}
	delete(r.players, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.hostID == playerID {
		r.hostID = ""
		if len(r.order) > 0 {
			r.hostID = r.order[0]
		}
	}
	r.touchLocked()

	r.logger.Info("Player removed", "player", playerID, "players", len(r.players), "host", r.hostID)

	r.broadcastLocked(&protocol.State{Type: protocol.TypeState, State: r.snapshotLocked()}, "")
	return true
}

// Snapshot returns the full room state
func (r *Room) Snapshot() *protocol.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() *protocol.RoomState {
	state := &protocol.RoomState{
		GameID:  r.id,
		Status:  string(r.status),
		HostID:  r.hostID,
		Called:  append([]string{}, r.called...),
		Players: make([]protocol.PlayerState, 0, len(r.order)),
	}
	if r.theme != nil {
		state.Theme = &protocol.ThemeInfo{ID: r.theme.ID, Name: r.theme.Name}
	}
	for _, id := range r.order {
		p := r.players[id]
		state.Players = append(state.Players, protocol.PlayerState{
			ID:    p.ID,
			Name:  p.Name,
			Card:  p.Card,
			Marks: p.Marks,
		})
	}
	return state
}

// broadcastLocked pushes a message to every player whose transport is
// currently open, except excludeID. Closed or errored transports are
// skipped, not retried.
func (r *Room) broadcastLocked(msg any, excludeID string) {
	for id, p := range r.players {
		if id == excludeID || p.conn == nil || !p.conn.IsOpen() {
			continue
		}
		if err := p.conn.Send(msg); err != nil {
			r.logger.Debug("Failed to send to player", "player", id, "error", err)
		}
	}
}

func (r *Room) touchLocked() {
	r.updatedAt = r.clock.Now()
}
