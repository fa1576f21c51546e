package game

import (
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/bingoparty/internal/randutil"
)

// Registry is the process-wide mapping from game id to room. It is created
// at process start, injected into the gateway, and never torn down: rooms
// live for the life of the process even after they empty.
type Registry struct {
	logger *log.Logger
	clock  quartz.Clock

	mu    sync.RWMutex
	rooms map[string]*Room
	seeds *rand.Rand
}

// RegistryOption customises a registry
type RegistryOption func(*Registry)

// WithClock injects the clock used for room timestamps
func WithClock(clock quartz.Clock) RegistryOption {
	return func(r *Registry) { r.clock = clock }
}

// WithSeed makes card shuffles deterministic, for tests and replays
func WithSeed(seed int64) RegistryOption {
	return func(r *Registry) { r.seeds = randutil.New(seed) }
}

// NewRegistry creates an empty registry
func NewRegistry(logger *log.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		logger: logger.WithPrefix("room"),
		clock:  quartz.NewReal(),
		rooms:  make(map[string]*Room),
		seeds:  randutil.New(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the room for gameID, constructing it if absent.
// Creation happens under the write lock, so concurrent calls for the same
// unseen id observe exactly one room.
func (g *Registry) GetOrCreate(gameID string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	if room, ok := g.rooms[gameID]; ok {
		return room
	}
	room := newRoom(gameID, g.logger, randutil.New(g.seeds.Int64()), g.clock)
	g.rooms[gameID] = room
	g.logger.Info("Created room", "game", gameID, "rooms", len(g.rooms))
	return room
}

// Lookup returns the room for gameID without creating it
func (g *Registry) Lookup(gameID string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[gameID]
	return room, ok
}

// Exists reports whether a room exists. It never creates one; the probe
// handshake depends on that.
func (g *Registry) Exists(gameID string) bool {
	_, ok := g.Lookup(gameID)
	return ok
}

// Len returns the number of rooms
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
