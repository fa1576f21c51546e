// Package protocol defines the JSON wire messages exchanged between the
// bingo server and its clients. Every message is a flat tagged envelope:
// the "type" field identifies the message, the remaining fields are inline.
package protocol

// MessageType identifies the type of message
type MessageType string

const (
	// Client -> Server
	TypeProbe        MessageType = "probe"
	TypeJoin         MessageType = "join"
	TypeMark         MessageType = "mark"
	TypeRequestBingo MessageType = "request_bingo"

	// Server -> Client
	TypeGameExists MessageType = "game_exists"
	TypeJoined     MessageType = "joined"
	TypeState      MessageType = "state"
	TypeBingo      MessageType = "bingo"
	TypeError      MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Client -> Server Messages

// Probe asks whether a game exists without creating it. Clients send it
// before join to distinguish "create a new room" from "join an existing one".
type Probe struct {
	Type   MessageType `json:"type"`
	GameID string      `json:"gameId"`
}

// Join registers the sender as a player in a game, creating the game if it
// does not exist yet. Theme is only honoured for the first join of a room.
// Create is advisory: the server always gets-or-creates.
type Join struct {
	Type   MessageType `json:"type"`
	GameID string      `json:"gameId"`
	Name   string      `json:"name"`
	Theme  string      `json:"theme,omitempty"`
	Create bool        `json:"create,omitempty"`
}

// Mark sets or clears a single cell of the sender's mark grid. Row and Col
// are pointers so that absent coordinates are distinguishable from cell 0,0.
type Mark struct {
	Type   MessageType `json:"type"`
	Row    *int        `json:"r"`
	Col    *int        `json:"c"`
	Marked bool        `json:"marked"`
}

// RequestBingo claims a win for the sender's card
type RequestBingo struct {
	Type MessageType `json:"type"`
}

// Server -> Client Messages

// GameExists is the probe response. State is present only when Exists is true.
type GameExists struct {
	Type   MessageType `json:"type"`
	Exists bool        `json:"exists"`
	State  *RoomState  `json:"state,omitempty"`
}

// Joined is sent to the joining connection only
type Joined struct {
	Type     MessageType `json:"type"`
	PlayerID string      `json:"playerId"`
	State    *RoomState  `json:"state"`
}

// State carries a full room snapshot and is broadcast after every mutation
type State struct {
	Type  MessageType `json:"type"`
	State *RoomState  `json:"state"`
}

// Bingo announces a confirmed win to every connection in the room
type Bingo struct {
	Type     MessageType `json:"type"`
	PlayerID string      `json:"playerId"`
	Name     string      `json:"name"`
}

// Error reports a rejected request to the originating connection only.
// Message is a stable string code, not prose.
type Error struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// Snapshot types

// ThemeInfo names the theme assigned to a room
type ThemeInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerState is one player's public state inside a room snapshot
type PlayerState struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Card  [5][5]string `json:"card"`
	Marks [5][5]bool   `json:"marks"`
}

// RoomState is the full state snapshot of a room. There is no delta mode:
// every broadcast re-sends the whole thing.
type RoomState struct {
	GameID  string        `json:"gameId"`
	Status  string        `json:"status"`
	HostID  string        `json:"hostId,omitempty"`
	Theme   *ThemeInfo    `json:"theme"`
	Called  []string      `json:"called"`
	Players []PlayerState `json:"players"`
}
