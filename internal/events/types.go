// Package events defines event types and the publish-subscribe bus used to
// decouple the lobby core from telemetry, persistence and the API.
package events

// EventType represents the type of event emitted through the EventBus.
type EventType string

const (
	// Client lifecycle
	EventClientConnected    EventType = "client_connected"
	EventClientRegistered   EventType = "client_registered"
	EventClientDisconnected EventType = "client_disconnected"

	// Room lifecycle
	EventRoomCreated EventType = "room_created"
	EventRoomRemoved EventType = "room_removed"

	// Game flow
	EventGameStarted EventType = "game_started"
	EventGameResult  EventType = "game_result"

	// Peer directory
	EventPeerAnnounced EventType = "peer_announced"

	// System
	EventShutdown EventType = "shutdown"
)

// Event represents a single event in the system. Payloads are plain value
// structs: emitters copy state out of the reactor goroutine so asynchronous
// handlers never observe live session or room objects.
type Event struct {
	Type    EventType
	Source  string
	Payload interface{}
}

// ClientPayload describes a client connection or registration.
type ClientPayload struct {
	Nick     string `json:"nick,omitempty"`
	Addr     string `json:"addr"`
	FrontEnd string `json:"front_end"`
}

// RoomPayload describes a room at the moment of the event.
type RoomPayload struct {
	Name       string `json:"name"`
	GameType   int    `json:"game_type"`
	Members    int    `json:"members"`
	MaxMembers int    `json:"max_members"`
	Tournament bool   `json:"tournament"`
	Owner      string `json:"owner,omitempty"`
}

// GameStartedPayload is emitted when a room owner starts a match.
type GameStartedPayload struct {
	Room      string   `json:"room"`
	GameType  int      `json:"game_type"`
	Players   []string `json:"players"`
	StartedAt int64    `json:"started_at"`
}

// GameResultPayload is emitted when a game server reports a finished match.
type GameResultPayload struct {
	MatchID  string         `json:"match_id"`
	Room     string         `json:"room"`
	GameType int            `json:"game_type"`
	Scores   map[string]int `json:"scores"`
}

// PeerPayload describes a server-to-server registration announcement.
type PeerPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}
