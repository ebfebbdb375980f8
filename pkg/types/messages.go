// Package types holds the JSON shapes exchanged with game clients.
package types

// Client -> Server
//   start_game:    {"type": "start_game"}
//   submit_domain: {"type": "submit_domain", "domain": "example.com"}
//
// Server -> Client
//   game_update: {"type": "game_update", "game_state": GameState}
//   game_over:   {"type": "game_over", "winner": PlayerView}   (winner absent for an empty room)
//   error:       {"type": "error", "message": "Domain already used"}

const (
	MsgStartGame    = "start_game"
	MsgSubmitDomain = "submit_domain"

	MsgGameUpdate = "game_update"
	MsgGameOver   = "game_over"
	MsgError      = "error"
)

type ClientMessage struct {
	Type   string `json:"type"`
	Domain string `json:"domain,omitempty"`
}

type ServerMessage struct {
	Type      string      `json:"type"`
	GameState *GameState  `json:"game_state,omitempty"`
	Winner    *PlayerView `json:"winner,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// RoomCode is the body of GET /generate-room.
type RoomCode struct {
	RoomCode string `json:"room_code"`
}
