package types

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/DoyleJ11/domain-race-backend/internal/engine"
	wire "github.com/DoyleJ11/domain-race-backend/pkg/types"
)

var ErrBadJSON = errors.New("invalid message")
var ErrUnknownType = errors.New("unknown message type")

// Decode turns a raw client frame into an engine command. The caller fills in
// PlayerID.
func Decode(data []byte) (engine.Command, error) {
	var cm wire.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return engine.Command{}, ErrBadJSON
	}

	switch cm.Type {
	case wire.MsgStartGame:
		return engine.Command{Type: engine.CmdStartGame}, nil
	case wire.MsgSubmitDomain:
		return engine.Command{Type: engine.CmdSubmitDomain, Domain: cm.Domain}, nil
	default:
		return engine.Command{}, ErrUnknownType
	}
}

// ErrorText is the client facing wording for err.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, engine.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, engine.ErrNotActive):
		return "Game not started"
	case errors.Is(err, engine.ErrRoundOver):
		return "Game is over"
	case errors.Is(err, engine.ErrInvalidItem):
		return "Invalid domain"
	case errors.Is(err, engine.ErrDuplicateItem):
		return "Domain already used"
	case errors.Is(err, engine.ErrUnknownPlayer):
		return "Player not in room"
	case errors.Is(err, ErrBadJSON):
		return "Invalid message"
	case errors.Is(err, ErrUnknownType), errors.Is(err, engine.ErrUnsupportedCommand):
		return "Unknown message type"
	default:
		return "Internal error"
	}
}

func ErrorMessage(err error) []byte {
	return encode(wire.ServerMessage{Type: wire.MsgError, Message: ErrorText(err)})
}

// GameUpdate renders s as seen at now. latest is the entry that caused the
// update, if any.
func GameUpdate(s engine.State, now time.Time, latest *engine.Entry) []byte {
	return encode(wire.ServerMessage{Type: wire.MsgGameUpdate, GameState: View(s, now, latest)})
}

func GameOver(winner *engine.Player) []byte {
	msg := wire.ServerMessage{Type: wire.MsgGameOver}
	if winner != nil {
		w := playerView(*winner)
		msg.Winner = &w
	}
	return encode(msg)
}

func View(s engine.State, now time.Time, latest *engine.Entry) *wire.GameState {
	gs := &wire.GameState{
		IsActive:       s.Active,
		TimeRemaining:  engine.TimeRemaining(s, now),
		Players:        []wire.PlayerView{},
		EnteredDomains: make([]wire.DomainEntry, 0, len(s.Entries)),
	}
	for _, p := range engine.SortedPlayers(s) {
		gs.Players = append(gs.Players, playerView(p))
	}
	for _, e := range s.Entries {
		gs.EnteredDomains = append(gs.EnteredDomains, entryView(e))
	}
	if latest != nil {
		e := entryView(*latest)
		gs.LatestDomain = &e
	}
	return gs
}

func playerView(p engine.Player) wire.PlayerView {
	return wire.PlayerView{Username: p.Name, Color: p.Color, Score: p.Score}
}

func entryView(e engine.Entry) wire.DomainEntry {
	return wire.DomainEntry{Domain: e.Domain, Rank: e.Rank, PlayerID: e.PlayerID}
}

func encode(msg wire.ServerMessage) []byte {
	payload, _ := json.Marshal(msg)
	return payload
}
