package engine

import (
	"errors"
	"time"

	"github.com/DoyleJ11/domain-race-backend/internal/ranking"
)

var ErrRoomNotFound = errors.New("room not found")
var ErrNotActive = errors.New("game not started")
var ErrRoundOver = errors.New("game is over")
var ErrInvalidItem = errors.New("invalid domain")
var ErrDuplicateItem = errors.New("domain already used")
var ErrUnknownPlayer = errors.New("player not in room")
var ErrUnsupportedCommand = errors.New("unsupported command")

// RoundDuration is the fixed length of one round.
const RoundDuration = 60 * time.Second

// Clock lets lobbies and the hub run against simulated time in tests.
type Clock func() time.Time

// Ranker resolves a domain to its 1-based rank.
type Ranker interface {
	Lookup(name string) (int, bool)
}

type Player struct {
	ID    string
	Name  string
	Color string
	Score int
	Seq   int // join order within the room
}

type Entry struct {
	Domain   string `json:"domain"`
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
}

type State struct {
	Code      string
	Active    bool
	StartTime time.Time // zero while no round has started
	EndTime   time.Time
	Round     int
	Players   map[string]Player
	Entries   []Entry
}

type CommandType string

const (
	CmdStartGame    CommandType = "start_game"
	CmdSubmitDomain CommandType = "submit_domain"
)

type Command struct {
	Type     CommandType
	PlayerID string
	Domain   string
}

type EventType string

const (
	EvtRoundStarted EventType = "RoundStarted"
	EvtDomainScored EventType = "DomainScored"
	EvtRoundEnded   EventType = "RoundEnded"
)

type Event struct {
	Type     EventType
	PlayerID string
	Entry    *Entry
	Points   int
	Winner   *Player // RoundEnded only; nil when the room is empty
}

/*
	CmdStartGame    -> EvtRoundStarted          (no-op while a round is running)
	CmdSubmitDomain -> EvtDomainScored          (player score += Score(rank))
	round expiry    -> EvtRoundEnded{Winner}    (via CheckRoundOver, after commands and on Tick)
*/

// Apply validates cmd against s at instant now. On error s is returned untouched.
func Apply(s State, cmd Command, table Ranker, now time.Time) ([]Event, State, error) {
	switch cmd.Type {
	case CmdStartGame:
		if s.Active {
			return nil, s, nil
		}
		newState := s.Clone()
		newState.Active = true
		newState.StartTime = now
		newState.EndTime = time.Time{}
		newState.Round++
		newState.Entries = []Entry{}
		return []Event{{Type: EvtRoundStarted, PlayerID: cmd.PlayerID}}, newState, nil

	case CmdSubmitDomain:
		if !s.Active {
			return nil, s, ErrNotActive
		}
		if IsRoundOver(s, now) {
			return nil, s, ErrRoundOver
		}

		player, ok := s.Players[cmd.PlayerID]
		if !ok {
			return nil, s, ErrUnknownPlayer
		}

		domain := ranking.Normalize(cmd.Domain)
		rank, ok := table.Lookup(domain)
		if !ok {
			return nil, s, ErrInvalidItem
		}
		if hasEntry(s, domain) {
			return nil, s, ErrDuplicateItem
		}

		points := Score(rank)
		entry := Entry{Domain: domain, Rank: rank, PlayerID: cmd.PlayerID}

		newState := s.Clone()
		player.Score += points
		newState.Players[cmd.PlayerID] = player
		newState.Entries = append(newState.Entries, entry)

		return []Event{{Type: EvtDomainScored, PlayerID: cmd.PlayerID, Entry: &entry, Points: points}}, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// CheckRoundOver closes the round once its time is up. It is idempotent: an
// inactive state yields no events.
func CheckRoundOver(s State, now time.Time) ([]Event, State) {
	if !IsRoundOver(s, now) {
		return nil, s
	}

	newState := s.Clone()
	newState.Active = false
	newState.EndTime = now

	evt := Event{Type: EvtRoundEnded}
	if w, ok := Winner(s); ok {
		evt.Winner = &w
	}
	return []Event{evt}, newState
}

func hasEntry(s State, domain string) bool {
	for _, e := range s.Entries {
		if e.Domain == domain {
			return true
		}
	}
	return false
}
