package engine

import (
	"maps"
	"slices"
)

func NewEmptyState(code string) State {
	return State{
		Code:    code,
		Players: map[string]Player{},
		Entries: []Entry{},
	}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// Clone copies the players map and entry slice so a new state never aliases
// the old one.
func (s State) Clone() State {
	c := s
	c.Players = maps.Clone(s.Players)
	if c.Players == nil {
		c.Players = map[string]Player{}
	}
	c.Entries = slices.Clone(s.Entries)
	return c
}

func AddPlayer(s State, p Player) State {
	newState := s.Clone()
	newState.Players[p.ID] = p
	return newState
}

// RemovePlayer drops the player but keeps any domains they already entered.
func RemovePlayer(s State, id string) (State, bool) {
	if _, ok := s.Players[id]; !ok {
		return s, false
	}
	newState := s.Clone()
	delete(newState.Players, id)
	return newState, true
}

// SortedPlayers returns players in join order.
func SortedPlayers(s State) []Player {
	out := slices.Collect(maps.Values(s.Players))
	slices.SortFunc(out, func(a, b Player) int { return a.Seq - b.Seq })
	return out
}

// UsedColors reports the colors currently held by players in the room.
func UsedColors(s State) map[string]bool {
	used := make(map[string]bool, len(s.Players))
	for _, p := range s.Players {
		used[p.Color] = true
	}
	return used
}
