package types

// GameState:
//
//	is_active:       bool
//	time_remaining:  whole seconds left in the round (60 while idle)
//	players:         in join order
//	entered_domains: this round's entries, oldest first
//	latest_domain:   the entry that triggered this update, or null
type GameState struct {
	IsActive       bool          `json:"is_active"`
	TimeRemaining  int           `json:"time_remaining"`
	Players        []PlayerView  `json:"players"`
	EnteredDomains []DomainEntry `json:"entered_domains"`
	LatestDomain   *DomainEntry  `json:"latest_domain"`
}

type PlayerView struct {
	Username string `json:"username"`
	Color    string `json:"color"`
	Score    int    `json:"score"`
}

type DomainEntry struct {
	Domain   string `json:"domain"`
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
}
