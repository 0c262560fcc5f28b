package models

// Bracket is the read model served to the display screen.
type Bracket struct {
	Tournament   *Tournament    `json:"tournament"`
	Participants []Participant  `json:"participants"`
	Rounds       []BracketRound `json:"rounds"`
	Champion     *Player        `json:"champion,omitempty"`
}

type BracketRound struct {
	Round   int     `json:"round"`
	Matches []Match `json:"matches"`
}

// RepechageCandidate is one loss in a tournament; a player eliminated once appears once.
type RepechageCandidate struct {
	Player  *Player `json:"player"`
	MatchID int     `json:"match_id"`
	Round   int     `json:"round"`
}
