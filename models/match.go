package models

import "time"

type MatchStatus string

const (
	MatchWaiting  MatchStatus = "waiting"
	MatchActive   MatchStatus = "active"
	MatchFinished MatchStatus = "finished"
)

func (s MatchStatus) IsValid() bool {
	switch s {
	case MatchWaiting, MatchActive, MatchFinished:
		return true
	}
	return false
}

// Slot identifies one of the two player references of a match.
type Slot int

const (
	Slot1 Slot = 1
	Slot2 Slot = 2
)

type Match struct {
	ID            int         `json:"id" db:"id"`
	TournamentID  int         `json:"tournament_id" db:"tournament_id"`
	Round         int         `json:"round" db:"round"`
	Position      int         `json:"position" db:"position"`
	Player1ID     *int        `json:"player1_id" db:"player1_id"`
	Player2ID     *int        `json:"player2_id" db:"player2_id"`
	Score1        int         `json:"score1" db:"score1"`
	Score2        int         `json:"score2" db:"score2"`
	WinnerID      *int        `json:"winner_id" db:"winner_id"`
	Status        MatchStatus `json:"status" db:"status"`
	IsBye         bool        `json:"is_bye" db:"is_bye"`
	ScheduledTime string      `json:"scheduled_time" db:"scheduled_time"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`

	Player1 *Player `json:"player1,omitempty" db:"-"`
	Player2 *Player `json:"player2,omitempty" db:"-"`
	Winner  *Player `json:"winner,omitempty" db:"-"`
}

// SlotPlayer returns the occupant of the given slot.
func (m *Match) SlotPlayer(slot Slot) *int {
	if slot == Slot1 {
		return m.Player1ID
	}
	return m.Player2ID
}

// SlotOf returns the slot currently held by playerID.
func (m *Match) SlotOf(playerID int) (Slot, bool) {
	switch {
	case m.Player1ID != nil && *m.Player1ID == playerID:
		return Slot1, true
	case m.Player2ID != nil && *m.Player2ID == playerID:
		return Slot2, true
	}
	return 0, false
}

func (m *Match) HasBothPlayers() bool {
	return m.Player1ID != nil && m.Player2ID != nil
}

// LoserID is the occupant that did not win a finished match, if any.
func (m *Match) LoserID() *int {
	if m.Status != MatchFinished || m.WinnerID == nil || !m.HasBothPlayers() {
		return nil
	}
	if *m.Player1ID == *m.WinnerID {
		return m.Player2ID
	}
	return m.Player1ID
}
