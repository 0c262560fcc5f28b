package models

import "time"

// ScoreHistory is an append-only snapshot of one player's score in a match.
type ScoreHistory struct {
	ID         int       `json:"id" db:"id"`
	MatchID    int       `json:"match_id" db:"match_id"`
	PlayerID   int       `json:"player_id" db:"player_id"`
	Score      int       `json:"score" db:"score"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}
