package models

import "time"

// Participant joins a player to a tournament. DrawPosition stays nil until seeding.
type Participant struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	PlayerID     int       `json:"player_id" db:"player_id"`
	DrawPosition *int      `json:"draw_position,omitempty" db:"draw_position"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`

	Player *Player `json:"player,omitempty" db:"-"`
}
