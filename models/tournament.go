package models

import "time"

// TournamentStatus only ever moves forward: planned -> in_progress -> finished.
type TournamentStatus string

const (
	TournamentPlanned    TournamentStatus = "planned"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentFinished   TournamentStatus = "finished"
)

func (s TournamentStatus) IsValid() bool {
	switch s {
	case TournamentPlanned, TournamentInProgress, TournamentFinished:
		return true
	}
	return false
}

// CanMoveTo reports whether the status transition respects the forward-only lifecycle.
func (s TournamentStatus) CanMoveTo(next TournamentStatus) bool {
	switch s {
	case TournamentPlanned:
		return next == TournamentInProgress
	case TournamentInProgress:
		return next == TournamentFinished
	}
	return false
}

type Tournament struct {
	ID           int              `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Date         time.Time        `json:"date" db:"tournament_date"`
	Format       TournamentFormat `json:"format" db:"format"`
	Status       TournamentStatus `json:"status" db:"status"`
	CurrentRound int              `json:"current_round" db:"current_round"`
	TotalRounds  *int             `json:"total_rounds,omitempty" db:"total_rounds"`
	ChampionID   *int             `json:"champion_id,omitempty" db:"champion_id"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}
