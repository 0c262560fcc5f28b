package models

import (
	"strings"
	"time"
)

type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillAmateur      SkillLevel = "amateur"
	SkillIntermediate SkillLevel = "intermediate"
	SkillSemiPro      SkillLevel = "semi_pro"
	SkillProfessional SkillLevel = "professional"
)

var SkillLevels = []SkillLevel{SkillBeginner, SkillAmateur, SkillIntermediate, SkillSemiPro, SkillProfessional}

func (s SkillLevel) IsValid() bool {
	for _, level := range SkillLevels {
		if s == level {
			return true
		}
	}
	return false
}

// Player is a registered dart player. Counters are only touched by the bracket engine.
type Player struct {
	ID             int        `json:"id" db:"id"`
	FirstName      string     `json:"first_name" db:"first_name"`
	LastName       string     `json:"last_name" db:"last_name"`
	Nickname       *string    `json:"nickname,omitempty" db:"nickname"`
	SkillLevel     SkillLevel `json:"skill_level" db:"skill_level"`
	Participations int        `json:"participations" db:"participations"`
	Wins           int        `json:"wins" db:"wins"`
	Active         bool       `json:"active" db:"active"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

func (p Player) DisplayName() string {
	if p.Nickname != nil && strings.TrimSpace(*p.Nickname) != "" {
		return *p.Nickname
	}
	first := strings.TrimSpace(p.FirstName)
	last := strings.TrimSpace(p.LastName)
	if first == "" {
		return last
	}
	if last == "" {
		return first
	}
	return first + " " + last
}

type PlayerStats struct {
	Player         *Player `json:"player"`
	MatchesPlayed  int     `json:"matches_played"`
	MatchesWon     int     `json:"matches_won"`
	Ratio          float64 `json:"ratio"`
	Participations int     `json:"participations"`
	Wins           int     `json:"wins"`
}
