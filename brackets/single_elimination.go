package brackets

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/Dosada05/dart-tournament/models"
)

type ByePolicy string

const (
	// ByeManual leaves the lone occupant waiting on a null slot until repechage fills it.
	ByeManual ByePolicy = "manual"
	// ByeAutoAdvance finishes a structurally unopposed match and advances its occupant.
	ByeAutoAdvance ByePolicy = "auto_advance"
)

func (p ByePolicy) IsValid() bool {
	return p == ByeManual || p == ByeAutoAdvance
}

// Clock is a wall-clock time of day used to compute the scheduled time of matches.
type Clock struct {
	Hour   int
	Minute int
}

var DefaultBaseTime = Clock{Hour: 19}

// ParseClock accepts "HH:MM" or "HH:MM:SS".
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Clock{}, fmt.Errorf("invalid clock time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("invalid hour in clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("invalid minute in clock time %q", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// ScheduledTime is base + 45min per round after the first + 30min per position after the first,
// wrapped around midnight.
func (c Clock) ScheduledTime(round, position int) string {
	total := c.Hour*60 + c.Minute + (round-1)*45 + (position-1)*30
	total = ((total % (24 * 60)) + 24*60) % (24 * 60)
	return fmt.Sprintf("%02d:%02d:00", total/60, total%60)
}

// NextSlot returns where the winner of (round, position) plays next:
// positions 2k-1 and 2k feed position k, odd positions into slot 1, even into slot 2.
func NextSlot(round, position int) (nextRound, nextPosition int, slot models.Slot) {
	nextRound = round + 1
	nextPosition = (position + 1) / 2
	slot = models.Slot1
	if position%2 == 0 {
		slot = models.Slot2
	}
	return nextRound, nextPosition, slot
}

// IsStructuralBye reports whether the match at (round, position) of an n-player bracket
// has no second feeder at all, so its lone occupant can never get an opponent through play.
func IsStructuralBye(n, round, position int) bool {
	feeders := feederCount(n, round)
	return 2*position-1 <= feeders && 2*position > feeders
}

type SingleEliminationGenerator struct {
	opts Options
}

func NewSingleEliminationGenerator(opts Options) BracketGenerator {
	if !opts.ByePolicy.IsValid() {
		opts.ByePolicy = ByeManual
	}
	return &SingleEliminationGenerator{opts: opts}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket pairs participants by ascending draw position: (1,2), (3,4), ...
// Only the first position starts active so the operator can focus on one board.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*models.Match, error) {
	if params.Tournament == nil {
		return nil, fmt.Errorf("single elimination: tournament is required")
	}
	n := len(params.Participants)
	if n < 2 {
		return nil, ErrNotEnoughPlayers
	}

	ordered := make([]*models.Participant, n)
	copy(ordered, params.Participants)
	for _, p := range ordered {
		if p.DrawPosition == nil {
			return nil, fmt.Errorf("%w: player %d", ErrDrawPositionMissing, p.PlayerID)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		return *ordered[i].DrawPosition < *ordered[j].DrawPosition
	})
	for i, p := range ordered {
		if *p.DrawPosition != i+1 {
			return nil, fmt.Errorf("%w: got %d at index %d", ErrDrawPositionConflict, *p.DrawPosition, i)
		}
	}

	matches := make([]*models.Match, 0, (n+1)/2)
	for i := 0; i < n; i += 2 {
		position := i/2 + 1
		p1 := ordered[i].PlayerID
		m := &models.Match{
			TournamentID:  params.Tournament.ID,
			Round:         1,
			Position:      position,
			Player1ID:     &p1,
			Status:        models.MatchWaiting,
			ScheduledTime: g.opts.BaseTime.ScheduledTime(1, position),
		}
		if i+1 < n {
			p2 := ordered[i+1].PlayerID
			m.Player2ID = &p2
		} else if g.opts.ByePolicy == ByeAutoAdvance {
			m.IsBye = true
			m.Status = models.MatchFinished
			m.WinnerID = &p1
			log.Printf("Player %d has a bye in round 1 of tournament %d", p1, params.Tournament.ID)
		}
		if position == 1 {
			m.Status = models.MatchActive
		}
		matches = append(matches, m)
	}
	return matches, nil
}
