package brackets

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/dart-tournament/models"
)

func participants(n int) []*models.Participant {
	out := make([]*models.Participant, n)
	// reverse order so the generator has to sort by draw position
	for i := 0; i < n; i++ {
		pos := n - i
		out[i] = &models.Participant{PlayerID: 100 + pos, DrawPosition: &pos}
	}
	return out
}

func TestScheduledTime(t *testing.T) {
	tests := []struct {
		base            Clock
		round, position int
		want            string
	}{
		{DefaultBaseTime, 1, 1, "19:00:00"},
		{DefaultBaseTime, 1, 2, "19:30:00"},
		{DefaultBaseTime, 2, 1, "19:45:00"},
		{DefaultBaseTime, 3, 2, "21:00:00"},
		{Clock{Hour: 23, Minute: 30}, 1, 3, "00:30:00"},
	}
	for _, tt := range tests {
		if got := tt.base.ScheduledTime(tt.round, tt.position); got != tt.want {
			t.Errorf("ScheduledTime(%d, %d) from %+v = %s, want %s", tt.round, tt.position, tt.base, got, tt.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("18:15")
	if err != nil || c != (Clock{Hour: 18, Minute: 15}) {
		t.Fatalf("ParseClock(18:15) = %+v, %v", c, err)
	}
	c, err = ParseClock("07:05:00")
	if err != nil || c != (Clock{Hour: 7, Minute: 5}) {
		t.Fatalf("ParseClock(07:05:00) = %+v, %v", c, err)
	}
	for _, bad := range []string{"", "19", "25:00", "19:61", "ab:cd"} {
		if _, err := ParseClock(bad); err == nil {
			t.Errorf("ParseClock(%q) expected error", bad)
		}
	}
}

func TestNextSlot(t *testing.T) {
	tests := []struct {
		round, position    int
		wantRound, wantPos int
		wantSlot           models.Slot
	}{
		{1, 1, 2, 1, models.Slot1},
		{1, 2, 2, 1, models.Slot2},
		{1, 3, 2, 2, models.Slot1},
		{1, 4, 2, 2, models.Slot2},
		{2, 5, 3, 3, models.Slot1},
	}
	for _, tt := range tests {
		r, p, s := NextSlot(tt.round, tt.position)
		if r != tt.wantRound || p != tt.wantPos || s != tt.wantSlot {
			t.Errorf("NextSlot(%d, %d) = (%d, %d, %d), want (%d, %d, %d)",
				tt.round, tt.position, r, p, s, tt.wantRound, tt.wantPos, tt.wantSlot)
		}
	}
}

func TestIsStructuralBye(t *testing.T) {
	// 5 players: round 1 has 3 matches, position 3 is a bye.
	// round 2 has 2 matches fed by 3 matches, position 2 is a bye.
	if !IsStructuralBye(5, 1, 3) {
		t.Error("expected (1,3) of 5 players to be a bye")
	}
	if IsStructuralBye(5, 1, 2) {
		t.Error("(1,2) of 5 players is not a bye")
	}
	if !IsStructuralBye(5, 2, 2) {
		t.Error("expected (2,2) of 5 players to be a bye")
	}
	if IsStructuralBye(5, 3, 1) {
		t.Error("final of 5 players is not a bye")
	}
	if IsStructuralBye(8, 1, 4) || IsStructuralBye(8, 2, 2) {
		t.Error("power of two brackets have no byes")
	}
}

func TestGenerateBracketEven(t *testing.T) {
	gen, err := NewGenerator(models.FormatSingleElimination, Options{BaseTime: DefaultBaseTime})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	tournament := &models.Tournament{ID: 7}
	matches, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{
		Tournament:   tournament,
		Participants: participants(4),
	})
	if err != nil {
		t.Fatalf("GenerateBracket: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}

	m1, m2 := matches[0], matches[1]
	if *m1.Player1ID != 101 || *m1.Player2ID != 102 {
		t.Errorf("match 1 players = %d vs %d, want 101 vs 102", *m1.Player1ID, *m1.Player2ID)
	}
	if *m2.Player1ID != 103 || *m2.Player2ID != 104 {
		t.Errorf("match 2 players = %d vs %d, want 103 vs 104", *m2.Player1ID, *m2.Player2ID)
	}
	if m1.Status != models.MatchActive || m2.Status != models.MatchWaiting {
		t.Errorf("statuses = %s, %s; want active, waiting", m1.Status, m2.Status)
	}
	if m1.ScheduledTime != "19:00:00" || m2.ScheduledTime != "19:30:00" {
		t.Errorf("scheduled times = %s, %s", m1.ScheduledTime, m2.ScheduledTime)
	}
	for _, m := range matches {
		if m.TournamentID != 7 || m.Round != 1 {
			t.Errorf("match %+v has wrong tournament or round", m)
		}
	}
}

func TestGenerateBracketOddManualBye(t *testing.T) {
	gen := NewSingleEliminationGenerator(Options{ByePolicy: ByeManual, BaseTime: DefaultBaseTime})
	matches, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{
		Tournament:   &models.Tournament{ID: 1},
		Participants: participants(3),
	})
	if err != nil {
		t.Fatalf("GenerateBracket: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	last := matches[1]
	if *last.Player1ID != 103 || last.Player2ID != nil {
		t.Errorf("bye match should hold only player 103, got %v / %v", last.Player1ID, last.Player2ID)
	}
	if last.Status != models.MatchWaiting || last.IsBye || last.WinnerID != nil {
		t.Errorf("manual bye must stay waiting without winner, got %+v", last)
	}
}

func TestGenerateBracketOddAutoAdvance(t *testing.T) {
	gen := NewSingleEliminationGenerator(Options{ByePolicy: ByeAutoAdvance, BaseTime: DefaultBaseTime})
	matches, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{
		Tournament:   &models.Tournament{ID: 1},
		Participants: participants(5),
	})
	if err != nil {
		t.Fatalf("GenerateBracket: %v", err)
	}
	last := matches[2]
	if !last.IsBye || last.Status != models.MatchFinished || last.WinnerID == nil || *last.WinnerID != 105 {
		t.Errorf("auto bye match = %+v, want finished bye won by 105", last)
	}
}

func TestGenerateBracketErrors(t *testing.T) {
	gen := NewSingleEliminationGenerator(Options{})
	ctx := context.Background()

	_, err := gen.GenerateBracket(ctx, GenerateBracketParams{Tournament: &models.Tournament{}, Participants: participants(1)})
	if !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("one participant: err = %v", err)
	}

	ps := participants(2)
	ps[0].DrawPosition = nil
	_, err = gen.GenerateBracket(ctx, GenerateBracketParams{Tournament: &models.Tournament{}, Participants: ps})
	if !errors.Is(err, ErrDrawPositionMissing) {
		t.Errorf("missing draw: err = %v", err)
	}

	ps = participants(3)
	dup := 1
	ps[0].DrawPosition = &dup
	_, err = gen.GenerateBracket(ctx, GenerateBracketParams{Tournament: &models.Tournament{}, Participants: ps})
	if !errors.Is(err, ErrDrawPositionConflict) {
		t.Errorf("duplicate draw: err = %v", err)
	}
}

func TestNewGeneratorUnsupported(t *testing.T) {
	for _, f := range []models.TournamentFormat{models.FormatDoubleElimination, models.FormatPools, "swiss"} {
		if _, err := NewGenerator(f, Options{}); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("NewGenerator(%s) err = %v, want ErrUnsupportedFormat", f, err)
		}
	}
}
