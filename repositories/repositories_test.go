package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/dart-tournament/db/dbtest"
	"github.com/Dosada05/dart-tournament/models"
)

type testRepos struct {
	tx           Transactor
	players      PlayerRepository
	tournaments  TournamentRepository
	participants ParticipantRepository
	matches      MatchRepository
	history      ScoreHistoryRepository
}

func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	conn := dbtest.NewSQLite(t)
	return testRepos{
		tx:           NewTransactor(conn, nil),
		players:      NewPlayerRepository(conn, DialectSQLite),
		tournaments:  NewTournamentRepository(conn, DialectSQLite),
		participants: NewParticipantRepository(conn, DialectSQLite),
		matches:      NewMatchRepository(conn, DialectSQLite),
		history:      NewScoreHistoryRepository(conn, DialectSQLite),
	}
}

func (r testRepos) mustPlayer(t *testing.T, first string) *models.Player {
	t.Helper()
	p := &models.Player{FirstName: first, LastName: "Test", SkillLevel: models.SkillAmateur, Active: true}
	if err := r.players.Create(context.Background(), nil, p); err != nil {
		t.Fatalf("create player: %v", err)
	}
	return p
}

func (r testRepos) mustTournament(t *testing.T) *models.Tournament {
	t.Helper()
	tr := &models.Tournament{
		Name:   "Friday darts",
		Date:   time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC),
		Format: models.FormatSingleElimination,
		Status: models.TournamentPlanned,
	}
	if err := r.tournaments.Create(context.Background(), nil, tr); err != nil {
		t.Fatalf("create tournament: %v", err)
	}
	return tr
}

func intPtr(v int) *int { return &v }

func TestRebind(t *testing.T) {
	got := DialectPostgres.Rebind(`SELECT * FROM t WHERE a = ? AND b IN (?, ?)`)
	want := `SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)`
	if got != want {
		t.Errorf("Rebind = %q, want %q", got, want)
	}
	if q := `a = ?`; DialectSQLite.Rebind(q) != q {
		t.Errorf("sqlite queries must be left untouched")
	}
}

func TestPlayerRepository(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	alice := r.mustPlayer(t, "Alice")
	bob := r.mustPlayer(t, "Bob")
	nick := "Bullseye"
	bob.Nickname = &nick
	if err := r.players.Update(ctx, nil, bob); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := r.players.GetByID(ctx, nil, bob.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Nickname == nil || *got.Nickname != "Bullseye" || !got.Active {
		t.Errorf("unexpected player %+v", got)
	}

	t.Run("search matches nickname case-insensitively", func(t *testing.T) {
		list, err := r.players.List(ctx, nil, ListPlayersFilter{Search: "bulls"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 || list[0].ID != bob.ID {
			t.Errorf("search returned %+v", list)
		}
	})

	t.Run("disabled players are excluded from active list", func(t *testing.T) {
		if err := r.players.SetActive(ctx, nil, alice.ID, false); err != nil {
			t.Fatalf("disable: %v", err)
		}
		list, err := r.players.List(ctx, nil, ListPlayersFilter{ActiveOnly: true})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 || list[0].ID != bob.ID {
			t.Errorf("active list = %+v", list)
		}
	})

	t.Run("counters and top", func(t *testing.T) {
		carol := r.mustPlayer(t, "Carol")
		if err := r.players.IncrementParticipations(ctx, nil, []int{bob.ID, carol.ID}); err != nil {
			t.Fatalf("participations: %v", err)
		}
		if err := r.players.IncrementWins(ctx, nil, carol.ID); err != nil {
			t.Fatalf("wins: %v", err)
		}
		top, err := r.players.Top(ctx, nil, 5)
		if err != nil {
			t.Fatalf("top: %v", err)
		}
		if len(top) != 2 || top[0].ID != carol.ID || top[0].Wins != 1 || top[1].Participations != 1 {
			t.Errorf("top = %+v", top)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := r.players.GetByID(ctx, nil, 9999); !errors.Is(err, ErrPlayerNotFound) {
			t.Errorf("err = %v", err)
		}
		if err := r.players.Delete(ctx, nil, 9999); !errors.Is(err, ErrPlayerNotFound) {
			t.Errorf("delete err = %v", err)
		}
	})
}

func TestParticipantRepository(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	tr := r.mustTournament(t)
	a, b := r.mustPlayer(t, "A"), r.mustPlayer(t, "B")

	for _, p := range []*models.Player{a, b} {
		if err := r.participants.Add(ctx, nil, &models.Participant{TournamentID: tr.ID, PlayerID: p.ID}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	err := r.participants.Add(ctx, nil, &models.Participant{TournamentID: tr.ID, PlayerID: a.ID})
	if !errors.Is(err, ErrParticipantConflict) {
		t.Fatalf("duplicate add err = %v, want ErrParticipantConflict", err)
	}
	err = r.participants.Add(ctx, nil, &models.Participant{TournamentID: tr.ID, PlayerID: 4242})
	if !errors.Is(err, ErrParticipantInvalidRef) {
		t.Fatalf("unknown player err = %v, want ErrParticipantInvalidRef", err)
	}

	list, err := r.participants.ListByTournament(ctx, nil, tr.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Player == nil || list[0].Player.FirstName != "A" {
		t.Fatalf("list = %+v", list)
	}

	// seeding B first must reorder the list
	if err := r.participants.SetDrawPosition(ctx, nil, list[1].ID, 1); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if err := r.participants.SetDrawPosition(ctx, nil, list[0].ID, 2); err != nil {
		t.Fatalf("draw: %v", err)
	}
	list, _ = r.participants.ListByTournament(ctx, nil, tr.ID)
	if list[0].PlayerID != b.ID || *list[0].DrawPosition != 1 {
		t.Errorf("expected B first after seeding, got %+v", list[0])
	}

	if n, _ := r.participants.CountByTournament(ctx, nil, tr.ID); n != 2 {
		t.Errorf("count = %d", n)
	}
	if err := r.participants.Remove(ctx, nil, tr.ID, a.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := r.participants.Remove(ctx, nil, tr.ID, a.ID); !errors.Is(err, ErrParticipantNotFound) {
		t.Errorf("second remove err = %v", err)
	}
}

func TestTournamentLifecycleUpdates(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	tr := r.mustTournament(t)
	champ := r.mustPlayer(t, "Champ")

	if err := r.tournaments.MarkFinished(ctx, nil, tr.ID, champ.ID); !errors.Is(err, ErrTournamentStatusConflict) {
		t.Fatalf("finish planned err = %v", err)
	}
	if err := r.tournaments.MarkStarted(ctx, nil, tr.ID, 3); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.tournaments.MarkStarted(ctx, nil, tr.ID, 4); !errors.Is(err, ErrTournamentStatusConflict) {
		t.Fatalf("second start err = %v", err)
	}
	if err := r.tournaments.AdvanceCurrentRound(ctx, nil, tr.ID, 3); err != nil {
		t.Fatalf("advance: %v", err)
	}
	// lowering is ignored
	if err := r.tournaments.AdvanceCurrentRound(ctx, nil, tr.ID, 2); err != nil {
		t.Fatalf("advance: %v", err)
	}

	got, err := r.tournaments.GetByID(ctx, nil, tr.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.TournamentInProgress || got.CurrentRound != 3 || got.TotalRounds == nil || *got.TotalRounds != 3 {
		t.Errorf("unexpected tournament %+v", got)
	}

	current, err := r.tournaments.GetCurrent(ctx, nil)
	if err != nil || current.ID != tr.ID {
		t.Errorf("current = %+v, %v", current, err)
	}

	if err := r.tournaments.MarkFinished(ctx, nil, tr.ID, champ.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	got, _ = r.tournaments.GetByID(ctx, nil, tr.ID)
	if got.Status != models.TournamentFinished || got.ChampionID == nil || *got.ChampionID != champ.ID {
		t.Errorf("unexpected finished tournament %+v", got)
	}
	if _, err := r.tournaments.GetCurrent(ctx, nil); !errors.Is(err, ErrTournamentNotFound) {
		t.Errorf("current after finish err = %v", err)
	}
}

func TestMatchStateTransitions(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	tr := r.mustTournament(t)
	a, b := r.mustPlayer(t, "A"), r.mustPlayer(t, "B")

	m := &models.Match{
		TournamentID: tr.ID, Round: 1, Position: 1,
		Player1ID: &a.ID, Player2ID: &b.ID,
		Status: models.MatchWaiting, ScheduledTime: "19:00:00",
	}
	if err := r.matches.Create(ctx, nil, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := *m
	if err := r.matches.Create(ctx, nil, &dup); !errors.Is(err, ErrMatchPositionConflict) {
		t.Fatalf("duplicate position err = %v", err)
	}

	if err := r.matches.UpdateScores(ctx, nil, m.ID, 1, 0); !errors.Is(err, ErrMatchStateConflict) {
		t.Errorf("score on waiting match err = %v", err)
	}
	if err := r.matches.Complete(ctx, nil, m.ID, a.ID); !errors.Is(err, ErrMatchStateConflict) {
		t.Errorf("complete waiting match err = %v", err)
	}
	if err := r.matches.Activate(ctx, nil, m.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := r.matches.Activate(ctx, nil, m.ID); !errors.Is(err, ErrMatchStateConflict) {
		t.Errorf("second activate err = %v", err)
	}
	if err := r.matches.UpdateScores(ctx, nil, m.ID, 3, 2); err != nil {
		t.Fatalf("scores: %v", err)
	}
	if err := r.matches.Complete(ctx, nil, m.ID, 777); !errors.Is(err, ErrMatchStateConflict) {
		t.Errorf("complete with outsider err = %v", err)
	}
	if err := r.matches.Complete(ctx, nil, m.ID, a.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := r.matches.Complete(ctx, nil, m.ID, b.ID); !errors.Is(err, ErrMatchStateConflict) {
		t.Errorf("second complete err = %v", err)
	}

	got, err := r.matches.GetByID(ctx, nil, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.MatchFinished || *got.WinnerID != a.ID || got.Score1 != 3 || got.Score2 != 2 {
		t.Errorf("unexpected match %+v", got)
	}
	if loser := got.LoserID(); loser == nil || *loser != b.ID {
		t.Errorf("loser = %v", loser)
	}
}

func TestMatchPlaceInSlotMergesBothWinners(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	tr := r.mustTournament(t)
	a, b := r.mustPlayer(t, "A"), r.mustPlayer(t, "B")

	var firstID, secondID int
	err := r.tx.RunInTx(ctx, func(exec SQLExecutor) error {
		var err error
		firstID, err = r.matches.PlaceInSlot(ctx, exec, SlotPlacement{
			TournamentID: tr.ID, Round: 2, Position: 2, Slot: models.Slot2, PlayerID: b.ID, ScheduledTime: "20:15:00",
		})
		if err != nil {
			return err
		}
		secondID, err = r.matches.PlaceInSlot(ctx, exec, SlotPlacement{
			TournamentID: tr.ID, Round: 2, Position: 2, Slot: models.Slot1, PlayerID: a.ID, ScheduledTime: "20:15:00",
		})
		return err
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if firstID != secondID {
		t.Fatalf("both placements must hit the same row, got %d and %d", firstID, secondID)
	}

	m, err := r.matches.GetByPosition(ctx, nil, tr.ID, 2, 2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *m.Player1ID != a.ID || *m.Player2ID != b.ID || m.Status != models.MatchWaiting || m.ScheduledTime != "20:15:00" {
		t.Errorf("merged match = %+v", m)
	}

	all, _ := r.matches.List(ctx, nil, ListMatchesFilter{TournamentID: &tr.ID})
	if len(all) != 1 {
		t.Errorf("expected one match row, got %d", len(all))
	}
}

func TestMatchPlaceInSlotSkipsFinishedMatch(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	tr := r.mustTournament(t)
	a, b := r.mustPlayer(t, "A"), r.mustPlayer(t, "B")

	done := &models.Match{TournamentID: tr.ID, Round: 2, Position: 1, Player1ID: &a.ID, Status: models.MatchWaiting}
	if err := r.matches.Create(ctx, nil, done); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.matches.MarkBye(ctx, nil, done.ID, a.ID); err != nil {
		t.Fatalf("bye: %v", err)
	}

	place := SlotPlacement{TournamentID: tr.ID, Round: 2, Position: 1, Slot: models.Slot2, PlayerID: b.ID, ScheduledTime: "19:45:00"}
	if _, err := r.matches.PlaceInSlot(ctx, nil, place); !errors.Is(err, ErrMatchStateConflict) {
		t.Errorf("place outside tx err = %v, want ErrMatchStateConflict", err)
	}

	err := r.tx.RunInTx(ctx, func(exec SQLExecutor) error {
		if _, err := r.matches.PlaceInSlot(ctx, exec, place); !errors.Is(err, ErrMatchStateConflict) {
			t.Errorf("place in tx err = %v, want ErrMatchStateConflict", err)
		}
		// the transaction stays usable after the refused placement
		_, err := r.matches.PlaceInSlot(ctx, exec, SlotPlacement{
			TournamentID: tr.ID, Round: 2, Position: 2, Slot: models.Slot1, PlayerID: b.ID, ScheduledTime: "20:15:00",
		})
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	got, _ := r.matches.GetByID(ctx, nil, done.ID)
	if got.Player2ID != nil || *got.WinnerID != a.ID {
		t.Errorf("finished match was rewritten: %+v", got)
	}
	if _, err := r.matches.GetByPosition(ctx, nil, tr.ID, 2, 2); err != nil {
		t.Errorf("placement after refusal was lost: %v", err)
	}
}

func TestMatchReplaceSlotCompareAndSwap(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	tr := r.mustTournament(t)
	a, b, c := r.mustPlayer(t, "A"), r.mustPlayer(t, "B"), r.mustPlayer(t, "C")

	m := &models.Match{TournamentID: tr.ID, Round: 1, Position: 1, Player1ID: &a.ID, Status: models.MatchWaiting}
	if err := r.matches.Create(ctx, nil, m); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := r.matches.ReplaceSlot(ctx, nil, m.ID, models.Slot2, nil, b.ID); err != nil {
		t.Fatalf("fill empty slot: %v", err)
	}
	if err := r.matches.ReplaceSlot(ctx, nil, m.ID, models.Slot2, nil, c.ID); !errors.Is(err, ErrMatchStateConflict) {
		t.Errorf("stale empty expectation err = %v", err)
	}
	if err := r.matches.ReplaceSlot(ctx, nil, m.ID, models.Slot1, intPtr(a.ID), c.ID); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := r.matches.ReplaceSlot(ctx, nil, m.ID, 3, nil, c.ID); !errors.Is(err, ErrMatchInvalidSlot) {
		t.Errorf("invalid slot err = %v", err)
	}

	got, _ := r.matches.GetByID(ctx, nil, m.ID)
	if *got.Player1ID != c.ID || *got.Player2ID != b.ID {
		t.Errorf("slots = %v / %v", *got.Player1ID, *got.Player2ID)
	}
}

func TestMatchMarkBye(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	tr := r.mustTournament(t)
	a := r.mustPlayer(t, "A")

	m := &models.Match{TournamentID: tr.ID, Round: 2, Position: 2, Player1ID: &a.ID, Status: models.MatchWaiting}
	if err := r.matches.Create(ctx, nil, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.matches.MarkBye(ctx, nil, m.ID, a.ID); err != nil {
		t.Fatalf("bye: %v", err)
	}
	if err := r.matches.MarkBye(ctx, nil, m.ID, a.ID); !errors.Is(err, ErrMatchStateConflict) {
		t.Errorf("second bye err = %v", err)
	}
	got, _ := r.matches.GetByID(ctx, nil, m.ID)
	if !got.IsBye || got.Status != models.MatchFinished || *got.WinnerID != a.ID {
		t.Errorf("bye match = %+v", got)
	}

	played, won, err := r.players.MatchCounts(ctx, nil, a.ID)
	if err != nil || played != 0 || won != 0 {
		t.Errorf("byes must not count as played matches: %d/%d %v", played, won, err)
	}
}

func TestScoreHistoryAppendOnly(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	tr := r.mustTournament(t)
	a := r.mustPlayer(t, "A")
	m := &models.Match{TournamentID: tr.ID, Round: 1, Position: 1, Player1ID: &a.ID, Status: models.MatchWaiting}
	if err := r.matches.Create(ctx, nil, m); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, score := range []int{1, 2, 3} {
		if err := r.history.Append(ctx, nil, &models.ScoreHistory{MatchID: m.ID, PlayerID: a.ID, Score: score}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	list, err := r.history.ListByMatch(ctx, nil, m.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Score != 1 || list[2].Score != 3 {
		t.Errorf("history = %+v", list)
	}
	if err := r.history.Append(ctx, nil, &models.ScoreHistory{MatchID: 9999, PlayerID: a.ID}); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("append to unknown match err = %v", err)
	}
}

func TestRunInTxRollsBack(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := r.tx.RunInTx(ctx, func(exec SQLExecutor) error {
		p := &models.Player{FirstName: "Ghost", LastName: "X", SkillLevel: models.SkillBeginner, Active: true}
		if err := r.players.Create(ctx, exec, p); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	list, _ := r.players.List(ctx, nil, ListPlayersFilter{})
	if len(list) != 0 {
		t.Errorf("rolled back insert is visible: %+v", list)
	}
}
