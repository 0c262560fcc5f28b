package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/dart-tournament/models"
)

func TestCreatePlayerValidation(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()

	nick := "  The Power  "
	p, err := env.players.CreatePlayer(ctx, CreatePlayerInput{FirstName: " Phil ", LastName: "Taylor", Nickname: &nick})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.FirstName != "Phil" || p.SkillLevel != models.SkillBeginner || !p.Active {
		t.Errorf("unexpected player %+v", p)
	}
	if p.Nickname == nil || *p.Nickname != "The Power" || p.DisplayName() != "The Power" {
		t.Errorf("nickname = %v", p.Nickname)
	}

	cases := []CreatePlayerInput{
		{LastName: "Taylor"},
		{FirstName: "Phil"},
		{FirstName: "Phil", LastName: "Taylor", SkillLevel: "legend"},
	}
	for _, in := range cases {
		if _, err := env.players.CreatePlayer(ctx, in); !errors.Is(err, ErrValidationFailed) {
			t.Errorf("CreatePlayer(%+v) err = %v, want ErrValidationFailed", in, err)
		}
	}
}

func TestDeletePlayer(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	tr, players := env.startTournament(t, 2)
	final := env.matchAt(t, tr.ID, 1, 1)
	idle := env.createPlayers(t, 1)[0]

	if err := env.players.DeletePlayer(ctx, players[0].ID, false, false); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	p, err := env.players.GetPlayer(ctx, players[0].ID)
	if err != nil {
		t.Fatalf("soft-deleted player must remain: %v", err)
	}
	if p.Active {
		t.Errorf("soft delete should disable the player")
	}

	if err := env.players.DeletePlayer(ctx, players[1].ID, true, false); !errors.Is(err, ErrPlayerInUse) {
		t.Errorf("permanent delete of referenced player err = %v, want ErrPlayerInUse", err)
	}
	if err := env.players.DeletePlayer(ctx, players[1].ID, true, true); err != nil {
		t.Fatalf("forced delete: %v", err)
	}
	if _, err := env.players.GetPlayer(ctx, players[1].ID); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("deleted player lookup err = %v", err)
	}
	m := env.matchAt(t, tr.ID, 1, 1)
	if m.SlotPlayer(mustSlot(t, final, players[1].ID)) != nil {
		t.Errorf("forced delete should clear the match slot")
	}

	if err := env.players.DeletePlayer(ctx, idle.ID, true, false); err != nil {
		t.Errorf("unreferenced player delete: %v", err)
	}
	if err := env.players.DeletePlayer(ctx, 9999, true, false); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("missing player err = %v", err)
	}
}

func mustSlot(t *testing.T, m *models.Match, playerID int) models.Slot {
	t.Helper()
	slot, ok := m.SlotOf(playerID)
	if !ok {
		t.Fatalf("player %d not in match %d", playerID, m.ID)
	}
	return slot
}

func TestPlayerStatsAndTop(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	tr, _ := env.startTournament(t, 4)

	w1 := env.play(t, env.matchAt(t, tr.ID, 1, 1), models.Slot1)
	w2 := env.play(t, env.matchAt(t, tr.ID, 1, 2), models.Slot1)
	final := env.matchAt(t, tr.ID, 2, 1)
	champion := env.play(t, final, mustSlot(t, final, w1))
	if champion != w1 {
		t.Fatalf("champion %d, want %d", champion, w1)
	}

	stats, err := env.players.PlayerStats(ctx, w1)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.MatchesPlayed != 2 || stats.MatchesWon != 2 || stats.Ratio != 1 || stats.Wins != 2 || stats.Participations != 1 {
		t.Errorf("champion stats = %+v", stats)
	}
	runnerUp, _ := env.players.PlayerStats(ctx, w2)
	if runnerUp.MatchesPlayed != 2 || runnerUp.MatchesWon != 1 || runnerUp.Ratio != 0.5 {
		t.Errorf("runner-up stats = %+v", runnerUp)
	}

	top, err := env.players.TopPlayers(ctx, 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 4 || top[0].ID != w1 || top[1].ID != w2 {
		t.Errorf("top order = %+v", top)
	}

	if err := env.players.DisablePlayer(ctx, w2); err != nil {
		t.Fatalf("disable: %v", err)
	}
	top, _ = env.players.TopPlayers(ctx, 2)
	if len(top) != 2 || top[1].ID == w2 {
		t.Errorf("inactive players must not rank, got %+v", top)
	}
}

func TestListPlayersSearch(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	nick := "Snakebite"
	if _, err := env.players.CreatePlayer(ctx, CreatePlayerInput{FirstName: "Peter", LastName: "Wright", Nickname: &nick}); err != nil {
		t.Fatal(err)
	}
	env.createPlayers(t, 3)

	found, err := env.players.ListPlayers(ctx, ListPlayersInput{Search: "snake"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(found) != 1 || found[0].LastName != "Wright" {
		t.Errorf("search result = %+v", found)
	}

	all, _ := env.players.ListPlayers(ctx, ListPlayersInput{})
	if len(all) != 4 {
		t.Errorf("got %d players, want 4", len(all))
	}
}

func TestInactivePlayerCannotRegister(t *testing.T) {
	env := newTestEnv(t, EngineOptions{})
	ctx := context.Background()
	p := env.createPlayers(t, 1)[0]
	tr := env.createTournament(t, nil)

	if err := env.players.DisablePlayer(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.tournaments.AddParticipant(ctx, tr.ID, p.ID); !errors.Is(err, ErrPlayerInactive) {
		t.Errorf("err = %v, want ErrPlayerInactive", err)
	}
	if err := env.players.EnablePlayer(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.tournaments.AddParticipant(ctx, tr.ID, p.ID); err != nil {
		t.Errorf("re-enabled player should register: %v", err)
	}
}
