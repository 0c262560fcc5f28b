package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/dart-tournament/db/dbtest"
	"github.com/Dosada05/dart-tournament/models"
	"github.com/Dosada05/dart-tournament/repositories"
)

type publishedEvent struct {
	TournamentID int
	Type         string
	Payload      interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, tournamentID int, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{TournamentID: tournamentID, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type recordingArchiver struct {
	mu       sync.Mutex
	archived []*models.Bracket
	removed  []int
}

func (a *recordingArchiver) Archive(_ context.Context, b *models.Bracket) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archived = append(a.archived, b)
	return fmt.Sprintf("https://archive.test/tournaments/%d/bracket.json", b.Tournament.ID), nil
}

func (a *recordingArchiver) Remove(_ context.Context, tournamentID int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.removed = append(a.removed, tournamentID)
	return nil
}

type testEnv struct {
	players     PlayerService
	tournaments TournamentService
	matches     MatchService
	brackets    BracketService

	playerRepo  repositories.PlayerRepository
	matchRepo   repositories.MatchRepository
	historyRepo repositories.ScoreHistoryRepository

	publisher *recordingPublisher
	archiver  *recordingArchiver
}

func newTestEnv(t *testing.T, opts EngineOptions) *testEnv {
	t.Helper()
	conn := dbtest.NewSQLite(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}

	tx := repositories.NewTransactor(conn, logger)
	playerRepo := repositories.NewPlayerRepository(conn, repositories.DialectSQLite)
	tournamentRepo := repositories.NewTournamentRepository(conn, repositories.DialectSQLite)
	participantRepo := repositories.NewParticipantRepository(conn, repositories.DialectSQLite)
	matchRepo := repositories.NewMatchRepository(conn, repositories.DialectSQLite)
	historyRepo := repositories.NewScoreHistoryRepository(conn, repositories.DialectSQLite)

	publisher := &recordingPublisher{}
	archiver := &recordingArchiver{}
	bracketService := NewBracketService(tournamentRepo, participantRepo, matchRepo, playerRepo, nil, logger)

	return &testEnv{
		players: NewPlayerService(playerRepo, logger),
		tournaments: NewTournamentService(tx, tournamentRepo, participantRepo, playerRepo, matchRepo,
			bracketService, publisher, nil, archiver, opts, logger),
		matches: NewMatchService(tx, matchRepo, tournamentRepo, participantRepo, playerRepo, historyRepo,
			bracketService, publisher, nil, archiver, opts, logger),
		brackets:    bracketService,
		playerRepo:  playerRepo,
		matchRepo:   matchRepo,
		historyRepo: historyRepo,
		publisher:   publisher,
		archiver:    archiver,
	}
}

func (e *testEnv) createPlayers(t *testing.T, n int) []*models.Player {
	t.Helper()
	players := make([]*models.Player, n)
	for i := range players {
		p, err := e.players.CreatePlayer(context.Background(), CreatePlayerInput{
			FirstName:  fmt.Sprintf("Player%d", i+1),
			LastName:   "Darts",
			SkillLevel: models.SkillAmateur,
		})
		if err != nil {
			t.Fatalf("create player: %v", err)
		}
		players[i] = p
	}
	return players
}

func (e *testEnv) createTournament(t *testing.T, players []*models.Player) *models.Tournament {
	t.Helper()
	ctx := context.Background()
	tr, err := e.tournaments.CreateTournament(ctx, CreateTournamentInput{
		Name: "Thursday league",
		Date: time.Date(2026, 6, 4, 19, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}
	for _, p := range players {
		if _, err := e.tournaments.AddParticipant(ctx, tr.ID, p.ID); err != nil {
			t.Fatalf("add participant: %v", err)
		}
	}
	return tr
}

// startTournament registers n fresh players and starts the tournament.
func (e *testEnv) startTournament(t *testing.T, n int) (*models.Tournament, []*models.Player) {
	t.Helper()
	players := e.createPlayers(t, n)
	tr := e.createTournament(t, players)
	started, err := e.tournaments.SeedAndStart(context.Background(), tr.ID)
	if err != nil {
		t.Fatalf("seed and start with %d players: %v", n, err)
	}
	return started, players
}

func (e *testEnv) matchAt(t *testing.T, tournamentID, round, position int) *models.Match {
	t.Helper()
	m, err := e.matchRepo.GetByPosition(context.Background(), nil, tournamentID, round, position)
	if err != nil {
		t.Fatalf("match r%d p%d: %v", round, position, err)
	}
	return m
}

func (e *testEnv) roundMatches(t *testing.T, tournamentID, round int) []*models.Match {
	t.Helper()
	list, err := e.matchRepo.List(context.Background(), nil, repositories.ListMatchesFilter{
		TournamentID: &tournamentID,
		Round:        &round,
	})
	if err != nil {
		t.Fatalf("list round %d: %v", round, err)
	}
	return list
}

// play activates the match if needed and finishes it in favour of the given slot.
func (e *testEnv) play(t *testing.T, m *models.Match, winner models.Slot) int {
	t.Helper()
	ctx := context.Background()
	if m.Status == models.MatchWaiting {
		if _, err := e.matches.ActivateMatch(ctx, m.ID); err != nil {
			t.Fatalf("activate match %d: %v", m.ID, err)
		}
	}
	winnerID := *m.SlotPlayer(winner)
	if _, err := e.matches.FinishMatch(ctx, m.ID, winnerID); err != nil {
		t.Fatalf("finish match %d: %v", m.ID, err)
	}
	return winnerID
}

func (e *testEnv) tournament(t *testing.T, id int) *models.Tournament {
	t.Helper()
	tr, err := e.tournaments.GetTournament(context.Background(), id)
	if err != nil {
		t.Fatalf("get tournament: %v", err)
	}
	return tr
}

func (e *testEnv) tournamentDate() time.Time {
	return time.Date(2026, 6, 4, 19, 0, 0, 0, time.UTC)
}
