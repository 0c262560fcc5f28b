package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/dart-tournament/brackets"
	"github.com/Dosada05/dart-tournament/models"
	"github.com/Dosada05/dart-tournament/repositories"
)

// TournamentFinishedPayload is broadcast when a champion is crowned.
type TournamentFinishedPayload struct {
	TournamentID int            `json:"tournament_id"`
	Champion     *models.Player `json:"champion,omitempty"`
	ArchiveURL   string         `json:"archive_url,omitempty"`
}

// BracketUpdatedPayload tells display screens which matches to refresh.
type BracketUpdatedPayload struct {
	TournamentID int   `json:"tournament_id"`
	MatchIDs     []int `json:"match_ids"`
}

type BracketService interface {
	GetBracket(ctx context.Context, tournamentID int) (*models.Bracket, error)
}

type bracketService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	playerRepo      repositories.PlayerRepository
	cache           BracketCache
	logger          *slog.Logger
}

func NewBracketService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	cache BracketCache,
	logger *slog.Logger,
) BracketService {
	if cache == nil {
		cache = NoopCache()
	}
	logger = loggerOrDefault(logger)
	return &bracketService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		playerRepo:      playerRepo,
		cache:           cache,
		logger:          logger,
	}
}

// GetBracket assembles the tournament, its participants and its matches grouped by round.
func (s *bracketService) GetBracket(ctx context.Context, tournamentID int) (*models.Bracket, error) {
	if cached, ok, err := s.cache.Get(ctx, tournamentID); err != nil {
		s.logger.Warn("bracket cache read failed", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
	} else if ok {
		return cached, nil
	}

	var (
		tournament   *models.Tournament
		participants []*models.Participant
		matches      []*models.Match
	)
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.tournamentRepo.GetByID(gCtx, nil, tournamentID)
		if err != nil {
			return mapRepoError(err)
		}
		tournament = t
		return nil
	})
	g.Go(func() error {
		list, err := s.participantRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load participants: %w", err)
		}
		participants = list
		return nil
	})
	g.Go(func() error {
		list, err := s.matchRepo.List(gCtx, nil, repositories.ListMatchesFilter{TournamentID: &tournamentID})
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		matches = list
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := attachPlayers(ctx, s.playerRepo, nil, matches); err != nil {
		return nil, fmt.Errorf("failed to load match players: %w", err)
	}

	bracket := &models.Bracket{
		Tournament:   tournament,
		Participants: make([]models.Participant, 0, len(participants)),
		Rounds:       make([]models.BracketRound, 0),
	}
	for _, p := range participants {
		bracket.Participants = append(bracket.Participants, *p)
	}
	for _, m := range matches {
		last := len(bracket.Rounds) - 1
		if last < 0 || bracket.Rounds[last].Round != m.Round {
			bracket.Rounds = append(bracket.Rounds, models.BracketRound{Round: m.Round, Matches: []models.Match{}})
			last++
		}
		bracket.Rounds[last].Matches = append(bracket.Rounds[last].Matches, *m)
	}
	if tournament.ChampionID != nil {
		champion, err := s.playerRepo.GetByID(ctx, nil, *tournament.ChampionID)
		if err != nil && !errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, fmt.Errorf("failed to load champion: %w", err)
		}
		bracket.Champion = champion
	}

	if err := s.cache.Set(ctx, tournamentID, bracket); err != nil {
		s.logger.Warn("bracket cache write failed", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
	}
	return bracket, nil
}

// notifier runs the post-commit side effects of bracket writes. Failures are logged only:
// the state change is already durable.
type notifier struct {
	publisher EventPublisher
	cache     BracketCache
	archiver  BracketArchiver
	brackets  BracketService
	players   repositories.PlayerRepository
	logger    *slog.Logger
}

func (n *notifier) invalidate(ctx context.Context, tournamentID int) {
	if err := n.cache.Invalidate(ctx, tournamentID); err != nil {
		n.logger.Warn("bracket cache invalidation failed", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
	}
}

func (n *notifier) matchChanged(ctx context.Context, match *models.Match) {
	n.invalidate(ctx, match.TournamentID)
	n.publisher.Publish(ctx, match.TournamentID, brackets.EventMatchUpdated, match)
}

func (n *notifier) bracketChanged(ctx context.Context, tournamentID int, matchIDs []int) {
	n.invalidate(ctx, tournamentID)
	if matchIDs == nil {
		matchIDs = []int{}
	}
	n.publisher.Publish(ctx, tournamentID, brackets.EventBracketUpdated, BracketUpdatedPayload{
		TournamentID: tournamentID,
		MatchIDs:     matchIDs,
	})
}

func (n *notifier) tournamentDeleted(ctx context.Context, tournamentID int) {
	n.invalidate(ctx, tournamentID)
	if err := n.archiver.Remove(ctx, tournamentID); err != nil {
		n.logger.Warn("failed to remove bracket archive", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
	}
}

func (n *notifier) tournamentFinished(ctx context.Context, tournamentID, championID int) {
	n.invalidate(ctx, tournamentID)
	payload := TournamentFinishedPayload{TournamentID: tournamentID}

	if champion, err := n.players.GetByID(ctx, nil, championID); err == nil {
		payload.Champion = champion
	}

	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	bracket, err := n.brackets.GetBracket(archiveCtx, tournamentID)
	if err != nil {
		n.logger.Error("failed to assemble bracket for archive", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
	} else if url, err := n.archiver.Archive(archiveCtx, bracket); err != nil {
		n.logger.Error("failed to archive bracket", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
	} else if url != "" {
		payload.ArchiveURL = url
		n.logger.Info("bracket archived", slog.Int("tournament_id", tournamentID), slog.String("url", url))
	}

	n.publisher.Publish(ctx, tournamentID, brackets.EventTournamentFinished, payload)
}
