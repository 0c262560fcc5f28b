package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/dart-tournament/models"
	"github.com/Dosada05/dart-tournament/repositories"
)

type ListMatchesInput struct {
	TournamentID int
	Round        *int
	Status       *models.MatchStatus
}

type MatchService interface {
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	ListMatches(ctx context.Context, input ListMatchesInput) ([]*models.Match, error)
	ListActiveMatches(ctx context.Context, tournamentID *int) ([]*models.Match, error)
	ScoreHistory(ctx context.Context, matchID int) ([]models.ScoreHistory, error)
	RepechageCandidates(ctx context.Context, tournamentID int) ([]models.RepechageCandidate, error)

	ActivateMatch(ctx context.Context, matchID int) (*models.Match, error)
	UpdateScore(ctx context.Context, matchID int, score1, score2 int) (*models.Match, error)
	FinishMatch(ctx context.Context, matchID int, winnerID int) (*models.Match, error)
	ReplaceInSlot(ctx context.Context, matchID int, targetID, replacementID int) (*models.Match, error)
	FillEmptySlots(ctx context.Context, matchID int, replacementID int) (*models.Match, error)

	// Apply dispatches a typed command to the matching operation.
	Apply(ctx context.Context, matchID int, cmd models.MatchCommand) (*models.Match, error)
}

type matchService struct {
	tx             repositories.Transactor
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	historyRepo    repositories.ScoreHistoryRepository
	advancer       *advancer
	notify         *notifier
	logger         *slog.Logger
}

func NewMatchService(
	tx repositories.Transactor,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	playerRepo repositories.PlayerRepository,
	historyRepo repositories.ScoreHistoryRepository,
	bracketService BracketService,
	publisher EventPublisher,
	cache BracketCache,
	archiver BracketArchiver,
	opts EngineOptions,
	logger *slog.Logger,
) MatchService {
	if publisher == nil {
		publisher = NoopPublisher()
	}
	if cache == nil {
		cache = NoopCache()
	}
	if archiver == nil {
		archiver = NoopArchiver()
	}
	logger = loggerOrDefault(logger)
	opts = opts.withDefaults()
	return &matchService{
		tx:             tx,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		historyRepo:    historyRepo,
		advancer: &advancer{
			tournamentRepo:  tournamentRepo,
			participantRepo: participantRepo,
			matchRepo:       matchRepo,
			opts:            opts,
			logger:          logger,
		},
		notify: &notifier{
			publisher: publisher,
			cache:     cache,
			archiver:  archiver,
			brackets:  bracketService,
			players:   playerRepo,
			logger:    logger,
		},
		logger: logger,
	}
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := attachPlayers(ctx, s.playerRepo, nil, []*models.Match{m}); err != nil {
		return nil, fmt.Errorf("failed to load players of match %d: %w", matchID, err)
	}
	return m, nil
}

func (s *matchService) ListMatches(ctx context.Context, input ListMatchesInput) ([]*models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, input.TournamentID); err != nil {
		return nil, mapRepoError(err)
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown match status %q", ErrValidationFailed, *input.Status)
	}
	matches, err := s.matchRepo.List(ctx, nil, repositories.ListMatchesFilter{
		TournamentID: &input.TournamentID,
		Round:        input.Round,
		Status:       input.Status,
	})
	if err != nil {
		return nil, err
	}
	if err := attachPlayers(ctx, s.playerRepo, nil, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *matchService) ListActiveMatches(ctx context.Context, tournamentID *int) ([]*models.Match, error) {
	active := models.MatchActive
	matches, err := s.matchRepo.List(ctx, nil, repositories.ListMatchesFilter{TournamentID: tournamentID, Status: &active})
	if err != nil {
		return nil, err
	}
	if err := attachPlayers(ctx, s.playerRepo, nil, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *matchService) ScoreHistory(ctx context.Context, matchID int) ([]models.ScoreHistory, error) {
	if _, err := s.matchRepo.GetByID(ctx, nil, matchID); err != nil {
		return nil, mapRepoError(err)
	}
	return s.historyRepo.ListByMatch(ctx, nil, matchID)
}

// RepechageCandidates lists one entry per loss in a finished, non-bye match of the tournament.
func (s *matchService) RepechageCandidates(ctx context.Context, tournamentID int) ([]models.RepechageCandidate, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, mapRepoError(err)
	}
	finished := models.MatchFinished
	matches, err := s.matchRepo.List(ctx, nil, repositories.ListMatchesFilter{TournamentID: &tournamentID, Status: &finished})
	if err != nil {
		return nil, err
	}

	losers := make([]int, 0, len(matches))
	for _, m := range matches {
		if loser := m.LoserID(); loser != nil && !m.IsBye {
			losers = append(losers, *loser)
		}
	}
	players, err := s.playerRepo.GetByIDs(ctx, nil, losers)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.RepechageCandidate, 0, len(losers))
	for _, m := range matches {
		loser := m.LoserID()
		if loser == nil || m.IsBye {
			continue
		}
		p, ok := players[*loser]
		if !ok {
			continue
		}
		candidates = append(candidates, models.RepechageCandidate{Player: p, MatchID: m.ID, Round: m.Round})
	}
	return candidates, nil
}

func (s *matchService) ActivateMatch(ctx context.Context, matchID int) (*models.Match, error) {
	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		m, err := s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			return mapRepoError(err)
		}
		if m.Status != models.MatchWaiting {
			return fmt.Errorf("%w: match %d is %s", ErrInvalidTransition, matchID, m.Status)
		}
		if !m.HasBothPlayers() {
			return fmt.Errorf("%w: match %d has an empty slot", ErrInvalidTransition, matchID)
		}
		if err := s.matchRepo.Activate(ctx, exec, matchID); err != nil {
			if errors.Is(err, repositories.ErrMatchStateConflict) {
				return fmt.Errorf("%w: match %d changed concurrently", ErrInvalidTransition, matchID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("match activated", slog.Int("tournament_id", m.TournamentID), slog.Int("match_id", m.ID))
	s.notify.matchChanged(ctx, m)
	return m, nil
}

// UpdateScore appends a history row per occupied slot, then stores the scores.
// It never decides a winner.
func (s *matchService) UpdateScore(ctx context.Context, matchID int, score1, score2 int) (*models.Match, error) {
	if score1 < 0 || score2 < 0 {
		return nil, fmt.Errorf("%w: got %d and %d", ErrInvalidScore, score1, score2)
	}

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		m, err := s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			return mapRepoError(err)
		}
		if m.Status != models.MatchActive {
			return fmt.Errorf("%w: match %d is %s", ErrMatchNotActive, matchID, m.Status)
		}
		for _, entry := range []struct {
			player *int
			score  int
		}{{m.Player1ID, score1}, {m.Player2ID, score2}} {
			if entry.player == nil {
				continue
			}
			h := &models.ScoreHistory{MatchID: matchID, PlayerID: *entry.player, Score: entry.score}
			if err := s.historyRepo.Append(ctx, exec, h); err != nil {
				return err
			}
		}
		if err := s.matchRepo.UpdateScores(ctx, exec, matchID, score1, score2); err != nil {
			if errors.Is(err, repositories.ErrMatchStateConflict) {
				return fmt.Errorf("%w: match %d changed concurrently", ErrMatchNotActive, matchID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	s.notify.matchChanged(ctx, m)
	return m, nil
}

// FinishMatch completes an active match, credits the winner and advances the bracket,
// all in one transaction. A second call for the same match fails with ErrMatchNotActive.
func (s *matchService) FinishMatch(ctx context.Context, matchID int, winnerID int) (*models.Match, error) {
	var outcome advanceOutcome

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		m, err := s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			return mapRepoError(err)
		}
		if m.Status != models.MatchActive {
			return fmt.Errorf("%w: match %d is %s", ErrMatchNotActive, matchID, m.Status)
		}
		if _, ok := m.SlotOf(winnerID); !ok {
			return fmt.Errorf("%w: player %d is not in match %d", ErrInvalidWinner, winnerID, matchID)
		}
		tournament, err := s.tournamentRepo.GetByID(ctx, exec, m.TournamentID)
		if err != nil {
			return mapRepoError(err)
		}

		if err := s.matchRepo.Complete(ctx, exec, matchID, winnerID); err != nil {
			if errors.Is(err, repositories.ErrMatchStateConflict) {
				return fmt.Errorf("%w: match %d was finished concurrently", ErrMatchNotActive, matchID)
			}
			return err
		}
		if err := s.playerRepo.IncrementWins(ctx, exec, winnerID); err != nil {
			return mapRepoError(err)
		}
		m.Status = models.MatchFinished
		m.WinnerID = &winnerID
		outcome.touch(matchID)

		return s.advancer.advance(ctx, exec, tournament, m, winnerID, &outcome)
	})
	if err != nil {
		return nil, err
	}

	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("match finished",
		slog.Int("tournament_id", m.TournamentID),
		slog.Int("match_id", m.ID),
		slog.Int("winner_id", winnerID),
		slog.Int("round", m.Round))

	s.notify.matchChanged(ctx, m)
	s.notify.bracketChanged(ctx, m.TournamentID, outcome.TouchedMatchIDs)
	if outcome.Finished {
		s.notify.tournamentFinished(ctx, m.TournamentID, outcome.ChampionID)
	}
	return m, nil
}

// ReplaceInSlot substitutes replacementID for targetID wherever the target sits.
// Activation eligibility is re-derived from the slots; the match is never auto-activated.
func (s *matchService) ReplaceInSlot(ctx context.Context, matchID int, targetID, replacementID int) (*models.Match, error) {
	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		m, err := s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return fmt.Errorf("%w: match %d does not exist", ErrPlayerNotInMatch, matchID)
			}
			return err
		}
		slot, ok := m.SlotOf(targetID)
		if !ok {
			return fmt.Errorf("%w: player %d, match %d", ErrPlayerNotInMatch, targetID, matchID)
		}
		if m.Status == models.MatchFinished {
			return fmt.Errorf("%w: match %d is already finished", ErrInvalidTransition, matchID)
		}
		if other := m.SlotPlayer(otherSlot(slot)); other != nil && *other == replacementID {
			return fmt.Errorf("%w: player %d already holds the other slot", ErrValidationFailed, replacementID)
		}
		if _, err := s.playerRepo.GetByID(ctx, exec, replacementID); err != nil {
			return mapRepoError(err)
		}

		if err := s.matchRepo.ReplaceSlot(ctx, exec, matchID, slot, &targetID, replacementID); err != nil {
			if errors.Is(err, repositories.ErrMatchStateConflict) {
				return fmt.Errorf("%w: player %d left match %d concurrently", ErrPlayerNotInMatch, targetID, matchID)
			}
			return mapRepoError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("player replaced",
		slog.Int("tournament_id", m.TournamentID),
		slog.Int("match_id", matchID),
		slog.Int("target_id", targetID),
		slog.Int("replacement_id", replacementID))
	s.notify.matchChanged(ctx, m)
	s.notify.bracketChanged(ctx, m.TournamentID, []int{matchID})
	return m, nil
}

// FillEmptySlots puts replacementID into every empty slot. With both slots empty the same
// player ends up in both; callers decide whether that is acceptable.
func (s *matchService) FillEmptySlots(ctx context.Context, matchID int, replacementID int) (*models.Match, error) {
	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		m, err := s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			return mapRepoError(err)
		}
		if m.Status == models.MatchFinished {
			return fmt.Errorf("%w: match %d is already finished", ErrInvalidTransition, matchID)
		}
		if _, err := s.playerRepo.GetByID(ctx, exec, replacementID); err != nil {
			return mapRepoError(err)
		}

		if _, ok := m.SlotOf(replacementID); ok && (m.Player1ID == nil) != (m.Player2ID == nil) {
			return fmt.Errorf("%w: player %d already plays in match %d", ErrValidationFailed, replacementID, matchID)
		}

		filled := 0
		for _, slot := range []models.Slot{models.Slot1, models.Slot2} {
			if m.SlotPlayer(slot) != nil {
				continue
			}
			if err := s.matchRepo.ReplaceSlot(ctx, exec, matchID, slot, nil, replacementID); err != nil {
				if errors.Is(err, repositories.ErrMatchStateConflict) {
					return fmt.Errorf("%w: match %d slot %d was filled concurrently", ErrNoEmptySlot, matchID, slot)
				}
				return mapRepoError(err)
			}
			filled++
		}
		if filled == 0 {
			return fmt.Errorf("%w: match %d", ErrNoEmptySlot, matchID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("empty slots filled",
		slog.Int("tournament_id", m.TournamentID),
		slog.Int("match_id", matchID),
		slog.Int("replacement_id", replacementID))
	s.notify.matchChanged(ctx, m)
	s.notify.bracketChanged(ctx, m.TournamentID, []int{matchID})
	return m, nil
}

func (s *matchService) Apply(ctx context.Context, matchID int, cmd models.MatchCommand) (*models.Match, error) {
	s.logger.Debug("applying match command",
		slog.Int("match_id", matchID),
		slog.String("command", models.CommandName(cmd)))
	switch c := cmd.(type) {
	case models.ActivateMatch:
		return s.ActivateMatch(ctx, matchID)
	case models.UpdateScore:
		return s.UpdateScore(ctx, matchID, c.Score1, c.Score2)
	case models.FinishMatch:
		return s.FinishMatch(ctx, matchID, c.WinnerID)
	case models.ReplaceSlot:
		return s.ReplaceInSlot(ctx, matchID, c.TargetID, c.ReplacementID)
	case models.FillEmptySlots:
		return s.FillEmptySlots(ctx, matchID, c.ReplacementID)
	case nil:
		return nil, fmt.Errorf("%w: command is required", ErrValidationFailed)
	default:
		return nil, fmt.Errorf("%w: unsupported command %T", ErrValidationFailed, cmd)
	}
}

func otherSlot(slot models.Slot) models.Slot {
	if slot == models.Slot1 {
		return models.Slot2
	}
	return models.Slot1
}
