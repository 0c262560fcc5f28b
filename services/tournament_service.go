package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/dart-tournament/brackets"
	"github.com/Dosada05/dart-tournament/models"
	"github.com/Dosada05/dart-tournament/repositories"
)

type CreateTournamentInput struct {
	Name   string                  `json:"name"`
	Date   time.Time               `json:"date"`
	Format models.TournamentFormat `json:"format"`
}

type UpdateTournamentInput struct {
	Name   *string                  `json:"name"`
	Date   *time.Time               `json:"date"`
	Format *models.TournamentFormat `json:"format"`
}

type ListTournamentsInput struct {
	Status   *models.TournamentStatus
	Upcoming bool
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	CurrentTournament(ctx context.Context) (*models.Tournament, error)
	ListTournaments(ctx context.Context, input ListTournamentsInput) ([]models.Tournament, error)
	UpdateTournament(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id int) error

	AddParticipant(ctx context.Context, tournamentID, playerID int) (*models.Participant, error)
	RemoveParticipant(ctx context.Context, tournamentID, playerID int) error
	ListParticipants(ctx context.Context, tournamentID int) ([]*models.Participant, error)

	// SeedAndStart draws the participants, freezes the round count, builds round 1 and
	// moves the tournament to in progress. It can succeed only once per tournament.
	SeedAndStart(ctx context.Context, tournamentID int) (*models.Tournament, error)
}

type tournamentService struct {
	tx              repositories.Transactor
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	playerRepo      repositories.PlayerRepository
	matchRepo       repositories.MatchRepository
	advancer        *advancer
	notify          *notifier
	opts            EngineOptions
	rngMu           sync.Mutex
	logger          *slog.Logger
}

func NewTournamentService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	bracketService BracketService,
	publisher EventPublisher,
	cache BracketCache,
	archiver BracketArchiver,
	opts EngineOptions,
	logger *slog.Logger,
) TournamentService {
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
	return &tournamentService{
		tx:              tx,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		playerRepo:      playerRepo,
		matchRepo:       matchRepo,
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
		opts:   opts,
		logger: logger,
	}
}

func validateTournamentFields(name string, date time.Time, format models.TournamentFormat) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidationFailed)
	}
	if !format.IsValid() {
		return fmt.Errorf("%w: unknown format %q", ErrValidationFailed, format)
	}
	return nil
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Format == "" {
		input.Format = models.FormatSingleElimination
	}
	if err := validateTournamentFields(input.Name, input.Date, input.Format); err != nil {
		return nil, err
	}
	t := &models.Tournament{
		Name:   strings.TrimSpace(input.Name),
		Date:   input.Date,
		Format: input.Format,
		Status: models.TournamentPlanned,
	}
	if err := s.tournamentRepo.Create(ctx, nil, t); err != nil {
		return nil, err
	}
	s.logger.Info("tournament created", slog.Int("tournament_id", t.ID), slog.String("format", string(t.Format)))
	return t, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return t, nil
}

func (s *tournamentService) CurrentTournament(ctx context.Context) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetCurrent(ctx, nil)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return t, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, input ListTournamentsInput) ([]models.Tournament, error) {
	filter := repositories.ListTournamentsFilter{Status: input.Status}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, *input.Status)
	}
	if input.Upcoming {
		now := time.Now()
		filter.UpcomingFrom = &now
	}
	return s.tournamentRepo.List(ctx, nil, filter)
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	var updated *models.Tournament
	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetByID(ctx, exec, id)
		if err != nil {
			return mapRepoError(err)
		}
		if t.Status != models.TournamentPlanned {
			return fmt.Errorf("%w: tournament %d is %s", ErrTournamentLocked, id, t.Status)
		}
		if input.Name != nil {
			t.Name = strings.TrimSpace(*input.Name)
		}
		if input.Date != nil {
			t.Date = *input.Date
		}
		if input.Format != nil {
			t.Format = *input.Format
		}
		if err := validateTournamentFields(t.Name, t.Date, t.Format); err != nil {
			return err
		}
		if err := s.tournamentRepo.Update(ctx, exec, t); err != nil {
			if errors.Is(err, repositories.ErrTournamentStatusConflict) {
				return ErrTournamentLocked
			}
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTournament(ctx, updated.ID)
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id int) error {
	if err := s.tournamentRepo.Delete(ctx, nil, id); err != nil {
		return mapRepoError(err)
	}
	s.notify.tournamentDeleted(ctx, id)
	s.logger.Info("tournament deleted", slog.Int("tournament_id", id))
	return nil
}

func (s *tournamentService) AddParticipant(ctx context.Context, tournamentID, playerID int) (*models.Participant, error) {
	participant := &models.Participant{TournamentID: tournamentID, PlayerID: playerID}
	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			return mapRepoError(err)
		}
		if t.Status != models.TournamentPlanned {
			return fmt.Errorf("%w: tournament %d is %s", ErrTournamentLocked, tournamentID, t.Status)
		}
		player, err := s.playerRepo.GetByID(ctx, exec, playerID)
		if err != nil {
			return mapRepoError(err)
		}
		if !player.Active {
			return fmt.Errorf("%w: player %d", ErrPlayerInactive, playerID)
		}
		if err := s.participantRepo.Add(ctx, exec, participant); err != nil {
			return mapRepoError(err)
		}
		participant.Player = player
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify.invalidate(ctx, tournamentID)
	return participant, nil
}

func (s *tournamentService) RemoveParticipant(ctx context.Context, tournamentID, playerID int) error {
	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			return mapRepoError(err)
		}
		if t.Status != models.TournamentPlanned {
			return fmt.Errorf("%w: tournament %d is %s", ErrTournamentLocked, tournamentID, t.Status)
		}
		return mapRepoError(s.participantRepo.Remove(ctx, exec, tournamentID, playerID))
	})
	if err != nil {
		return err
	}
	s.notify.invalidate(ctx, tournamentID)
	return nil
}

func (s *tournamentService) ListParticipants(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, mapRepoError(err)
	}
	return s.participantRepo.ListByTournament(ctx, nil, tournamentID)
}

func (s *tournamentService) SeedAndStart(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	var (
		outcome advanceOutcome
		created []int
	)

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			return mapRepoError(err)
		}
		if t.Status != models.TournamentPlanned {
			return fmt.Errorf("%w: tournament %d is %s", ErrTournamentNotReady, tournamentID, t.Status)
		}
		generator, err := brackets.NewGenerator(t.Format, s.opts.generatorOptions())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}

		participants, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if len(participants) < 2 {
			return fmt.Errorf("%w: tournament %d has %d", ErrInsufficientParticipants, tournamentID, len(participants))
		}

		if err := s.seed(ctx, exec, participants); err != nil {
			return err
		}

		totalRounds, err := brackets.TotalRounds(len(participants))
		if err != nil {
			return ErrInsufficientParticipants
		}
		if err := s.tournamentRepo.MarkStarted(ctx, exec, tournamentID, totalRounds); err != nil {
			if errors.Is(err, repositories.ErrTournamentStatusConflict) {
				return fmt.Errorf("%w: tournament %d was started concurrently", ErrTournamentNotReady, tournamentID)
			}
			return err
		}
		t.Status = models.TournamentInProgress
		t.CurrentRound = 1
		t.TotalRounds = &totalRounds

		playerIDs := make([]int, len(participants))
		for i, p := range participants {
			playerIDs[i] = p.PlayerID
		}
		if err := s.playerRepo.IncrementParticipations(ctx, exec, playerIDs); err != nil {
			return err
		}

		matches, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{Tournament: t, Participants: participants})
		if err != nil {
			if errors.Is(err, brackets.ErrDrawPositionMissing) || errors.Is(err, brackets.ErrDrawPositionConflict) {
				return fmt.Errorf("%w: %v", ErrSeedingRequired, err)
			}
			return err
		}
		for _, m := range matches {
			if err := s.matchRepo.Create(ctx, exec, m); err != nil {
				return mapRepoError(err)
			}
			created = append(created, m.ID)
		}
		for _, m := range matches {
			if m.IsBye && m.WinnerID != nil {
				if err := s.advancer.advance(ctx, exec, t, m, *m.WinnerID, &outcome); err != nil {
					return err
				}
			}
		}

		s.logger.Info("tournament started",
			slog.Int("tournament_id", tournamentID),
			slog.Int("participants", len(participants)),
			slog.Int("total_rounds", totalRounds),
			slog.Int("round1_matches", len(matches)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.bracketChanged(ctx, tournamentID, append(created, outcome.TouchedMatchIDs...))
	if outcome.Finished {
		s.notify.tournamentFinished(ctx, tournamentID, outcome.ChampionID)
	}
	return s.GetTournament(ctx, tournamentID)
}

// seed assigns draw positions 1..N following a Fisher-Yates permutation of the participants.
func (s *tournamentService) seed(ctx context.Context, exec repositories.SQLExecutor, participants []*models.Participant) error {
	order := make([]int, len(participants))
	for i := range order {
		order[i] = i
	}
	s.rngMu.Lock()
	brackets.Shuffle(s.opts.Rand, order)
	s.rngMu.Unlock()

	for drawPosition, idx := range order {
		p := participants[idx]
		position := drawPosition + 1
		if err := s.participantRepo.SetDrawPosition(ctx, exec, p.ID, position); err != nil {
			return err
		}
		p.DrawPosition = &position
	}
	return nil
}
