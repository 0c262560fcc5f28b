package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/dart-tournament/models"
	"github.com/Dosada05/dart-tournament/repositories"
)

type CreatePlayerInput struct {
	FirstName  string            `json:"first_name"`
	LastName   string            `json:"last_name"`
	Nickname   *string           `json:"nickname"`
	SkillLevel models.SkillLevel `json:"skill_level"`
}

type UpdatePlayerInput struct {
	FirstName  *string            `json:"first_name"`
	LastName   *string            `json:"last_name"`
	Nickname   *string            `json:"nickname"`
	SkillLevel *models.SkillLevel `json:"skill_level"`
	Active     *bool              `json:"active"`
}

type ListPlayersInput struct {
	Search     string
	ActiveOnly bool
}

type PlayerService interface {
	CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error)
	GetPlayer(ctx context.Context, id int) (*models.Player, error)
	ListPlayers(ctx context.Context, input ListPlayersInput) ([]models.Player, error)
	TopPlayers(ctx context.Context, limit int) ([]models.Player, error)
	UpdatePlayer(ctx context.Context, id int, input UpdatePlayerInput) (*models.Player, error)
	DisablePlayer(ctx context.Context, id int) error
	EnablePlayer(ctx context.Context, id int) error
	// DeletePlayer disables the player unless permanent is set. A permanent delete of a player
	// referenced by matches requires force.
	DeletePlayer(ctx context.Context, id int, permanent, force bool) error
	PlayerStats(ctx context.Context, id int) (*models.PlayerStats, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	logger     *slog.Logger
}

func NewPlayerService(playerRepo repositories.PlayerRepository, logger *slog.Logger) PlayerService {
	logger = loggerOrDefault(logger)
	return &playerService{playerRepo: playerRepo, logger: logger}
}

func validatePlayer(p *models.Player) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("%w: first and last name are required", ErrValidationFailed)
	}
	if !p.SkillLevel.IsValid() {
		return fmt.Errorf("%w: unknown skill level %q", ErrValidationFailed, p.SkillLevel)
	}
	return nil
}

func (s *playerService) CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error) {
	p := &models.Player{
		FirstName:  strings.TrimSpace(input.FirstName),
		LastName:   strings.TrimSpace(input.LastName),
		Nickname:   trimmedOrNil(input.Nickname),
		SkillLevel: input.SkillLevel,
		Active:     true,
	}
	if p.SkillLevel == "" {
		p.SkillLevel = models.SkillBeginner
	}
	if err := validatePlayer(p); err != nil {
		return nil, err
	}
	if err := s.playerRepo.Create(ctx, nil, p); err != nil {
		return nil, err
	}
	s.logger.Info("player created", slog.Int("player_id", p.ID))
	return p, nil
}

func (s *playerService) GetPlayer(ctx context.Context, id int) (*models.Player, error) {
	p, err := s.playerRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return p, nil
}

func (s *playerService) ListPlayers(ctx context.Context, input ListPlayersInput) ([]models.Player, error) {
	return s.playerRepo.List(ctx, nil, repositories.ListPlayersFilter{
		Search:     input.Search,
		ActiveOnly: input.ActiveOnly,
	})
}

func (s *playerService) TopPlayers(ctx context.Context, limit int) ([]models.Player, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.playerRepo.Top(ctx, nil, limit)
}

func (s *playerService) UpdatePlayer(ctx context.Context, id int, input UpdatePlayerInput) (*models.Player, error) {
	p, err := s.playerRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if input.FirstName != nil {
		p.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		p.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Nickname != nil {
		p.Nickname = trimmedOrNil(input.Nickname)
	}
	if input.SkillLevel != nil {
		p.SkillLevel = *input.SkillLevel
	}
	if input.Active != nil {
		p.Active = *input.Active
	}
	if err := validatePlayer(p); err != nil {
		return nil, err
	}
	if err := s.playerRepo.Update(ctx, nil, p); err != nil {
		return nil, mapRepoError(err)
	}
	return s.GetPlayer(ctx, id)
}

func (s *playerService) DisablePlayer(ctx context.Context, id int) error {
	if err := s.playerRepo.SetActive(ctx, nil, id, false); err != nil {
		return mapRepoError(err)
	}
	s.logger.Info("player disabled", slog.Int("player_id", id))
	return nil
}

func (s *playerService) EnablePlayer(ctx context.Context, id int) error {
	if err := s.playerRepo.SetActive(ctx, nil, id, true); err != nil {
		return mapRepoError(err)
	}
	s.logger.Info("player enabled", slog.Int("player_id", id))
	return nil
}

func (s *playerService) DeletePlayer(ctx context.Context, id int, permanent, force bool) error {
	if !permanent {
		return s.DisablePlayer(ctx, id)
	}
	if _, err := s.playerRepo.GetByID(ctx, nil, id); err != nil {
		return mapRepoError(err)
	}
	refs, err := s.playerRepo.CountMatchReferences(ctx, nil, id)
	if err != nil {
		return err
	}
	if refs > 0 && !force {
		return fmt.Errorf("%w: %d match references", ErrPlayerInUse, refs)
	}
	if err := s.playerRepo.Delete(ctx, nil, id); err != nil {
		return mapRepoError(err)
	}
	s.logger.Warn("player deleted permanently",
		slog.Int("player_id", id),
		slog.Int("match_references", refs),
		slog.Bool("forced", force))
	return nil
}

func (s *playerService) PlayerStats(ctx context.Context, id int) (*models.PlayerStats, error) {
	p, err := s.playerRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	played, won, err := s.playerRepo.MatchCounts(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	stats := &models.PlayerStats{
		Player:         p,
		MatchesPlayed:  played,
		MatchesWon:     won,
		Participations: p.Participations,
		Wins:           p.Wins,
	}
	if played > 0 {
		stats.Ratio = float64(won) / float64(played)
	}
	return stats, nil
}
