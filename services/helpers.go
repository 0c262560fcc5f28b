package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/dart-tournament/models"
	"github.com/Dosada05/dart-tournament/repositories"
)

// mapRepoError translates repository sentinels into service sentinels.
// Errors without a mapping are returned unchanged.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrPlayerInUse):
		return ErrPlayerInUse
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentInvalidRef):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrParticipantNotFound):
		return ErrParticipantNotFound
	case errors.Is(err, repositories.ErrParticipantConflict):
		return ErrDuplicateRegistration
	case errors.Is(err, repositories.ErrParticipantInvalidRef):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchInvalidRef):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrMatchInvalidSlot):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return err
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func matchPlayerIDs(matches []*models.Match) []int {
	seen := make(map[int]bool)
	ids := make([]int, 0, len(matches)*2)
	add := func(id *int) {
		if id != nil && !seen[*id] {
			seen[*id] = true
			ids = append(ids, *id)
		}
	}
	for _, m := range matches {
		add(m.Player1ID)
		add(m.Player2ID)
		add(m.WinnerID)
	}
	return ids
}

// attachPlayers loads the players referenced by the matches and sets Player1, Player2 and Winner.
func attachPlayers(ctx context.Context, playerRepo repositories.PlayerRepository, exec repositories.SQLExecutor, matches []*models.Match) error {
	ids := matchPlayerIDs(matches)
	if len(ids) == 0 {
		return nil
	}
	players, err := playerRepo.GetByIDs(ctx, exec, ids)
	if err != nil {
		return err
	}
	lookup := func(id *int) *models.Player {
		if id == nil {
			return nil
		}
		return players[*id]
	}
	for _, m := range matches {
		m.Player1 = lookup(m.Player1ID)
		m.Player2 = lookup(m.Player2ID)
		m.Winner = lookup(m.WinnerID)
	}
	return nil
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
