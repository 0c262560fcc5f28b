package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Dosada05/dart-tournament/brackets"
	"github.com/Dosada05/dart-tournament/models"
	"github.com/Dosada05/dart-tournament/repositories"
)

// EngineOptions are the operator policies of the bracket engine.
type EngineOptions struct {
	ByePolicy brackets.ByePolicy
	BaseTime  brackets.Clock
	// AutoActivate activates a next-round match as soon as advancement fills both slots.
	AutoActivate bool
	// Rand drives seeding. A time-seeded source is used when nil.
	Rand *rand.Rand
}

func (o EngineOptions) withDefaults() EngineOptions {
	if !o.ByePolicy.IsValid() {
		o.ByePolicy = brackets.ByeManual
	}
	if o.BaseTime == (brackets.Clock{}) {
		o.BaseTime = brackets.DefaultBaseTime
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

func (o EngineOptions) generatorOptions() brackets.Options {
	return brackets.Options{ByePolicy: o.ByePolicy, BaseTime: o.BaseTime}
}

// advanceOutcome collects what a cascade of advancements changed, for post-commit notifications.
type advanceOutcome struct {
	TouchedMatchIDs []int
	Finished        bool
	ChampionID      int
}

func (o *advanceOutcome) touch(id int) {
	for _, existing := range o.TouchedMatchIDs {
		if existing == id {
			return
		}
	}
	o.TouchedMatchIDs = append(o.TouchedMatchIDs, id)
}

type advancer struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	opts            EngineOptions
	logger          *slog.Logger
}

// advance moves the winner of a just-finished match into the next round, or crowns the
// champion when the match was the final. It must run inside the transaction that finished
// the match. Structural byes are resolved recursively under the auto_advance policy.
func (a *advancer) advance(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, match *models.Match, winnerID int, out *advanceOutcome) error {
	totalRounds, err := a.totalRounds(ctx, exec, tournament)
	if err != nil {
		return err
	}

	if match.Round >= totalRounds {
		if err := a.tournamentRepo.MarkFinished(ctx, exec, tournament.ID, winnerID); err != nil {
			if errors.Is(err, repositories.ErrTournamentStatusConflict) {
				return fmt.Errorf("%w: tournament %d is %s", ErrInvalidTransition, tournament.ID, tournament.Status)
			}
			return mapRepoError(err)
		}
		tournament.Status = models.TournamentFinished
		tournament.ChampionID = &winnerID
		out.Finished = true
		out.ChampionID = winnerID
		a.logger.Info("tournament finished",
			slog.Int("tournament_id", tournament.ID),
			slog.Int("champion_id", winnerID),
			slog.Int("final_match_id", match.ID))
		return nil
	}

	nextRound, nextPosition, slot := brackets.NextSlot(match.Round, match.Position)
	nextID, err := a.matchRepo.PlaceInSlot(ctx, exec, repositories.SlotPlacement{
		TournamentID:  tournament.ID,
		Round:         nextRound,
		Position:      nextPosition,
		Slot:          slot,
		PlayerID:      winnerID,
		ScheduledTime: a.opts.BaseTime.ScheduledTime(nextRound, nextPosition),
	})
	if errors.Is(err, repositories.ErrMatchStateConflict) {
		return fmt.Errorf("%w: r%d p%d is already finished", ErrInvalidTransition, nextRound, nextPosition)
	}
	if err != nil {
		return mapRepoError(err)
	}
	out.touch(nextID)

	if err := a.tournamentRepo.AdvanceCurrentRound(ctx, exec, tournament.ID, nextRound); err != nil {
		return err
	}
	if tournament.CurrentRound < nextRound {
		tournament.CurrentRound = nextRound
	}

	next, err := a.matchRepo.GetByID(ctx, exec, nextID)
	if err != nil {
		return mapRepoError(err)
	}
	a.logger.Debug("winner advanced",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("player_id", winnerID),
		slog.Int("round", nextRound),
		slog.Int("position", nextPosition),
		slog.Int("slot", int(slot)))

	if next.Status != models.MatchWaiting {
		return nil
	}

	if next.HasBothPlayers() {
		if !a.opts.AutoActivate {
			return nil
		}
		if err := a.matchRepo.Activate(ctx, exec, next.ID); err != nil {
			return mapRepoError(err)
		}
		a.logger.Info("match auto-activated", slog.Int("tournament_id", tournament.ID), slog.Int("match_id", next.ID))
		return nil
	}

	if a.opts.ByePolicy != brackets.ByeAutoAdvance {
		return nil
	}
	n, err := a.participantRepo.CountByTournament(ctx, exec, tournament.ID)
	if err != nil {
		return err
	}
	if !brackets.IsStructuralBye(n, nextRound, nextPosition) {
		return nil
	}
	if err := a.matchRepo.MarkBye(ctx, exec, next.ID, winnerID); err != nil {
		return mapRepoError(err)
	}
	next.Status = models.MatchFinished
	next.IsBye = true
	next.WinnerID = &winnerID
	a.logger.Info("bye resolved",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("match_id", next.ID),
		slog.Int("player_id", winnerID))
	return a.advance(ctx, exec, tournament, next, winnerID, out)
}

// totalRounds prefers the value frozen at start and derives it from the participant
// count only for rows that predate it.
func (a *advancer) totalRounds(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) (int, error) {
	if tournament.TotalRounds != nil && *tournament.TotalRounds > 0 {
		return *tournament.TotalRounds, nil
	}
	n, err := a.participantRepo.CountByTournament(ctx, exec, tournament.ID)
	if err != nil {
		return 0, err
	}
	total, err := brackets.TotalRounds(n)
	if err != nil {
		return 0, ErrInsufficientParticipants
	}
	return total, nil
}
