package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/dart-tournament/models"
)

var (
	ErrParticipantNotFound   = errors.New("participant not found")
	ErrParticipantConflict   = errors.New("player is already registered in this tournament")
	ErrParticipantInvalidRef = errors.New("invalid tournament or player reference")
)

type ParticipantRepository interface {
	Add(ctx context.Context, exec SQLExecutor, participant *models.Participant) error
	Remove(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	SetDrawPosition(ctx context.Context, exec SQLExecutor, participantID int, position int) error
}

type sqlParticipantRepository struct {
	baseRepository
}

func NewParticipantRepository(db *sql.DB, dialect Dialect) ParticipantRepository {
	return &sqlParticipantRepository{baseRepository{db: db, dialect: dialect}}
}

func (r *sqlParticipantRepository) Add(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	query := r.q(`
		INSERT INTO participants (tournament_id, player_id)
		VALUES (?, ?)
		RETURNING id, registered_at`)

	err := r.getExecutor(exec).QueryRowContext(ctx, query, p.TournamentID, p.PlayerID).Scan(&p.ID, &p.RegisteredAt)
	if err != nil {
		unique, fk, _ := constraintViolation(err)
		switch {
		case unique:
			return ErrParticipantConflict
		case fk:
			return ErrParticipantInvalidRef
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (r *sqlParticipantRepository) Remove(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error {
	query := r.q(`DELETE FROM participants WHERE tournament_id = ? AND player_id = ?`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

// ListByTournament returns participants with their player loaded, seeded ones first in draw order.
func (r *sqlParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	query := r.q(`
		SELECT
			pt.id, pt.tournament_id, pt.player_id, pt.draw_position, pt.registered_at,
			p.id, p.first_name, p.last_name, p.nickname, p.skill_level,
			p.participations, p.wins, p.active, p.created_at, p.updated_at
		FROM participants pt
		JOIN players p ON p.id = pt.player_id
		WHERE pt.tournament_id = ?
		ORDER BY pt.draw_position IS NULL, pt.draw_position, pt.registered_at, pt.id`)

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		pt := &models.Participant{Player: &models.Player{}}
		pl := pt.Player
		if err := rows.Scan(
			&pt.ID, &pt.TournamentID, &pt.PlayerID, &pt.DrawPosition, &pt.RegisteredAt,
			&pl.ID, &pl.FirstName, &pl.LastName, &pl.Nickname, &pl.SkillLevel,
			&pl.Participations, &pl.Wins, &pl.Active, &pl.CreatedAt, &pl.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, pt)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *sqlParticipantRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	query := r.q(`SELECT COUNT(*) FROM participants WHERE tournament_id = ?`)
	var n int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count participants of tournament %d: %w", tournamentID, err)
	}
	return n, nil
}

func (r *sqlParticipantRepository) SetDrawPosition(ctx context.Context, exec SQLExecutor, participantID int, position int) error {
	query := r.q(`UPDATE participants SET draw_position = ? WHERE id = ?`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query, position, participantID)
	if err != nil {
		return fmt.Errorf("failed to set draw position of participant %d: %w", participantID, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
