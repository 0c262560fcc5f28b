package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/dart-tournament/models"
)

var (
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentStatusConflict = errors.New("tournament is not in the expected status")
	ErrTournamentInvalidRef     = errors.New("invalid champion reference")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	// UpcomingFrom keeps planned tournaments dated at or after the given time.
	UpcomingFrom *time.Time
	Limit        int
	Offset       int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	GetCurrent(ctx context.Context, exec SQLExecutor) (*models.Tournament, error)
	List(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	MarkStarted(ctx context.Context, exec SQLExecutor, id int, totalRounds int) error
	AdvanceCurrentRound(ctx context.Context, exec SQLExecutor, id int, round int) error
	MarkFinished(ctx context.Context, exec SQLExecutor, id int, championID int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type sqlTournamentRepository struct {
	baseRepository
}

func NewTournamentRepository(db *sql.DB, dialect Dialect) TournamentRepository {
	return &sqlTournamentRepository{baseRepository{db: db, dialect: dialect}}
}

const tournamentColumns = `id, name, tournament_date, format, status, current_round, total_rounds, champion_id, created_at, updated_at`

func scanTournament(row rowScanner, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.Date, &t.Format, &t.Status,
		&t.CurrentRound, &t.TotalRounds, &t.ChampionID, &t.CreatedAt, &t.UpdatedAt,
	)
}

func (r *sqlTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := r.q(`
		INSERT INTO tournaments (name, tournament_date, format, status, current_round)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at`)

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		t.Name, t.Date.UTC(), string(t.Format), string(t.Status), t.CurrentRound,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *sqlTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := r.q(`SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = ?`)

	t := &models.Tournament{}
	if err := scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

// GetCurrent returns the earliest tournament in progress.
func (r *sqlTournamentRepository) GetCurrent(ctx context.Context, exec SQLExecutor) (*models.Tournament, error) {
	query := r.q(`SELECT ` + tournamentColumns + ` FROM tournaments
		WHERE status = ? ORDER BY tournament_date, id LIMIT 1`)

	t := &models.Tournament{}
	err := scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, string(models.TournamentInProgress)), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *sqlTournamentRepository) List(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`
	args := []interface{}{}

	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	if filter.UpcomingFrom != nil {
		query += ` AND status = ? AND tournament_date >= ?`
		args = append(args, string(models.TournamentPlanned), filter.UpcomingFrom.UTC())
	}
	query += ` ORDER BY tournament_date DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.getExecutor(exec).QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

// Update rewrites the descriptive fields of a planned tournament.
func (r *sqlTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := r.q(`
		UPDATE tournaments SET
			name = ?,
			tournament_date = ?,
			format = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`)

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		t.Name, t.Date.UTC(), string(t.Format), t.ID, string(models.TournamentPlanned))
	if err != nil {
		return fmt.Errorf("failed to update tournament %d: %w", t.ID, err)
	}
	return checkAffectedRows(result, ErrTournamentStatusConflict)
}

// MarkStarted moves a planned tournament to in progress and freezes its round count.
func (r *sqlTournamentRepository) MarkStarted(ctx context.Context, exec SQLExecutor, id int, totalRounds int) error {
	query := r.q(`
		UPDATE tournaments SET
			status = ?,
			current_round = 1,
			total_rounds = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`)

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		string(models.TournamentInProgress), totalRounds, id, string(models.TournamentPlanned))
	if err != nil {
		return fmt.Errorf("failed to start tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentStatusConflict)
}

// AdvanceCurrentRound only ever raises current_round.
func (r *sqlTournamentRepository) AdvanceCurrentRound(ctx context.Context, exec SQLExecutor, id int, round int) error {
	query := r.q(`
		UPDATE tournaments SET current_round = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND current_round < ?`)
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, round, id, round); err != nil {
		return fmt.Errorf("failed to advance current round of tournament %d: %w", id, err)
	}
	return nil
}

func (r *sqlTournamentRepository) MarkFinished(ctx context.Context, exec SQLExecutor, id int, championID int) error {
	query := r.q(`
		UPDATE tournaments SET
			status = ?,
			champion_id = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`)

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		string(models.TournamentFinished), championID, id, string(models.TournamentInProgress))
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrTournamentInvalidRef
		}
		return fmt.Errorf("failed to finish tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentStatusConflict)
}

func (r *sqlTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := r.q(`DELETE FROM tournaments WHERE id = ?`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
