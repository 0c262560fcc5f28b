package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/dart-tournament/models"
)

var (
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchStateConflict    = errors.New("match changed concurrently or is not in the expected state")
	ErrMatchPositionConflict = errors.New("a match already exists at this round and position")
	ErrMatchInvalidSlot      = errors.New("invalid match slot")
	ErrMatchInvalidRef       = errors.New("invalid player reference")
)

type ListMatchesFilter struct {
	TournamentID *int
	Round        *int
	Status       *models.MatchStatus
}

// SlotPlacement puts one player into one slot of the match at (TournamentID, Round, Position),
// creating the match when it does not exist yet.
type SlotPlacement struct {
	TournamentID  int
	Round         int
	Position      int
	Slot          models.Slot
	PlayerID      int
	ScheduledTime string
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	GetByPosition(ctx context.Context, exec SQLExecutor, tournamentID, round, position int) (*models.Match, error)
	List(ctx context.Context, exec SQLExecutor, filter ListMatchesFilter) ([]*models.Match, error)

	Activate(ctx context.Context, exec SQLExecutor, id int) error
	UpdateScores(ctx context.Context, exec SQLExecutor, id int, score1, score2 int) error
	Complete(ctx context.Context, exec SQLExecutor, id int, winnerID int) error
	MarkBye(ctx context.Context, exec SQLExecutor, id int, winnerID int) error
	PlaceInSlot(ctx context.Context, exec SQLExecutor, placement SlotPlacement) (int, error)
	ReplaceSlot(ctx context.Context, exec SQLExecutor, id int, slot models.Slot, expected *int, replacementID int) error
}

type sqlMatchRepository struct {
	baseRepository
}

func NewMatchRepository(db *sql.DB, dialect Dialect) MatchRepository {
	return &sqlMatchRepository{baseRepository{db: db, dialect: dialect}}
}

const matchColumns = `id, tournament_id, round, position, player1_id, player2_id, score1, score2,
	winner_id, status, is_bye, scheduled_time, created_at, updated_at`

func scanMatch(row rowScanner, m *models.Match) error {
	return row.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.Position, &m.Player1ID, &m.Player2ID, &m.Score1, &m.Score2,
		&m.WinnerID, &m.Status, &m.IsBye, &m.ScheduledTime, &m.CreatedAt, &m.UpdatedAt,
	)
}

func slotColumn(slot models.Slot) (string, error) {
	switch slot {
	case models.Slot1:
		return "player1_id", nil
	case models.Slot2:
		return "player2_id", nil
	}
	return "", fmt.Errorf("%w: %d", ErrMatchInvalidSlot, slot)
}

func (r *sqlMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := r.q(`
		INSERT INTO matches (
			tournament_id, round, position, player1_id, player2_id,
			score1, score2, winner_id, status, is_bye, scheduled_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at`)

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		m.TournamentID, m.Round, m.Position, m.Player1ID, m.Player2ID,
		m.Score1, m.Score2, m.WinnerID, string(m.Status), m.IsBye, m.ScheduledTime,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		unique, fk, _ := constraintViolation(err)
		switch {
		case unique:
			return ErrMatchPositionConflict
		case fk:
			return ErrMatchInvalidRef
		}
		return fmt.Errorf("failed to create match r%d p%d: %w", m.Round, m.Position, err)
	}
	return nil
}

func (r *sqlMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := r.q(`SELECT ` + matchColumns + ` FROM matches WHERE id = ?`)
	return r.getOne(ctx, exec, query, id)
}

func (r *sqlMatchRepository) GetByPosition(ctx context.Context, exec SQLExecutor, tournamentID, round, position int) (*models.Match, error) {
	query := r.q(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = ? AND round = ? AND position = ?`)
	return r.getOne(ctx, exec, query, tournamentID, round, position)
}

func (r *sqlMatchRepository) getOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Match, error) {
	m := &models.Match{}
	if err := scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, args...), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *sqlMatchRepository) List(ctx context.Context, exec SQLExecutor, filter ListMatchesFilter) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE 1=1`
	args := []interface{}{}

	if filter.TournamentID != nil {
		query += ` AND tournament_id = ?`
		args = append(args, *filter.TournamentID)
	}
	if filter.Round != nil {
		query += ` AND round = ?`
		args = append(args, *filter.Round)
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY tournament_id, round, position`

	rows, err := r.getExecutor(exec).QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m := &models.Match{}
		if err := scanMatch(rows, m); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

// Activate moves a waiting match with both slots filled to active.
func (r *sqlMatchRepository) Activate(ctx context.Context, exec SQLExecutor, id int) error {
	query := r.q(`
		UPDATE matches SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ? AND player1_id IS NOT NULL AND player2_id IS NOT NULL`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		string(models.MatchActive), id, string(models.MatchWaiting))
	if err != nil {
		return fmt.Errorf("failed to activate match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

func (r *sqlMatchRepository) UpdateScores(ctx context.Context, exec SQLExecutor, id int, score1, score2 int) error {
	query := r.q(`
		UPDATE matches SET score1 = ?, score2 = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query, score1, score2, id, string(models.MatchActive))
	if err != nil {
		return fmt.Errorf("failed to update scores of match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

// Complete is the at-most-once transition to finished: it only succeeds while the match
// is still active and winnerID still occupies one of its slots.
func (r *sqlMatchRepository) Complete(ctx context.Context, exec SQLExecutor, id int, winnerID int) error {
	query := r.q(`
		UPDATE matches SET status = ?, winner_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ? AND (player1_id = ? OR player2_id = ?)`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		string(models.MatchFinished), winnerID, id, string(models.MatchActive), winnerID, winnerID)
	if err != nil {
		return fmt.Errorf("failed to complete match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

// MarkBye finishes an unopposed match in favour of its lone occupant.
func (r *sqlMatchRepository) MarkBye(ctx context.Context, exec SQLExecutor, id int, winnerID int) error {
	query := r.q(`
		UPDATE matches SET status = ?, winner_id = ?, is_bye = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status <> ? AND (player1_id = ? OR player2_id = ?)`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		string(models.MatchFinished), winnerID, true, id, string(models.MatchFinished), winnerID, winnerID)
	if err != nil {
		return fmt.Errorf("failed to mark match %d as bye: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

// PlaceInSlot upserts on (tournament_id, round, position) and returns the match id.
// A unique violation that still surfaces is retried once as a plain slot update.
// A finished match is never rewritten and yields ErrMatchStateConflict.
func (r *sqlMatchRepository) PlaceInSlot(ctx context.Context, exec SQLExecutor, pl SlotPlacement) (int, error) {
	column, err := slotColumn(pl.Slot)
	if err != nil {
		return 0, err
	}
	executor := r.getExecutor(exec)
	_, inTx := executor.(*sql.Tx)

	if inTx {
		if _, err := executor.ExecContext(ctx, `SAVEPOINT match_slot_upsert`); err != nil {
			return 0, fmt.Errorf("failed to create savepoint: %w", err)
		}
	}

	var p1, p2 *int
	if pl.Slot == models.Slot1 {
		p1 = &pl.PlayerID
	} else {
		p2 = &pl.PlayerID
	}
	upsert := r.q(fmt.Sprintf(`
		INSERT INTO matches (tournament_id, round, position, player1_id, player2_id, status, scheduled_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tournament_id, round, position)
		DO UPDATE SET %[1]s = excluded.%[1]s, updated_at = CURRENT_TIMESTAMP
		WHERE matches.status <> ?
		RETURNING id`, column))

	var id int
	err = executor.QueryRowContext(ctx, upsert,
		pl.TournamentID, pl.Round, pl.Position, p1, p2, string(models.MatchWaiting), pl.ScheduledTime,
		string(models.MatchFinished),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		if inTx {
			if _, rbErr := executor.ExecContext(ctx, `ROLLBACK TO SAVEPOINT match_slot_upsert`); rbErr != nil {
				return 0, fmt.Errorf("failed to roll back to savepoint: %w", rbErr)
			}
		}
		return 0, fmt.Errorf("%w: r%d p%d is finished", ErrMatchStateConflict, pl.Round, pl.Position)
	}
	if err == nil {
		if inTx {
			if _, err := executor.ExecContext(ctx, `RELEASE SAVEPOINT match_slot_upsert`); err != nil {
				return 0, fmt.Errorf("failed to release savepoint: %w", err)
			}
		}
		return id, nil
	}
	if !isUniqueViolation(err) {
		if isForeignKeyViolation(err) {
			return 0, ErrMatchInvalidRef
		}
		return 0, fmt.Errorf("failed to place player %d in r%d p%d: %w", pl.PlayerID, pl.Round, pl.Position, err)
	}

	if inTx {
		if _, rbErr := executor.ExecContext(ctx, `ROLLBACK TO SAVEPOINT match_slot_upsert`); rbErr != nil {
			return 0, fmt.Errorf("failed to roll back to savepoint: %w", rbErr)
		}
	}
	update := r.q(fmt.Sprintf(`
		UPDATE matches SET %s = ?, updated_at = CURRENT_TIMESTAMP
		WHERE tournament_id = ? AND round = ? AND position = ? AND status <> ?
		RETURNING id`, column))
	err = executor.QueryRowContext(ctx, update,
		pl.PlayerID, pl.TournamentID, pl.Round, pl.Position, string(models.MatchFinished),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: r%d p%d is finished", ErrMatchStateConflict, pl.Round, pl.Position)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update slot after upsert conflict: %w", err)
	}
	return id, nil
}

// ReplaceSlot overwrites one slot only if it still holds expected (nil meaning empty)
// and the match is not finished.
func (r *sqlMatchRepository) ReplaceSlot(ctx context.Context, exec SQLExecutor, id int, slot models.Slot, expected *int, replacementID int) error {
	column, err := slotColumn(slot)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE matches SET %[1]s = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status <> ? AND `, column)
	args := []interface{}{replacementID, id, string(models.MatchFinished)}
	if expected == nil {
		query += column + ` IS NULL`
	} else {
		query += column + ` = ?`
		args = append(args, *expected)
	}

	result, err := r.getExecutor(exec).ExecContext(ctx, r.q(query), args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrMatchInvalidRef
		}
		return fmt.Errorf("failed to replace slot %d of match %d: %w", slot, id, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}
