package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/dart-tournament/models"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerInUse    = errors.New("player is referenced by matches")
)

type ListPlayersFilter struct {
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error)
	GetByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Player, error)
	List(ctx context.Context, exec SQLExecutor, filter ListPlayersFilter) ([]models.Player, error)
	Top(ctx context.Context, exec SQLExecutor, limit int) ([]models.Player, error)
	Update(ctx context.Context, exec SQLExecutor, player *models.Player) error
	SetActive(ctx context.Context, exec SQLExecutor, id int, active bool) error
	IncrementWins(ctx context.Context, exec SQLExecutor, id int) error
	IncrementParticipations(ctx context.Context, exec SQLExecutor, ids []int) error
	CountMatchReferences(ctx context.Context, exec SQLExecutor, id int) (int, error)
	MatchCounts(ctx context.Context, exec SQLExecutor, id int) (played int, won int, err error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type sqlPlayerRepository struct {
	baseRepository
}

func NewPlayerRepository(db *sql.DB, dialect Dialect) PlayerRepository {
	return &sqlPlayerRepository{baseRepository{db: db, dialect: dialect}}
}

const playerColumns = `id, first_name, last_name, nickname, skill_level, participations, wins, active, created_at, updated_at`

func scanPlayer(row rowScanner, p *models.Player) error {
	return row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Nickname, &p.SkillLevel,
		&p.Participations, &p.Wins, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *sqlPlayerRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Player) error {
	query := r.q(`
		INSERT INTO players (first_name, last_name, nickname, skill_level, active)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, participations, wins, created_at, updated_at`)

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		p.FirstName, p.LastName, p.Nickname, string(p.SkillLevel), p.Active,
	).Scan(&p.ID, &p.Participations, &p.Wins, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *sqlPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error) {
	query := r.q(`SELECT ` + playerColumns + ` FROM players WHERE id = ?`)

	p := &models.Player{}
	if err := scanPlayer(r.getExecutor(exec).QueryRowContext(ctx, query, id), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *sqlPlayerRepository) GetByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Player, error) {
	result := make(map[int]*models.Player, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := r.q(`SELECT ` + playerColumns + ` FROM players WHERE id IN (` + inPlaceholders(len(ids)) + `)`)

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := &models.Player{}
		if err := scanPlayer(rows, p); err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

func (r *sqlPlayerRepository) List(ctx context.Context, exec SQLExecutor, filter ListPlayersFilter) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE 1=1`
	args := []interface{}{}

	if filter.ActiveOnly {
		query += ` AND active = ?`
		args = append(args, true)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query += ` AND (LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(COALESCE(nickname, '')) LIKE ?)`
		args = append(args, like, like, like)
	}
	query += ` ORDER BY last_name, first_name, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	return r.queryPlayers(ctx, exec, r.q(query), args...)
}

func (r *sqlPlayerRepository) Top(ctx context.Context, exec SQLExecutor, limit int) ([]models.Player, error) {
	if limit <= 0 {
		limit = 10
	}
	query := r.q(`
		SELECT ` + playerColumns + ` FROM players
		WHERE active = ?
		ORDER BY wins DESC, participations DESC, id
		LIMIT ?`)
	return r.queryPlayers(ctx, exec, query, true, limit)
}

func (r *sqlPlayerRepository) queryPlayers(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Player, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if err := scanPlayer(rows, &p); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *sqlPlayerRepository) Update(ctx context.Context, exec SQLExecutor, p *models.Player) error {
	query := r.q(`
		UPDATE players SET
			first_name = ?,
			last_name = ?,
			nickname = ?,
			skill_level = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`)

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		p.FirstName, p.LastName, p.Nickname, string(p.SkillLevel), p.Active, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update player %d: %w", p.ID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *sqlPlayerRepository) SetActive(ctx context.Context, exec SQLExecutor, id int, active bool) error {
	query := r.q(`UPDATE players SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("failed to set player %d active=%t: %w", id, active, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *sqlPlayerRepository) IncrementWins(ctx context.Context, exec SQLExecutor, id int) error {
	query := r.q(`UPDATE players SET wins = wins + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment wins of player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *sqlPlayerRepository) IncrementParticipations(ctx context.Context, exec SQLExecutor, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := r.q(`UPDATE players SET participations = participations + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id IN (` + inPlaceholders(len(ids)) + `)`)
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to increment participations: %w", err)
	}
	return nil
}

func (r *sqlPlayerRepository) CountMatchReferences(ctx context.Context, exec SQLExecutor, id int) (int, error) {
	query := r.q(`SELECT COUNT(*) FROM matches WHERE player1_id = ? OR player2_id = ? OR winner_id = ?`)
	var n int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, id, id, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count match references of player %d: %w", id, err)
	}
	return n, nil
}

// MatchCounts counts finished, non-bye matches the player took part in and won.
func (r *sqlPlayerRepository) MatchCounts(ctx context.Context, exec SQLExecutor, id int) (int, int, error) {
	query := r.q(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN winner_id = ? THEN 1 ELSE 0 END), 0)
		FROM matches
		WHERE status = ? AND is_bye = ? AND (player1_id = ? OR player2_id = ?)`)
	var played, won int
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		id, string(models.MatchFinished), false, id, id,
	).Scan(&played, &won)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count matches of player %d: %w", id, err)
	}
	return played, won, nil
}

func (r *sqlPlayerRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := r.q(`DELETE FROM players WHERE id = ?`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrPlayerInUse
		}
		return fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
