package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/dart-tournament/models"
)

// ScoreHistoryRepository is append-only.
type ScoreHistoryRepository interface {
	Append(ctx context.Context, exec SQLExecutor, entry *models.ScoreHistory) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]models.ScoreHistory, error)
}

type sqlScoreHistoryRepository struct {
	baseRepository
}

func NewScoreHistoryRepository(db *sql.DB, dialect Dialect) ScoreHistoryRepository {
	return &sqlScoreHistoryRepository{baseRepository{db: db, dialect: dialect}}
}

func (r *sqlScoreHistoryRepository) Append(ctx context.Context, exec SQLExecutor, h *models.ScoreHistory) error {
	query := r.q(`
		INSERT INTO score_history (match_id, player_id, score)
		VALUES (?, ?, ?)
		RETURNING id, recorded_at`)
	err := r.getExecutor(exec).QueryRowContext(ctx, query, h.MatchID, h.PlayerID, h.Score).Scan(&h.ID, &h.RecordedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to append score history: %w", err)
	}
	return nil
}

func (r *sqlScoreHistoryRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]models.ScoreHistory, error) {
	query := r.q(`
		SELECT id, match_id, player_id, score, recorded_at
		FROM score_history
		WHERE match_id = ?
		ORDER BY recorded_at, id`)

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history of match %d: %w", matchID, err)
	}
	defer rows.Close()

	history := make([]models.ScoreHistory, 0)
	for rows.Next() {
		var h models.ScoreHistory
		if err := rows.Scan(&h.ID, &h.MatchID, &h.PlayerID, &h.Score, &h.RecordedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}
