package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"case-server/internal/domain"
	"case-server/internal/repository"
)

const createProgressTable = `
CREATE TABLE IF NOT EXISTS progress (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	scenario_id TEXT NOT NULL,
	level_id TEXT NOT NULL,
	completed_at DATETIME NOT NULL,
	UNIQUE (user_id, scenario_id, level_id)
);
`

type ProgressRepository struct {
	db *sql.DB
}

func NewProgressRepository(db *sql.DB) repository.ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createProgressTable); err != nil {
		return fmt.Errorf("create progress table: %w", err)
	}
	return nil
}

func (r *ProgressRepository) Create(ctx context.Context, progress *domain.Progress) (int64, error) {
	if progress.CompletedAt.IsZero() {
		progress.CompletedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO progress (user_id, scenario_id, level_id, completed_at)
VALUES (?, ?, ?, ?)`,
		progress.UserID,
		progress.ScenarioID,
		progress.LevelID,
		progress.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert progress: %w", repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert progress: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("progress last insert id: %w", err)
	}
	progress.ID = id
	return id, nil
}

func (r *ProgressRepository) Exists(ctx context.Context, userID int64, scenarioID, levelID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
SELECT 1
FROM progress
WHERE user_id = ? AND scenario_id = ? AND level_id = ?`,
		userID, scenarioID, levelID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query progress: %w", err)
	}
	return true, nil
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Progress, error) {
	// id breaks ties for same-second completions so order stays stable
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, scenario_id, level_id, completed_at
FROM progress
WHERE user_id = ?
ORDER BY completed_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var records []domain.Progress
	for rows.Next() {
		var p domain.Progress
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.ScenarioID,
			&p.LevelID,
			&p.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return records, nil
}
