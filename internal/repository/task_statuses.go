package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/recurrence"
)

// TaskStatusRepository persists the status of single occurrences of
// recurring tasks, keyed by (task, occurrence instant).
type TaskStatusRepository interface {
	Upsert(ctx context.Context, status models.TaskOccurrenceStatus) (models.TaskOccurrenceStatus, error)
	Delete(ctx context.Context, taskID string, occurrenceAt time.Time) error
	FindByHousehold(ctx context.Context, householdID string, window recurrence.Window) ([]models.TaskOccurrenceStatus, error)
}

type SQLiteTaskStatusRepository struct {
	database *sql.DB
}

func NewTaskStatusRepository(database *sql.DB) *SQLiteTaskStatusRepository {
	return &SQLiteTaskStatusRepository{database: database}
}

func (repository *SQLiteTaskStatusRepository) Upsert(ctx context.Context, status models.TaskOccurrenceStatus) (models.TaskOccurrenceStatus, error) {
	status.OccurrenceAt = status.OccurrenceAt.UTC()
	status.UpdatedAt = time.Now()

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO task_occurrence_statuses (task_id, occurrence_at, status, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(task_id, occurrence_at) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		status.TaskID, formatInstant(status.OccurrenceAt), status.Status, status.UpdatedAt,
	)
	if err != nil {
		return models.TaskOccurrenceStatus{}, fmt.Errorf("upserting task status: %w", err)
	}
	return status, nil
}

func (repository *SQLiteTaskStatusRepository) Delete(ctx context.Context, taskID string, occurrenceAt time.Time) error {
	_, err := repository.database.ExecContext(ctx,
		"DELETE FROM task_occurrence_statuses WHERE task_id = ? AND occurrence_at = ?",
		taskID, formatInstant(occurrenceAt),
	)
	if err != nil {
		return fmt.Errorf("deleting task status: %w", err)
	}
	return nil
}

func (repository *SQLiteTaskStatusRepository) FindByHousehold(ctx context.Context, householdID string, window recurrence.Window) ([]models.TaskOccurrenceStatus, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT s.task_id, s.occurrence_at, s.status, s.updated_at
		FROM task_occurrence_statuses s
		JOIN tasks t ON t.id = s.task_id
		WHERE t.household_id = ? AND s.occurrence_at >= ? AND s.occurrence_at <= ?
		ORDER BY s.occurrence_at`,
		householdID, formatInstant(window.Start), formatInstant(window.End),
	)
	if err != nil {
		return nil, fmt.Errorf("finding task statuses: %w", err)
	}
	defer rows.Close()

	var statuses []models.TaskOccurrenceStatus
	for rows.Next() {
		var status models.TaskOccurrenceStatus
		var occurrenceAt string
		if err := rows.Scan(&status.TaskID, &occurrenceAt, &status.Status, &status.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning task status: %w", err)
		}
		if status.OccurrenceAt, err = parseInstant(occurrenceAt); err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}
