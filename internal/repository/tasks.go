package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/google/uuid"
)

// TaskFilter narrows FindByHousehold. ActiveFrom and ActiveUntil keep only
// tasks that can have an occurrence inside the range: one-off tasks due in
// it, series anchored before its end and not ended before its start.
type TaskFilter struct {
	ActiveFrom   *time.Time
	ActiveUntil  *time.Time
	AssignedToID *string
	CategoryID   *string
}

type TaskRepository interface {
	FindByID(ctx context.Context, id string) (models.Task, error)
	FindByHousehold(ctx context.Context, householdID string, filter TaskFilter) ([]models.Task, error)
	Create(ctx context.Context, task models.Task) (models.Task, error)
	Update(ctx context.Context, task models.Task) error
	UpdateStatus(ctx context.Context, id string, status occurrence.Status) error
	Delete(ctx context.Context, id string) error
}

type SQLiteTaskRepository struct {
	database *sql.DB
}

func NewTaskRepository(database *sql.DB) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{database: database}
}

const taskColumns = `id, household_id, title, description, due_at, all_day,
	assigned_to_id, category_id,
	frequency, recurrence_interval, end_date, by_weekday, by_month_day, by_month,
	status, created_by_user_id, created_at, updated_at`

type taskScanner interface {
	Scan(dest ...any) error
}

func scanTask(scanner taskScanner) (models.Task, error) {
	var task models.Task
	var dueAt string
	var assignedToID, categoryID sql.NullString
	var columns ruleColumns
	err := scanner.Scan(
		&task.ID, &task.HouseholdID, &task.Title, &task.Description, &dueAt, &task.AllDay,
		&assignedToID, &categoryID,
		&columns.frequency, &columns.interval, &columns.endDate, &columns.byWeekday, &columns.byMonthDay, &columns.byMonth,
		&task.Status, &task.CreatedByUserID, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	if task.DueAt, err = parseInstant(dueAt); err != nil {
		return models.Task{}, err
	}
	if task.Rule, err = columns.decode(task.DueAt); err != nil {
		return models.Task{}, err
	}
	task.AssignedToID = stringPointer(assignedToID)
	task.CategoryID = stringPointer(categoryID)
	return task, nil
}

func (repository *SQLiteTaskRepository) FindByID(ctx context.Context, id string) (models.Task, error) {
	row := repository.database.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if err != nil {
		return models.Task{}, fmt.Errorf("finding task by id: %w", err)
	}
	return task, nil
}

func (repository *SQLiteTaskRepository) FindByHousehold(ctx context.Context, householdID string, filter TaskFilter) ([]models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE household_id = ?"
	args := []any{householdID}

	if filter.ActiveUntil != nil {
		query += " AND due_at <= ?"
		args = append(args, formatInstant(*filter.ActiveUntil))
	}
	if filter.ActiveFrom != nil {
		query += " AND ((frequency = 'NONE' AND due_at >= ?) OR (frequency != 'NONE' AND (end_date IS NULL OR end_date >= ?)))"
		args = append(args, formatInstant(*filter.ActiveFrom), recurrence.FormatDate(*filter.ActiveFrom))
	}
	if filter.AssignedToID != nil {
		query += " AND assigned_to_id = ?"
		args = append(args, *filter.AssignedToID)
	}
	if filter.CategoryID != nil {
		query += " AND category_id = ?"
		args = append(args, *filter.CategoryID)
	}
	query += " ORDER BY due_at, created_at"

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (repository *SQLiteTaskRepository) Create(ctx context.Context, task models.Task) (models.Task, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = occurrence.StatusOpen
	}

	columns, err := encodeRule(task.Rule)
	if err != nil {
		return models.Task{}, fmt.Errorf("creating task: %w", err)
	}

	_, err = repository.database.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.HouseholdID, task.Title, task.Description, formatInstant(task.DueAt), task.AllDay,
		nullableStringPointer(task.AssignedToID), nullableStringPointer(task.CategoryID),
		columns.frequency, columns.interval, columns.endDate, columns.byWeekday, columns.byMonthDay, columns.byMonth,
		task.Status, task.CreatedByUserID, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("creating task: %w", err)
	}
	return task, nil
}

func (repository *SQLiteTaskRepository) Update(ctx context.Context, task models.Task) error {
	task.UpdatedAt = time.Now()
	columns, err := encodeRule(task.Rule)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}

	_, err = repository.database.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, due_at = ?, all_day = ?,
			assigned_to_id = ?, category_id = ?,
			frequency = ?, recurrence_interval = ?, end_date = ?, by_weekday = ?, by_month_day = ?, by_month = ?,
			status = ?, updated_at = ?
		WHERE id = ?`,
		task.Title, task.Description, formatInstant(task.DueAt), task.AllDay,
		nullableStringPointer(task.AssignedToID), nullableStringPointer(task.CategoryID),
		columns.frequency, columns.interval, columns.endDate, columns.byWeekday, columns.byMonthDay, columns.byMonth,
		task.Status, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return nil
}

func (repository *SQLiteTaskRepository) UpdateStatus(ctx context.Context, id string, status occurrence.Status) error {
	_, err := repository.database.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?", status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("updating task status: %w", err)
	}
	return nil
}

// Delete removes the task; its occurrence statuses cascade.
func (repository *SQLiteTaskRepository) Delete(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}
