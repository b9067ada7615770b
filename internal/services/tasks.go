package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/bensuskins/household-hub/internal/events"
	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/bensuskins/household-hub/internal/repository"
	"golang.org/x/sync/errgroup"
)

type TaskInput struct {
	Title        string
	Description  string
	DueAt        time.Time
	AllDay       bool
	AssignedToID *string
	CategoryID   *string
	// Rule.Anchor is ignored; a task repeats from its due time.
	Rule recurrence.Rule
}

type TaskOccurrence struct {
	ID           string            `json:"id"`
	TaskID       string            `json:"taskId"`
	OccurrenceAt time.Time         `json:"occurrenceAt"`
	Origin       occurrence.Origin `json:"origin"`
	Status       occurrence.Status `json:"status"`
	Task         models.Task       `json:"task"`
}

type TaskRange struct {
	Occurrences    []TaskOccurrence      `json:"occurrences"`
	Days           []occurrence.DayCount `json:"days"`
	TruncatedTasks []string              `json:"truncatedTasks,omitempty"`
}

type TaskService struct {
	tasks        repository.TaskRepository
	statuses     repository.TaskStatusRepository
	categories   repository.CategoryRepository
	households   repository.HouseholdRepository
	materializer *occurrence.Materializer[models.Task, struct{}]
	publisher    events.Publisher
}

func NewTaskService(
	tasks repository.TaskRepository,
	statuses repository.TaskStatusRepository,
	categories repository.CategoryRepository,
	households repository.HouseholdRepository,
	engine *recurrence.Engine,
	publisher events.Publisher,
) *TaskService {
	return &TaskService{
		tasks:        tasks,
		statuses:     statuses,
		categories:   categories,
		households:   households,
		materializer: occurrence.NewMaterializer(engine, keepTask),
		publisher:    publisher,
	}
}

// Tasks carry no per-occurrence overrides, only statuses.
func keepTask(task models.Task, _ struct{}) models.Task {
	return task
}

func (service *TaskService) validate(ctx context.Context, householdID string, input TaskInput) (TaskInput, error) {
	input.Title = trimmed(input.Title)
	if err := checkLength("title", input.Title, 1, 200); err != nil {
		return input, err
	}
	if err := checkLength("description", input.Description, 0, 2000); err != nil {
		return input, err
	}
	if input.DueAt.IsZero() {
		return input, invalid("dueAt", "is required")
	}
	input.DueAt = input.DueAt.UTC().Truncate(time.Second)
	if input.AllDay {
		input.DueAt = recurrence.DateOf(input.DueAt)
	}

	if input.CategoryID != nil && *input.CategoryID == "" {
		input.CategoryID = nil
	}
	if input.CategoryID != nil {
		if err := checkCategory(ctx, service.categories, householdID, *input.CategoryID); err != nil {
			return input, err
		}
	}
	if input.AssignedToID != nil && *input.AssignedToID == "" {
		input.AssignedToID = nil
	}
	if input.AssignedToID != nil && service.households != nil {
		if _, err := service.households.FindMembership(ctx, householdID, *input.AssignedToID); err != nil {
			return input, invalid("assignedToId", "must be a household member")
		}
	}

	rule := input.Rule
	rule.Anchor = input.DueAt
	if rule.Frequency == "" {
		rule.Frequency = recurrence.FrequencyNone
	}
	if rule.IsRecurring() {
		if rule.Interval == 0 {
			rule.Interval = 1
		}
		if err := recurrence.Validate(rule); err != nil {
			return input, err
		}
		rule = recurrence.Normalize(rule)
	} else {
		rule = recurrence.Rule{Frequency: recurrence.FrequencyNone, Interval: 1, Anchor: input.DueAt}
	}
	input.Rule = rule
	return input, nil
}

func (service *TaskService) Create(ctx context.Context, householdID string, userID string, input TaskInput) (models.Task, error) {
	input, err := service.validate(ctx, householdID, input)
	if err != nil {
		return models.Task{}, err
	}

	task, err := service.tasks.Create(ctx, models.Task{
		HouseholdID:     householdID,
		Title:           input.Title,
		Description:     input.Description,
		DueAt:           input.DueAt,
		AllDay:          input.AllDay,
		AssignedToID:    input.AssignedToID,
		CategoryID:      input.CategoryID,
		Rule:            input.Rule,
		Status:          occurrence.StatusOpen,
		CreatedByUserID: userID,
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("creating task: %w", err)
	}
	publish(ctx, service.publisher, events.New(events.TaskCreated, householdID, task.ID))
	return task, nil
}

// Find returns the task if it belongs to householdID.
func (service *TaskService) Find(ctx context.Context, householdID string, taskID string) (models.Task, error) {
	task, err := service.tasks.FindByID(ctx, taskID)
	if err != nil {
		return models.Task{}, notFound("task", err)
	}
	if task.HouseholdID != householdID {
		return models.Task{}, fmt.Errorf("task: %w", ErrNotFound)
	}
	return task, nil
}

// Update replaces the task's fields and rule. Occurrence statuses recorded
// under the old rule stay stored but only show up where the new rule still
// produces the same instant.
func (service *TaskService) Update(ctx context.Context, householdID string, taskID string, input TaskInput) (models.Task, error) {
	task, err := service.Find(ctx, householdID, taskID)
	if err != nil {
		return models.Task{}, err
	}
	input, err = service.validate(ctx, householdID, input)
	if err != nil {
		return models.Task{}, err
	}

	task.Title = input.Title
	task.Description = input.Description
	task.DueAt = input.DueAt
	task.AllDay = input.AllDay
	task.AssignedToID = input.AssignedToID
	task.CategoryID = input.CategoryID
	task.Rule = input.Rule
	if err := service.tasks.Update(ctx, task); err != nil {
		return models.Task{}, fmt.Errorf("updating task: %w", err)
	}
	publish(ctx, service.publisher, events.New(events.TaskUpdated, householdID, task.ID))
	return task, nil
}

func (service *TaskService) Delete(ctx context.Context, householdID string, taskID string) error {
	if _, err := service.Find(ctx, householdID, taskID); err != nil {
		return err
	}
	if err := service.tasks.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	publish(ctx, service.publisher, events.New(events.TaskDeleted, householdID, taskID))
	return nil
}

// SetStatus changes the status of a one-off task.
func (service *TaskService) SetStatus(ctx context.Context, householdID string, taskID string, status occurrence.Status) error {
	task, err := service.Find(ctx, householdID, taskID)
	if err != nil {
		return err
	}
	if task.IsRecurring() {
		return ErrRecurringTaskStatus
	}
	if err := service.tasks.UpdateStatus(ctx, taskID, status); err != nil {
		return fmt.Errorf("setting task status: %w", err)
	}
	publish(ctx, service.publisher, events.New(events.TaskStatusChanged, householdID, taskID).With("status", string(status)))
	return nil
}

// SetOccurrenceStatus records the status of the occurrence at instant at.
// For one-off tasks it sets the task's own status.
func (service *TaskService) SetOccurrenceStatus(ctx context.Context, householdID string, taskID string, at time.Time, status occurrence.Status) error {
	task, err := service.Find(ctx, householdID, taskID)
	if err != nil {
		return err
	}
	if !task.IsRecurring() {
		if err := service.tasks.UpdateStatus(ctx, taskID, status); err != nil {
			return fmt.Errorf("setting task status: %w", err)
		}
		publish(ctx, service.publisher, events.New(events.TaskStatusChanged, householdID, taskID).With("status", string(status)))
		return nil
	}

	at = at.UTC()
	isOccurrence, err := service.occursAt(task, at)
	if err != nil {
		return err
	}
	if !isOccurrence {
		return invalidException("occurrenceAt", "is not an occurrence of the task")
	}

	if _, err := service.statuses.Upsert(ctx, models.TaskOccurrenceStatus{TaskID: taskID, OccurrenceAt: at, Status: status}); err != nil {
		return fmt.Errorf("setting occurrence status: %w", err)
	}
	publish(ctx, service.publisher, events.New(events.OccurrenceStatusSet, householdID, taskID).
		With("occurrenceAt", at.Format(time.RFC3339)).
		With("status", string(status)))
	return nil
}

func (service *TaskService) occursAt(task models.Task, at time.Time) (bool, error) {
	result, err := service.materializer.Engine().Generate(task.Rule, recurrence.Window{Start: at, End: at})
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(result.Dates, at.Equal), nil
}

// ListRange materializes every task occurrence inside window with its
// resolved status, plus per-day open/done counts.
func (service *TaskService) ListRange(ctx context.Context, householdID string, window recurrence.Window) (TaskRange, error) {
	if err := window.Validate(); err != nil {
		return TaskRange{}, err
	}

	var tasks []models.Task
	var records []models.TaskOccurrenceStatus
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		tasks, err = service.tasks.FindByHousehold(groupCtx, householdID, repository.TaskFilter{ActiveFrom: &window.Start, ActiveUntil: &window.End})
		return err
	})
	group.Go(func() error {
		var err error
		records, err = service.statuses.FindByHousehold(groupCtx, householdID, window)
		return err
	})
	if err := group.Wait(); err != nil {
		return TaskRange{}, fmt.Errorf("loading tasks: %w", err)
	}

	var series []occurrence.Series[models.Task]
	var oneOffs []occurrence.OneOff[models.Task]
	for _, task := range tasks {
		if task.IsRecurring() {
			series = append(series, occurrence.Series[models.Task]{ID: task.ID, Rule: task.Rule, Template: task})
		} else {
			oneOffs = append(oneOffs, occurrence.OneOff[models.Task]{ID: task.ID, Date: task.DueAt, Payload: task})
		}
	}

	timeline, err := service.materializer.Materialize(series, nil, oneOffs, window)
	if err != nil {
		return TaskRange{}, err
	}

	index := occurrence.IndexStatuses(statusRecords(records))
	statusOf := func(item occurrence.Occurrence[models.Task]) occurrence.Status {
		return occurrence.ResolveStatus(item, index, func(task models.Task) occurrence.Status { return task.Status })
	}

	result := TaskRange{
		Occurrences:    make([]TaskOccurrence, 0, len(timeline.Occurrences)),
		Days:           occurrence.CountByDay(timeline.Occurrences, window, statusOf),
		TruncatedTasks: timeline.TruncatedSeries,
	}
	for _, item := range timeline.Occurrences {
		result.Occurrences = append(result.Occurrences, TaskOccurrence{
			ID:           item.ID,
			TaskID:       item.Payload.ID,
			OccurrenceAt: item.Date,
			Origin:       item.Origin,
			Status:       statusOf(item),
			Task:         item.Payload,
		})
	}
	return result, nil
}

func statusRecords(statuses []models.TaskOccurrenceStatus) []occurrence.StatusRecord {
	records := make([]occurrence.StatusRecord, len(statuses))
	for i, status := range statuses {
		records[i] = occurrence.StatusRecord{TaskID: status.TaskID, OccurrenceAt: status.OccurrenceAt, Status: status.Status}
	}
	return records
}
