package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/bensuskins/household-hub/internal/testutil"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestTaskRepository_RoundTripsRule(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	owner, household := seedHousehold(t, db)
	repo := repository.NewTaskRepository(db)
	ctx := context.Background()

	dueAt := time.Date(2024, 3, 4, 18, 30, 0, 0, time.UTC)
	endDate := date(2024, 6, 30)
	created, err := repo.Create(ctx, models.Task{
		HouseholdID: household.ID,
		Title:       "Bins out",
		DueAt:       dueAt,
		Rule: recurrence.Rule{
			Frequency: recurrence.FrequencyWeekly,
			Interval:  2,
			Anchor:    dueAt,
			EndDate:   &endDate,
			ByWeekday: []int{0, 3},
		},
		AssignedToID:    &owner.ID,
		CreatedByUserID: owner.ID,
	})
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}
	if created.Status != occurrence.StatusOpen {
		t.Errorf("expected default status OPEN, got '%s'", created.Status)
	}

	found, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("finding task: %v", err)
	}
	if !found.DueAt.Equal(dueAt) {
		t.Errorf("expected due %v, got %v", dueAt, found.DueAt)
	}
	if found.Rule.Frequency != recurrence.FrequencyWeekly || found.Rule.Interval != 2 {
		t.Errorf("unexpected rule %+v", found.Rule)
	}
	if !found.Rule.Anchor.Equal(dueAt) {
		t.Errorf("expected anchor to equal due time, got %v", found.Rule.Anchor)
	}
	if found.Rule.EndDate == nil || !found.Rule.EndDate.Equal(endDate) {
		t.Errorf("expected end date %v, got %v", endDate, found.Rule.EndDate)
	}
	if !reflect.DeepEqual(found.Rule.ByWeekday, []int{0, 3}) {
		t.Errorf("expected weekdays [0 3], got %v", found.Rule.ByWeekday)
	}
	if found.AssignedToID == nil || *found.AssignedToID != owner.ID {
		t.Errorf("expected assignee %s, got %v", owner.ID, found.AssignedToID)
	}
	if !found.IsRecurring() {
		t.Error("expected task to be recurring")
	}
}

func TestTaskRepository_FindByHouseholdActiveRange(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	owner, household := seedHousehold(t, db)
	repo := repository.NewTaskRepository(db)
	ctx := context.Background()

	create := func(title string, due time.Time, rule recurrence.Rule) {
		t.Helper()
		rule.Anchor = due
		if _, err := repo.Create(ctx, models.Task{HouseholdID: household.ID, Title: title, DueAt: due, Rule: rule, CreatedByUserID: owner.ID}); err != nil {
			t.Fatalf("creating %s: %v", title, err)
		}
	}
	ended := date(2024, 2, 15)
	create("before", date(2024, 2, 1), recurrence.Rule{})
	create("inside", date(2024, 3, 10), recurrence.Rule{})
	create("after", date(2024, 4, 2), recurrence.Rule{})
	create("running", date(2024, 1, 1), recurrence.Rule{Frequency: recurrence.FrequencyDaily, Interval: 1})
	create("ended", date(2024, 1, 1), recurrence.Rule{Frequency: recurrence.FrequencyDaily, Interval: 1, EndDate: &ended})

	window := recurrence.DateWindow(date(2024, 3, 1), date(2024, 3, 31))
	tasks, err := repo.FindByHousehold(ctx, household.ID, repository.TaskFilter{ActiveFrom: &window.Start, ActiveUntil: &window.End})
	if err != nil {
		t.Fatalf("finding tasks: %v", err)
	}

	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	if !reflect.DeepEqual(titles, []string{"running", "inside"}) {
		t.Errorf("expected [running inside], got %v", titles)
	}
}

func TestTaskRepository_UpdateAndStatus(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	owner, household := seedHousehold(t, db)
	repo := repository.NewTaskRepository(db)
	ctx := context.Background()

	task, _ := repo.Create(ctx, models.Task{HouseholdID: household.ID, Title: "Old", DueAt: date(2024, 3, 1), CreatedByUserID: owner.ID})

	task.Title = "New"
	task.Description = "details"
	if err := repo.Update(ctx, task); err != nil {
		t.Fatalf("updating task: %v", err)
	}
	if err := repo.UpdateStatus(ctx, task.ID, occurrence.StatusDone); err != nil {
		t.Fatalf("updating status: %v", err)
	}

	found, _ := repo.FindByID(ctx, task.ID)
	if found.Title != "New" || found.Description != "details" {
		t.Errorf("expected updated fields, got %+v", found)
	}
	if found.Status != occurrence.StatusDone {
		t.Errorf("expected DONE, got '%s'", found.Status)
	}
}

func TestTaskRepository_DeleteCascadesStatuses(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	owner, household := seedHousehold(t, db)
	tasks := repository.NewTaskRepository(db)
	statuses := repository.NewTaskStatusRepository(db)
	ctx := context.Background()

	anchor := date(2024, 3, 1)
	task, _ := tasks.Create(ctx, models.Task{
		HouseholdID:     household.ID,
		Title:           "Water plants",
		DueAt:           anchor,
		Rule:            recurrence.Rule{Frequency: recurrence.FrequencyDaily, Interval: 1, Anchor: anchor},
		CreatedByUserID: owner.ID,
	})
	statuses.Upsert(ctx, models.TaskOccurrenceStatus{TaskID: task.ID, OccurrenceAt: date(2024, 3, 2), Status: occurrence.StatusDone})

	if err := tasks.Delete(ctx, task.ID); err != nil {
		t.Fatalf("deleting task: %v", err)
	}
	if _, err := tasks.FindByID(ctx, task.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected task gone, got %v", err)
	}

	var remaining int
	db.QueryRow("SELECT COUNT(*) FROM task_occurrence_statuses").Scan(&remaining)
	if remaining != 0 {
		t.Errorf("expected statuses to cascade, %d left", remaining)
	}
}
