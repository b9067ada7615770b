package services_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/bensuskins/household-hub/internal/cache"
	"github.com/bensuskins/household-hub/internal/events"
	"github.com/bensuskins/household-hub/internal/ledger"
	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/bensuskins/household-hub/internal/testutil"
)

type fixture struct {
	db         *sql.DB
	recorder   *events.Recorder
	users      *repository.SQLiteUserRepository
	households *repository.SQLiteHouseholdRepository
	categories *repository.SQLiteCategoryRepository
	tasks      *services.TaskService
	finances   *services.FinanceService
	shopping   *services.ShoppingService
	views      *cache.LRU[ledger.View]
	user       models.User
	household  models.Household
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewTestDatabase(t)

	f := &fixture{
		db:         db,
		recorder:   &events.Recorder{},
		users:      repository.NewUserRepository(db),
		households: repository.NewHouseholdRepository(db),
		categories: repository.NewCategoryRepository(db),
		views:      cache.NewLRU[ledger.View](16, time.Hour),
	}
	engine := recurrence.NewEngine(0)
	f.tasks = services.NewTaskService(
		repository.NewTaskRepository(db),
		repository.NewTaskStatusRepository(db),
		f.categories,
		f.households,
		engine,
		f.recorder,
	)
	f.finances = services.NewFinanceService(repository.NewFinanceStore(db), f.categories, engine, f.views, f.recorder)
	f.shopping = services.NewShoppingService(repository.NewShoppingRepository(db), f.recorder)

	var err error
	f.user, err = f.users.Create(ctx, models.User{Email: "owner@example.com", Name: "Owner"})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	f.household, err = f.households.Create(ctx, models.Household{Name: "Home", CreatedByUserID: f.user.ID})
	if err != nil {
		t.Fatalf("creating household: %v", err)
	}
	return f
}

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func date(year int, month time.Month, day int) time.Time {
	return at(year, month, day, 0)
}
