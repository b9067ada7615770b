package server

import (
	"database/sql"
	"fmt"

	"github.com/bensuskins/household-hub/internal/backend"
	"github.com/bensuskins/household-hub/internal/cache"
	"github.com/bensuskins/household-hub/internal/config"
	"github.com/bensuskins/household-hub/internal/events"
	"github.com/bensuskins/household-hub/internal/ledger"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/bensuskins/household-hub/internal/services"
	"golang.org/x/text/language"
)

// App holds the repositories and services shared by the HTTP server, the
// scheduler and the CLI.
type App struct {
	Config config.Config
	Locale language.Tag

	Users      *repository.SQLiteUserRepository
	Households *repository.SQLiteHouseholdRepository
	Categories *repository.SQLiteCategoryRepository
	Tokens     *repository.SQLiteAPITokenRepository

	Views     *cache.LRU[ledger.View]
	Publisher events.Publisher

	HouseholdService *services.HouseholdService
	TaskService      *services.TaskService
	FinanceService   *services.FinanceService
	DigestService    *services.DigestService
	ShoppingService  *services.ShoppingService
}

func NewApp(database *sql.DB, cfg config.Config, publisher events.Publisher) (*App, error) {
	store, err := backend.NewFinanceStore(cfg, database)
	if err != nil {
		return nil, fmt.Errorf("creating finance store: %w", err)
	}

	app := &App{
		Config:     cfg,
		Locale:     ledger.ParseLocale(cfg.Locale),
		Users:      repository.NewUserRepository(database),
		Households: repository.NewHouseholdRepository(database),
		Categories: repository.NewCategoryRepository(database),
		Tokens:     repository.NewAPITokenRepository(database),
		Views:      cache.NewLRU[ledger.View](cfg.CacheSize, cfg.CacheTTL),
		Publisher:  publisher,
	}

	engine := recurrence.NewEngine(cfg.MaxOccurrences)
	app.HouseholdService = services.NewHouseholdService(app.Households, app.Users, publisher)
	app.TaskService = services.NewTaskService(
		repository.NewTaskRepository(database),
		repository.NewTaskStatusRepository(database),
		app.Categories,
		app.Households,
		engine,
		publisher,
	)
	app.FinanceService = services.NewFinanceService(store, app.Categories, engine, app.Views, publisher)
	app.ShoppingService = services.NewShoppingService(repository.NewShoppingRepository(database), publisher)
	app.DigestService = services.NewDigestService(app.Households, app.TaskService, app.FinanceService, app.Locale, publisher)
	return app, nil
}
