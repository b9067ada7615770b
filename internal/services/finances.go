package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/bensuskins/household-hub/internal/cache"
	"github.com/bensuskins/household-hub/internal/events"
	"github.com/bensuskins/household-hub/internal/ledger"
	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"
)

type EntryInput struct {
	Date time.Time
	ledger.Entry
}

// SeriesInput describes a repeating booking; Rule.Anchor is its first date.
type SeriesInput struct {
	Rule recurrence.Rule
	ledger.Entry
}

type ExceptionInput struct {
	Kind  occurrence.ExceptionKind
	Patch ledger.Patch
}

type FinanceService struct {
	store      repository.FinanceStore
	categories repository.CategoryRepository
	ledger     *ledger.Ledger
	views      *cache.LRU[ledger.View]
	publisher  events.Publisher
}

// NewFinanceService wires the finance use cases. views may be nil to
// disable view caching.
func NewFinanceService(
	store repository.FinanceStore,
	categories repository.CategoryRepository,
	engine *recurrence.Engine,
	views *cache.LRU[ledger.View],
	publisher events.Publisher,
) *FinanceService {
	return &FinanceService{
		store:      store,
		categories: categories,
		ledger:     ledger.New(engine),
		views:      views,
		publisher:  publisher,
	}
}

func (service *FinanceService) validateEntry(ctx context.Context, householdID string, entry ledger.Entry) (ledger.Entry, error) {
	kind, err := ledger.ParseKind(string(entry.Kind))
	if err != nil {
		return entry, invalid("kind", "must be INCOME or EXPENSE")
	}
	entry.Kind = kind

	entry.Title = trimmed(entry.Title)
	if entry.Title == "" {
		entry.Title = kind.DefaultTitle()
	}
	if err := checkLength("title", entry.Title, 1, 80); err != nil {
		return entry, err
	}
	if err := checkLength("note", entry.Note, 0, 500); err != nil {
		return entry, err
	}
	if entry.AmountCents <= 0 {
		return entry, invalid("amountCents", "must be greater than zero")
	}
	if err := checkCategory(ctx, service.categories, householdID, entry.CategoryID); err != nil {
		return entry, err
	}
	return entry, nil
}

func (service *FinanceService) CreateEntry(ctx context.Context, householdID string, input EntryInput) (models.FinanceEntry, error) {
	if input.Date.IsZero() {
		return models.FinanceEntry{}, invalid("date", "is required")
	}
	entry, err := service.validateEntry(ctx, householdID, input.Entry)
	if err != nil {
		return models.FinanceEntry{}, err
	}

	created, err := service.store.CreateEntry(ctx, models.FinanceEntry{
		HouseholdID: householdID,
		Date:        recurrence.DateOf(input.Date),
		Entry:       entry,
	})
	if err != nil {
		return models.FinanceEntry{}, err
	}
	service.changed(ctx, events.New(events.EntryCreated, householdID, created.ID))
	return created, nil
}

func (service *FinanceService) findEntry(ctx context.Context, householdID string, entryID string) (models.FinanceEntry, error) {
	entry, err := service.store.FindEntry(ctx, entryID)
	if err != nil {
		return models.FinanceEntry{}, notFound("finance entry", err)
	}
	if entry.HouseholdID != householdID {
		return models.FinanceEntry{}, fmt.Errorf("finance entry: %w", ErrNotFound)
	}
	return entry, nil
}

func (service *FinanceService) UpdateEntry(ctx context.Context, householdID string, entryID string, input EntryInput) (models.FinanceEntry, error) {
	existing, err := service.findEntry(ctx, householdID, entryID)
	if err != nil {
		return models.FinanceEntry{}, err
	}
	if input.Date.IsZero() {
		input.Date = existing.Date
	}
	entry, err := service.validateEntry(ctx, householdID, input.Entry)
	if err != nil {
		return models.FinanceEntry{}, err
	}

	existing.Date = recurrence.DateOf(input.Date)
	existing.Entry = entry
	if err := service.store.UpdateEntry(ctx, existing); err != nil {
		return models.FinanceEntry{}, err
	}
	service.changed(ctx, events.New(events.EntryUpdated, householdID, entryID))
	return existing, nil
}

func (service *FinanceService) DeleteEntry(ctx context.Context, householdID string, entryID string) error {
	if _, err := service.findEntry(ctx, householdID, entryID); err != nil {
		return err
	}
	if err := service.store.DeleteEntry(ctx, entryID); err != nil {
		return err
	}
	service.changed(ctx, events.New(events.EntryDeleted, householdID, entryID))
	return nil
}

func (service *FinanceService) validateSeries(ctx context.Context, householdID string, input SeriesInput) (SeriesInput, error) {
	rule := input.Rule
	if !rule.IsRecurring() {
		return input, &ValidationError{Field: "frequency", Message: "must repeat", kind: ErrNotASeries}
	}
	if rule.Anchor.IsZero() {
		return input, invalid("anchor", "is required")
	}
	rule.Anchor = recurrence.DateOf(rule.Anchor)
	if rule.Interval == 0 {
		rule.Interval = 1
	}
	if err := recurrence.Validate(rule); err != nil {
		return input, err
	}
	input.Rule = recurrence.Normalize(rule)

	entry, err := service.validateEntry(ctx, householdID, input.Entry)
	if err != nil {
		return input, err
	}
	input.Entry = entry
	return input, nil
}

func (service *FinanceService) CreateSeries(ctx context.Context, householdID string, input SeriesInput) (models.FinanceSeries, error) {
	input, err := service.validateSeries(ctx, householdID, input)
	if err != nil {
		return models.FinanceSeries{}, err
	}

	created, err := service.store.CreateSeries(ctx, models.FinanceSeries{
		HouseholdID: householdID,
		Rule:        input.Rule,
		Entry:       input.Entry,
	})
	if err != nil {
		return models.FinanceSeries{}, err
	}
	service.changed(ctx, events.New(events.SeriesCreated, householdID, created.ID))
	return created, nil
}

func (service *FinanceService) FindSeries(ctx context.Context, householdID string, seriesID string) (models.FinanceSeries, error) {
	series, err := service.store.FindSeries(ctx, seriesID)
	if err != nil {
		return models.FinanceSeries{}, notFound("finance series", err)
	}
	if series.HouseholdID != householdID {
		return models.FinanceSeries{}, fmt.Errorf("finance series: %w", ErrNotFound)
	}
	return series, nil
}

// UpdateSeries keeps existing exceptions. Those whose date is no longer
// produced by the new rule are ignored when materializing.
func (service *FinanceService) UpdateSeries(ctx context.Context, householdID string, seriesID string, input SeriesInput) (models.FinanceSeries, error) {
	series, err := service.FindSeries(ctx, householdID, seriesID)
	if err != nil {
		return models.FinanceSeries{}, err
	}
	input, err = service.validateSeries(ctx, householdID, input)
	if err != nil {
		return models.FinanceSeries{}, err
	}

	series.Rule = input.Rule
	series.Entry = input.Entry
	if err := service.store.UpdateSeries(ctx, series); err != nil {
		return models.FinanceSeries{}, err
	}
	service.changed(ctx, events.New(events.SeriesUpdated, householdID, seriesID))
	return series, nil
}

// DeleteSeries removes the series and all of its exceptions.
func (service *FinanceService) DeleteSeries(ctx context.Context, householdID string, seriesID string) error {
	if _, err := service.FindSeries(ctx, householdID, seriesID); err != nil {
		return err
	}
	if err := service.store.DeleteSeries(ctx, seriesID); err != nil {
		return err
	}
	service.changed(ctx, events.New(events.SeriesDeleted, householdID, seriesID))
	return nil
}

// SetException skips or overrides the occurrence of seriesID on date,
// replacing any exception already stored for that date.
func (service *FinanceService) SetException(ctx context.Context, householdID string, seriesID string, date time.Time, input ExceptionInput) (models.FinanceException, error) {
	series, err := service.FindSeries(ctx, householdID, seriesID)
	if err != nil {
		return models.FinanceException{}, err
	}
	date = recurrence.DateOf(date)

	switch input.Kind {
	case occurrence.ExceptionSkip:
		input.Patch = ledger.Patch{}
	case occurrence.ExceptionOverride:
		patch, err := validatePatch(input.Patch)
		if err != nil {
			return models.FinanceException{}, err
		}
		input.Patch = patch
	default:
		return models.FinanceException{}, invalidException("kind", "must be SKIP or OVERRIDE")
	}

	result, err := service.ledger.Materializer().Engine().Generate(series.Rule, recurrence.DateWindow(date, date))
	if err != nil {
		return models.FinanceException{}, err
	}
	if !slices.ContainsFunc(result.Dates, func(occurrenceDate time.Time) bool {
		return recurrence.DateOf(occurrenceDate).Equal(date)
	}) {
		return models.FinanceException{}, invalidException("date", "is not an occurrence of the series")
	}

	exception, err := service.store.UpsertException(ctx, models.FinanceException{
		SeriesID: seriesID,
		Date:     date,
		Kind:     input.Kind,
		Patch:    input.Patch,
	})
	if err != nil {
		return models.FinanceException{}, err
	}
	service.changed(ctx, events.New(events.ExceptionSet, householdID, seriesID).
		With("date", recurrence.FormatDate(date)).
		With("kind", string(input.Kind)))
	return exception, nil
}

func validatePatch(patch ledger.Patch) (ledger.Patch, error) {
	if patch.IsEmpty() {
		return patch, invalidException("patch", "must change at least one field")
	}
	if amount, present := patch.AmountCents.Get(); present && amount <= 0 {
		return patch, invalidException("amountCents", "must be greater than zero")
	}
	if value, present := patch.Kind.Get(); present {
		kind, err := ledger.ParseKind(string(value))
		if err != nil {
			return patch, invalidException("kind", "must be INCOME or EXPENSE")
		}
		patch.Kind = mo.Some(kind)
	}
	if title, present := patch.Title.Get(); present {
		title = trimmed(title)
		if err := checkLength("title", title, 1, 80); err != nil {
			return patch, asException(err)
		}
		patch.Title = mo.Some(title)
	}
	if note, present := patch.Note.Get(); present {
		if err := checkLength("note", note, 0, 500); err != nil {
			return patch, asException(err)
		}
	}
	return patch, nil
}

// ClearException restores the plain series occurrence on date.
func (service *FinanceService) ClearException(ctx context.Context, householdID string, seriesID string, date time.Time) error {
	if _, err := service.FindSeries(ctx, householdID, seriesID); err != nil {
		return err
	}
	date = recurrence.DateOf(date)
	if err := service.store.DeleteException(ctx, seriesID, date); err != nil {
		return err
	}
	service.changed(ctx, events.New(events.ExceptionCleared, householdID, seriesID).
		With("date", recurrence.FormatDate(date)))
	return nil
}

func (service *FinanceService) SetStartingBalance(ctx context.Context, householdID string, cents int64) error {
	if err := service.store.SetStartingBalance(ctx, householdID, cents); err != nil {
		return err
	}
	service.changed(ctx, events.New(events.StartingBalanceSet, householdID, householdID).
		With("cents", strconv.FormatInt(cents, 10)))
	return nil
}

// MonthView is View over one calendar month.
func (service *FinanceService) MonthView(ctx context.Context, householdID string, year int, month int) (ledger.View, error) {
	if month < 1 || month > 12 {
		return ledger.View{}, invalid("month", "must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return ledger.View{}, invalid("year", "must be between 1 and 9999")
	}
	return service.View(ctx, householdID, ledger.MonthWindow(year, time.Month(month)))
}

// View returns the ledger of window: the carry row, every one-off and
// series occurrence inside it, totals and daily balances.
func (service *FinanceService) View(ctx context.Context, householdID string, window recurrence.Window) (ledger.View, error) {
	if err := window.Validate(); err != nil {
		return ledger.View{}, err
	}

	key := viewKey(householdID, window)
	if service.views != nil {
		if view, found := service.views.Get(key); found {
			return view, nil
		}
	}

	input, err := service.viewInput(ctx, householdID, window)
	if err != nil {
		return ledger.View{}, err
	}
	view, err := service.ledger.BuildView(input)
	if err != nil {
		return ledger.View{}, err
	}

	if service.views != nil {
		service.views.Set(key, view)
	}
	return view, nil
}

// Occurrences materializes series and one-off bookings inside window
// without the carry row.
func (service *FinanceService) Occurrences(ctx context.Context, householdID string, window recurrence.Window) ([]ledger.Item, error) {
	input, err := service.viewInput(ctx, householdID, window)
	if err != nil {
		return nil, err
	}
	timeline, err := service.ledger.Materializer().Materialize(input.Series, input.Exceptions, input.OneOffs, window)
	if err != nil {
		return nil, err
	}
	return timeline.Occurrences, nil
}

func (service *FinanceService) viewInput(ctx context.Context, householdID string, window recurrence.Window) (ledger.ViewInput, error) {
	var (
		balance    int64
		entries    []models.FinanceEntry
		series     []models.FinanceSeries
		exceptions []models.FinanceException
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		balance, err = service.store.StartingBalance(groupCtx, householdID)
		return err
	})
	group.Go(func() error {
		var err error
		entries, err = service.store.FindEntries(groupCtx, householdID, window.End)
		return err
	})
	group.Go(func() error {
		var err error
		series, err = service.store.FindSeriesByHousehold(groupCtx, householdID)
		return err
	})
	group.Go(func() error {
		var err error
		exceptions, err = service.store.FindExceptions(groupCtx, householdID)
		return err
	})
	if err := group.Wait(); err != nil {
		return ledger.ViewInput{}, fmt.Errorf("loading finances: %w", err)
	}

	input := ledger.ViewInput{
		StartingBalance: balance,
		Series:          make([]ledger.Series, 0, len(series)),
		OneOffs:         make([]ledger.OneOff, 0, len(entries)),
		Window:          window,
	}
	for _, item := range series {
		input.Series = append(input.Series, ledger.Series{ID: item.ID, Rule: item.Rule, Template: item.Entry})
	}
	for _, entry := range entries {
		input.OneOffs = append(input.OneOffs, ledger.OneOff{ID: entry.ID, Date: entry.Date, Payload: entry.Entry})
	}
	indexed := make([]ledger.Exception, 0, len(exceptions))
	for _, exception := range exceptions {
		indexed = append(indexed, ledger.Exception{
			SeriesID: exception.SeriesID,
			Date:     exception.Date,
			Kind:     exception.Kind,
			Override: exception.Patch,
		})
	}
	input.Exceptions = occurrence.IndexExceptions(indexed)
	return input, nil
}

func viewKey(householdID string, window recurrence.Window) string {
	return householdID + "|" + window.Start.UTC().Format(time.RFC3339) + "|" + window.End.UTC().Format(time.RFC3339)
}

// changed drops cached views of the household and announces the change.
func (service *FinanceService) changed(ctx context.Context, event events.Event) {
	if service.views != nil {
		service.views.DeletePrefix(event.HouseholdID + "|")
	}
	publish(ctx, service.publisher, event)
}
