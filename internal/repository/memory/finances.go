// Package memory holds an in-process implementation of the finance storage
// port, used for ephemeral deployments and tests.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/google/uuid"
)

type FinanceStore struct {
	mu         sync.RWMutex
	sequence   int64
	entries    map[string]storedEntry
	series     map[string]storedSeries
	exceptions map[occurrence.Key]models.FinanceException
	balances   map[string]int64
}

type storedEntry struct {
	position int64
	entry    models.FinanceEntry
}

type storedSeries struct {
	position int64
	series   models.FinanceSeries
}

func NewFinanceStore() *FinanceStore {
	return &FinanceStore{
		entries:    make(map[string]storedEntry),
		series:     make(map[string]storedSeries),
		exceptions: make(map[occurrence.Key]models.FinanceException),
		balances:   make(map[string]int64),
	}
}

func notFound(what string, id string) error {
	return fmt.Errorf("finding %s %s: %w", what, id, sql.ErrNoRows)
}

func (store *FinanceStore) next() int64 {
	store.sequence++
	return store.sequence
}

func (store *FinanceStore) CreateEntry(_ context.Context, entry models.FinanceEntry) (models.FinanceEntry, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	entry.Date = recurrence.DateOf(entry.Date)
	store.entries[entry.ID] = storedEntry{position: store.next(), entry: entry}
	return entry, nil
}

func (store *FinanceStore) FindEntry(_ context.Context, id string) (models.FinanceEntry, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	stored, found := store.entries[id]
	if !found {
		return models.FinanceEntry{}, notFound("finance entry", id)
	}
	return stored.entry, nil
}

func (store *FinanceStore) FindEntries(_ context.Context, householdID string, until time.Time) ([]models.FinanceEntry, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	last := recurrence.DateOf(until)
	var matches []storedEntry
	for _, stored := range store.entries {
		if stored.entry.HouseholdID == householdID && !stored.entry.Date.After(last) {
			matches = append(matches, stored)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].entry.Date.Equal(matches[j].entry.Date) {
			return matches[i].entry.Date.Before(matches[j].entry.Date)
		}
		return matches[i].position < matches[j].position
	})

	entries := make([]models.FinanceEntry, len(matches))
	for i, stored := range matches {
		entries[i] = stored.entry
	}
	return entries, nil
}

func (store *FinanceStore) UpdateEntry(_ context.Context, entry models.FinanceEntry) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, found := store.entries[entry.ID]
	if !found {
		return nil
	}
	entry.HouseholdID = stored.entry.HouseholdID
	entry.CreatedAt = stored.entry.CreatedAt
	entry.UpdatedAt = time.Now()
	entry.Date = recurrence.DateOf(entry.Date)
	stored.entry = entry
	store.entries[entry.ID] = stored
	return nil
}

func (store *FinanceStore) DeleteEntry(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.entries, id)
	return nil
}

func cloneSeries(series models.FinanceSeries) models.FinanceSeries {
	series.Rule.ByWeekday = slices.Clone(series.Rule.ByWeekday)
	if series.Rule.EndDate != nil {
		endDate := *series.Rule.EndDate
		series.Rule.EndDate = &endDate
	}
	return series
}

func (store *FinanceStore) CreateSeries(_ context.Context, series models.FinanceSeries) (models.FinanceSeries, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if series.ID == "" {
		series.ID = uuid.New().String()
	}
	now := time.Now()
	series.CreatedAt = now
	series.UpdatedAt = now
	series.Rule.Anchor = recurrence.DateOf(series.Rule.Anchor)
	series = cloneSeries(series)
	store.series[series.ID] = storedSeries{position: store.next(), series: series}
	return cloneSeries(series), nil
}

func (store *FinanceStore) FindSeries(_ context.Context, id string) (models.FinanceSeries, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	stored, found := store.series[id]
	if !found {
		return models.FinanceSeries{}, notFound("finance series", id)
	}
	return cloneSeries(stored.series), nil
}

func (store *FinanceStore) FindSeriesByHousehold(_ context.Context, householdID string) ([]models.FinanceSeries, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	var matches []storedSeries
	for _, stored := range store.series {
		if stored.series.HouseholdID == householdID {
			matches = append(matches, stored)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].position < matches[j].position })

	series := make([]models.FinanceSeries, len(matches))
	for i, stored := range matches {
		series[i] = cloneSeries(stored.series)
	}
	return series, nil
}

func (store *FinanceStore) UpdateSeries(_ context.Context, series models.FinanceSeries) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, found := store.series[series.ID]
	if !found {
		return nil
	}
	series.HouseholdID = stored.series.HouseholdID
	series.CreatedAt = stored.series.CreatedAt
	series.UpdatedAt = time.Now()
	stored.series = cloneSeries(series)
	store.series[series.ID] = stored
	return nil
}

// DeleteSeries drops the series together with its exceptions.
func (store *FinanceStore) DeleteSeries(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.series, id)
	for key := range store.exceptions {
		if key.SeriesID == id {
			delete(store.exceptions, key)
		}
	}
	return nil
}

func (store *FinanceStore) UpsertException(_ context.Context, exception models.FinanceException) (models.FinanceException, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, found := store.series[exception.SeriesID]; !found {
		return models.FinanceException{}, notFound("finance series", exception.SeriesID)
	}
	exception.Date = recurrence.DateOf(exception.Date)
	exception.UpdatedAt = time.Now()
	store.exceptions[occurrence.KeyOf(exception.SeriesID, exception.Date)] = exception
	return exception, nil
}

func (store *FinanceStore) DeleteException(_ context.Context, seriesID string, date time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.exceptions, occurrence.KeyOf(seriesID, date))
	return nil
}

func (store *FinanceStore) FindExceptions(_ context.Context, householdID string) ([]models.FinanceException, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	var exceptions []models.FinanceException
	for key, exception := range store.exceptions {
		if stored, found := store.series[key.SeriesID]; found && stored.series.HouseholdID == householdID {
			exceptions = append(exceptions, exception)
		}
	}
	sort.Slice(exceptions, func(i, j int) bool {
		if exceptions[i].SeriesID != exceptions[j].SeriesID {
			return exceptions[i].SeriesID < exceptions[j].SeriesID
		}
		return exceptions[i].Date.Before(exceptions[j].Date)
	})
	return exceptions, nil
}

func (store *FinanceStore) StartingBalance(_ context.Context, householdID string) (int64, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return store.balances[householdID], nil
}

func (store *FinanceStore) SetStartingBalance(_ context.Context, householdID string, cents int64) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.balances[householdID] = cents
	return nil
}

var _ repository.FinanceStore = (*FinanceStore)(nil)
