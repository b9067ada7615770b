package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/google/uuid"
)

const startingBalanceKey = "finance.starting_balance_cents"

// FinanceStore is the storage port behind the finance ledger. Missing rows
// are reported as errors wrapping sql.ErrNoRows by every implementation.
type FinanceStore interface {
	CreateEntry(ctx context.Context, entry models.FinanceEntry) (models.FinanceEntry, error)
	FindEntry(ctx context.Context, id string) (models.FinanceEntry, error)
	FindEntries(ctx context.Context, householdID string, until time.Time) ([]models.FinanceEntry, error)
	UpdateEntry(ctx context.Context, entry models.FinanceEntry) error
	DeleteEntry(ctx context.Context, id string) error

	CreateSeries(ctx context.Context, series models.FinanceSeries) (models.FinanceSeries, error)
	FindSeries(ctx context.Context, id string) (models.FinanceSeries, error)
	FindSeriesByHousehold(ctx context.Context, householdID string) ([]models.FinanceSeries, error)
	UpdateSeries(ctx context.Context, series models.FinanceSeries) error
	DeleteSeries(ctx context.Context, id string) error

	UpsertException(ctx context.Context, exception models.FinanceException) (models.FinanceException, error)
	DeleteException(ctx context.Context, seriesID string, date time.Time) error
	FindExceptions(ctx context.Context, householdID string) ([]models.FinanceException, error)

	StartingBalance(ctx context.Context, householdID string) (int64, error)
	SetStartingBalance(ctx context.Context, householdID string, cents int64) error
}

type SQLiteFinanceStore struct {
	database *sql.DB
	settings SettingsRepository
}

func NewFinanceStore(database *sql.DB) *SQLiteFinanceStore {
	return &SQLiteFinanceStore{database: database, settings: NewSettingsRepository(database)}
}

const entryColumns = "id, household_id, entry_date, title, note, kind, amount_cents, category_id, created_at, updated_at"

func scanEntry(scanner taskScanner) (models.FinanceEntry, error) {
	var entry models.FinanceEntry
	var date string
	var categoryID sql.NullString
	err := scanner.Scan(&entry.ID, &entry.HouseholdID, &date, &entry.Title, &entry.Note, &entry.Kind,
		&entry.AmountCents, &categoryID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return models.FinanceEntry{}, err
	}
	if entry.Date, err = recurrence.ParseDate(date); err != nil {
		return models.FinanceEntry{}, err
	}
	entry.CategoryID = categoryID.String
	return entry, nil
}

func (store *SQLiteFinanceStore) CreateEntry(ctx context.Context, entry models.FinanceEntry) (models.FinanceEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	entry.Date = recurrence.DateOf(entry.Date)

	_, err := store.database.ExecContext(ctx,
		"INSERT INTO finance_entries ("+entryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		entry.ID, entry.HouseholdID, recurrence.FormatDate(entry.Date), entry.Title, entry.Note, entry.Kind,
		entry.AmountCents, nullableString(entry.CategoryID), entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return models.FinanceEntry{}, fmt.Errorf("creating finance entry: %w", err)
	}
	return entry, nil
}

func (store *SQLiteFinanceStore) FindEntry(ctx context.Context, id string) (models.FinanceEntry, error) {
	row := store.database.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM finance_entries WHERE id = ?", id)
	entry, err := scanEntry(row)
	if err != nil {
		return models.FinanceEntry{}, fmt.Errorf("finding finance entry: %w", err)
	}
	return entry, nil
}

// FindEntries returns every entry of the household dated on or before until.
func (store *SQLiteFinanceStore) FindEntries(ctx context.Context, householdID string, until time.Time) ([]models.FinanceEntry, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM finance_entries WHERE household_id = ? AND entry_date <= ? ORDER BY entry_date, created_at",
		householdID, recurrence.FormatDate(until),
	)
	if err != nil {
		return nil, fmt.Errorf("finding finance entries: %w", err)
	}
	defer rows.Close()

	var entries []models.FinanceEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning finance entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (store *SQLiteFinanceStore) UpdateEntry(ctx context.Context, entry models.FinanceEntry) error {
	_, err := store.database.ExecContext(ctx,
		`UPDATE finance_entries SET entry_date = ?, title = ?, note = ?, kind = ?, amount_cents = ?,
			category_id = ?, updated_at = ?
		WHERE id = ?`,
		recurrence.FormatDate(entry.Date), entry.Title, entry.Note, entry.Kind, entry.AmountCents,
		nullableString(entry.CategoryID), time.Now(), entry.ID,
	)
	if err != nil {
		return fmt.Errorf("updating finance entry: %w", err)
	}
	return nil
}

func (store *SQLiteFinanceStore) DeleteEntry(ctx context.Context, id string) error {
	_, err := store.database.ExecContext(ctx, "DELETE FROM finance_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting finance entry: %w", err)
	}
	return nil
}

const seriesColumns = `id, household_id, title, note, kind, amount_cents, category_id,
	frequency, recurrence_interval, anchor_date, end_date, by_weekday, by_month_day, by_month,
	created_at, updated_at`

func scanSeries(scanner taskScanner) (models.FinanceSeries, error) {
	var series models.FinanceSeries
	var anchor string
	var categoryID sql.NullString
	var columns ruleColumns
	err := scanner.Scan(
		&series.ID, &series.HouseholdID, &series.Title, &series.Note, &series.Kind, &series.AmountCents, &categoryID,
		&columns.frequency, &columns.interval, &anchor, &columns.endDate, &columns.byWeekday, &columns.byMonthDay, &columns.byMonth,
		&series.CreatedAt, &series.UpdatedAt,
	)
	if err != nil {
		return models.FinanceSeries{}, err
	}

	anchorDate, err := recurrence.ParseDate(anchor)
	if err != nil {
		return models.FinanceSeries{}, err
	}
	if series.Rule, err = columns.decode(anchorDate); err != nil {
		return models.FinanceSeries{}, err
	}
	series.CategoryID = categoryID.String
	return series, nil
}

func (store *SQLiteFinanceStore) CreateSeries(ctx context.Context, series models.FinanceSeries) (models.FinanceSeries, error) {
	if series.ID == "" {
		series.ID = uuid.New().String()
	}
	now := time.Now()
	series.CreatedAt = now
	series.UpdatedAt = now
	series.Rule.Anchor = recurrence.DateOf(series.Rule.Anchor)

	columns, err := encodeRule(series.Rule)
	if err != nil {
		return models.FinanceSeries{}, fmt.Errorf("creating finance series: %w", err)
	}

	_, err = store.database.ExecContext(ctx,
		"INSERT INTO finance_series ("+seriesColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		series.ID, series.HouseholdID, series.Title, series.Note, series.Kind, series.AmountCents, nullableString(series.CategoryID),
		columns.frequency, columns.interval, recurrence.FormatDate(series.Rule.Anchor), columns.endDate,
		columns.byWeekday, columns.byMonthDay, columns.byMonth,
		series.CreatedAt, series.UpdatedAt,
	)
	if err != nil {
		return models.FinanceSeries{}, fmt.Errorf("creating finance series: %w", err)
	}
	return series, nil
}

func (store *SQLiteFinanceStore) FindSeries(ctx context.Context, id string) (models.FinanceSeries, error) {
	row := store.database.QueryRowContext(ctx, "SELECT "+seriesColumns+" FROM finance_series WHERE id = ?", id)
	series, err := scanSeries(row)
	if err != nil {
		return models.FinanceSeries{}, fmt.Errorf("finding finance series: %w", err)
	}
	return series, nil
}

func (store *SQLiteFinanceStore) FindSeriesByHousehold(ctx context.Context, householdID string) ([]models.FinanceSeries, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT "+seriesColumns+" FROM finance_series WHERE household_id = ? ORDER BY created_at, id", householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding finance series by household: %w", err)
	}
	defer rows.Close()

	var series []models.FinanceSeries
	for rows.Next() {
		item, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning finance series: %w", err)
		}
		series = append(series, item)
	}
	return series, rows.Err()
}

func (store *SQLiteFinanceStore) UpdateSeries(ctx context.Context, series models.FinanceSeries) error {
	columns, err := encodeRule(series.Rule)
	if err != nil {
		return fmt.Errorf("updating finance series: %w", err)
	}

	_, err = store.database.ExecContext(ctx,
		`UPDATE finance_series SET title = ?, note = ?, kind = ?, amount_cents = ?, category_id = ?,
			frequency = ?, recurrence_interval = ?, anchor_date = ?, end_date = ?,
			by_weekday = ?, by_month_day = ?, by_month = ?, updated_at = ?
		WHERE id = ?`,
		series.Title, series.Note, series.Kind, series.AmountCents, nullableString(series.CategoryID),
		columns.frequency, columns.interval, recurrence.FormatDate(series.Rule.Anchor), columns.endDate,
		columns.byWeekday, columns.byMonthDay, columns.byMonth, time.Now(),
		series.ID,
	)
	if err != nil {
		return fmt.Errorf("updating finance series: %w", err)
	}
	return nil
}

// DeleteSeries removes the series; its exceptions cascade.
func (store *SQLiteFinanceStore) DeleteSeries(ctx context.Context, id string) error {
	_, err := store.database.ExecContext(ctx, "DELETE FROM finance_series WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting finance series: %w", err)
	}
	return nil
}

// UpsertException replaces any exception stored for the same series date.
func (store *SQLiteFinanceStore) UpsertException(ctx context.Context, exception models.FinanceException) (models.FinanceException, error) {
	exception.Date = recurrence.DateOf(exception.Date)
	exception.UpdatedAt = time.Now()

	patch, err := json.Marshal(exception.Patch)
	if err != nil {
		return models.FinanceException{}, fmt.Errorf("encoding exception patch: %w", err)
	}

	_, err = store.database.ExecContext(ctx,
		`INSERT INTO finance_exceptions (series_id, exception_date, kind, patch, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(series_id, exception_date) DO UPDATE SET
			kind = excluded.kind, patch = excluded.patch, updated_at = excluded.updated_at`,
		exception.SeriesID, recurrence.FormatDate(exception.Date), exception.Kind, string(patch), exception.UpdatedAt,
	)
	if err != nil {
		return models.FinanceException{}, fmt.Errorf("upserting finance exception: %w", err)
	}
	return exception, nil
}

func (store *SQLiteFinanceStore) DeleteException(ctx context.Context, seriesID string, date time.Time) error {
	_, err := store.database.ExecContext(ctx,
		"DELETE FROM finance_exceptions WHERE series_id = ? AND exception_date = ?",
		seriesID, recurrence.FormatDate(date),
	)
	if err != nil {
		return fmt.Errorf("deleting finance exception: %w", err)
	}
	return nil
}

func (store *SQLiteFinanceStore) FindExceptions(ctx context.Context, householdID string) ([]models.FinanceException, error) {
	rows, err := store.database.QueryContext(ctx,
		`SELECT e.series_id, e.exception_date, e.kind, e.patch, e.updated_at
		FROM finance_exceptions e
		JOIN finance_series s ON s.id = e.series_id
		WHERE s.household_id = ?
		ORDER BY e.series_id, e.exception_date`, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding finance exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []models.FinanceException
	for rows.Next() {
		var exception models.FinanceException
		var date, patch string
		if err := rows.Scan(&exception.SeriesID, &date, &exception.Kind, &patch, &exception.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning finance exception: %w", err)
		}
		if exception.Date, err = recurrence.ParseDate(date); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(patch), &exception.Patch); err != nil {
			return nil, fmt.Errorf("decoding exception patch: %w", err)
		}
		exceptions = append(exceptions, exception)
	}
	return exceptions, rows.Err()
}

// StartingBalance is zero until one is set.
func (store *SQLiteFinanceStore) StartingBalance(ctx context.Context, householdID string) (int64, error) {
	value, err := store.settings.Get(ctx, householdID, startingBalanceKey)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	cents, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing starting balance: %w", err)
	}
	return cents, nil
}

func (store *SQLiteFinanceStore) SetStartingBalance(ctx context.Context, householdID string, cents int64) error {
	return store.settings.Set(ctx, householdID, startingBalanceKey, strconv.FormatInt(cents, 10))
}

var _ FinanceStore = (*SQLiteFinanceStore)(nil)
