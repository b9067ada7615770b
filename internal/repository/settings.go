package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// SettingsRepository stores free-form per-household key/value settings.
type SettingsRepository interface {
	Get(ctx context.Context, householdID string, key string) (string, error)
	Set(ctx context.Context, householdID string, key string, value string) error
}

type SQLiteSettingsRepository struct {
	database *sql.DB
}

func NewSettingsRepository(database *sql.DB) *SQLiteSettingsRepository {
	return &SQLiteSettingsRepository{database: database}
}

func (repository *SQLiteSettingsRepository) Get(ctx context.Context, householdID string, key string) (string, error) {
	var value string
	err := repository.database.QueryRowContext(ctx,
		"SELECT value FROM household_settings WHERE household_id = ? AND key = ?", householdID, key,
	).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("getting setting %s: %w", key, err)
	}
	return value, nil
}

func (repository *SQLiteSettingsRepository) Set(ctx context.Context, householdID string, key string, value string) error {
	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO household_settings (household_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(household_id, key) DO UPDATE SET value = excluded.value`,
		householdID, key, value,
	)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}
