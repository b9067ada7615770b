package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bensuskins/household-hub/internal/models"
	"github.com/google/uuid"
)

type ShoppingRepository interface {
	FindByID(ctx context.Context, id string) (models.ShoppingItem, error)
	FindByHousehold(ctx context.Context, householdID string, includePurchased bool) ([]models.ShoppingItem, error)
	Create(ctx context.Context, item models.ShoppingItem) (models.ShoppingItem, error)
	Update(ctx context.Context, item models.ShoppingItem) error
	Delete(ctx context.Context, id string) error
}

type SQLiteShoppingRepository struct {
	database *sql.DB
}

func NewShoppingRepository(database *sql.DB) *SQLiteShoppingRepository {
	return &SQLiteShoppingRepository{database: database}
}

const shoppingColumns = `id, household_id, name, quantity, note,
	is_purchased, purchased_at, purchased_by_id,
	created_by_user_id, created_at, updated_at`

func scanShoppingItem(scanner taskScanner) (models.ShoppingItem, error) {
	var item models.ShoppingItem
	var purchasedAt sql.NullTime
	var purchasedByID sql.NullString
	err := scanner.Scan(
		&item.ID, &item.HouseholdID, &item.Name, &item.Quantity, &item.Note,
		&item.IsPurchased, &purchasedAt, &purchasedByID,
		&item.CreatedByUserID, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return models.ShoppingItem{}, err
	}
	if purchasedAt.Valid {
		at := purchasedAt.Time.UTC()
		item.PurchasedAt = &at
	}
	item.PurchasedByID = stringPointer(purchasedByID)
	return item, nil
}

func (repository *SQLiteShoppingRepository) FindByID(ctx context.Context, id string) (models.ShoppingItem, error) {
	row := repository.database.QueryRowContext(ctx, "SELECT "+shoppingColumns+" FROM shopping_items WHERE id = ?", id)
	item, err := scanShoppingItem(row)
	if err != nil {
		return models.ShoppingItem{}, fmt.Errorf("finding shopping item by id: %w", err)
	}
	return item, nil
}

// FindByHousehold lists open items first, newest first within each group.
func (repository *SQLiteShoppingRepository) FindByHousehold(ctx context.Context, householdID string, includePurchased bool) ([]models.ShoppingItem, error) {
	query := "SELECT " + shoppingColumns + " FROM shopping_items WHERE household_id = ?"
	if !includePurchased {
		query += " AND is_purchased = 0"
	}
	query += " ORDER BY is_purchased, created_at DESC, id"

	rows, err := repository.database.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, fmt.Errorf("finding shopping items: %w", err)
	}
	defer rows.Close()

	var items []models.ShoppingItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning shopping item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (repository *SQLiteShoppingRepository) Create(ctx context.Context, item models.ShoppingItem) (models.ShoppingItem, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO shopping_items (`+shoppingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.HouseholdID, item.Name, item.Quantity, item.Note,
		item.IsPurchased, item.PurchasedAt, nullableStringPointer(item.PurchasedByID),
		item.CreatedByUserID, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return models.ShoppingItem{}, fmt.Errorf("creating shopping item: %w", err)
	}
	return item, nil
}

func (repository *SQLiteShoppingRepository) Update(ctx context.Context, item models.ShoppingItem) error {
	_, err := repository.database.ExecContext(ctx,
		`UPDATE shopping_items SET name = ?, quantity = ?, note = ?,
			is_purchased = ?, purchased_at = ?, purchased_by_id = ?, updated_at = ?
		WHERE id = ?`,
		item.Name, item.Quantity, item.Note,
		item.IsPurchased, item.PurchasedAt, nullableStringPointer(item.PurchasedByID), time.Now(),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating shopping item: %w", err)
	}
	return nil
}

func (repository *SQLiteShoppingRepository) Delete(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx, "DELETE FROM shopping_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting shopping item: %w", err)
	}
	return nil
}
