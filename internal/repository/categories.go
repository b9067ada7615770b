package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bensuskins/household-hub/internal/models"
	"github.com/google/uuid"
)

type CategoryRepository interface {
	FindByID(ctx context.Context, id string) (models.Category, error)
	FindByHousehold(ctx context.Context, householdID string) ([]models.Category, error)
	Create(ctx context.Context, category models.Category) (models.Category, error)
	Rename(ctx context.Context, id string, name string, color string) error
	Delete(ctx context.Context, id string) error
}

type SQLiteCategoryRepository struct {
	database *sql.DB
}

func NewCategoryRepository(database *sql.DB) *SQLiteCategoryRepository {
	return &SQLiteCategoryRepository{database: database}
}

const categoryColumns = "id, household_id, name, color, created_by_user_id, created_at"

func (repository *SQLiteCategoryRepository) FindByID(ctx context.Context, id string) (models.Category, error) {
	var category models.Category
	err := repository.database.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE id = ?", id,
	).Scan(&category.ID, &category.HouseholdID, &category.Name, &category.Color, &category.CreatedByUserID, &category.CreatedAt)
	if err != nil {
		return models.Category{}, fmt.Errorf("finding category by id: %w", err)
	}
	return category, nil
}

func (repository *SQLiteCategoryRepository) FindByHousehold(ctx context.Context, householdID string) ([]models.Category, error) {
	rows, err := repository.database.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE household_id = ? ORDER BY name", householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding categories by household: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.HouseholdID, &category.Name, &category.Color, &category.CreatedByUserID, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (repository *SQLiteCategoryRepository) Create(ctx context.Context, category models.Category) (models.Category, error) {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	category.CreatedAt = time.Now()

	_, err := repository.database.ExecContext(ctx,
		"INSERT INTO categories ("+categoryColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		category.ID, category.HouseholdID, category.Name, category.Color, category.CreatedByUserID, category.CreatedAt,
	)
	if err != nil {
		return models.Category{}, fmt.Errorf("creating category: %w", err)
	}
	return category, nil
}

func (repository *SQLiteCategoryRepository) Rename(ctx context.Context, id string, name string, color string) error {
	_, err := repository.database.ExecContext(ctx,
		"UPDATE categories SET name = ?, color = ? WHERE id = ?", name, color, id,
	)
	if err != nil {
		return fmt.Errorf("renaming category: %w", err)
	}
	return nil
}

// Delete leaves tasks and finance rows in place with their category cleared.
func (repository *SQLiteCategoryRepository) Delete(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	return nil
}
