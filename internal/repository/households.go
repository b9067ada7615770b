package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bensuskins/household-hub/internal/models"
	"github.com/google/uuid"
)

type HouseholdRepository interface {
	Create(ctx context.Context, household models.Household) (models.Household, error)
	FindByID(ctx context.Context, id string) (models.Household, error)
	FindByUser(ctx context.Context, userID string) ([]models.Household, error)
	FindAll(ctx context.Context) ([]models.Household, error)
	AddMember(ctx context.Context, membership models.Membership) (models.Membership, error)
	FindMembership(ctx context.Context, householdID string, userID string) (models.Membership, error)
	Members(ctx context.Context, householdID string) ([]models.Membership, error)
}

type SQLiteHouseholdRepository struct {
	database *sql.DB
}

func NewHouseholdRepository(database *sql.DB) *SQLiteHouseholdRepository {
	return &SQLiteHouseholdRepository{database: database}
}

// Create stores the household and makes its creator the owner in one
// transaction.
func (repository *SQLiteHouseholdRepository) Create(ctx context.Context, household models.Household) (models.Household, error) {
	if household.ID == "" {
		household.ID = uuid.New().String()
	}
	household.CreatedAt = time.Now()

	transaction, err := repository.database.BeginTx(ctx, nil)
	if err != nil {
		return models.Household{}, fmt.Errorf("beginning household transaction: %w", err)
	}
	defer transaction.Rollback()

	if _, err := transaction.ExecContext(ctx,
		"INSERT INTO households (id, name, created_by_user_id, created_at) VALUES (?, ?, ?, ?)",
		household.ID, household.Name, household.CreatedByUserID, household.CreatedAt,
	); err != nil {
		return models.Household{}, fmt.Errorf("creating household: %w", err)
	}
	if _, err := transaction.ExecContext(ctx,
		"INSERT INTO household_members (household_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)",
		household.ID, household.CreatedByUserID, models.RoleOwner, household.CreatedAt,
	); err != nil {
		return models.Household{}, fmt.Errorf("adding household owner: %w", err)
	}

	if err := transaction.Commit(); err != nil {
		return models.Household{}, fmt.Errorf("committing household: %w", err)
	}
	return household, nil
}

func (repository *SQLiteHouseholdRepository) FindByID(ctx context.Context, id string) (models.Household, error) {
	var household models.Household
	err := repository.database.QueryRowContext(ctx,
		"SELECT id, name, created_by_user_id, created_at FROM households WHERE id = ?", id,
	).Scan(&household.ID, &household.Name, &household.CreatedByUserID, &household.CreatedAt)
	if err != nil {
		return models.Household{}, fmt.Errorf("finding household by id: %w", err)
	}
	return household, nil
}

func (repository *SQLiteHouseholdRepository) FindByUser(ctx context.Context, userID string) ([]models.Household, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT h.id, h.name, h.created_by_user_id, h.created_at
		FROM households h
		JOIN household_members m ON m.household_id = h.id
		WHERE m.user_id = ? ORDER BY h.name`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding households by user: %w", err)
	}
	defer rows.Close()

	return scanHouseholds(rows)
}

func (repository *SQLiteHouseholdRepository) FindAll(ctx context.Context) ([]models.Household, error) {
	rows, err := repository.database.QueryContext(ctx,
		"SELECT id, name, created_by_user_id, created_at FROM households ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("finding all households: %w", err)
	}
	defer rows.Close()

	return scanHouseholds(rows)
}

func scanHouseholds(rows *sql.Rows) ([]models.Household, error) {
	var households []models.Household
	for rows.Next() {
		var household models.Household
		if err := rows.Scan(&household.ID, &household.Name, &household.CreatedByUserID, &household.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning household: %w", err)
		}
		households = append(households, household)
	}
	return households, rows.Err()
}

func (repository *SQLiteHouseholdRepository) AddMember(ctx context.Context, membership models.Membership) (models.Membership, error) {
	if membership.Role == "" {
		membership.Role = models.RoleMember
	}
	membership.JoinedAt = time.Now()

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO household_members (household_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(household_id, user_id) DO UPDATE SET role = excluded.role`,
		membership.HouseholdID, membership.UserID, membership.Role, membership.JoinedAt,
	)
	if err != nil {
		return models.Membership{}, fmt.Errorf("adding household member: %w", err)
	}
	return membership, nil
}

func (repository *SQLiteHouseholdRepository) FindMembership(ctx context.Context, householdID string, userID string) (models.Membership, error) {
	var membership models.Membership
	err := repository.database.QueryRowContext(ctx,
		`SELECT household_id, user_id, role, joined_at FROM household_members
		WHERE household_id = ? AND user_id = ?`, householdID, userID,
	).Scan(&membership.HouseholdID, &membership.UserID, &membership.Role, &membership.JoinedAt)
	if err != nil {
		return models.Membership{}, fmt.Errorf("finding membership: %w", err)
	}
	return membership, nil
}

func (repository *SQLiteHouseholdRepository) Members(ctx context.Context, householdID string) ([]models.Membership, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT household_id, user_id, role, joined_at FROM household_members
		WHERE household_id = ? ORDER BY joined_at`, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("finding household members: %w", err)
	}
	defer rows.Close()

	var memberships []models.Membership
	for rows.Next() {
		var membership models.Membership
		if err := rows.Scan(&membership.HouseholdID, &membership.UserID, &membership.Role, &membership.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		memberships = append(memberships, membership)
	}
	return memberships, rows.Err()
}
