package repository_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/repository"
)

// seedHousehold creates a user owning a fresh household.
func seedHousehold(t *testing.T, db *sql.DB) (models.User, models.Household) {
	t.Helper()
	ctx := context.Background()

	user, err := repository.NewUserRepository(db).Create(ctx, models.User{Email: "owner@example.com", Name: "Owner"})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	household, err := repository.NewHouseholdRepository(db).Create(ctx, models.Household{Name: "Home", CreatedByUserID: user.ID})
	if err != nil {
		t.Fatalf("creating household: %v", err)
	}
	return user, household
}
