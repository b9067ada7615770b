package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bensuskins/household-hub/internal/events"
	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/repository"
)

type HouseholdService struct {
	households repository.HouseholdRepository
	users      repository.UserRepository
	publisher  events.Publisher
}

func NewHouseholdService(households repository.HouseholdRepository, users repository.UserRepository, publisher events.Publisher) *HouseholdService {
	return &HouseholdService{households: households, users: users, publisher: publisher}
}

func (service *HouseholdService) Create(ctx context.Context, userID string, name string) (models.Household, error) {
	name = trimmed(name)
	if err := checkLength("name", name, 1, 100); err != nil {
		return models.Household{}, err
	}

	household, err := service.households.Create(ctx, models.Household{Name: name, CreatedByUserID: userID})
	if err != nil {
		return models.Household{}, fmt.Errorf("creating household: %w", err)
	}
	publish(ctx, service.publisher, events.New(events.HouseholdCreated, household.ID, household.ID))
	return household, nil
}

func (service *HouseholdService) Find(ctx context.Context, householdID string) (models.Household, error) {
	household, err := service.households.FindByID(ctx, householdID)
	if err != nil {
		return models.Household{}, notFound("household", err)
	}
	return household, nil
}

func (service *HouseholdService) List(ctx context.Context, userID string) ([]models.Household, error) {
	return service.households.FindByUser(ctx, userID)
}

// RequireMember returns the membership of userID or ErrForbidden.
func (service *HouseholdService) RequireMember(ctx context.Context, householdID string, userID string) (models.Membership, error) {
	membership, err := service.households.FindMembership(ctx, householdID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Membership{}, ErrForbidden
	}
	if err != nil {
		return models.Membership{}, fmt.Errorf("checking membership: %w", err)
	}
	return membership, nil
}

// AddMember lets an owner add an existing user, found by email.
func (service *HouseholdService) AddMember(ctx context.Context, actorID string, householdID string, email string, role models.Role) (models.Membership, error) {
	actor, err := service.RequireMember(ctx, householdID, actorID)
	if err != nil {
		return models.Membership{}, err
	}
	if actor.Role != models.RoleOwner {
		return models.Membership{}, ErrForbidden
	}

	switch role {
	case "":
		role = models.RoleMember
	case models.RoleOwner, models.RoleMember:
	default:
		return models.Membership{}, invalid("role", "must be owner or member")
	}

	user, err := service.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Membership{}, invalid("email", "no user with this email")
		}
		return models.Membership{}, fmt.Errorf("finding user: %w", err)
	}

	membership, err := service.households.AddMember(ctx, models.Membership{HouseholdID: householdID, UserID: user.ID, Role: role})
	if err != nil {
		return models.Membership{}, fmt.Errorf("adding member: %w", err)
	}
	publish(ctx, service.publisher, events.New(events.HouseholdMemberAdded, householdID, user.ID))
	return membership, nil
}

func (service *HouseholdService) Members(ctx context.Context, householdID string) ([]models.Membership, error) {
	return service.households.Members(ctx, householdID)
}
