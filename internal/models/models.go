package models

import (
	"time"

	"github.com/bensuskins/household-hub/internal/ledger"
	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/bensuskins/household-hub/internal/recurrence"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Household struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CreatedByUserID string    `json:"createdByUserId"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Membership struct {
	HouseholdID string    `json:"householdId"`
	UserID      string    `json:"userId"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type Category struct {
	ID              string    `json:"id"`
	HouseholdID     string    `json:"householdId"`
	Name            string    `json:"name"`
	Color           string    `json:"color,omitempty"`
	CreatedByUserID string    `json:"createdByUserId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Task is a household to-do. A recurring task is a series; its per-date
// status lives in TaskOccurrenceStatus, never on the task row.
type Task struct {
	ID              string            `json:"id"`
	HouseholdID     string            `json:"householdId"`
	Title           string            `json:"title"`
	Description     string            `json:"description,omitempty"`
	DueAt           time.Time         `json:"dueAt"`
	AllDay          bool              `json:"allDay"`
	AssignedToID    *string           `json:"assignedToId,omitempty"`
	CategoryID      *string           `json:"categoryId,omitempty"`
	Rule            recurrence.Rule   `json:"recurrence"`
	Status          occurrence.Status `json:"status"`
	CreatedByUserID string            `json:"createdByUserId"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func (task Task) IsRecurring() bool {
	return task.Rule.IsRecurring()
}

type TaskOccurrenceStatus struct {
	TaskID       string            `json:"taskId"`
	OccurrenceAt time.Time         `json:"occurrenceAt"`
	Status       occurrence.Status `json:"status"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// FinanceEntry is a one-off booking.
type FinanceEntry struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"householdId"`
	Date        time.Time `json:"date"`
	ledger.Entry
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type FinanceSeries struct {
	ID          string          `json:"id"`
	HouseholdID string          `json:"householdId"`
	Rule        recurrence.Rule `json:"rule"`
	ledger.Entry
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type FinanceException struct {
	SeriesID  string                   `json:"seriesId"`
	Date      time.Time                `json:"date"`
	Kind      occurrence.ExceptionKind `json:"kind"`
	Patch     ledger.Patch             `json:"patch"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

// ShoppingItem is an entry on the household's shared shopping list.
// PurchasedAt and PurchasedByID are set together with IsPurchased.
type ShoppingItem struct {
	ID              string     `json:"id"`
	HouseholdID     string     `json:"householdId"`
	Name            string     `json:"name"`
	Quantity        string     `json:"quantity,omitempty"`
	Note            string     `json:"note,omitempty"`
	IsPurchased     bool       `json:"isPurchased"`
	PurchasedAt     *time.Time `json:"purchasedAt,omitempty"`
	PurchasedByID   *string    `json:"purchasedById,omitempty"`
	CreatedByUserID string     `json:"createdByUserId"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type APIToken struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	TokenHash       string     `json:"-"`
	Scope           string     `json:"scope"`
	CreatedByUserID string     `json:"createdByUserId"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

const (
	ScopeAPI  = "api"
	ScopeICal = "ical"
)
