package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bensuskins/household-hub/internal/events"
	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/repository"
	"github.com/samber/mo"
)

type ShoppingItemInput struct {
	Name     string
	Quantity string
	Note     string
}

// ShoppingPatch changes only the present fields. Purchased toggles the
// purchase stamp; an empty Quantity or Note clears it.
type ShoppingPatch struct {
	Name      mo.Option[string] `json:"name"`
	Quantity  mo.Option[string] `json:"quantity"`
	Note      mo.Option[string] `json:"note"`
	Purchased mo.Option[bool]   `json:"isPurchased"`
}

// ShoppingService manages the shared shopping list. Callers are members of
// the household; the router enforces that before any call.
type ShoppingService struct {
	items     repository.ShoppingRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewShoppingService(items repository.ShoppingRepository, publisher events.Publisher) *ShoppingService {
	return &ShoppingService{items: items, publisher: publisher, now: time.Now}
}

func checkShoppingFields(name, quantity, note string) error {
	if err := checkLength("name", name, 1, 200); err != nil {
		return err
	}
	if err := checkLength("quantity", quantity, 0, 100); err != nil {
		return err
	}
	return checkLength("note", note, 0, 500)
}

func (service *ShoppingService) List(ctx context.Context, householdID string, includePurchased bool) ([]models.ShoppingItem, error) {
	items, err := service.items.FindByHousehold(ctx, householdID, includePurchased)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.ShoppingItem{}
	}
	return items, nil
}

func (service *ShoppingService) Create(ctx context.Context, householdID string, userID string, input ShoppingItemInput) (models.ShoppingItem, error) {
	item := models.ShoppingItem{
		HouseholdID:     householdID,
		Name:            trimmed(input.Name),
		Quantity:        trimmed(input.Quantity),
		Note:            trimmed(input.Note),
		CreatedByUserID: userID,
	}
	if err := checkShoppingFields(item.Name, item.Quantity, item.Note); err != nil {
		return models.ShoppingItem{}, err
	}

	item, err := service.items.Create(ctx, item)
	if err != nil {
		return models.ShoppingItem{}, fmt.Errorf("creating shopping item: %w", err)
	}
	publish(ctx, service.publisher, events.New(events.ShoppingItemCreated, householdID, item.ID))
	return item, nil
}

// Find returns the item if it belongs to householdID.
func (service *ShoppingService) Find(ctx context.Context, householdID string, itemID string) (models.ShoppingItem, error) {
	item, err := service.items.FindByID(ctx, itemID)
	if err != nil {
		return models.ShoppingItem{}, notFound("shopping item", err)
	}
	if item.HouseholdID != householdID {
		return models.ShoppingItem{}, fmt.Errorf("shopping item: %w", ErrNotFound)
	}
	return item, nil
}

// Update applies patch. Marking an item purchased stamps the time and
// userID; unmarking clears both.
func (service *ShoppingService) Update(ctx context.Context, householdID string, userID string, itemID string, patch ShoppingPatch) (models.ShoppingItem, error) {
	item, err := service.Find(ctx, householdID, itemID)
	if err != nil {
		return models.ShoppingItem{}, err
	}

	item.Name = trimmed(patch.Name.OrElse(item.Name))
	item.Quantity = trimmed(patch.Quantity.OrElse(item.Quantity))
	item.Note = trimmed(patch.Note.OrElse(item.Note))
	if err := checkShoppingFields(item.Name, item.Quantity, item.Note); err != nil {
		return models.ShoppingItem{}, err
	}

	if purchased, ok := patch.Purchased.Get(); ok {
		item.IsPurchased = purchased
		item.PurchasedAt = nil
		item.PurchasedByID = nil
		if purchased {
			at := service.now().UTC()
			item.PurchasedAt = &at
			item.PurchasedByID = &userID
		}
	}

	if err := service.items.Update(ctx, item); err != nil {
		return models.ShoppingItem{}, fmt.Errorf("updating shopping item: %w", err)
	}
	publish(ctx, service.publisher, events.New(events.ShoppingItemUpdated, householdID, item.ID).
		With("purchased", strconv.FormatBool(item.IsPurchased)))
	return item, nil
}

func (service *ShoppingService) Delete(ctx context.Context, householdID string, itemID string) error {
	if _, err := service.Find(ctx, householdID, itemID); err != nil {
		return err
	}
	if err := service.items.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("deleting shopping item: %w", err)
	}
	publish(ctx, service.publisher, events.New(events.ShoppingItemDeleted, householdID, itemID))
	return nil
}
