package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bensuskins/household-hub/internal/events"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/samber/mo"
)

func TestShoppingService_Create_TrimsAndPublishes(t *testing.T) {
	f := newFixture(t)

	item, err := f.shopping.Create(context.Background(), f.household.ID, f.user.ID, services.ShoppingItemInput{
		Name:     "  Milk ",
		Quantity: " 2 l",
	})
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	if item.Name != "Milk" || item.Quantity != "2 l" {
		t.Errorf("expected trimmed fields, got %q / %q", item.Name, item.Quantity)
	}
	if item.IsPurchased || item.PurchasedAt != nil {
		t.Errorf("expected new item to be open, got %+v", item)
	}
	if types := f.recorder.Types(); len(types) != 1 || types[0] != events.ShoppingItemCreated {
		t.Errorf("expected one shopping.created event, got %v", types)
	}
}

func TestShoppingService_Create_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input services.ShoppingItemInput
		field string
	}{
		{"blank name", services.ShoppingItemInput{Name: "   "}, "name"},
		{"long name", services.ShoppingItemInput{Name: strings.Repeat("a", 201)}, "name"},
		{"long quantity", services.ShoppingItemInput{Name: "Rice", Quantity: strings.Repeat("9", 101)}, "quantity"},
		{"long note", services.ShoppingItemInput{Name: "Rice", Note: strings.Repeat("n", 501)}, "note"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := f.shopping.Create(ctx, f.household.ID, f.user.ID, test.input)
			var validation *services.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if validation.Field != test.field {
				t.Errorf("expected field %q, got %q", test.field, validation.Field)
			}
		})
	}
}

func TestShoppingService_Update_PurchaseStamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fixed := at(2024, time.March, 9, 10)
	services.SetShoppingClock(f.shopping, func() time.Time { return fixed })

	item, err := f.shopping.Create(ctx, f.household.ID, f.user.ID, services.ShoppingItemInput{Name: "Eggs", Note: "free range"})
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}

	bought, err := f.shopping.Update(ctx, f.household.ID, f.user.ID, item.ID, services.ShoppingPatch{Purchased: mo.Some(true)})
	if err != nil {
		t.Fatalf("marking purchased: %v", err)
	}
	if !bought.IsPurchased || bought.PurchasedAt == nil || !bought.PurchasedAt.Equal(fixed) {
		t.Errorf("expected purchase stamped at %v, got %+v", fixed, bought)
	}
	if bought.PurchasedByID == nil || *bought.PurchasedByID != f.user.ID {
		t.Errorf("expected purchaser %s, got %v", f.user.ID, bought.PurchasedByID)
	}
	if bought.Name != "Eggs" || bought.Note != "free range" {
		t.Errorf("expected untouched fields kept, got %+v", bought)
	}

	reopened, err := f.shopping.Update(ctx, f.household.ID, f.user.ID, item.ID, services.ShoppingPatch{
		Purchased: mo.Some(false),
		Note:      mo.Some(""),
	})
	if err != nil {
		t.Fatalf("unmarking: %v", err)
	}
	if reopened.IsPurchased || reopened.PurchasedAt != nil || reopened.PurchasedByID != nil {
		t.Errorf("expected purchase stamp cleared, got %+v", reopened)
	}
	if reopened.Note != "" {
		t.Errorf("expected note cleared, got %q", reopened.Note)
	}

	stored, err := f.shopping.Find(ctx, f.household.ID, item.ID)
	if err != nil {
		t.Fatalf("finding item: %v", err)
	}
	if stored.IsPurchased || stored.PurchasedAt != nil {
		t.Errorf("expected stored item reopened, got %+v", stored)
	}

	published := f.recorder.Events()
	if len(published) != 3 || published[1].Type != events.ShoppingItemUpdated || published[1].Attributes["purchased"] != "true" {
		t.Errorf("unexpected events: %+v", published)
	}
}

func TestShoppingService_Update_RejectsBlankName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.shopping.Create(ctx, f.household.ID, f.user.ID, services.ShoppingItemInput{Name: "Bread"})
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	_, err = f.shopping.Update(ctx, f.household.ID, f.user.ID, item.ID, services.ShoppingPatch{Name: mo.Some(" ")})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestShoppingService_ForeignHousehold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.shopping.Create(ctx, f.household.ID, f.user.ID, services.ShoppingItemInput{Name: "Soap"})
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	if _, err := f.shopping.Update(ctx, "other-household", f.user.ID, item.ID, services.ShoppingPatch{Purchased: mo.Some(true)}); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}
	if err := f.shopping.Delete(ctx, "other-household", item.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("expected ErrNotFound on delete, got %v", err)
	}
	if _, err := f.shopping.Find(ctx, f.household.ID, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestShoppingService_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	milk, _ := f.shopping.Create(ctx, f.household.ID, f.user.ID, services.ShoppingItemInput{Name: "Milk"})
	tea, _ := f.shopping.Create(ctx, f.household.ID, f.user.ID, services.ShoppingItemInput{Name: "Tea"})
	if _, err := f.shopping.Update(ctx, f.household.ID, f.user.ID, milk.ID, services.ShoppingPatch{Purchased: mo.Some(true)}); err != nil {
		t.Fatalf("marking purchased: %v", err)
	}

	open, err := f.shopping.List(ctx, f.household.ID, false)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(open) != 1 || open[0].ID != tea.ID {
		t.Errorf("expected only Tea open, got %+v", open)
	}

	all, err := f.shopping.List(ctx, f.household.ID, true)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(all) != 2 || all[0].ID != tea.ID || all[1].ID != milk.ID {
		t.Errorf("expected open item before purchased one, got %+v", all)
	}

	if err := f.shopping.Delete(ctx, f.household.ID, tea.ID); err != nil {
		t.Fatalf("deleting: %v", err)
	}
	if types := f.recorder.Types(); types[len(types)-1] != events.ShoppingItemDeleted {
		t.Errorf("expected shopping.deleted last, got %v", types)
	}
	empty, err := f.shopping.List(ctx, "other-household", true)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}
