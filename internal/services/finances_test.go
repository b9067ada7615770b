package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bensuskins/household-hub/internal/events"
	"github.com/bensuskins/household-hub/internal/ledger"
	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/samber/mo"
)

func monthlySeries(title string, anchor time.Time, kind ledger.Kind, cents int64) services.SeriesInput {
	return services.SeriesInput{
		Rule:  recurrence.Rule{Frequency: recurrence.FrequencyMonthly, Interval: 1, Anchor: anchor},
		Entry: ledger.Entry{Title: title, Kind: kind, AmountCents: cents},
	}
}

func expense(day time.Time, title string, cents int64) services.EntryInput {
	return services.EntryInput{Date: day, Entry: ledger.Entry{Title: title, Kind: ledger.KindExpense, AmountCents: cents}}
}

func TestFinanceService_CreateEntry_Defaults(t *testing.T) {
	f := newFixture(t)

	entry, err := f.finances.CreateEntry(context.Background(), f.household.ID, services.EntryInput{
		Date:  at(2024, time.March, 5, 14),
		Entry: ledger.Entry{Kind: "income", AmountCents: 500},
	})
	if err != nil {
		t.Fatalf("creating entry: %v", err)
	}
	if entry.Title != "Einnahme" {
		t.Errorf("expected default title, got %q", entry.Title)
	}
	if entry.Kind != ledger.KindIncome {
		t.Errorf("expected INCOME, got %s", entry.Kind)
	}
	if !entry.Date.Equal(date(2024, time.March, 5)) {
		t.Errorf("expected date truncated to midnight, got %v", entry.Date)
	}
}

func TestFinanceService_CreateEntry_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input services.EntryInput
		field string
	}{
		{"zero amount", expense(date(2024, time.March, 5), "Coffee", 0), "amountCents"},
		{"unknown kind", services.EntryInput{Date: date(2024, time.March, 5), Entry: ledger.Entry{Kind: "TRANSFER", AmountCents: 1}}, "kind"},
		{"missing date", services.EntryInput{Entry: ledger.Entry{Kind: ledger.KindExpense, AmountCents: 1}}, "date"},
		{"long note", services.EntryInput{Date: date(2024, time.March, 5), Entry: ledger.Entry{Kind: ledger.KindExpense, AmountCents: 1, Note: string(make([]byte, 501))}}, "note"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := f.finances.CreateEntry(ctx, f.household.ID, test.input)
			var validation *services.ValidationError
			if !errors.As(err, &validation) || validation.Field != test.field {
				t.Fatalf("expected validation error on %q, got %v", test.field, err)
			}
		})
	}
}

func TestFinanceService_CreateSeries_RequiresRecurrence(t *testing.T) {
	f := newFixture(t)
	input := monthlySeries("Rent", date(2024, time.January, 3), ledger.KindExpense, 3000)
	input.Rule.Frequency = recurrence.FrequencyNone

	_, err := f.finances.CreateSeries(context.Background(), f.household.ID, input)
	if !errors.Is(err, services.ErrNotASeries) {
		t.Fatalf("expected ErrNotASeries, got %v", err)
	}
}

func TestFinanceService_SetException_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rent, err := f.finances.CreateSeries(ctx, f.household.ID, monthlySeries("Rent", date(2024, time.January, 3), ledger.KindExpense, 3000))
	if err != nil {
		t.Fatalf("creating series: %v", err)
	}

	tests := []struct {
		name  string
		date  time.Time
		input services.ExceptionInput
	}{
		{"not an occurrence", date(2024, time.March, 4), services.ExceptionInput{Kind: occurrence.ExceptionSkip}},
		{"before anchor", date(2023, time.December, 3), services.ExceptionInput{Kind: occurrence.ExceptionSkip}},
		{"empty override", date(2024, time.March, 3), services.ExceptionInput{Kind: occurrence.ExceptionOverride}},
		{"negative amount", date(2024, time.March, 3), services.ExceptionInput{Kind: occurrence.ExceptionOverride, Patch: ledger.Patch{AmountCents: mo.Some[int64](-1)}}},
		{"blank title", date(2024, time.March, 3), services.ExceptionInput{Kind: occurrence.ExceptionOverride, Patch: ledger.Patch{Title: mo.Some(" ")}}},
		{"unknown kind", date(2024, time.March, 3), services.ExceptionInput{Kind: "MOVE"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := f.finances.SetException(ctx, f.household.ID, rent.ID, test.date, test.input)
			if !errors.Is(err, services.ErrInvalidException) {
				t.Fatalf("expected ErrInvalidException, got %v", err)
			}
		})
	}

	if _, err := f.finances.SetException(ctx, f.household.ID, "missing", date(2024, time.March, 3), services.ExceptionInput{Kind: occurrence.ExceptionSkip}); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown series, got %v", err)
	}
}

func TestFinanceService_MonthView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hh := f.household.ID

	if err := f.finances.SetStartingBalance(ctx, hh, 10000); err != nil {
		t.Fatalf("setting balance: %v", err)
	}
	salary, err := f.finances.CreateSeries(ctx, hh, monthlySeries("Salary", date(2024, time.January, 1), ledger.KindIncome, 5000))
	if err != nil {
		t.Fatalf("creating salary: %v", err)
	}
	rent, err := f.finances.CreateSeries(ctx, hh, monthlySeries("Rent", date(2024, time.January, 3), ledger.KindExpense, 3000))
	if err != nil {
		t.Fatalf("creating rent: %v", err)
	}
	if _, err := f.finances.SetException(ctx, hh, salary.ID, date(2024, time.February, 1), services.ExceptionInput{Kind: occurrence.ExceptionSkip}); err != nil {
		t.Fatalf("skipping salary: %v", err)
	}
	if _, err := f.finances.SetException(ctx, hh, rent.ID, date(2024, time.March, 3), services.ExceptionInput{
		Kind:  occurrence.ExceptionOverride,
		Patch: ledger.Patch{AmountCents: mo.Some[int64](3500)},
	}); err != nil {
		t.Fatalf("overriding rent: %v", err)
	}
	for _, input := range []services.EntryInput{
		expense(date(2024, time.February, 15), "Groceries", 2000),
		{Date: date(2024, time.March, 10), Entry: ledger.Entry{Title: "Refund", Kind: ledger.KindIncome, AmountCents: 1000}},
		{Date: date(2024, time.April, 1), Entry: ledger.Entry{Title: "Later", Kind: ledger.KindIncome, AmountCents: 999}},
	} {
		if _, err := f.finances.CreateEntry(ctx, hh, input); err != nil {
			t.Fatalf("creating entry: %v", err)
		}
	}

	view, err := f.finances.MonthView(ctx, hh, 2024, 3)
	if err != nil {
		t.Fatalf("building view: %v", err)
	}

	want := ledger.Totals{Start: 7000, Income: 6000, Expense: 3500, Net: 2500, End: 9500}
	if view.Totals != want {
		t.Errorf("expected totals %+v, got %+v", want, view.Totals)
	}
	if len(view.Items) != 4 {
		t.Fatalf("expected carry plus 3 items, got %d", len(view.Items))
	}
	if view.Items[0].ID != ledger.CarryID {
		t.Errorf("expected carry first, got %s", view.Items[0].ID)
	}
	if !view.Items[2].IsException || view.Items[2].Payload.AmountCents != 3500 {
		t.Errorf("expected overridden rent, got %+v", view.Items[2])
	}
	if len(view.Daily) != 31 {
		t.Errorf("expected 31 daily balances, got %d", len(view.Daily))
	}
}

func TestFinanceService_MonthView_RejectsMonth(t *testing.T) {
	f := newFixture(t)
	_, err := f.finances.MonthView(context.Background(), f.household.ID, 2024, 13)
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFinanceService_MutationsInvalidateViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hh := f.household.ID

	if _, err := f.finances.MonthView(ctx, hh, 2024, 3); err != nil {
		t.Fatalf("building view: %v", err)
	}
	if f.views.Len() != 1 {
		t.Fatalf("expected cached view, got %d entries", f.views.Len())
	}

	if _, err := f.finances.CreateEntry(ctx, hh, expense(date(2024, time.March, 2), "Coffee", 300)); err != nil {
		t.Fatalf("creating entry: %v", err)
	}
	if f.views.Len() != 0 {
		t.Errorf("expected cache cleared, got %d entries", f.views.Len())
	}

	view, err := f.finances.MonthView(ctx, hh, 2024, 3)
	if err != nil {
		t.Fatalf("building view: %v", err)
	}
	if view.Totals.Expense != 300 {
		t.Errorf("expected fresh view with expense 300, got %d", view.Totals.Expense)
	}
}

func TestFinanceService_DeleteSeries_DropsExceptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hh := f.household.ID

	rent, err := f.finances.CreateSeries(ctx, hh, monthlySeries("Rent", date(2024, time.January, 3), ledger.KindExpense, 3000))
	if err != nil {
		t.Fatalf("creating series: %v", err)
	}
	if _, err := f.finances.SetException(ctx, hh, rent.ID, date(2024, time.March, 3), services.ExceptionInput{Kind: occurrence.ExceptionSkip}); err != nil {
		t.Fatalf("setting exception: %v", err)
	}
	if err := f.finances.DeleteSeries(ctx, hh, rent.ID); err != nil {
		t.Fatalf("deleting series: %v", err)
	}

	view, err := f.finances.MonthView(ctx, hh, 2024, 3)
	if err != nil {
		t.Fatalf("building view: %v", err)
	}
	if len(view.Items) != 1 {
		t.Errorf("expected only the carry row, got %d items", len(view.Items))
	}
	if err := f.finances.DeleteSeries(ctx, hh, rent.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	types := f.recorder.Types()
	if types[len(types)-1] != events.SeriesDeleted {
		t.Errorf("expected series.deleted last, got %v", types)
	}
}

func TestFinanceService_ClearException(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hh := f.household.ID

	salary, err := f.finances.CreateSeries(ctx, hh, monthlySeries("Salary", date(2024, time.January, 1), ledger.KindIncome, 5000))
	if err != nil {
		t.Fatalf("creating series: %v", err)
	}
	if _, err := f.finances.SetException(ctx, hh, salary.ID, date(2024, time.March, 1), services.ExceptionInput{Kind: occurrence.ExceptionSkip}); err != nil {
		t.Fatalf("setting exception: %v", err)
	}
	if err := f.finances.ClearException(ctx, hh, salary.ID, date(2024, time.March, 1)); err != nil {
		t.Fatalf("clearing exception: %v", err)
	}

	view, err := f.finances.MonthView(ctx, hh, 2024, 3)
	if err != nil {
		t.Fatalf("building view: %v", err)
	}
	if view.Totals.Income != 5000 {
		t.Errorf("expected restored salary, got income %d", view.Totals.Income)
	}
}

func TestFinanceService_ForeignEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.finances.CreateEntry(ctx, f.household.ID, expense(date(2024, time.March, 2), "Coffee", 300))
	if err != nil {
		t.Fatalf("creating entry: %v", err)
	}
	if err := f.finances.DeleteEntry(ctx, "other-household", entry.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
