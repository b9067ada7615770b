package ledger

import (
	"time"

	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/bensuskins/household-hub/internal/recurrence"
)

const (
	CarryID    = "__carry__"
	CarryTitle = "Übertrag Vormonat"
	CarryNote  = "Automatisch (nicht gespeichert)"
)

type Totals struct {
	Start   int64 `json:"start"`
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Net     int64 `json:"net"`
	End     int64 `json:"end"`
}

type DayBalance struct {
	Date    time.Time `json:"date"`
	Delta   int64     `json:"delta"`
	Balance int64     `json:"balance"`
}

type View struct {
	Window          recurrence.Window `json:"-"`
	Items           []Item            `json:"items"`
	Totals          Totals            `json:"totals"`
	Daily           []DayBalance      `json:"daily"`
	TruncatedSeries []string          `json:"truncatedSeries,omitempty"`
}

type ViewInput struct {
	StartingBalance int64
	Series          []Series
	Exceptions      Exceptions
	OneOffs         []OneOff
	Window          recurrence.Window
}

type Ledger struct {
	materializer *occurrence.Materializer[Entry, Patch]
}

func New(engine *recurrence.Engine) *Ledger {
	return &Ledger{materializer: occurrence.NewMaterializer(engine, Apply)}
}

func (ledger *Ledger) Materializer() *occurrence.Materializer[Entry, Patch] {
	return ledger.materializer
}

// Carry is the opening balance before the instant before: the starting
// balance plus every one-off and post-exception series occurrence dated
// earlier.
func (ledger *Ledger) Carry(startingBalance int64, series []Series, exceptions Exceptions, oneOffs []OneOff, before time.Time) (int64, error) {
	carry := startingBalance
	for _, item := range oneOffs {
		if item.Date.Before(before) {
			carry += Signed(item.Payload)
		}
	}

	end := before.Add(-time.Second)
	for _, item := range series {
		if item.Rule.Anchor.After(end) {
			continue
		}
		window := recurrence.Window{Start: item.Rule.Anchor, End: end}
		err := ledger.materializer.Walk(item, exceptions, window, func(resolved Item) {
			carry += Signed(resolved.Payload)
		})
		if err != nil {
			return 0, err
		}
	}
	return carry, nil
}

// BuildView materializes input.Window, prefixed by the synthetic carry
// item. Totals exclude the carry; the daily balance starts from it.
func (ledger *Ledger) BuildView(input ViewInput) (View, error) {
	if err := input.Window.Validate(); err != nil {
		return View{}, err
	}

	carry, err := ledger.Carry(input.StartingBalance, input.Series, input.Exceptions, input.OneOffs, input.Window.Start)
	if err != nil {
		return View{}, err
	}

	timeline, err := ledger.materializer.Materialize(input.Series, input.Exceptions, input.OneOffs, input.Window)
	if err != nil {
		return View{}, err
	}

	view := View{
		Window:          input.Window,
		Items:           make([]Item, 0, len(timeline.Occurrences)+1),
		TruncatedSeries: timeline.TruncatedSeries,
	}
	view.Items = append(view.Items, CarryItem(carry, input.Window.Start))
	view.Items = append(view.Items, timeline.Occurrences...)
	view.Totals = Summarize(carry, timeline.Occurrences)
	view.Daily = DailyBalances(carry, timeline.Occurrences, input.Window)
	return view, nil
}

// CarryItem renders a carry amount as a locked ledger row.
func CarryItem(carry int64, date time.Time) Item {
	entry := Entry{Title: CarryTitle, Note: CarryNote, Kind: KindIncome, AmountCents: carry}
	if carry < 0 {
		entry.Kind = KindExpense
		entry.AmountCents = -carry
	}
	return Item{
		ID:      CarryID,
		Date:    recurrence.DateOf(date),
		Origin:  occurrence.OriginCarry,
		Payload: entry,
	}
}

// Summarize totals income and expense of items, skipping any carry row.
func Summarize(carry int64, items []Item) Totals {
	totals := Totals{Start: carry}
	for _, item := range items {
		if item.Origin == occurrence.OriginCarry {
			continue
		}
		if item.Payload.Kind == KindIncome {
			totals.Income += item.Payload.AmountCents
		} else {
			totals.Expense += item.Payload.AmountCents
		}
	}
	totals.Net = totals.Income - totals.Expense
	totals.End = totals.Start + totals.Net
	return totals
}

// DailyBalances returns the closing balance of every calendar day of window.
func DailyBalances(carry int64, items []Item, window recurrence.Window) []DayBalance {
	first := recurrence.DateOf(window.Start)
	days := recurrence.DaysBetween(first, window.End) + 1
	if days <= 0 {
		return nil
	}

	balances := make([]DayBalance, days)
	for _, item := range items {
		if item.Origin == occurrence.OriginCarry {
			continue
		}
		offset := recurrence.DaysBetween(first, item.Date)
		if offset < 0 || offset >= days {
			continue
		}
		balances[offset].Delta += Signed(item.Payload)
	}

	running := carry
	for i := range balances {
		balances[i].Date = recurrence.AddDays(first, i)
		running += balances[i].Delta
		balances[i].Balance = running
	}
	return balances
}

// MonthWindow covers the calendar month as an inclusive date window.
func MonthWindow(year int, month time.Month) recurrence.Window {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, month, recurrence.DaysIn(year, month), 0, 0, 0, 0, time.UTC)
	return recurrence.DateWindow(first, last)
}
