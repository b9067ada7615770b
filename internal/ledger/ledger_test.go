package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func day(value string) time.Time {
	parsed, err := recurrence.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func monthly(id, anchor string, kind Kind, amount int64) Series {
	return Series{
		ID:       id,
		Rule:     recurrence.Rule{Frequency: recurrence.FrequencyMonthly, Interval: 1, Anchor: day(anchor)},
		Template: Entry{Title: id, Kind: kind, AmountCents: amount},
	}
}

func TestCarry_OneOffBeforeWindow(t *testing.T) {
	ledger := New(recurrence.NewEngine(0))
	oneOffs := []OneOff{
		{ID: "groceries", Date: day("2024-02-15"), Payload: Entry{Kind: KindExpense, AmountCents: 2000}},
	}

	carry, err := ledger.Carry(10000, nil, nil, oneOffs, day("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, int64(8000), carry)
}

func TestCarry_ExcludesWindowStartAndAppliesExceptions(t *testing.T) {
	ledger := New(recurrence.NewEngine(0))
	series := []Series{monthly("salary", "2024-01-01", KindIncome, 5000)}
	exceptions := occurrence.IndexExceptions([]Exception{
		{SeriesID: "salary", Date: day("2024-02-01"), Kind: occurrence.ExceptionOverride, Override: Patch{AmountCents: mo.Some[int64](7000)}},
	})

	carry, err := ledger.Carry(0, series, exceptions, nil, day("2024-04-01"))
	require.NoError(t, err)
	assert.Equal(t, int64(5000+7000+5000), carry)
}

func TestCarry_SumsPastTheEngineCap(t *testing.T) {
	ledger := New(recurrence.NewEngine(10))
	series := []Series{{
		ID:       "coffee",
		Rule:     recurrence.Rule{Frequency: recurrence.FrequencyDaily, Interval: 1, Anchor: day("2024-01-01")},
		Template: Entry{Kind: KindExpense, AmountCents: 100},
	}}

	carry, err := ledger.Carry(0, series, nil, nil, day("2024-02-01"))
	require.NoError(t, err)
	assert.Equal(t, int64(-3100), carry)
}

func TestBuildView_Month(t *testing.T) {
	ledger := New(recurrence.NewEngine(0))
	input := ViewInput{
		StartingBalance: 10000,
		Series: []Series{
			monthly("salary", "2024-01-01", KindIncome, 5000),
			monthly("rent", "2024-01-03", KindExpense, 3000),
		},
		Exceptions: occurrence.IndexExceptions([]Exception{
			{SeriesID: "salary", Date: day("2024-02-01"), Kind: occurrence.ExceptionSkip},
			{SeriesID: "rent", Date: day("2024-03-03"), Kind: occurrence.ExceptionOverride, Override: Patch{AmountCents: mo.Some[int64](3500)}},
		}),
		OneOffs: []OneOff{
			{ID: "groceries", Date: day("2024-02-15"), Payload: Entry{Title: "Groceries", Kind: KindExpense, AmountCents: 2000}},
			{ID: "refund", Date: day("2024-03-10"), Payload: Entry{Title: "Refund", Kind: KindIncome, AmountCents: 1000}},
			{ID: "later", Date: day("2024-04-01"), Payload: Entry{Title: "Later", Kind: KindIncome, AmountCents: 999}},
		},
		Window: MonthWindow(2024, time.March),
	}

	view, err := ledger.BuildView(input)
	require.NoError(t, err)

	var ids []string
	for _, item := range view.Items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{CarryID, "salary:2024-03-01", "rent:2024-03-03", "refund"}, ids)

	carry := view.Items[0]
	assert.Equal(t, occurrence.OriginCarry, carry.Origin)
	assert.Equal(t, int64(7000), carry.Payload.AmountCents)
	assert.Equal(t, KindIncome, carry.Payload.Kind)

	rent := view.Items[2]
	assert.True(t, rent.IsException)
	assert.Equal(t, int64(3500), rent.Payload.AmountCents)
	assert.Equal(t, "rent", rent.Payload.Title)

	assert.Equal(t, Totals{Start: 7000, Income: 6000, Expense: 3500, Net: 2500, End: 9500}, view.Totals)

	require.Len(t, view.Daily, 31)
	assert.Equal(t, DayBalance{Date: day("2024-03-01"), Delta: 5000, Balance: 12000}, view.Daily[0])
	assert.Equal(t, int64(12000), view.Daily[1].Balance)
	assert.Equal(t, int64(8500), view.Daily[2].Balance)
	assert.Equal(t, int64(9500), view.Daily[9].Balance)
	assert.Equal(t, int64(9500), view.Daily[30].Balance)
}

func TestBuildView_NegativeCarry(t *testing.T) {
	ledger := New(recurrence.NewEngine(0))
	view, err := ledger.BuildView(ViewInput{
		OneOffs: []OneOff{{ID: "repair", Date: day("2024-01-20"), Payload: Entry{Kind: KindExpense, AmountCents: 4500}}},
		Window:  MonthWindow(2024, time.February),
	})
	require.NoError(t, err)
	assert.Equal(t, KindExpense, view.Items[0].Payload.Kind)
	assert.Equal(t, int64(4500), view.Items[0].Payload.AmountCents)
	assert.Equal(t, int64(-4500), view.Totals.End)
	assert.Len(t, view.Daily, 29)
}

func TestBuildView_RejectsInvertedWindow(t *testing.T) {
	ledger := New(recurrence.NewEngine(0))
	_, err := ledger.BuildView(ViewInput{Window: recurrence.Window{Start: day("2024-03-02"), End: day("2024-03-01")}})
	assert.ErrorIs(t, err, recurrence.ErrOutOfRangeWindow)
}

func TestApply(t *testing.T) {
	template := Entry{Title: "Rent", Note: "Flat", Kind: KindExpense, AmountCents: 90000, CategoryID: "home"}

	assert.Equal(t, template, Apply(template, Patch{}))
	assert.Equal(t,
		Entry{Title: "Rent", Note: "Reduced", Kind: KindExpense, AmountCents: 45000, CategoryID: "home"},
		Apply(template, Patch{Note: mo.Some("Reduced"), AmountCents: mo.Some[int64](45000)}),
	)
	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, Patch{Kind: mo.Some(KindIncome)}.IsEmpty())
}

func TestPatch_DecodesOnlyPresentFields(t *testing.T) {
	var patch Patch
	require.NoError(t, json.Unmarshal([]byte(`{"amountCents": 1250}`), &patch))

	amount, present := patch.AmountCents.Get()
	assert.True(t, present)
	assert.Equal(t, int64(1250), amount)
	assert.True(t, patch.Title.IsAbsent())
	assert.True(t, patch.Kind.IsAbsent())
}

func TestSigned(t *testing.T) {
	assert.Equal(t, int64(500), Signed(Entry{Kind: KindIncome, AmountCents: 500}))
	assert.Equal(t, int64(-500), Signed(Entry{Kind: KindExpense, AmountCents: 500}))
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("income")
	require.NoError(t, err)
	assert.Equal(t, KindIncome, kind)
	assert.Equal(t, "Ausgabe", KindExpense.DefaultTitle())

	_, err = ParseKind("transfer")
	assert.Error(t, err)
}

func TestParseCents(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		ok    bool
	}{
		{"12", 1200, true},
		{"12,34", 1234, true},
		{"12.34", 1234, true},
		{"1.234,56", 123456, true},
		{"1.234", 123400, true},
		{"12,5", 1250, true},
		{"0,005", 1, true},
		{"-20,00", -2000, true},
		{" 7,99 € ", 799, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1,2,3", 0, false},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got, err := ParseCents(test.input)
			if !test.ok {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "1.234,56 €", FormatCents(123456, language.German))
	assert.Equal(t, "1,234.56 €", FormatCents(123456, language.English))
	assert.Equal(t, language.German, ParseLocale("not a locale"))
}
