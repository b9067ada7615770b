package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	anchor := day("2024-03-10")
	tests := []struct {
		name      string
		rule      Rule
		wantField string
	}{
		{name: "valid weekly", rule: Rule{Frequency: FrequencyWeekly, Interval: 1, Anchor: anchor, ByWeekday: []int{0, 6}}},
		{name: "valid one-off ignores interval", rule: Rule{Frequency: FrequencyNone, Anchor: anchor}},
		{name: "unknown frequency", rule: Rule{Frequency: "HOURLY", Interval: 1, Anchor: anchor}, wantField: "frequency"},
		{name: "missing anchor", rule: Rule{Frequency: FrequencyDaily, Interval: 1}, wantField: "anchor"},
		{name: "zero interval", rule: Rule{Frequency: FrequencyDaily, Anchor: anchor}, wantField: "interval"},
		{name: "interval too large", rule: Rule{Frequency: FrequencyDaily, Interval: 366, Anchor: anchor}, wantField: "interval"},
		{name: "end before anchor", rule: Rule{Frequency: FrequencyDaily, Interval: 1, Anchor: anchor, EndDate: ptr(day("2024-03-09"))}, wantField: "endDate"},
		{name: "end on anchor", rule: Rule{Frequency: FrequencyDaily, Interval: 1, Anchor: anchor, EndDate: ptr(anchor)}},
		{name: "weekday out of range", rule: Rule{Frequency: FrequencyWeekly, Interval: 1, Anchor: anchor, ByWeekday: []int{7}}, wantField: "byWeekday"},
		{name: "month day out of range", rule: Rule{Frequency: FrequencyMonthly, Interval: 1, Anchor: anchor, ByMonthDay: 32}, wantField: "byMonthDay"},
		{name: "month out of range", rule: Rule{Frequency: FrequencyYearly, Interval: 1, Anchor: anchor, ByMonth: 13}, wantField: "byMonth"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := Validate(test.rule)
			if test.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRule)
			var ruleErr *RuleError
			require.True(t, errors.As(err, &ruleErr))
			assert.Equal(t, test.wantField, ruleErr.Field)
		})
	}
}

func TestNormalize(t *testing.T) {
	anchor := time.Date(2024, 3, 13, 7, 30, 0, 0, time.UTC)

	weekly := Normalize(Rule{Frequency: FrequencyWeekly, Anchor: anchor, ByWeekday: []int{4, 1, 4, 9}})
	assert.Equal(t, 1, weekly.Interval)
	assert.Equal(t, []int{1, 4}, weekly.ByWeekday)

	defaulted := Normalize(Rule{Frequency: FrequencyWeekly, Interval: 2, Anchor: anchor})
	assert.Equal(t, []int{2}, defaulted.ByWeekday)

	monthly := Normalize(Rule{Frequency: FrequencyMonthly, Interval: 1, Anchor: anchor, ByWeekday: []int{1}})
	assert.Equal(t, 13, monthly.ByMonthDay)
	assert.Nil(t, monthly.ByWeekday)

	yearly := Normalize(Rule{Frequency: FrequencyYearly, Interval: 1, Anchor: anchor})
	assert.Equal(t, 3, yearly.ByMonth)
	assert.Equal(t, 13, yearly.ByMonthDay)

	inverted := Normalize(Rule{Frequency: FrequencyDaily, Interval: 1, Anchor: anchor, EndDate: ptr(day("2024-03-01"))})
	assert.Nil(t, inverted.EndDate)

	none := Normalize(Rule{Anchor: anchor, Interval: 4, EndDate: ptr(day("2024-04-01"))})
	assert.Equal(t, FrequencyNone, none.Frequency)
	assert.Equal(t, 1, none.Interval)
	assert.Nil(t, none.EndDate)
}

func TestParseFrequency(t *testing.T) {
	frequency, err := ParseFrequency(" weekly ")
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, frequency)

	empty, err := ParseFrequency("")
	require.NoError(t, err)
	assert.Equal(t, FrequencyNone, empty)

	_, err = ParseFrequency("fortnightly")
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestFromCustom(t *testing.T) {
	tests := map[CustomUnit]Frequency{
		UnitDay:  FrequencyDaily,
		UnitWeek: FrequencyWeekly,
		"month":  FrequencyMonthly,
	}
	for unit, want := range tests {
		got, err := FromCustom(unit)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := FromCustom("YEAR")
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestDaysBetween_Centuries(t *testing.T) {
	tests := []struct {
		from, to string
		want     int
	}{
		{"0001-01-01", "9999-12-31", 3652058},
		{"1700-01-01", "2024-01-01", 118338},
		{"2024-01-01", "1700-01-01", -118338},
		{"2024-02-28", "2024-03-01", 2},
	}
	for _, test := range tests {
		t.Run(test.from+"_"+test.to, func(t *testing.T) {
			assert.Equal(t, test.want, DaysBetween(day(test.from), day(test.to)))
		})
	}

	late := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	early := time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(late, early))
}

func TestDateHelpers(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2023, time.February))
	assert.Equal(t, 31, DaysIn(2024, time.December))

	assert.Equal(t, 0, WeekdayIndex(day("2024-01-01")))
	assert.Equal(t, 6, WeekdayIndex(day("2024-01-07")))
	assert.Equal(t, day("2024-01-01"), StartOfWeek(time.Date(2024, 1, 7, 22, 0, 0, 0, time.UTC)))

	assert.Equal(t, 60, DaysBetween(day("2024-01-01"), day("2024-03-01")))
	assert.Equal(t, time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC), EndOfDay(day("2024-03-01")))

	parsed, err := ParseDateOrTime("2024-03-04T09:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 9, parsed.Hour())

	_, err = ParseDate("04.03.2024")
	assert.Error(t, err)
}
