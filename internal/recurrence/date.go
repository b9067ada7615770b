package recurrence

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// DateOf truncates t to midnight UTC of its calendar date.
func DateOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// DaysIn returns the length of month in year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WeekdayIndex maps t onto Monday=0 .. Sunday=6.
func WeekdayIndex(t time.Time) int {
	return (int(t.UTC().Weekday()) + 6) % 7
}

// StartOfWeek returns the Monday of the week containing t, at midnight UTC.
func StartOfWeek(t time.Time) time.Time {
	date := DateOf(t)
	return AddDays(date, -WeekdayIndex(date))
}

// EndOfDay returns the last second of t's calendar date.
func EndOfDay(t time.Time) time.Time {
	return DateOf(t).Add(24*time.Hour - time.Second)
}

// DaysBetween counts whole calendar days from a to b. It works on Unix
// seconds so spans beyond time.Duration's ~292 years stay exact.
func DaysBetween(a, b time.Time) int {
	return int((DateOf(b).Unix() - DateOf(a).Unix()) / secondsPerDay)
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", value, err)
	}
	return parsed, nil
}

// ParseDateOrTime accepts either a calendar date or an RFC 3339 timestamp.
func ParseDateOrTime(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	return ParseDate(value)
}

func clockOf(t time.Time) time.Duration {
	return t.UTC().Sub(DateOf(t))
}
