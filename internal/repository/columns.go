package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bensuskins/household-hub/internal/recurrence"
)

// Domain instants are stored as RFC3339 UTC text so that equal instants
// compare equal as strings and ranges can be filtered lexically.
func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseInstant(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing instant %q: %w", value, err)
	}
	return parsed.UTC(), nil
}

func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullableStringPointer(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return nullableString(*value)
}

func stringPointer(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}

// ruleColumns is the flattened storage form of a recurrence rule. The
// anchor lives in the owning row's own date column.
type ruleColumns struct {
	frequency  string
	interval   int
	endDate    sql.NullString
	byWeekday  string
	byMonthDay int
	byMonth    int
}

func encodeRule(rule recurrence.Rule) (ruleColumns, error) {
	weekdays := rule.ByWeekday
	if weekdays == nil {
		weekdays = []int{}
	}
	encoded, err := json.Marshal(weekdays)
	if err != nil {
		return ruleColumns{}, fmt.Errorf("encoding weekdays: %w", err)
	}

	columns := ruleColumns{
		frequency:  string(rule.Frequency),
		interval:   rule.Interval,
		byWeekday:  string(encoded),
		byMonthDay: rule.ByMonthDay,
		byMonth:    rule.ByMonth,
	}
	if columns.frequency == "" {
		columns.frequency = string(recurrence.FrequencyNone)
	}
	if rule.EndDate != nil {
		columns.endDate = sql.NullString{String: recurrence.FormatDate(*rule.EndDate), Valid: true}
	}
	return columns, nil
}

func (columns ruleColumns) decode(anchor time.Time) (recurrence.Rule, error) {
	rule := recurrence.Rule{
		Frequency:  recurrence.Frequency(columns.frequency),
		Interval:   columns.interval,
		Anchor:     anchor,
		ByMonthDay: columns.byMonthDay,
		ByMonth:    columns.byMonth,
	}
	if columns.byWeekday != "" {
		if err := json.Unmarshal([]byte(columns.byWeekday), &rule.ByWeekday); err != nil {
			return recurrence.Rule{}, fmt.Errorf("decoding weekdays: %w", err)
		}
		if len(rule.ByWeekday) == 0 {
			rule.ByWeekday = nil
		}
	}
	if columns.endDate.Valid {
		endDate, err := recurrence.ParseDate(columns.endDate.String)
		if err != nil {
			return recurrence.Rule{}, fmt.Errorf("decoding end date: %w", err)
		}
		rule.EndDate = &endDate
	}
	return rule, nil
}
