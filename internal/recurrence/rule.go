package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidRule      = errors.New("invalid recurrence rule")
	ErrOutOfRangeWindow = errors.New("window end is before window start")
)

type Frequency string

const (
	FrequencyNone    Frequency = "NONE"
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// CustomUnit is the unit of a "every N <unit>" task recurrence.
type CustomUnit string

const (
	UnitDay   CustomUnit = "DAY"
	UnitWeek  CustomUnit = "WEEK"
	UnitMonth CustomUnit = "MONTH"
)

const MaxInterval = 365

func ParseFrequency(value string) (Frequency, error) {
	frequency := Frequency(strings.ToUpper(strings.TrimSpace(value)))
	switch frequency {
	case FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return frequency, nil
	case "":
		return FrequencyNone, nil
	}
	return "", &RuleError{Field: "frequency", Message: fmt.Sprintf("unknown frequency %q", value)}
}

// FromCustom maps a custom unit onto the frequency that walks it.
func FromCustom(unit CustomUnit) (Frequency, error) {
	switch CustomUnit(strings.ToUpper(string(unit))) {
	case UnitDay:
		return FrequencyDaily, nil
	case UnitWeek:
		return FrequencyWeekly, nil
	case UnitMonth:
		return FrequencyMonthly, nil
	}
	return "", &RuleError{Field: "unit", Message: fmt.Sprintf("unknown unit %q", unit)}
}

// Rule describes how a series repeats. Anchor carries the time of day for
// timed series; EndDate is an inclusive calendar date.
type Rule struct {
	Frequency  Frequency  `json:"frequency"`
	Interval   int        `json:"interval"`
	Anchor     time.Time  `json:"anchor"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	ByWeekday  []int      `json:"byWeekday,omitempty"`
	ByMonthDay int        `json:"byMonthDay,omitempty"`
	ByMonth    int        `json:"byMonth,omitempty"`
}

func (rule Rule) IsRecurring() bool {
	return rule.Frequency != "" && rule.Frequency != FrequencyNone
}

type RuleError struct {
	Field   string
	Message string
}

func (err *RuleError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidRule, err.Field, err.Message)
}

func (err *RuleError) Unwrap() error {
	return ErrInvalidRule
}

// Validate rejects rule shapes that must never be persisted.
func Validate(rule Rule) error {
	switch rule.Frequency {
	case FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
	default:
		return &RuleError{Field: "frequency", Message: fmt.Sprintf("unknown frequency %q", rule.Frequency)}
	}
	if rule.Anchor.IsZero() {
		return &RuleError{Field: "anchor", Message: "anchor date is required"}
	}
	if rule.Frequency == FrequencyNone {
		return nil
	}
	if rule.Interval < 1 || rule.Interval > MaxInterval {
		return &RuleError{Field: "interval", Message: fmt.Sprintf("must be between 1 and %d", MaxInterval)}
	}
	if rule.EndDate != nil && DateOf(*rule.EndDate).Before(DateOf(rule.Anchor)) {
		return &RuleError{Field: "endDate", Message: "must not be before the anchor date"}
	}
	for _, weekday := range rule.ByWeekday {
		if weekday < 0 || weekday > 6 {
			return &RuleError{Field: "byWeekday", Message: fmt.Sprintf("weekday %d outside 0-6", weekday)}
		}
	}
	if rule.ByMonthDay != 0 && (rule.ByMonthDay < 1 || rule.ByMonthDay > 31) {
		return &RuleError{Field: "byMonthDay", Message: "must be between 1 and 31"}
	}
	if rule.ByMonth != 0 && (rule.ByMonth < 1 || rule.ByMonth > 12) {
		return &RuleError{Field: "byMonth", Message: "must be between 1 and 12"}
	}
	return nil
}

// Normalize fills defaults from the anchor and drops fields that cannot
// apply, so expansion never has to reject a stored rule.
func Normalize(rule Rule) Rule {
	normalized := Rule{
		Frequency: rule.Frequency,
		Interval:  rule.Interval,
		Anchor:    rule.Anchor.UTC(),
	}
	if normalized.Frequency == "" {
		normalized.Frequency = FrequencyNone
	}
	if normalized.Interval < 1 {
		normalized.Interval = 1
	}
	if rule.EndDate != nil && !DateOf(*rule.EndDate).Before(DateOf(rule.Anchor)) {
		end := DateOf(*rule.EndDate)
		normalized.EndDate = &end
	}

	switch normalized.Frequency {
	case FrequencyWeekly:
		normalized.ByWeekday = normalizeWeekdays(rule.ByWeekday, normalized.Anchor)
	case FrequencyMonthly:
		normalized.ByMonthDay = monthDayOrAnchor(rule.ByMonthDay, normalized.Anchor)
	case FrequencyYearly:
		normalized.ByMonthDay = monthDayOrAnchor(rule.ByMonthDay, normalized.Anchor)
		normalized.ByMonth = rule.ByMonth
		if normalized.ByMonth < 1 || normalized.ByMonth > 12 {
			normalized.ByMonth = int(normalized.Anchor.Month())
		}
	case FrequencyNone:
		normalized.Interval = 1
		normalized.EndDate = nil
	}
	return normalized
}

func normalizeWeekdays(weekdays []int, anchor time.Time) []int {
	seen := make(map[int]bool, len(weekdays))
	var result []int
	for _, weekday := range weekdays {
		if weekday < 0 || weekday > 6 || seen[weekday] {
			continue
		}
		seen[weekday] = true
		result = append(result, weekday)
	}
	if len(result) == 0 {
		return []int{WeekdayIndex(anchor)}
	}
	sort.Ints(result)
	return result
}

func monthDayOrAnchor(day int, anchor time.Time) int {
	if day < 1 || day > 31 {
		return anchor.Day()
	}
	return day
}
