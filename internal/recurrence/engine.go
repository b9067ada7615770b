// Package recurrence expands recurrence rules into concrete occurrence
// dates within a query window.
package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// DefaultMaxOccurrences bounds a single Generate call.
const DefaultMaxOccurrences = 1500

var rruleWeekdays = [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

var rruleFrequencies = map[Frequency]rrule.Frequency{
	FrequencyDaily:   rrule.DAILY,
	FrequencyWeekly:  rrule.WEEKLY,
	FrequencyMonthly: rrule.MONTHLY,
	FrequencyYearly:  rrule.YEARLY,
}

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

func (window Window) Validate() error {
	if window.End.Before(window.Start) {
		return fmt.Errorf("%w: %s < %s", ErrOutOfRangeWindow,
			window.End.UTC().Format(time.RFC3339), window.Start.UTC().Format(time.RFC3339))
	}
	return nil
}

func (window Window) Contains(t time.Time) bool {
	return !t.Before(window.Start) && !t.After(window.End)
}

// DateWindow covers every instant of the calendar dates from through to.
func DateWindow(from, to time.Time) Window {
	return Window{Start: DateOf(from), End: EndOfDay(to)}
}

type Result struct {
	Dates     []time.Time
	Truncated bool
}

type Engine struct {
	maxOccurrences int
}

// NewEngine returns an engine that emits at most maxOccurrences dates per
// call; non-positive values select DefaultMaxOccurrences.
func NewEngine(maxOccurrences int) *Engine {
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}
	return &Engine{maxOccurrences: maxOccurrences}
}

func (engine *Engine) MaxOccurrences() int {
	return engine.maxOccurrences
}

// Generate returns the ascending occurrence dates of rule inside window.
// Reaching the cap sets Result.Truncated instead of failing.
func (engine *Engine) Generate(rule Rule, window Window) (Result, error) {
	if err := window.Validate(); err != nil {
		return Result{}, err
	}

	rule = Normalize(rule)
	start := window.Start.UTC()
	end := window.End.UTC()
	anchor := rule.Anchor

	if rule.Frequency == FrequencyNone {
		if window.Contains(anchor) {
			return Result{Dates: []time.Time{anchor}}, nil
		}
		return Result{}, nil
	}
	if anchor.After(end) {
		return Result{}, nil
	}
	if rule.EndDate != nil && EndOfDay(*rule.EndDate).Before(start) {
		return Result{}, nil
	}

	option, err := rruleOption(rule, start)
	if err != nil {
		return Result{}, err
	}
	expansion, err := rrule.NewRRule(option)
	if err != nil {
		return Result{}, fmt.Errorf("building rrule: %w", err)
	}

	var result Result
	next := expansion.Iterator()
	for {
		value, ok := next()
		if !ok || value.After(end) {
			break
		}
		if value.Before(start) || value.Before(anchor) {
			continue
		}
		if len(result.Dates) == engine.maxOccurrences {
			result.Truncated = true
			break
		}
		result.Dates = append(result.Dates, value.UTC())
	}
	return result, nil
}

func rruleOption(rule Rule, windowStart time.Time) (rrule.ROption, error) {
	frequency, ok := rruleFrequencies[rule.Frequency]
	if !ok {
		return rrule.ROption{}, &RuleError{Field: "frequency", Message: fmt.Sprintf("unknown frequency %q", rule.Frequency)}
	}

	option := rrule.ROption{
		Freq:     frequency,
		Interval: rule.Interval,
		Dtstart:  iterationStart(rule, windowStart),
		Wkst:     rrule.MO,
	}
	if rule.EndDate != nil {
		option.Until = EndOfDay(*rule.EndDate)
	}

	switch rule.Frequency {
	case FrequencyWeekly:
		for _, weekday := range rule.ByWeekday {
			option.Byweekday = append(option.Byweekday, rruleWeekdays[weekday])
		}
	case FrequencyMonthly:
		option.Bymonthday, option.Bysetpos = clampedMonthDay(rule.ByMonthDay)
	case FrequencyYearly:
		option.Bymonth = []int{rule.ByMonth}
		option.Bymonthday, option.Bysetpos = clampedMonthDay(rule.ByMonthDay)
	}
	return option, nil
}

// clampedMonthDay selects the last existing day among 28..day, so day 31
// lands on the last day of shorter months.
func clampedMonthDay(day int) ([]int, []int) {
	if day <= 28 {
		return []int{day}, nil
	}
	days := make([]int, 0, day-27)
	for candidate := 28; candidate <= day; candidate++ {
		days = append(days, candidate)
	}
	return days, []int{-1}
}

// iterationStart moves DAILY and WEEKLY iteration to the last
// interval-aligned period that does not pass the window start.
func iterationStart(rule Rule, windowStart time.Time) time.Time {
	anchor := rule.Anchor
	clock := clockOf(anchor)

	switch rule.Frequency {
	case FrequencyDaily:
		days := DaysBetween(anchor, windowStart)
		if days < rule.Interval {
			return anchor
		}
		steps := days / rule.Interval
		return AddDays(anchor, steps*rule.Interval)
	case FrequencyWeekly:
		anchorMonday := StartOfWeek(anchor)
		weeks := DaysBetween(anchorMonday, StartOfWeek(windowStart)) / 7
		if weeks < rule.Interval {
			return anchor
		}
		steps := weeks / rule.Interval
		return AddDays(anchorMonday, steps*rule.Interval*7).Add(clock)
	}
	return anchor
}
