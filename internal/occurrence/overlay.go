// Package occurrence materializes series into dated occurrences and
// applies per-occurrence exceptions on top of them.
package occurrence

import (
	"sort"
	"time"

	"github.com/bensuskins/household-hub/internal/recurrence"
)

type Origin string

const (
	OriginSeries Origin = "SERIES"
	OriginOneOff Origin = "ONE_OFF"
	OriginCarry  Origin = "CARRY"
)

type ExceptionKind string

const (
	ExceptionSkip     ExceptionKind = "SKIP"
	ExceptionOverride ExceptionKind = "OVERRIDE"
)

type Series[P any] struct {
	ID       string
	Rule     recurrence.Rule
	Template P
}

type OneOff[P any] struct {
	ID      string
	Date    time.Time
	Payload P
}

type Exception[O any] struct {
	SeriesID string
	Date     time.Time
	Kind     ExceptionKind
	Override O
}

// Key identifies one occurrence of a series by calendar date.
type Key struct {
	SeriesID string
	Date     string
}

func KeyOf(seriesID string, date time.Time) Key {
	return Key{SeriesID: seriesID, Date: recurrence.FormatDate(date)}
}

type ExceptionIndex[O any] map[Key]Exception[O]

// IndexExceptions keys exceptions by (series, date); a later entry for the
// same key replaces an earlier one.
func IndexExceptions[O any](exceptions []Exception[O]) ExceptionIndex[O] {
	index := make(ExceptionIndex[O], len(exceptions))
	for _, exception := range exceptions {
		index[KeyOf(exception.SeriesID, exception.Date)] = exception
	}
	return index
}

type Occurrence[P any] struct {
	ID            string        `json:"id"`
	SeriesID      string        `json:"seriesId,omitempty"`
	Date          time.Time     `json:"date"`
	Origin        Origin        `json:"origin"`
	Payload       P             `json:"payload"`
	IsException   bool          `json:"isException"`
	ExceptionKind ExceptionKind `json:"exceptionKind,omitempty"`
}

// OccurrenceID is the stable identity of a series occurrence.
func OccurrenceID(seriesID string, date time.Time) string {
	return seriesID + ":" + recurrence.FormatDate(date)
}

type Timeline[P any] struct {
	Occurrences     []Occurrence[P]
	TruncatedSeries []string
}

func (timeline Timeline[P]) Truncated() bool {
	return len(timeline.TruncatedSeries) > 0
}

// MergeFunc returns template with the fields set in override applied.
type MergeFunc[P, O any] func(template P, override O) P

type Materializer[P, O any] struct {
	engine *recurrence.Engine
	merge  MergeFunc[P, O]
}

func NewMaterializer[P, O any](engine *recurrence.Engine, merge MergeFunc[P, O]) *Materializer[P, O] {
	return &Materializer[P, O]{engine: engine, merge: merge}
}

func (materializer *Materializer[P, O]) Engine() *recurrence.Engine {
	return materializer.engine
}

// Expand returns the occurrences of one series inside window after
// exceptions. The bool reports whether the engine cap truncated it.
func (materializer *Materializer[P, O]) Expand(series Series[P], exceptions ExceptionIndex[O], window recurrence.Window) ([]Occurrence[P], bool, error) {
	result, err := materializer.engine.Generate(series.Rule, window)
	if err != nil {
		return nil, false, err
	}

	occurrences := make([]Occurrence[P], 0, len(result.Dates))
	for _, date := range result.Dates {
		if occurrence, visible := materializer.resolve(series, exceptions, date); visible {
			occurrences = append(occurrences, occurrence)
		}
	}
	return occurrences, result.Truncated, nil
}

// Walk visits every occurrence of series inside window, continuing past
// the engine cap in successive bounded calls.
func (materializer *Materializer[P, O]) Walk(series Series[P], exceptions ExceptionIndex[O], window recurrence.Window, visit func(Occurrence[P])) error {
	start := window.Start
	for {
		result, err := materializer.engine.Generate(series.Rule, recurrence.Window{Start: start, End: window.End})
		if err != nil {
			return err
		}
		for _, date := range result.Dates {
			if occurrence, visible := materializer.resolve(series, exceptions, date); visible {
				visit(occurrence)
			}
		}
		if !result.Truncated || len(result.Dates) == 0 {
			return nil
		}
		start = result.Dates[len(result.Dates)-1].Add(time.Second)
	}
}

func (materializer *Materializer[P, O]) resolve(series Series[P], exceptions ExceptionIndex[O], date time.Time) (Occurrence[P], bool) {
	occurrence := Occurrence[P]{
		ID:       OccurrenceID(series.ID, date),
		SeriesID: series.ID,
		Date:     date,
		Origin:   OriginSeries,
		Payload:  series.Template,
	}

	exception, found := exceptions[KeyOf(series.ID, date)]
	if !found {
		return occurrence, true
	}
	switch exception.Kind {
	case ExceptionSkip:
		return Occurrence[P]{}, false
	case ExceptionOverride:
		occurrence.Payload = materializer.merge(series.Template, exception.Override)
		occurrence.IsException = true
		occurrence.ExceptionKind = ExceptionOverride
	}
	return occurrence, true
}

// Materialize expands every series, merges one-offs dated inside window
// and sorts ascending by date. Equal dates keep series occurrences before
// one-offs, each in the order they were passed in.
func (materializer *Materializer[P, O]) Materialize(
	series []Series[P],
	exceptions ExceptionIndex[O],
	oneOffs []OneOff[P],
	window recurrence.Window,
) (Timeline[P], error) {
	if err := window.Validate(); err != nil {
		return Timeline[P]{}, err
	}

	var timeline Timeline[P]
	for _, item := range series {
		occurrences, truncated, err := materializer.Expand(item, exceptions, window)
		if err != nil {
			return Timeline[P]{}, err
		}
		if truncated {
			timeline.TruncatedSeries = append(timeline.TruncatedSeries, item.ID)
		}
		timeline.Occurrences = append(timeline.Occurrences, occurrences...)
	}

	for _, item := range oneOffs {
		if !window.Contains(item.Date) {
			continue
		}
		timeline.Occurrences = append(timeline.Occurrences, Occurrence[P]{
			ID:      item.ID,
			Date:    item.Date.UTC(),
			Origin:  OriginOneOff,
			Payload: item.Payload,
		})
	}

	Sort(timeline.Occurrences)
	return timeline, nil
}

var originRank = map[Origin]int{
	OriginCarry:  0,
	OriginSeries: 1,
	OriginOneOff: 2,
}

// Sort orders occurrences by date, then origin, keeping input order for
// anything still equal.
func Sort[P any](occurrences []Occurrence[P]) {
	sort.SliceStable(occurrences, func(i, j int) bool {
		left, right := occurrences[i], occurrences[j]
		if !left.Date.Equal(right.Date) {
			return left.Date.Before(right.Date)
		}
		return originRank[left.Origin] < originRank[right.Origin]
	})
}
