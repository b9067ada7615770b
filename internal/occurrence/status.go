package occurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/bensuskins/household-hub/internal/recurrence"
)

type Status string

const (
	StatusOpen Status = "OPEN"
	StatusDone Status = "DONE"
)

func ParseStatus(value string) (Status, error) {
	switch status := Status(strings.ToUpper(strings.TrimSpace(value))); status {
	case StatusOpen, StatusDone:
		return status, nil
	}
	return "", fmt.Errorf("unknown status %q", value)
}

type StatusKey struct {
	TaskID string
	At     string
}

func StatusKeyOf(taskID string, at time.Time) StatusKey {
	return StatusKey{TaskID: taskID, At: at.UTC().Format(time.RFC3339)}
}

type StatusRecord struct {
	TaskID       string
	OccurrenceAt time.Time
	Status       Status
}

type StatusIndex map[StatusKey]Status

func IndexStatuses(records []StatusRecord) StatusIndex {
	index := make(StatusIndex, len(records))
	for _, record := range records {
		index[StatusKeyOf(record.TaskID, record.OccurrenceAt)] = record.Status
	}
	return index
}

// Lookup returns the stored status of one occurrence, OPEN when none.
func (index StatusIndex) Lookup(taskID string, at time.Time) Status {
	if status, found := index[StatusKeyOf(taskID, at)]; found {
		return status
	}
	return StatusOpen
}

// ResolveStatus reads series occurrences from the overlay and one-offs
// from their own payload.
func ResolveStatus[P any](occurrence Occurrence[P], index StatusIndex, own func(P) Status) Status {
	if occurrence.Origin == OriginOneOff {
		if status := own(occurrence.Payload); status != "" {
			return status
		}
		return StatusOpen
	}
	return index.Lookup(occurrence.SeriesID, occurrence.Date)
}

type DayCount struct {
	Date  time.Time `json:"date"`
	Open  int       `json:"open"`
	Done  int       `json:"done"`
	Total int       `json:"total"`
}

// CountByDay tallies OPEN and DONE occurrences for every calendar day of
// window, including days without occurrences.
func CountByDay[P any](occurrences []Occurrence[P], window recurrence.Window, status func(Occurrence[P]) Status) []DayCount {
	first := recurrence.DateOf(window.Start)
	last := recurrence.DateOf(window.End)
	days := recurrence.DaysBetween(first, last) + 1
	if days <= 0 {
		return nil
	}

	counts := make([]DayCount, days)
	for i := range counts {
		counts[i].Date = recurrence.AddDays(first, i)
	}
	for _, occurrence := range occurrences {
		offset := recurrence.DaysBetween(first, occurrence.Date)
		if offset < 0 || offset >= days {
			continue
		}
		switch status(occurrence) {
		case StatusDone:
			counts[offset].Done++
		default:
			counts[offset].Open++
		}
		counts[offset].Total++
	}
	return counts
}
