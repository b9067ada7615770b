// Package events announces household changes to other processes.
package events

import (
	"encoding/json"
	"time"
)

type Type string

const (
	TaskCreated          Type = "task.created"
	TaskUpdated          Type = "task.updated"
	TaskDeleted          Type = "task.deleted"
	TaskStatusChanged    Type = "task.status_changed"
	OccurrenceStatusSet  Type = "task.occurrence_status_set"
	EntryCreated         Type = "entry.created"
	EntryUpdated         Type = "entry.updated"
	EntryDeleted         Type = "entry.deleted"
	SeriesCreated        Type = "series.created"
	SeriesUpdated        Type = "series.updated"
	SeriesDeleted        Type = "series.deleted"
	ExceptionSet         Type = "exception.set"
	ExceptionCleared     Type = "exception.cleared"
	StartingBalanceSet   Type = "balance.set"
	ShoppingItemCreated  Type = "shopping.created"
	ShoppingItemUpdated  Type = "shopping.updated"
	ShoppingItemDeleted  Type = "shopping.deleted"
	HouseholdCreated     Type = "household.created"
	HouseholdMemberAdded Type = "household.member_added"
	DailyDigest          Type = "digest.daily"
)

// Event carries ids only; consumers re-read the subject from the API.
type Event struct {
	Type        Type              `json:"type"`
	HouseholdID string            `json:"householdId"`
	SubjectID   string            `json:"subjectId,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	OccurredAt  time.Time         `json:"occurredAt"`
}

func New(eventType Type, householdID string, subjectID string) Event {
	return Event{
		Type:        eventType,
		HouseholdID: householdID,
		SubjectID:   subjectID,
		OccurredAt:  time.Now().UTC(),
	}
}

// With returns a copy of the event carrying one more attribute.
func (event Event) With(key string, value string) Event {
	attributes := make(map[string]string, len(event.Attributes)+1)
	for k, v := range event.Attributes {
		attributes[k] = v
	}
	attributes[key] = value
	event.Attributes = attributes
	return event
}

func (event Event) ToJSON() ([]byte, error) {
	return json.Marshal(event)
}

func FromJSON(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}
