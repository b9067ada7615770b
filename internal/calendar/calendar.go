// Package calendar renders household occurrences as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"time"

	"github.com/bensuskins/household-hub/internal/ledger"
	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/emersion/go-ical"
	"golang.org/x/text/language"
)

const (
	productID = "-//household-hub//Household Hub//EN"
	uidDomain = "@household-hub"
)

// Horizon is how far ahead the feed reaches.
const Horizon = 90 * 24 * time.Hour

type Feed struct {
	Name     string
	Tasks    []services.TaskOccurrence
	Finances []ledger.Item
	Locale   language.Tag
	Stamp    time.Time
}

// Build turns task occurrences into VTODOs and finance occurrences into
// all-day VEVENTs.
func Build(feed Feed) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	if feed.Name != "" {
		cal.Props.SetText(ical.PropName, feed.Name)
		cal.Props.SetText("X-WR-CALNAME", feed.Name)
	}

	stamp := feed.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	stamp = stamp.UTC().Truncate(time.Second)

	for _, task := range feed.Tasks {
		cal.Children = append(cal.Children, todo(task, stamp))
	}
	for _, item := range feed.Finances {
		if item.Origin == occurrence.OriginCarry {
			continue
		}
		cal.Children = append(cal.Children, booking(item, feed.Locale, stamp))
	}
	return cal
}

func todo(task services.TaskOccurrence, stamp time.Time) *ical.Component {
	component := ical.NewComponent(ical.CompToDo)
	component.Props.SetText(ical.PropUID, task.ID+uidDomain)
	component.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	component.Props.SetText(ical.PropSummary, task.Task.Title)
	if task.Task.Description != "" {
		component.Props.SetText(ical.PropDescription, task.Task.Description)
	}
	if task.Task.AllDay {
		component.Props.SetDate(ical.PropDue, task.OccurrenceAt)
	} else {
		component.Props.SetDateTime(ical.PropDue, task.OccurrenceAt.UTC())
	}
	if task.Status == occurrence.StatusDone {
		component.Props.SetText(ical.PropStatus, "COMPLETED")
	} else {
		component.Props.SetText(ical.PropStatus, "NEEDS-ACTION")
	}
	return component
}

func booking(item ledger.Item, locale language.Tag, stamp time.Time) *ical.Component {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, "finance-"+item.ID+uidDomain)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	event.Props.SetText(ical.PropSummary, fmt.Sprintf("%s %s", item.Payload.Title, ledger.FormatCents(ledger.Signed(item.Payload), locale)))
	if item.Payload.Note != "" {
		event.Props.SetText(ical.PropDescription, item.Payload.Note)
	}
	day := recurrence.DateOf(item.Date)
	event.Props.SetDate(ical.PropDateTimeStart, day)
	event.Props.SetDate(ical.PropDateTimeEnd, recurrence.AddDays(day, 1))
	return event.Component
}

func Encode(w io.Writer, cal *ical.Calendar) error {
	// The encoder refuses calendars without components.
	if len(cal.Children) == 0 {
		_, err := io.WriteString(w, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:"+productID+"\r\nEND:VCALENDAR\r\n")
		return err
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}
