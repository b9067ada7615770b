package calendar

import (
	"bytes"
	"testing"
	"time"

	"github.com/bensuskins/household-hub/internal/ledger"
	"github.com/bensuskins/household-hub/internal/models"
	"github.com/bensuskins/household-hub/internal/occurrence"
	"github.com/bensuskins/household-hub/internal/services"
	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func sampleFeed() Feed {
	due := time.Date(2024, time.March, 11, 9, 0, 0, 0, time.UTC)
	return Feed{
		Name:   "Home",
		Locale: language.German,
		Stamp:  time.Date(2024, time.March, 1, 6, 0, 0, 0, time.UTC),
		Tasks: []services.TaskOccurrence{{
			ID:           "bins:2024-03-11",
			TaskID:       "bins",
			OccurrenceAt: due,
			Origin:       occurrence.OriginSeries,
			Status:       occurrence.StatusDone,
			Task:         models.Task{ID: "bins", Title: "Bins", Description: "Blue bin"},
		}},
		Finances: []ledger.Item{
			ledger.CarryItem(1000, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
			{
				ID:      "rent:2024-03-03",
				Date:    time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC),
				Origin:  occurrence.OriginSeries,
				Payload: ledger.Entry{Title: "Rent", Kind: ledger.KindExpense, AmountCents: 3000},
			},
		},
	}
}

func TestBuild(t *testing.T) {
	cal := Build(sampleFeed())

	require.Len(t, cal.Children, 2)

	task := cal.Children[0]
	assert.Equal(t, ical.CompToDo, task.Name)
	uid, err := task.Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "bins:2024-03-11@household-hub", uid)
	status, err := task.Props.Text(ical.PropStatus)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", status)

	rent := cal.Children[1]
	assert.Equal(t, ical.CompEvent, rent.Name)
	summary, err := rent.Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Rent -30,00 €", summary)
}

func TestEncode_RoundTrip(t *testing.T) {
	var buffer bytes.Buffer
	require.NoError(t, Encode(&buffer, Build(sampleFeed())))

	decoded, err := ical.NewDecoder(&buffer).Decode()
	require.NoError(t, err)

	todos := decoded.Children
	require.Len(t, todos, 2)
	due, err := todos[0].Props.DateTime(ical.PropDue, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 11, 9, 0, 0, 0, time.UTC), due)

	start, err := todos[1].Props.DateTime(ical.PropDateTimeStart, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC), start)
}

func TestEncode_Empty(t *testing.T) {
	var buffer bytes.Buffer
	require.NoError(t, Encode(&buffer, Build(Feed{})))
	assert.Contains(t, buffer.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, buffer.String(), "END:VCALENDAR")
}
