package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bensuskins/household-hub/internal/events"
	"github.com/bensuskins/household-hub/internal/ledger"
	"github.com/bensuskins/household-hub/internal/recurrence"
	"github.com/bensuskins/household-hub/internal/repository"
	"golang.org/x/text/language"
)

type Digest struct {
	HouseholdID string `json:"householdId"`
	Date        string `json:"date"`
	Open        int    `json:"open"`
	Done        int    `json:"done"`
	Balance     string `json:"balance"`
}

// DigestService summarizes today's tasks and the month's projected balance
// for every household.
type DigestService struct {
	households repository.HouseholdRepository
	tasks      *TaskService
	finances   *FinanceService
	locale     language.Tag
	publisher  events.Publisher
}

func NewDigestService(households repository.HouseholdRepository, tasks *TaskService, finances *FinanceService, locale language.Tag, publisher events.Publisher) *DigestService {
	return &DigestService{
		households: households,
		tasks:      tasks,
		finances:   finances,
		locale:     locale,
		publisher:  publisher,
	}
}

func (service *DigestService) Run(ctx context.Context) ([]Digest, error) {
	return service.RunAt(ctx, time.Now())
}

// RunAt builds and publishes one digest per household for the UTC date of
// now. A household that fails is logged and skipped.
func (service *DigestService) RunAt(ctx context.Context, now time.Time) ([]Digest, error) {
	households, err := service.households.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding households: %w", err)
	}

	today := recurrence.DateOf(now.UTC())
	digests := make([]Digest, 0, len(households))
	for _, household := range households {
		digest, err := service.build(ctx, household.ID, today)
		if err != nil {
			slog.ErrorContext(ctx, "building digest", "household", household.ID, "error", err)
			continue
		}
		digests = append(digests, digest)
		publish(ctx, service.publisher, events.New(events.DailyDigest, household.ID, household.ID).
			With("date", digest.Date).
			With("open", strconv.Itoa(digest.Open)).
			With("done", strconv.Itoa(digest.Done)).
			With("balance", digest.Balance))
	}
	return digests, nil
}

func (service *DigestService) build(ctx context.Context, householdID string, today time.Time) (Digest, error) {
	digest := Digest{HouseholdID: householdID, Date: recurrence.FormatDate(today)}

	tasks, err := service.tasks.ListRange(ctx, householdID, recurrence.DateWindow(today, today))
	if err != nil {
		return Digest{}, err
	}
	for _, day := range tasks.Days {
		digest.Open += day.Open
		digest.Done += day.Done
	}

	view, err := service.finances.MonthView(ctx, householdID, today.Year(), int(today.Month()))
	if err != nil {
		return Digest{}, err
	}
	digest.Balance = ledger.FormatCents(view.Totals.End, service.locale)
	return digest, nil
}
