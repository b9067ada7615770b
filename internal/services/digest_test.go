package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/bensuskins/household-hub/internal/events"
	"github.com/bensuskins/household-hub/internal/services"
	"golang.org/x/text/language"
)

func TestDigestService_RunAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.tasks.Create(ctx, f.household.ID, f.user.ID, weeklyInput("Bins", at(2024, time.March, 4, 9))); err != nil {
		t.Fatalf("creating task: %v", err)
	}
	if _, err := f.tasks.Create(ctx, f.household.ID, f.user.ID, services.TaskInput{Title: "Dentist", DueAt: at(2024, time.March, 11, 15)}); err != nil {
		t.Fatalf("creating task: %v", err)
	}
	if err := f.finances.SetStartingBalance(ctx, f.household.ID, 123456); err != nil {
		t.Fatalf("setting balance: %v", err)
	}

	digester := services.NewDigestService(f.households, f.tasks, f.finances, language.German, f.recorder)
	digests, err := digester.RunAt(ctx, at(2024, time.March, 11, 6))
	if err != nil {
		t.Fatalf("running digest: %v", err)
	}

	if len(digests) != 1 {
		t.Fatalf("expected 1 digest, got %d", len(digests))
	}
	digest := digests[0]
	if digest.Date != "2024-03-11" || digest.Open != 2 || digest.Done != 0 {
		t.Errorf("unexpected digest: %+v", digest)
	}
	if digest.Balance != "1.234,56 €" {
		t.Errorf("expected formatted balance, got %q", digest.Balance)
	}

	published := f.recorder.Events()
	last := published[len(published)-1]
	if last.Type != events.DailyDigest || last.Attributes["open"] != "2" {
		t.Errorf("expected digest event, got %+v", last)
	}
}
