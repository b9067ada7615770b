package scheduler

import (
	"context"
	"testing"

	"github.com/bensuskins/household-hub/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct{ calls int }

func (sweeper *countingSweeper) CleanExpired() int {
	sweeper.calls++
	return 0
}

type nopDigester struct{}

func (nopDigester) Run(context.Context) ([]services.Digest, error) { return nil, nil }

func TestNew_RegistersJobs(t *testing.T) {
	scheduler, err := New(context.Background(), "@every 10m", &countingSweeper{}, "0 6 * * *", nopDigester{})
	require.NoError(t, err)
	assert.Len(t, scheduler.cron.Entries(), 2)

	scheduler.Start()
	defer scheduler.Stop()
	for _, next := range scheduler.Next() {
		assert.False(t, next.IsZero())
	}
}

func TestNew_RejectsInvalidSchedule(t *testing.T) {
	_, err := New(context.Background(), "every now and then", &countingSweeper{}, "0 6 * * *", nopDigester{})
	assert.ErrorContains(t, err, "cache sweep")

	_, err = New(context.Background(), "@every 10m", &countingSweeper{}, "61 * * * *", nopDigester{})
	assert.ErrorContains(t, err, "digest")
}
