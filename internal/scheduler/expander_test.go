package scheduler

import (
	"context"
	"testing"
	"time"

	"medbook/pkg/config"
	"medbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExpander(visits *mockVisitStore, now time.Time) *Expander {
	e := NewExpander(visits, newTestConfig())
	e.now = func() time.Time { return now }
	return e
}

func wednesdayTemplate() *model.Visit {
	return &model.Visit{
		ID:                 "t1",
		Department:         "Cardiology",
		DoctorUsername:     "dr-chen",
		Capacity:           4,
		Recurring:          true,
		RecurringDayOfWeek: config.Wednesday,
		RecurringVisitTime: "09:30",
	}
}

func TestExpander_MaterializesWhenWeekdayMatches(t *testing.T) {
	// Sunday + 3 days = Wednesday.
	sunday := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	require.Equal(t, time.Sunday, sunday.Weekday())

	visits := &mockVisitStore{visits: []*model.Visit{wednesdayTemplate()}}
	e := testExpander(visits, sunday)
	require.NoError(t, e.Run(context.Background()))

	require.Len(t, visits.created, 1)
	instance := visits.created[0]
	assert.Equal(t, time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC), instance.VisitTime)
	assert.Equal(t, "Cardiology", instance.Department)
	assert.Equal(t, "dr-chen", instance.DoctorUsername)
	assert.Equal(t, 4, instance.Capacity)
	assert.Equal(t, 4, instance.AvailableSlots)
	assert.Equal(t, config.StatusPending, instance.Status)
	assert.False(t, instance.Recurring)
	assert.False(t, instance.Auction)
}

func TestExpander_SkipsWhenWeekdayDoesNotMatch(t *testing.T) {
	// Monday + 3 days = Thursday, not Wednesday.
	monday := time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)
	require.Equal(t, time.Monday, monday.Weekday())

	visits := &mockVisitStore{visits: []*model.Visit{wednesdayTemplate()}}
	e := testExpander(visits, monday)
	require.NoError(t, e.Run(context.Background()))

	assert.Empty(t, visits.created)
	assert.Empty(t, visits.existsCalled)
}

func TestExpander_DoubleRunIsIdempotent(t *testing.T) {
	sunday := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

	visits := &mockVisitStore{visits: []*model.Visit{wednesdayTemplate()}}
	e := testExpander(visits, sunday)
	require.NoError(t, e.Run(context.Background()))
	require.NoError(t, e.Run(context.Background()))

	assert.Len(t, visits.created, 1)
}

func TestExpander_ExistingVisitSuppressesInstance(t *testing.T) {
	sunday := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	materialized := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)

	visits := &mockVisitStore{
		visits: []*model.Visit{wednesdayTemplate()},
		existing: map[string]bool{
			"dr-chen@" + materialized.Format(time.RFC3339): true,
		},
	}
	e := testExpander(visits, sunday)
	require.NoError(t, e.Run(context.Background()))

	assert.Empty(t, visits.created)
}

func TestExpander_BadTemplateDoesNotAbortRun(t *testing.T) {
	sunday := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

	broken := wednesdayTemplate()
	broken.ID = "t-broken"
	broken.RecurringVisitTime = "25:99"
	healthy := wednesdayTemplate()

	visits := &mockVisitStore{visits: []*model.Visit{broken, healthy}}
	e := testExpander(visits, sunday)
	require.NoError(t, e.Run(context.Background()))

	require.Len(t, visits.created, 1)
	assert.Equal(t, "dr-chen", visits.created[0].DoctorUsername)
}
