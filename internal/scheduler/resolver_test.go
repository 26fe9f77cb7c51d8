package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	visitserrors "medbook/internal/visits/errors"
	"medbook/pkg/config"
	"medbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver(visits *mockVisitStore, locks *mockLocker, bids *mockBidLister, patients *mockPatientDirectory, audit *mockAudit, now time.Time) *Resolver {
	r := NewResolver(visits, locks, bids, patients, audit, newTestConfig())
	r.now = func() time.Time { return now }
	return r
}

func TestResolver_BooksHighestScoringBidders(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC)
	visit := &model.Visit{
		ID:             "v1",
		DoctorUsername: "dr-chen",
		VisitTime:      now.Add(10 * time.Hour),
		Capacity:       2,
		AvailableSlots: 2,
		Status:         config.StatusApproved,
		Auction:        true,
		BookedBy:       []string{},
	}
	// Credit weighting decides: 20 x 50 = 1000 beats 10 x 80 = 800 beats 5 x 90 = 450.
	visits := &mockVisitStore{visits: []*model.Visit{visit}}
	bids := &mockBidLister{bids: map[string][]*model.Bid{
		"v1": {
			{ID: "b1", VisitID: "v1", PatientUsername: "p1", Amount: 10, BidTime: now},
			{ID: "b2", VisitID: "v1", PatientUsername: "p2", Amount: 20, BidTime: now},
			{ID: "b3", VisitID: "v1", PatientUsername: "p3", Amount: 5, BidTime: now},
		},
	}}
	patients := &mockPatientDirectory{patients: map[string]*model.Patient{
		"p1": {Username: "p1", CreditScore: 80},
		"p2": {Username: "p2", CreditScore: 50},
		"p3": {Username: "p3", CreditScore: 90},
	}}
	locks := &mockLocker{}
	recorder := &mockAudit{}

	r := testResolver(visits, locks, bids, patients, recorder, now)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"p2", "p1"}, visit.BookedBy)
	assert.Equal(t, 0, visit.AvailableSlots)
	assert.False(t, visit.Auction)
	require.Len(t, visits.saved, 1)

	require.Len(t, recorder.calls, 2)
	assert.Equal(t, auditCall{config.OpAuctionBook, "p2", "visit", "v1"}, recorder.calls[0])
	assert.Equal(t, auditCall{config.OpAuctionBook, "p1", "visit", "v1"}, recorder.calls[1])

	assert.Equal(t, []string{"v1"}, locks.acquired)
	assert.Equal(t, []string{"v1"}, locks.released)
}

func TestResolver_SkipsBidsFromUnknownPatients(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC)
	visit := &model.Visit{
		ID:             "v1",
		VisitTime:      now.Add(8 * time.Hour),
		Capacity:       1,
		AvailableSlots: 1,
		Status:         config.StatusApproved,
		Auction:        true,
		BookedBy:       []string{},
	}
	visits := &mockVisitStore{visits: []*model.Visit{visit}}
	bids := &mockBidLister{bids: map[string][]*model.Bid{
		"v1": {
			{ID: "b1", VisitID: "v1", PatientUsername: "ghost", Amount: 9000, BidTime: now},
			{ID: "b2", VisitID: "v1", PatientUsername: "p1", Amount: 100, BidTime: now},
		},
	}}
	patients := &mockPatientDirectory{patients: map[string]*model.Patient{
		"p1": {Username: "p1", CreditScore: 100},
	}}

	r := testResolver(visits, &mockLocker{}, bids, patients, &mockAudit{}, now)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"p1"}, visit.BookedBy)
	assert.False(t, visit.Auction)
}

func TestResolver_OneWinPerPatient(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC)
	visit := &model.Visit{
		ID:             "v1",
		VisitTime:      now.Add(8 * time.Hour),
		Capacity:       2,
		AvailableSlots: 2,
		Status:         config.StatusApproved,
		Auction:        true,
		BookedBy:       []string{},
	}
	visits := &mockVisitStore{visits: []*model.Visit{visit}}
	bids := &mockBidLister{bids: map[string][]*model.Bid{
		"v1": {
			{ID: "b1", VisitID: "v1", PatientUsername: "p1", Amount: 900, BidTime: now},
			{ID: "b2", VisitID: "v1", PatientUsername: "p1", Amount: 800, BidTime: now},
			{ID: "b3", VisitID: "v1", PatientUsername: "p2", Amount: 100, BidTime: now},
		},
	}}
	patients := &mockPatientDirectory{patients: map[string]*model.Patient{
		"p1": {Username: "p1", CreditScore: 100},
		"p2": {Username: "p2", CreditScore: 100},
	}}

	r := testResolver(visits, &mockLocker{}, bids, patients, &mockAudit{}, now)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"p1", "p2"}, visit.BookedBy)
	assert.Equal(t, 0, visit.AvailableSlots)
}

func TestResolver_IgnoresVisitsNotDatedToday(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC)
	tomorrow := &model.Visit{
		ID:             "v-tomorrow",
		VisitTime:      now.AddDate(0, 0, 1),
		Capacity:       1,
		AvailableSlots: 1,
		Status:         config.StatusApproved,
		Auction:        true,
	}
	visits := &mockVisitStore{visits: []*model.Visit{tomorrow}}

	r := testResolver(visits, &mockLocker{}, &mockBidLister{}, &mockPatientDirectory{}, &mockAudit{}, now)
	require.NoError(t, r.Run(context.Background()))

	assert.Empty(t, visits.saved)
	assert.True(t, tomorrow.Auction)
}

func TestResolver_HeldLockSkipsVisit(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC)
	visit := &model.Visit{
		ID:             "v1",
		VisitTime:      now.Add(8 * time.Hour),
		Capacity:       1,
		AvailableSlots: 1,
		Status:         config.StatusApproved,
		Auction:        true,
	}
	visits := &mockVisitStore{visits: []*model.Visit{visit}}
	locks := &mockLocker{acquireErr: visitserrors.ErrLockHeld}

	r := testResolver(visits, locks, &mockBidLister{}, &mockPatientDirectory{}, &mockAudit{}, now)
	require.NoError(t, r.Run(context.Background()))

	assert.Empty(t, visits.saved)
	assert.True(t, visit.Auction)
}

func TestResolver_PatientStoreOutageLeavesAuctionOpen(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC)
	visit := &model.Visit{
		ID:             "v1",
		VisitTime:      now.Add(8 * time.Hour),
		Capacity:       2,
		AvailableSlots: 2,
		Status:         config.StatusApproved,
		Auction:        true,
		BookedBy:       []string{},
	}
	visits := &mockVisitStore{visits: []*model.Visit{visit}}
	bids := &mockBidLister{bids: map[string][]*model.Bid{
		"v1": {
			{ID: "b1", VisitID: "v1", PatientUsername: "p1", Amount: 500, BidTime: now},
		},
	}}
	patients := &mockPatientDirectory{err: errors.New("patient store down")}
	locks := &mockLocker{}
	recorder := &mockAudit{}

	r := testResolver(visits, locks, bids, patients, recorder, now)
	require.NoError(t, r.Run(context.Background()))

	// The visit must not be finalized on a bidder-lookup failure; the next
	// run retries it.
	assert.True(t, visit.Auction)
	assert.Empty(t, visit.BookedBy)
	assert.Equal(t, 2, visit.AvailableSlots)
	assert.Empty(t, visits.saved)
	assert.Empty(t, recorder.calls)
	assert.Equal(t, []string{"v1"}, locks.released)
}

func TestResolver_NoBidsStillClosesAuction(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC)
	visit := &model.Visit{
		ID:             "v1",
		VisitTime:      now.Add(8 * time.Hour),
		Capacity:       3,
		AvailableSlots: 3,
		Status:         config.StatusApproved,
		Auction:        true,
		BookedBy:       []string{},
	}
	visits := &mockVisitStore{visits: []*model.Visit{visit}}
	recorder := &mockAudit{}

	r := testResolver(visits, &mockLocker{}, &mockBidLister{}, &mockPatientDirectory{}, recorder, now)
	require.NoError(t, r.Run(context.Background()))

	assert.False(t, visit.Auction)
	assert.Equal(t, 3, visit.AvailableSlots)
	assert.Empty(t, recorder.calls)
	require.Len(t, visits.saved, 1)
}
