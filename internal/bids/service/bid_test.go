package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	userserrors "medbook/internal/users/errors"
	visitserrors "medbook/internal/visits/errors"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/logger"
	"medbook/pkg/model"
)

func newTestConfig() *config.Config {
	return &config.Config{
		MinCreditScore: 60,
		TopBidsLimit:   5,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

type mockBidRepository struct {
	bids    []*model.Bid
	created []*model.Bid
	err     error
}

func (m *mockBidRepository) Create(ctx context.Context, bid *model.Bid) error {
	if m.err != nil {
		return m.err
	}
	bid.ID = fmt.Sprintf("b%d", len(m.created)+1)
	m.created = append(m.created, bid)
	m.bids = append(m.bids, bid)
	return nil
}

func (m *mockBidRepository) FindByVisitID(ctx context.Context, visitID string) ([]*model.Bid, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*model.Bid
	for _, b := range m.bids {
		if b.VisitID == visitID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBidRepository) FindByPatientUsername(ctx context.Context, username string) ([]*model.Bid, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*model.Bid
	for _, b := range m.bids {
		if b.PatientUsername == username {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBidRepository) DeleteByVisitID(ctx context.Context, visitID string) error {
	var kept []*model.Bid
	for _, b := range m.bids {
		if b.VisitID != visitID {
			kept = append(kept, b)
		}
	}
	m.bids = kept
	return nil
}

type mockPatients struct {
	patients map[string]*model.Patient
}

func (m *mockPatients) FindByUsername(ctx context.Context, username string) (*model.Patient, error) {
	if p, ok := m.patients[username]; ok {
		return p, nil
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockPatients) FindByUsernames(ctx context.Context, usernames []string) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, u := range usernames {
		if p, ok := m.patients[u]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockVisits struct {
	visit *model.Visit
}

func (m *mockVisits) FindByID(ctx context.Context, id string) (*model.Visit, error) {
	if m.visit == nil || m.visit.ID != id {
		return nil, visitserrors.ErrNotFound
	}
	return m.visit, nil
}

func newBidFixture() (*bidService, *mockBidRepository, *mockPatients, *mockVisits) {
	repo := &mockBidRepository{}
	patients := &mockPatients{patients: map[string]*model.Patient{
		"alice":      {Username: "alice", CreditScore: 100},
		"bob":        {Username: "bob", CreditScore: 80},
		"low-credit": {Username: "low-credit", CreditScore: 40},
	}}
	visits := &mockVisits{visit: &model.Visit{
		ID:             "v1",
		Capacity:       2,
		AvailableSlots: 2,
		Status:         config.StatusApproved,
		Auction:        true,
	}}

	svc := NewBidService(repo, patients, visits, newTestConfig()).(*bidService)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	}
	return svc, repo, patients, visits
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != code {
		t.Fatalf("expected error code %s, got %s (%v)", code, appErr.Code, err)
	}
}

func TestPlaceBid_Succeeds(t *testing.T) {
	svc, repo, _, _ := newBidFixture()

	bid, err := svc.PlaceBid(context.Background(), "alice", "v1", 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bid.PatientUsername != "alice" || bid.VisitID != "v1" || bid.Amount != 500 {
		t.Errorf("unexpected bid: %+v", bid)
	}
	if bid.BidTime.IsZero() {
		t.Error("bid time not stamped")
	}
	if len(repo.created) != 1 {
		t.Errorf("expected one persisted bid, got %d", len(repo.created))
	}
}

func TestPlaceBid_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		actor   string
		amount  float64
		prepare func(*mockVisits)
		code    string
	}{
		{
			name:   "negative amount",
			actor:  "alice",
			amount: -1,
			code:   apperrors.CodeInvalidInput,
		},
		{
			name:   "unknown patient",
			actor:  "stranger",
			amount: 100,
			code:   apperrors.CodeForbidden,
		},
		{
			name:   "low credit score",
			actor:  "low-credit",
			amount: 100,
			code:   apperrors.CodeForbidden,
		},
		{
			name:   "non-auction visit",
			actor:  "alice",
			amount: 100,
			prepare: func(v *mockVisits) {
				v.visit.Auction = false
			},
			code: apperrors.CodeInvalidInput,
		},
		{
			name:   "pending auction",
			actor:  "alice",
			amount: 100,
			prepare: func(v *mockVisits) {
				v.visit.Status = config.StatusPending
			},
			code: apperrors.CodeConflict,
		},
		{
			name:   "missing visit",
			actor:  "alice",
			amount: 100,
			prepare: func(v *mockVisits) {
				v.visit = nil
			},
			code: apperrors.CodeNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _, visits := newBidFixture()
			if tc.prepare != nil {
				tc.prepare(visits)
			}

			_, err := svc.PlaceBid(context.Background(), tc.actor, "v1", tc.amount)
			assertCode(t, err, tc.code)
			if len(repo.created) != 0 {
				t.Errorf("bid persisted despite rejection: %+v", repo.created)
			}
		})
	}
}

func TestPlaceBid_ZeroAmountIsAllowed(t *testing.T) {
	svc, _, _, _ := newBidFixture()

	if _, err := svc.PlaceBid(context.Background(), "alice", "v1", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTopBids_RanksByAmountTimesCreditScore(t *testing.T) {
	svc, repo, _, _ := newBidFixture()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// 500 × 100 = 50000 beats 600 × 80 = 48000.
	repo.bids = []*model.Bid{
		{ID: "b1", VisitID: "v1", PatientUsername: "bob", Amount: 600, BidTime: now},
		{ID: "b2", VisitID: "v1", PatientUsername: "alice", Amount: 500, BidTime: now},
	}

	top, err := svc.TopBids(context.Background(), "v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].PatientUsername != "alice" || top[0].Score != 50000 {
		t.Errorf("unexpected leader: %+v", top[0])
	}
	if top[1].PatientUsername != "bob" || top[1].Score != 48000 {
		t.Errorf("unexpected runner-up: %+v", top[1])
	}
}

func TestTopBids_OrderMatchesAuctionResolution(t *testing.T) {
	svc, repo, patients, _ := newBidFixture()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	patients.patients["carol"] = &model.Patient{Username: "carol", CreditScore: 100}
	patients.patients["dave"] = &model.Patient{Username: "dave", CreditScore: 100}

	// Same inputs the nightly resolver ranks: 1000 wins, then 800, then 450.
	repo.bids = []*model.Bid{
		{ID: "b1", VisitID: "v1", PatientUsername: "alice", Amount: 800, BidTime: now},
		{ID: "b2", VisitID: "v1", PatientUsername: "carol", Amount: 1000, BidTime: now},
		{ID: "b3", VisitID: "v1", PatientUsername: "dave", Amount: 450, BidTime: now},
	}

	top, err := svc.TopBids(context.Background(), "v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"carol", "alice", "dave"}
	if len(top) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(top))
	}
	for i, username := range want {
		if top[i].PatientUsername != username {
			t.Errorf("position %d: got %s, want %s", i, top[i].PatientUsername, username)
		}
	}
}

func TestTopBids_SkipsUnknownBiddersAndTruncates(t *testing.T) {
	svc, repo, _, _ := newBidFixture()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	repo.bids = append(repo.bids, &model.Bid{
		ID: "b0", VisitID: "v1", PatientUsername: "ghost", Amount: 9999, BidTime: now,
	})
	for i := 0; i < 7; i++ {
		repo.bids = append(repo.bids, &model.Bid{
			ID:              fmt.Sprintf("b%d", i+1),
			VisitID:         "v1",
			PatientUsername: "alice",
			Amount:          float64(100 + i),
			BidTime:         now.Add(time.Duration(i) * time.Minute),
		})
	}

	top, err := svc.TopBids(context.Background(), "v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top) != 5 {
		t.Fatalf("expected truncation to 5 entries, got %d", len(top))
	}
	for _, entry := range top {
		if entry.PatientUsername == "ghost" {
			t.Error("bid from unknown patient survived ranking")
		}
	}
	for i := 1; i < len(top); i++ {
		if top[i].Score > top[i-1].Score {
			t.Errorf("entries out of order at %d: %v > %v", i, top[i].Score, top[i-1].Score)
		}
	}
}

func TestTopBids_EmptyVisitYieldsEmptyList(t *testing.T) {
	svc, _, _, _ := newBidFixture()

	top, err := svc.TopBids(context.Background(), "v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top) != 0 {
		t.Errorf("expected empty list, got %+v", top)
	}
}

func TestPatientBids_FiltersByActor(t *testing.T) {
	svc, repo, _, _ := newBidFixture()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	repo.bids = []*model.Bid{
		{ID: "b1", VisitID: "v1", PatientUsername: "alice", Amount: 100, BidTime: now},
		{ID: "b2", VisitID: "v2", PatientUsername: "bob", Amount: 200, BidTime: now},
		{ID: "b3", VisitID: "v3", PatientUsername: "alice", Amount: 300, BidTime: now},
	}

	bids, err := svc.PatientBids(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bids) != 2 {
		t.Fatalf("expected 2 bids, got %d", len(bids))
	}
	for _, b := range bids {
		if b.PatientUsername != "alice" {
			t.Errorf("foreign bid in listing: %+v", b)
		}
	}
}
