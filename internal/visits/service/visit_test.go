package service

import (
	"context"
	"testing"
	"time"

	userserrors "medbook/internal/users/errors"
	visitserrors "medbook/internal/visits/errors"
	"medbook/internal/visits/repository"
	"medbook/internal/visits/validator"
	"medbook/pkg/config"
	mongotx "medbook/pkg/db/mongo"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/logger"
	"medbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

func newTestConfig() *config.Config {
	return &config.Config{
		MinCreditScore:     60,
		DefaultCreditScore: 100,
		CancelLeadTime:     24 * time.Hour,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

// mockVisitRepository keeps a single visit in memory and applies the same
// conditional semantics as the store's Book and Cancel updates.
type mockVisitRepository struct {
	visit   *model.Visit
	findErr error
	deleted []string
}

func (m *mockVisitRepository) Create(ctx context.Context, visit *model.Visit) error { return nil }

func (m *mockVisitRepository) FindByID(ctx context.Context, id string) (*model.Visit, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.visit == nil || m.visit.ID != id {
		return nil, visitserrors.ErrNotFound
	}
	copied := *m.visit
	copied.BookedBy = append([]string(nil), m.visit.BookedBy...)
	return &copied, nil
}

func (m *mockVisitRepository) FindByStatusAndAuction(ctx context.Context, status string, auction bool) ([]*model.Visit, error) {
	return nil, nil
}

func (m *mockVisitRepository) FindRecurring(ctx context.Context) ([]*model.Visit, error) {
	return nil, nil
}

func (m *mockVisitRepository) FindRecurringByDoctor(ctx context.Context, doctor string) ([]*model.Visit, error) {
	return nil, nil
}

func (m *mockVisitRepository) FindByDoctor(ctx context.Context, doctor string) ([]*model.Visit, error) {
	return nil, nil
}

func (m *mockVisitRepository) FindByDoctorAndAuction(ctx context.Context, doctor string, auction bool) ([]*model.Visit, error) {
	return nil, nil
}

func (m *mockVisitRepository) FindByDoctorInRange(ctx context.Context, doctor string, start, end time.Time) ([]*model.Visit, error) {
	return nil, nil
}

func (m *mockVisitRepository) FindBookedBy(ctx context.Context, patient string) ([]*model.Visit, error) {
	return nil, nil
}

func (m *mockVisitRepository) FindBookedByInRange(ctx context.Context, patient string, start, end time.Time) ([]*model.Visit, error) {
	return nil, nil
}

func (m *mockVisitRepository) FindAvailable(ctx context.Context, q repository.AvailableQuery) ([]*model.Visit, error) {
	return nil, nil
}

func (m *mockVisitRepository) DistinctDepartments(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockVisitRepository) DistinctDoctors(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockVisitRepository) ExistsByDoctorAndTime(ctx context.Context, doctor string, t time.Time) (bool, error) {
	return false, nil
}

func (m *mockVisitRepository) Save(ctx context.Context, visit *model.Visit) error {
	m.visit = visit
	return nil
}

func (m *mockVisitRepository) Book(ctx context.Context, id, username string) error {
	if m.visit == nil || m.visit.ID != id || m.visit.AvailableSlots <= 0 || m.visit.IsBookedBy(username) {
		return visitserrors.ErrNoSlotOrDuplicate
	}
	m.visit.AvailableSlots--
	m.visit.BookedBy = append(m.visit.BookedBy, username)
	return nil
}

func (m *mockVisitRepository) Cancel(ctx context.Context, id, username string) error {
	if m.visit == nil || m.visit.ID != id || !m.visit.IsBookedBy(username) {
		return visitserrors.ErrNotBooked
	}
	m.visit.AvailableSlots++
	kept := m.visit.BookedBy[:0]
	for _, b := range m.visit.BookedBy {
		if b != username {
			kept = append(kept, b)
		}
	}
	m.visit.BookedBy = kept
	return nil
}

func (m *mockVisitRepository) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockVisitRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
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

type mockDoctors struct {
	doctors map[string]*model.Doctor
}

func (m *mockDoctors) FindByUsername(ctx context.Context, username string) (*model.Doctor, error) {
	if d, ok := m.doctors[username]; ok {
		return d, nil
	}
	return nil, userserrors.ErrNotFound
}

type mockBidPurger struct {
	purged []string
}

func (m *mockBidPurger) DeleteByVisitID(ctx context.Context, visitID string) error {
	m.purged = append(m.purged, visitID)
	return nil
}

type auditCall struct {
	operation, actor, targetKind, targetID string
}

type mockAudit struct {
	calls []auditCall
}

func (m *mockAudit) Record(ctx context.Context, operation, actor, targetKind, targetID string) {
	m.calls = append(m.calls, auditCall{operation, actor, targetKind, targetID})
}

func newBookingFixture(t *testing.T) (*visitService, *mockVisitRepository, *mockAudit, time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	repo := &mockVisitRepository{visit: &model.Visit{
		ID:             "v1",
		Department:     "Cardiology",
		DoctorUsername: "dr-chen",
		VisitTime:      now.AddDate(0, 0, 3),
		Capacity:       2,
		AvailableSlots: 2,
		Status:         config.StatusApproved,
		BookedBy:       []string{},
	}}
	patients := &mockPatients{patients: map[string]*model.Patient{
		"alice":      {Username: "alice", CreditScore: 100},
		"bob":        {Username: "bob", CreditScore: 100},
		"low-credit": {Username: "low-credit", CreditScore: 40},
	}}
	recorder := &mockAudit{}

	cfg := newTestConfig()
	svc := NewVisitService(repo, patients, &mockDoctors{}, &mockBidPurger{}, validator.NewVisitValidator(cfg.Log), recorder, cfg).(*visitService)
	svc.now = func() time.Time { return now }
	return svc, repo, recorder, now
}

func assertInvariant(t *testing.T, v *model.Visit) {
	t.Helper()
	if v.AvailableSlots+len(v.BookedBy) != v.Capacity {
		t.Fatalf("capacity invariant violated: slots=%d booked=%d capacity=%d",
			v.AvailableSlots, len(v.BookedBy), v.Capacity)
	}
}

func assertConflict(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, apperrors.CodeConflict)
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

func TestBook_Succeeds(t *testing.T) {
	svc, repo, recorder, _ := newBookingFixture(t)

	if err := svc.Book(context.Background(), "alice", "v1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !repo.visit.IsBookedBy("alice") {
		t.Error("expected alice in booked_by")
	}
	if repo.visit.AvailableSlots != 1 {
		t.Errorf("expected 1 slot left, got %d", repo.visit.AvailableSlots)
	}
	assertInvariant(t, repo.visit)

	if len(recorder.calls) != 1 || recorder.calls[0].operation != config.OpBook {
		t.Errorf("expected one BOOK audit entry, got %+v", recorder.calls)
	}
}

func TestBook_RejectionsLeaveStateUnchanged(t *testing.T) {
	cases := []struct {
		name    string
		actor   string
		prepare func(*mockVisitRepository)
		code    string
	}{
		{
			name:  "unknown patient",
			actor: "stranger",
			code:  apperrors.CodeForbidden,
		},
		{
			name:  "low credit score",
			actor: "low-credit",
			code:  apperrors.CodeForbidden,
		},
		{
			name:  "pending visit",
			actor: "alice",
			prepare: func(r *mockVisitRepository) {
				r.visit.Status = config.StatusPending
			},
			code: apperrors.CodeConflict,
		},
		{
			name:  "auction visit",
			actor: "alice",
			prepare: func(r *mockVisitRepository) {
				r.visit.Auction = true
			},
			code: apperrors.CodeInvalidInput,
		},
		{
			name:  "recurring template",
			actor: "alice",
			prepare: func(r *mockVisitRepository) {
				r.visit.Recurring = true
			},
			code: apperrors.CodeInvalidInput,
		},
		{
			name:  "already booked",
			actor: "alice",
			prepare: func(r *mockVisitRepository) {
				r.visit.BookedBy = []string{"alice"}
				r.visit.AvailableSlots = 1
			},
			code: apperrors.CodeConflict,
		},
		{
			name:  "fully booked",
			actor: "alice",
			prepare: func(r *mockVisitRepository) {
				r.visit.BookedBy = []string{"bob", "carol"}
				r.visit.AvailableSlots = 0
			},
			code: apperrors.CodeConflict,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, recorder, _ := newBookingFixture(t)
			if tc.prepare != nil {
				tc.prepare(repo)
			}
			before := *repo.visit
			beforeBooked := append([]string(nil), repo.visit.BookedBy...)

			err := svc.Book(context.Background(), tc.actor, "v1")
			assertCode(t, err, tc.code)

			if repo.visit.AvailableSlots != before.AvailableSlots {
				t.Errorf("slots changed on rejection: %d -> %d", before.AvailableSlots, repo.visit.AvailableSlots)
			}
			if len(repo.visit.BookedBy) != len(beforeBooked) {
				t.Errorf("booked_by changed on rejection: %v -> %v", beforeBooked, repo.visit.BookedBy)
			}
			if len(recorder.calls) != 0 {
				t.Errorf("audit recorded on rejection: %+v", recorder.calls)
			}
			assertInvariant(t, repo.visit)
		})
	}
}

func TestBookPrecheck_DoesNotMutate(t *testing.T) {
	svc, repo, recorder, _ := newBookingFixture(t)

	if err := svc.BookPrecheck(context.Background(), "alice", "v1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.visit.AvailableSlots != 2 || len(repo.visit.BookedBy) != 0 {
		t.Error("precheck must not claim a slot")
	}
	if len(recorder.calls) != 0 {
		t.Error("precheck must not record audit entries")
	}
}

func TestCancel_Succeeds(t *testing.T) {
	svc, repo, recorder, _ := newBookingFixture(t)
	repo.visit.BookedBy = []string{"alice"}
	repo.visit.AvailableSlots = 1

	if err := svc.CancelBooking(context.Background(), "alice", "v1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.visit.IsBookedBy("alice") {
		t.Error("alice still booked after cancel")
	}
	if repo.visit.AvailableSlots != 2 {
		t.Errorf("expected 2 slots after cancel, got %d", repo.visit.AvailableSlots)
	}
	assertInvariant(t, repo.visit)

	if len(recorder.calls) != 1 || recorder.calls[0].operation != config.OpCancel {
		t.Errorf("expected one CANCEL audit entry, got %+v", recorder.calls)
	}
}

func TestCancel_RejectedWithinLeadTime(t *testing.T) {
	svc, repo, recorder, now := newBookingFixture(t)
	repo.visit.BookedBy = []string{"alice"}
	repo.visit.AvailableSlots = 1
	repo.visit.VisitTime = now.Add(23 * time.Hour)

	err := svc.CancelBooking(context.Background(), "alice", "v1")
	assertConflict(t, err)

	if !repo.visit.IsBookedBy("alice") {
		t.Error("booking released despite rejection")
	}
	if len(recorder.calls) != 0 {
		t.Errorf("audit recorded on rejection: %+v", recorder.calls)
	}
}

func TestCancel_RejectedWhenNotBooked(t *testing.T) {
	svc, repo, _, _ := newBookingFixture(t)

	err := svc.CancelBooking(context.Background(), "alice", "v1")
	assertConflict(t, err)
	assertInvariant(t, repo.visit)
}

func TestBookCancelSequencePreservesInvariant(t *testing.T) {
	svc, repo, _, _ := newBookingFixture(t)

	ops := []struct {
		actor  string
		cancel bool
	}{
		{"alice", false},
		{"bob", false},
		{"alice", false}, // duplicate, rejected
		{"alice", true},
		{"alice", false},
		{"bob", true},
		{"bob", true}, // not booked, rejected
	}
	for i, op := range ops {
		var err error
		if op.cancel {
			err = svc.CancelBooking(context.Background(), op.actor, "v1")
		} else {
			err = svc.Book(context.Background(), op.actor, "v1")
		}
		_ = err
		assertInvariant(t, repo.visit)
		if repo.visit.AvailableSlots < 0 {
			t.Fatalf("op %d drove slots negative", i)
		}
	}

	if !repo.visit.IsBookedBy("alice") || repo.visit.IsBookedBy("bob") {
		t.Errorf("unexpected final state: %v", repo.visit.BookedBy)
	}
}

func TestBookingWindow(t *testing.T) {
	svc, _, _, _ := newBookingFixture(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		from time.Time
	}{
		{"before opening", day.Add(6 * time.Hour), day.AddDate(0, 0, 1)},
		{"morning window", day.Add(8 * time.Hour), day.Add(8 * time.Hour)},
		{"midday window", day.Add(10 * time.Hour), day.Add(14 * time.Hour)},
		{"after cutoff", day.Add(15 * time.Hour), day.AddDate(0, 0, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			from, to := svc.bookingWindow(tc.now)
			if !from.Equal(tc.from) {
				t.Errorf("from = %v, want %v", from, tc.from)
			}
			want := day.AddDate(0, 0, 5)
			if !to.Equal(want) {
				t.Errorf("to = %v, want %v", to, want)
			}
		})
	}
}

func TestDelete_OnlyOwnerMayDelete(t *testing.T) {
	svc, repo, _, _ := newBookingFixture(t)
	purger := &mockBidPurger{}
	svc.bids = purger

	err := svc.Delete(context.Background(), "dr-someone-else", "v1")
	assertCode(t, err, apperrors.CodeForbidden)
	if len(repo.deleted) != 0 {
		t.Error("visit deleted despite foreign actor")
	}
	if len(purger.purged) != 0 {
		t.Error("bids purged despite foreign actor")
	}

	if err := svc.Delete(context.Background(), "dr-chen", "v1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Error("expected delete to reach the store")
	}
	if len(purger.purged) != 1 || purger.purged[0] != "v1" {
		t.Errorf("expected bids purged for v1, got %v", purger.purged)
	}
}
