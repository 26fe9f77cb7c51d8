package scheduler

import (
	"context"
	"time"

	"medbook/pkg/config"
	"medbook/pkg/logger"
	"medbook/pkg/model"
)

func newTestConfig() *config.Config {
	return &config.Config{
		RecurrenceLeadDays: 3,
		VisitLockTTL:       30 * time.Second,
		MinCreditScore:     60,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

type mockVisitStore struct {
	visits       []*model.Visit
	created      []*model.Visit
	saved        []*model.Visit
	existing     map[string]bool
	findErr      error
	createErr    error
	saveErr      error
	existsErr    error
	existsCalled []string
}

func (m *mockVisitStore) FindRecurring(ctx context.Context) ([]*model.Visit, error) {
	return m.visits, m.findErr
}

func (m *mockVisitStore) FindByStatusAndAuction(ctx context.Context, status string, auction bool) ([]*model.Visit, error) {
	return m.visits, m.findErr
}

func (m *mockVisitStore) ExistsByDoctorAndTime(ctx context.Context, doctor string, visitTime time.Time) (bool, error) {
	key := doctor + "@" + visitTime.Format(time.RFC3339)
	m.existsCalled = append(m.existsCalled, key)
	return m.existing[key], m.existsErr
}

func (m *mockVisitStore) Create(ctx context.Context, visit *model.Visit) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.existing == nil {
		m.existing = make(map[string]bool)
	}
	m.existing[visit.DoctorUsername+"@"+visit.VisitTime.Format(time.RFC3339)] = true
	m.created = append(m.created, visit)
	return nil
}

func (m *mockVisitStore) Save(ctx context.Context, visit *model.Visit) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, visit)
	return nil
}

type mockLocker struct {
	acquireErr error
	acquired   []string
	released   []string
}

func (m *mockLocker) Acquire(ctx context.Context, visitID string, ttl time.Duration) error {
	if m.acquireErr != nil {
		return m.acquireErr
	}
	m.acquired = append(m.acquired, visitID)
	return nil
}

func (m *mockLocker) Release(ctx context.Context, visitID string) error {
	m.released = append(m.released, visitID)
	return nil
}

type mockBidLister struct {
	bids map[string][]*model.Bid
	err  error
}

func (m *mockBidLister) FindByVisitID(ctx context.Context, visitID string) ([]*model.Bid, error) {
	return m.bids[visitID], m.err
}

type mockPatientDirectory struct {
	patients map[string]*model.Patient
	err      error
}

func (m *mockPatientDirectory) FindByUsernames(ctx context.Context, usernames []string) ([]*model.Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*model.Patient
	for _, u := range usernames {
		if p, ok := m.patients[u]; ok {
			out = append(out, p)
		}
	}
	return out, nil
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
