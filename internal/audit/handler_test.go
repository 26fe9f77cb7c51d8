package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"medbook/pkg/logger"
	"medbook/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

type stubRepository struct {
	entries   []*model.AuditEntry
	total     int64
	appendErr error
	gotLimit  int
	gotOffset int64
}

func (s *stubRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	return s.appendErr
}

func (s *stubRepository) FindByActor(ctx context.Context, actor string, limit int, offset int64) ([]*model.AuditEntry, error) {
	s.gotLimit = limit
	s.gotOffset = offset
	return s.entries, nil
}

func (s *stubRepository) CountByActor(ctx context.Context, actor string) (int64, error) {
	return s.total, nil
}

func TestByActor_PaginatesEntries(t *testing.T) {
	repo := &stubRepository{
		entries: []*model.AuditEntry{
			{Operation: "BOOK", Actor: "alice", TargetKind: "visit", TargetID: "v1", Timestamp: time.Now().UTC()},
			{Operation: "CANCEL", Actor: "alice", TargetKind: "visit", TargetID: "v1", Timestamp: time.Now().UTC()},
		},
		total: 12,
	}
	h := NewHandler(repo, NewRecorder(repo, nil, testLogger()), testLogger())

	router := httprouter.New()
	h.RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/audit/actor/alice?limit=2&offset=4", nil))
	require.Equal(t, 200, w.Code)

	var resp struct {
		Data       []*model.AuditEntry `json:"data"`
		TotalCount int64               `json:"total_count"`
		Limit      int                 `json:"limit"`
		Offset     int64               `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Len(t, resp.Data, 2)
	assert.Equal(t, int64(12), resp.TotalCount)
	assert.Equal(t, 2, resp.Limit)
	assert.Equal(t, int64(4), resp.Offset)
	assert.Equal(t, 2, repo.gotLimit)
	assert.Equal(t, int64(4), repo.gotOffset)
}

func TestStats_ReportsDroppedEntries(t *testing.T) {
	failing := &stubRepository{appendErr: errors.New("sink down")}
	recorder := NewRecorder(failing, nil, testLogger())
	recorder.Record(context.Background(), "BOOK", "alice", "visit", "v1")

	h := NewHandler(failing, recorder, testLogger())
	router := httprouter.New()
	h.RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/audit/stats", nil))
	require.Equal(t, 200, w.Code)

	var resp struct {
		Data map[string]int64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data["dropped_entries"])
}
