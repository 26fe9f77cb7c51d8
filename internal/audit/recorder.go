package audit

import (
	"context"
	"sync/atomic"
	"time"

	"medbook/pkg/kafka"
	"medbook/pkg/logger"
	"medbook/pkg/model"
)

const eventSource = "medbook"

// Recorder writes audit entries and optionally publishes them as events.
// Audit failure never fails the triggering business operation; dropped
// entries are counted so operators can alert on loss.
type Recorder struct {
	repo     Repository
	producer *kafka.Producer
	log      *logger.Logger
	dropped  atomic.Int64
}

func NewRecorder(repo Repository, producer *kafka.Producer, log *logger.Logger) *Recorder {
	return &Recorder{
		repo:     repo,
		producer: producer,
		log:      log,
	}
}

// Record appends one audit entry. Errors are logged and counted, not
// returned: booking must not fail because the audit sink is down.
func (r *Recorder) Record(ctx context.Context, operation, actor, targetKind, targetID string) {
	entry := &model.AuditEntry{
		Operation:  operation,
		Actor:      actor,
		TargetKind: targetKind,
		TargetID:   targetID,
		Timestamp:  time.Now().UTC(),
	}

	if err := r.repo.Append(ctx, entry); err != nil {
		r.dropped.Add(1)
		r.log.Error("Audit entry dropped",
			"operation", operation,
			"actor", actor,
			"target_id", targetID,
			"dropped_total", r.dropped.Load(),
			"error", err,
		)
	}

	if r.producer == nil {
		return
	}

	msg, err := kafka.NewMessage(targetID, "booking."+operation, eventSource, entry)
	if err != nil {
		r.log.Error("Failed to build booking event", "operation", operation, "error", err)
		return
	}
	if err := r.producer.Publish(ctx, msg); err != nil {
		r.log.Error("Failed to publish booking event", "operation", operation, "error", err)
	}
}

// Dropped reports how many audit entries failed to persist since start.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}
