package scheduler

import (
	"context"
	"fmt"
	"time"

	"medbook/pkg/config"
	"medbook/pkg/model"
)

// TemplateStore is the slice of the visit repository the expander needs.
type TemplateStore interface {
	FindRecurring(ctx context.Context) ([]*model.Visit, error)
	ExistsByDoctorAndTime(ctx context.Context, doctorUsername string, visitTime time.Time) (bool, error)
	Create(ctx context.Context, visit *model.Visit) error
}

// Expander materializes dated visit instances from recurring templates a
// few days ahead, so patients see them inside the booking window.
type Expander struct {
	visits TemplateStore
	cfg    *config.Config
	now    func() time.Time
}

func NewExpander(visits TemplateStore, cfg *config.Config) *Expander {
	return &Expander{
		visits: visits,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (e *Expander) Name() string { return "recurrence-expander" }

// Run expands every template whose weekday matches the target date. A
// template failing to expand is logged and skipped; the run itself only
// fails when the template listing does. Re-runs are idempotent: a doctor's
// existing visit at the materialized time suppresses the instance.
func (e *Expander) Run(ctx context.Context) error {
	templates, err := e.visits.FindRecurring(ctx)
	if err != nil {
		return fmt.Errorf("failed to list recurring templates: %w", err)
	}

	now := e.now()
	target := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, e.cfg.RecurrenceLeadDays)

	expanded := 0
	for _, template := range templates {
		created, err := e.expand(ctx, template, target)
		if err != nil {
			e.cfg.Log.Error("Failed to expand recurring template",
				"template_id", template.ID,
				"doctor", template.DoctorUsername,
				"error", err,
			)
			continue
		}
		if created {
			expanded++
		}
	}

	e.cfg.Log.Info("Recurrence expansion completed",
		"templates", len(templates),
		"expanded", expanded,
		"target_date", target.Format("2006-01-02"),
	)
	return nil
}

func (e *Expander) expand(ctx context.Context, template *model.Visit, target time.Time) (bool, error) {
	weekday, ok := template.RecurringDayOfWeek.ToTime()
	if !ok {
		return false, fmt.Errorf("unknown day of week %q", template.RecurringDayOfWeek)
	}
	if target.Weekday() != weekday {
		return false, nil
	}

	clock, err := time.Parse("15:04", template.RecurringVisitTime)
	if err != nil {
		return false, fmt.Errorf("bad time of day %q: %w", template.RecurringVisitTime, err)
	}
	visitTime := time.Date(
		target.Year(), target.Month(), target.Day(),
		clock.Hour(), clock.Minute(), 0, 0, target.Location(),
	)

	exists, err := e.visits.ExistsByDoctorAndTime(ctx, template.DoctorUsername, visitTime)
	if err != nil {
		return false, fmt.Errorf("dedup check failed: %w", err)
	}
	if exists {
		return false, nil
	}

	instance := &model.Visit{
		Department:     template.Department,
		DoctorUsername: template.DoctorUsername,
		VisitTime:      visitTime,
		Capacity:       template.Capacity,
		AvailableSlots: template.Capacity,
		Status:         config.StatusPending,
	}
	if err := e.visits.Create(ctx, instance); err != nil {
		return false, fmt.Errorf("failed to create instance: %w", err)
	}

	e.cfg.Log.Info("Recurring visit materialized",
		"template_id", template.ID,
		"visit_id", instance.ID,
		"doctor", template.DoctorUsername,
		"visit_time", visitTime,
	)
	return true, nil
}
