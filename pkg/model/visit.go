package model

import (
	"medbook/pkg/config"
	"time"
)

// Visit is a bookable appointment slot, or a recurring template when
// Recurring is set. Templates are never booked directly; the nightly
// expander materializes dated instances from them.
type Visit struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Department     string    `json:"department" bson:"department" validate:"required,min=2,max=100"`
	DoctorUsername string    `json:"doctor_username" bson:"doctor_username" validate:"omitempty,min=2,max=50"`
	VisitTime      time.Time `json:"visit_time" bson:"visit_time"`
	Capacity       int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=200"`
	AvailableSlots int       `json:"available_slots" bson:"available_slots" validate:"min=0"`
	Status         string    `json:"status" bson:"status" validate:"omitempty,oneof=PENDING APPROVED"`
	Auction        bool      `json:"auction" bson:"auction"`
	BookedBy       []string  `json:"booked_by" bson:"booked_by"`

	Recurring          bool           `json:"recurring" bson:"recurring"`
	RecurringDayOfWeek config.Weekday `json:"recurring_day_of_week,omitempty" bson:"recurring_day_of_week,omitempty" validate:"omitempty,oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
	RecurringVisitTime string         `json:"recurring_visit_time,omitempty" bson:"recurring_visit_time,omitempty" validate:"omitempty,clock_time"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// IsBookedBy reports whether the patient already holds a slot on this visit.
func (v *Visit) IsBookedBy(username string) bool {
	for _, b := range v.BookedBy {
		if b == username {
			return true
		}
	}
	return false
}

// VisitDetails is the read model for the visit detail view: the visit plus
// the hospital of its doctor.
type VisitDetails struct {
	Visit    *Visit `json:"visit"`
	Hospital string `json:"hospital,omitempty"`
}
