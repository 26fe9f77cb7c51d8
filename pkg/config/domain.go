package config

import "time"

// Approval lifecycle shared by users and visits.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
)

// Audit operation kinds.
const (
	OpBook        = "BOOK"
	OpCancel      = "CANCEL"
	OpAuctionBook = "AUCTION_BOOK"
	OpAdminUpdate = "UPDATE"
	OpAdminDelete = "DELETE"
)

// Roles as they appear in URLs and audit records.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

type Weekday string

const (
	Sunday    Weekday = "Sunday"
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
)

var weekdays = map[Weekday]time.Weekday{
	Sunday:    time.Sunday,
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
}

// ToTime converts the stored weekday name to time.Weekday.
func (w Weekday) ToTime() (time.Weekday, bool) {
	d, ok := weekdays[w]
	return d, ok
}
