package model

import "time"

// VisitLock is an advisory lock row keyed by visit. The auction resolver
// holds one for the duration of a visit's resolution so bookings cannot
// interleave with the in-memory mutation.
type VisitLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
