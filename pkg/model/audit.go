package model

import "time"

// AuditEntry is one append-only record of a booking or admin operation.
type AuditEntry struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	Operation  string    `json:"operation" bson:"operation"`
	Actor      string    `json:"actor" bson:"actor"`
	TargetKind string    `json:"target_kind" bson:"target_kind"`
	TargetID   string    `json:"target_id" bson:"target_id"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}
