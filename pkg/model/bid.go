package model

import "time"

// Bid is a patient's offer on an auction visit. The data model allows
// several bids per (visit, patient) pair; ranking treats each independently.
type Bid struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	VisitID         string    `json:"visit_id" bson:"visit_id" validate:"required,mongodb"`
	PatientUsername string    `json:"patient_username" bson:"patient_username" validate:"required,min=2,max=50"`
	Amount          float64   `json:"amount" bson:"amount" validate:"gte=0"`
	BidTime         time.Time `json:"bid_time" bson:"bid_time"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// TopBid is the interactive ranking projection: a bid joined with the
// bidder's current credit score and the resulting score.
type TopBid struct {
	PatientUsername string    `json:"patient_username"`
	Amount          float64   `json:"amount"`
	BidTime         time.Time `json:"bid_time"`
	CreditScore     int       `json:"credit_score"`
	Score           float64   `json:"score"`
}
