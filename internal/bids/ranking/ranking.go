package ranking

import (
	"sort"

	"medbook/pkg/model"
)

// RankedBid pairs a bid with the bidder's credit score at scoring time.
// Both the interactive top-bids view and the nightly auction resolver rank
// through this package, so the two can never disagree on an ordering.
type RankedBid struct {
	Bid         *model.Bid
	CreditScore int
	Score       float64
}

func NewRankedBid(bid *model.Bid, creditScore int) RankedBid {
	return RankedBid{
		Bid:         bid,
		CreditScore: creditScore,
		Score:       bid.Amount * float64(creditScore),
	}
}

// Sort orders bids by score descending. Equal scores fall back to earlier
// bid time, then bid id, keeping resolution deterministic.
func Sort(bids []RankedBid) {
	sort.Slice(bids, func(i, j int) bool {
		a, b := bids[i], bids[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Bid.BidTime.Equal(b.Bid.BidTime) {
			return a.Bid.BidTime.Before(b.Bid.BidTime)
		}
		return a.Bid.ID < b.Bid.ID
	})
}
