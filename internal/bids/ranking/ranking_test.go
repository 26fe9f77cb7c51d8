package ranking

import (
	"testing"
	"time"

	"medbook/pkg/model"

	"github.com/stretchr/testify/assert"
)

func bid(id, patient string, amount float64, bidTime time.Time) *model.Bid {
	return &model.Bid{
		ID:              id,
		VisitID:         "v1",
		PatientUsername: patient,
		Amount:          amount,
		BidTime:         bidTime,
	}
}

func TestSort_OrdersByScoreDescending(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	ranked := []RankedBid{
		NewRankedBid(bid("b1", "p1", 800, now), 100),
		NewRankedBid(bid("b2", "p2", 1000, now), 100),
		NewRankedBid(bid("b3", "p3", 450, now), 100),
	}
	Sort(ranked)

	assert.Equal(t, "p2", ranked[0].Bid.PatientUsername)
	assert.Equal(t, "p1", ranked[1].Bid.PatientUsername)
	assert.Equal(t, "p3", ranked[2].Bid.PatientUsername)
}

func TestSort_CreditScoreWeighsAmount(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	// 500 × 100 beats 600 × 80.
	ranked := []RankedBid{
		NewRankedBid(bid("b1", "low-credit", 600, now), 80),
		NewRankedBid(bid("b2", "high-credit", 500, now), 100),
	}
	Sort(ranked)

	assert.Equal(t, "high-credit", ranked[0].Bid.PatientUsername)
	assert.Equal(t, float64(50000), ranked[0].Score)
}

func TestSort_TieBreaksByBidTimeThenID(t *testing.T) {
	early := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	ranked := []RankedBid{
		NewRankedBid(bid("b9", "late", 700, late), 100),
		NewRankedBid(bid("b5", "early-b", 700, early), 100),
		NewRankedBid(bid("b2", "early-a", 700, early), 100),
	}
	Sort(ranked)

	assert.Equal(t, "early-a", ranked[0].Bid.PatientUsername)
	assert.Equal(t, "early-b", ranked[1].Bid.PatientUsername)
	assert.Equal(t, "late", ranked[2].Bid.PatientUsername)
}

func TestSort_IsDeterministicAcrossInputOrder(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	build := func(order []string) []string {
		byID := map[string]RankedBid{
			"b1": NewRankedBid(bid("b1", "p1", 800, now), 90),
			"b2": NewRankedBid(bid("b2", "p2", 720, now), 100),
			"b3": NewRankedBid(bid("b3", "p3", 800, now), 90),
		}
		var ranked []RankedBid
		for _, id := range order {
			ranked = append(ranked, byID[id])
		}
		Sort(ranked)

		var ids []string
		for _, rb := range ranked {
			ids = append(ids, rb.Bid.ID)
		}
		return ids
	}

	first := build([]string{"b1", "b2", "b3"})
	second := build([]string{"b3", "b1", "b2"})
	assert.Equal(t, first, second)
}
