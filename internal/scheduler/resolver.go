package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medbook/internal/bids/ranking"
	visitserrors "medbook/internal/visits/errors"
	"medbook/pkg/config"
	"medbook/pkg/model"
)

// AuctionStore is the slice of the visit repository the resolver needs.
type AuctionStore interface {
	FindByStatusAndAuction(ctx context.Context, status string, auction bool) ([]*model.Visit, error)
	Save(ctx context.Context, visit *model.Visit) error
}

// VisitLocker provides the advisory lock held while a visit is resolved.
type VisitLocker interface {
	Acquire(ctx context.Context, visitID string, ttl time.Duration) error
	Release(ctx context.Context, visitID string) error
}

// BidLister loads a visit's bids.
type BidLister interface {
	FindByVisitID(ctx context.Context, visitID string) ([]*model.Bid, error)
}

// PatientDirectory resolves bidder credit scores.
type PatientDirectory interface {
	FindByUsernames(ctx context.Context, usernames []string) ([]*model.Patient, error)
}

// AuditRecorder records the winners' bookings.
type AuditRecorder interface {
	Record(ctx context.Context, operation, actor, targetKind, targetID string)
}

// Resolver settles today's auction visits: bids are scored by amount times
// bidder credit, the top ones win the remaining slots, and the visit stops
// being an auction.
type Resolver struct {
	visits   AuctionStore
	locks    VisitLocker
	bids     BidLister
	patients PatientDirectory
	audit    AuditRecorder
	cfg      *config.Config
	now      func() time.Time
}

func NewResolver(
	visits AuctionStore,
	locks VisitLocker,
	bids BidLister,
	patients PatientDirectory,
	auditRecorder AuditRecorder,
	cfg *config.Config,
) *Resolver {
	return &Resolver{
		visits:   visits,
		locks:    locks,
		bids:     bids,
		patients: patients,
		audit:    auditRecorder,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (r *Resolver) Name() string { return "auction-resolver" }

// Run resolves every approved auction visit dated today. One visit's
// failure is logged and does not abort the rest of the run.
func (r *Resolver) Run(ctx context.Context) error {
	visits, err := r.visits.FindByStatusAndAuction(ctx, config.StatusApproved, true)
	if err != nil {
		return fmt.Errorf("failed to list auction visits: %w", err)
	}

	now := r.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	resolved := 0
	for _, visit := range visits {
		if visit.VisitTime.Before(dayStart) || !visit.VisitTime.Before(dayEnd) {
			continue
		}

		if err := r.resolve(ctx, visit); err != nil {
			r.cfg.Log.Error("Failed to resolve auction visit",
				"visit_id", visit.ID,
				"doctor", visit.DoctorUsername,
				"error", err,
			)
			continue
		}
		resolved++
	}

	r.cfg.Log.Info("Auction resolution completed",
		"candidates", len(visits),
		"resolved", resolved,
	)
	return nil
}

func (r *Resolver) resolve(ctx context.Context, visit *model.Visit) error {
	if err := r.locks.Acquire(ctx, visit.ID, r.cfg.VisitLockTTL); err != nil {
		if errors.Is(err, visitserrors.ErrLockHeld) {
			r.cfg.Log.Warn("Auction visit is locked, skipping", "visit_id", visit.ID)
			return nil
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() {
		if err := r.locks.Release(ctx, visit.ID); err != nil {
			r.cfg.Log.Error("Failed to release visit lock", "visit_id", visit.ID, "error", err)
		}
	}()

	bids, err := r.bids.FindByVisitID(ctx, visit.ID)
	if err != nil {
		return fmt.Errorf("failed to load bids: %w", err)
	}

	winners, err := r.pickWinners(ctx, visit, bids)
	if err != nil {
		return err
	}

	for _, winner := range winners {
		visit.BookedBy = append(visit.BookedBy, winner)
		visit.AvailableSlots--
	}
	visit.Auction = false

	if err := r.visits.Save(ctx, visit); err != nil {
		return fmt.Errorf("failed to persist resolution: %w", err)
	}

	for _, winner := range winners {
		r.audit.Record(ctx, config.OpAuctionBook, winner, "visit", visit.ID)
	}

	r.cfg.Log.Info("Auction visit resolved",
		"visit_id", visit.ID,
		"bids", len(bids),
		"winners", len(winners),
		"remaining_slots", visit.AvailableSlots,
	)
	return nil
}

// pickWinners ranks the bids and allocates the remaining slots, one per
// patient at most. Bids from unknown patients are skipped with a warning;
// a failure to load the bidders aborts the visit so the auction stays open.
func (r *Resolver) pickWinners(ctx context.Context, visit *model.Visit, bids []*model.Bid) ([]string, error) {
	if len(bids) == 0 || visit.AvailableSlots <= 0 {
		return nil, nil
	}

	credit, err := r.creditScores(ctx, bids)
	if err != nil {
		return nil, err
	}

	ranked := make([]ranking.RankedBid, 0, len(bids))
	for _, bid := range bids {
		score, ok := credit[bid.PatientUsername]
		if !ok {
			r.cfg.Log.Warn("Skipping bid from unknown patient",
				"bid_id", bid.ID,
				"visit_id", visit.ID,
				"patient", bid.PatientUsername,
			)
			continue
		}
		ranked = append(ranked, ranking.NewRankedBid(bid, score))
	}
	ranking.Sort(ranked)

	taken := make(map[string]struct{})
	var winners []string
	for _, rb := range ranked {
		if len(winners) >= visit.AvailableSlots {
			break
		}
		username := rb.Bid.PatientUsername
		if _, ok := taken[username]; ok {
			continue
		}
		if visit.IsBookedBy(username) {
			continue
		}
		taken[username] = struct{}{}
		winners = append(winners, username)
	}
	return winners, nil
}

func (r *Resolver) creditScores(ctx context.Context, bids []*model.Bid) (map[string]int, error) {
	seen := make(map[string]struct{})
	var usernames []string
	for _, bid := range bids {
		if _, ok := seen[bid.PatientUsername]; ok {
			continue
		}
		seen[bid.PatientUsername] = struct{}{}
		usernames = append(usernames, bid.PatientUsername)
	}

	patients, err := r.patients.FindByUsernames(ctx, usernames)
	if err != nil {
		return nil, fmt.Errorf("failed to load bidders: %w", err)
	}

	credit := make(map[string]int, len(patients))
	for _, p := range patients {
		credit[p.Username] = p.CreditScore
	}
	return credit, nil
}
