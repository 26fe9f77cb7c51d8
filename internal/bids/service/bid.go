package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bidserrors "medbook/internal/bids/errors"
	"medbook/internal/bids/ranking"
	"medbook/internal/bids/repository"
	userserrors "medbook/internal/users/errors"
	visitserrors "medbook/internal/visits/errors"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/model"
)

// PatientDirectory is the slice of the users module the bid service needs.
type PatientDirectory interface {
	FindByUsername(ctx context.Context, username string) (*model.Patient, error)
	FindByUsernames(ctx context.Context, usernames []string) ([]*model.Patient, error)
}

// VisitFinder resolves the auction visit a bid targets.
type VisitFinder interface {
	FindByID(ctx context.Context, id string) (*model.Visit, error)
}

type BidService interface {
	PlaceBid(ctx context.Context, actor, visitID string, amount float64) (*model.Bid, error)
	PatientBids(ctx context.Context, actor string) ([]*model.Bid, error)
	VisitBids(ctx context.Context, visitID string) ([]*model.Bid, error)
	TopBids(ctx context.Context, visitID string) ([]*model.TopBid, error)
}

type bidService struct {
	repo     repository.BidRepository
	patients PatientDirectory
	visits   VisitFinder
	cfg      *config.Config
	now      func() time.Time
}

func NewBidService(
	repo repository.BidRepository,
	patients PatientDirectory,
	visits VisitFinder,
	cfg *config.Config,
) BidService {
	return &bidService{
		repo:     repo,
		patients: patients,
		visits:   visits,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *bidService) PlaceBid(ctx context.Context, actor, visitID string, amount float64) (*model.Bid, error) {
	if amount < 0 {
		return nil, apperrors.InvalidInput("Bid amount cannot be negative")
	}

	patient, err := s.patients.FindByUsername(ctx, actor)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Forbidden("Only registered patients can bid")
		}
		return nil, apperrors.Internal("Failed to verify patient", err)
	}
	if patient.CreditScore < s.cfg.MinCreditScore {
		return nil, apperrors.Forbidden(fmt.Sprintf(
			"Credit score %d is below the bidding threshold of %d",
			patient.CreditScore, s.cfg.MinCreditScore,
		))
	}

	visit, err := s.visits.FindByID(ctx, visitID)
	if err != nil {
		return nil, s.translateVisitError(err, visitID)
	}
	if !visit.Auction {
		return nil, apperrors.InvalidInput("Bids can only be placed on auction visits")
	}
	if visit.Status != config.StatusApproved {
		return nil, apperrors.Conflict("Auction visit is not approved for bidding")
	}

	bid := &model.Bid{
		VisitID:         visitID,
		PatientUsername: actor,
		Amount:          amount,
		BidTime:         s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.Create(ctx, bid); err != nil {
		s.cfg.Log.Error("Failed to place bid", "visit_id", visitID, "patient", actor, "error", err)
		return nil, apperrors.Internal("Failed to place bid", err)
	}

	s.cfg.Log.Info("Bid placed",
		"bid_id", bid.ID,
		"visit_id", visitID,
		"patient", actor,
		"amount", amount,
	)
	return bid, nil
}

func (s *bidService) PatientBids(ctx context.Context, actor string) ([]*model.Bid, error) {
	bids, err := s.repo.FindByPatientUsername(ctx, actor)
	if err != nil {
		s.cfg.Log.Error("Failed to list patient bids", "patient", actor, "error", err)
		return nil, apperrors.Internal("Failed to list bids", err)
	}
	return bids, nil
}

func (s *bidService) VisitBids(ctx context.Context, visitID string) ([]*model.Bid, error) {
	bids, err := s.repo.FindByVisitID(ctx, visitID)
	if err != nil {
		if errors.Is(err, bidserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid visit ID format")
		}
		s.cfg.Log.Error("Failed to list visit bids", "visit_id", visitID, "error", err)
		return nil, apperrors.Internal("Failed to list bids", err)
	}
	return bids, nil
}

// TopBids scores a visit's bids by amount times the bidder's current
// credit score and returns the leading few. Bids whose bidder no longer
// exists are skipped with a warning, matching resolver behavior.
func (s *bidService) TopBids(ctx context.Context, visitID string) ([]*model.TopBid, error) {
	bids, err := s.VisitBids(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if len(bids) == 0 {
		return []*model.TopBid{}, nil
	}

	creditByUsername, err := s.creditScores(ctx, bids)
	if err != nil {
		return nil, err
	}

	ranked := make([]ranking.RankedBid, 0, len(bids))
	for _, bid := range bids {
		credit, ok := creditByUsername[bid.PatientUsername]
		if !ok {
			s.cfg.Log.Warn("Skipping bid from unknown patient",
				"bid_id", bid.ID,
				"visit_id", visitID,
				"patient", bid.PatientUsername,
			)
			continue
		}
		ranked = append(ranked, ranking.NewRankedBid(bid, credit))
	}
	ranking.Sort(ranked)

	if len(ranked) > s.cfg.TopBidsLimit {
		ranked = ranked[:s.cfg.TopBidsLimit]
	}

	top := make([]*model.TopBid, 0, len(ranked))
	for _, rb := range ranked {
		top = append(top, &model.TopBid{
			PatientUsername: rb.Bid.PatientUsername,
			Amount:          rb.Bid.Amount,
			BidTime:         rb.Bid.BidTime,
			CreditScore:     rb.CreditScore,
			Score:           rb.Score,
		})
	}
	return top, nil
}

func (s *bidService) creditScores(ctx context.Context, bids []*model.Bid) (map[string]int, error) {
	seen := make(map[string]struct{})
	var usernames []string
	for _, bid := range bids {
		if _, ok := seen[bid.PatientUsername]; ok {
			continue
		}
		seen[bid.PatientUsername] = struct{}{}
		usernames = append(usernames, bid.PatientUsername)
	}

	patients, err := s.patients.FindByUsernames(ctx, usernames)
	if err != nil {
		s.cfg.Log.Error("Failed to load bidders", "error", err)
		return nil, apperrors.Internal("Failed to load bidders", err)
	}

	credit := make(map[string]int, len(patients))
	for _, p := range patients {
		credit[p.Username] = p.CreditScore
	}
	return credit, nil
}

func (s *bidService) translateVisitError(err error, id string) error {
	switch {
	case errors.Is(err, visitserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Visit", id)
	case errors.Is(err, visitserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid visit ID format")
	default:
		s.cfg.Log.Error("Visit lookup failed", "id", id, "error", err)
		return apperrors.Internal("Visit lookup failed", err)
	}
}
