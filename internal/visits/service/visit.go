package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	userserrors "medbook/internal/users/errors"
	visitserrors "medbook/internal/visits/errors"
	"medbook/internal/visits/repository"
	"medbook/internal/visits/validator"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const recommendationLimit = 10

// Same-day booking cutoffs. Until morningCutoff (from openingHour) patients
// may still book anything left today; until afternoonCutoff they may still
// book today's afternoon sessions.
const (
	openingHour     = 7
	morningCutoff   = 9
	afternoonCutoff = 14
)

// AuditRecorder is the slice of the audit module the visit service needs.
type AuditRecorder interface {
	Record(ctx context.Context, operation, actor, targetKind, targetID string)
}

// PatientDirectory resolves booking actors without importing the users
// module wholesale.
type PatientDirectory interface {
	FindByUsername(ctx context.Context, username string) (*model.Patient, error)
}

// DoctorDirectory resolves visit owners and detail-view hospitals.
type DoctorDirectory interface {
	FindByUsername(ctx context.Context, username string) (*model.Doctor, error)
}

// BidPurger removes the bids tied to a visit when the visit goes away.
type BidPurger interface {
	DeleteByVisitID(ctx context.Context, visitID string) error
}

type VisitService interface {
	CreateVisit(ctx context.Context, actor string, visit *model.Visit) error
	CreateAuctionVisit(ctx context.Context, actor string, visit *model.Visit) error
	CreateRecurringVisit(ctx context.Context, actor string, visit *model.Visit) error
	GetDetails(ctx context.Context, id string) (*model.VisitDetails, error)
	Approve(ctx context.Context, id string) error
	Delete(ctx context.Context, actor, id string) error

	PendingVisits(ctx context.Context) ([]*model.Visit, error)
	PendingAuctionVisits(ctx context.Context) ([]*model.Visit, error)
	AvailableAuctionVisits(ctx context.Context) ([]*model.Visit, error)
	DoctorVisits(ctx context.Context, actor string) ([]*model.Visit, error)
	DoctorAuctionVisits(ctx context.Context, actor string) ([]*model.Visit, error)
	DoctorRecurringVisits(ctx context.Context, actor string) ([]*model.Visit, error)
	DoctorVisitsInRange(ctx context.Context, actor string, start, end time.Time) ([]*model.Visit, error)
	PatientBookedVisits(ctx context.Context, actor string) ([]*model.Visit, error)
	PatientHistory(ctx context.Context, actor string, start, end time.Time) ([]*model.Visit, error)
	Departments(ctx context.Context) ([]string, error)
	Doctors(ctx context.Context) ([]string, error)

	AvailableVisits(ctx context.Context, department, doctor string) ([]*model.Visit, error)
	Recommendations(ctx context.Context, actor string) ([]*model.Visit, error)

	Book(ctx context.Context, actor, id string) error
	BookPrecheck(ctx context.Context, actor, id string) error
	CancelBooking(ctx context.Context, actor, id string) error
}

type visitService struct {
	repo      repository.VisitRepository
	patients  PatientDirectory
	doctors   DoctorDirectory
	bids      BidPurger
	validator *validator.VisitValidator
	audit     AuditRecorder
	cfg       *config.Config
	now       func() time.Time
}

func NewVisitService(
	repo repository.VisitRepository,
	patients PatientDirectory,
	doctors DoctorDirectory,
	bids BidPurger,
	visitValidator *validator.VisitValidator,
	auditRecorder AuditRecorder,
	cfg *config.Config,
) VisitService {
	return &visitService{
		repo:      repo,
		patients:  patients,
		doctors:   doctors,
		bids:      bids,
		validator: visitValidator,
		audit:     auditRecorder,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *visitService) CreateVisit(ctx context.Context, actor string, visit *model.Visit) error {
	visit.Auction = false
	visit.Recurring = false
	visit.RecurringDayOfWeek = ""
	visit.RecurringVisitTime = ""
	return s.create(ctx, actor, visit)
}

func (s *visitService) CreateAuctionVisit(ctx context.Context, actor string, visit *model.Visit) error {
	visit.Auction = true
	visit.Recurring = false
	visit.RecurringDayOfWeek = ""
	visit.RecurringVisitTime = ""
	return s.create(ctx, actor, visit)
}

func (s *visitService) CreateRecurringVisit(ctx context.Context, actor string, visit *model.Visit) error {
	visit.Auction = false
	visit.Recurring = true
	visit.VisitTime = time.Time{}
	return s.create(ctx, actor, visit)
}

func (s *visitService) create(ctx context.Context, actor string, visit *model.Visit) error {
	if _, err := s.doctors.FindByUsername(ctx, actor); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return apperrors.Forbidden("Only doctors can create visits")
		}
		return apperrors.Internal("Failed to verify actor", err)
	}

	visit.DoctorUsername = actor
	visit.Status = config.StatusPending
	visit.AvailableSlots = visit.Capacity
	visit.BookedBy = nil

	if err := s.validator.Validate(visit); err != nil {
		s.cfg.Log.Warn("Visit validation failed", "doctor", actor, "error", err)
		return apperrors.Validation("Visit validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, visit); err != nil {
		s.cfg.Log.Error("Failed to create visit", "doctor", actor, "error", err)
		return apperrors.Internal("Failed to create visit", err)
	}

	s.cfg.Log.Info("Visit created",
		"id", visit.ID,
		"doctor", actor,
		"auction", visit.Auction,
		"recurring", visit.Recurring,
	)
	return nil
}

// GetDetails loads a visit and attaches the owning doctor's hospital. A
// missing doctor record degrades to an empty hospital rather than failing
// the view.
func (s *visitService) GetDetails(ctx context.Context, id string) (*model.VisitDetails, error) {
	visit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id)
	}

	details := &model.VisitDetails{Visit: visit}
	if visit.DoctorUsername != "" {
		doctor, err := s.doctors.FindByUsername(ctx, visit.DoctorUsername)
		if err != nil {
			s.cfg.Log.Warn("Failed to resolve visit doctor",
				"visit_id", id,
				"doctor", visit.DoctorUsername,
				"error", err,
			)
		} else {
			details.Hospital = doctor.Hospital
		}
	}
	return details, nil
}

func (s *visitService) Approve(ctx context.Context, id string) error {
	visit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.translateRepoError(err, id)
	}
	if visit.Status == config.StatusApproved {
		return nil
	}

	visit.Status = config.StatusApproved
	if err := s.repo.Save(ctx, visit); err != nil {
		return s.translateRepoError(err, id)
	}

	s.cfg.Log.Info("Visit approved", "id", id, "auction", visit.Auction)
	return nil
}

func (s *visitService) Delete(ctx context.Context, actor, id string) error {
	visit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.translateRepoError(err, id)
	}
	if visit.DoctorUsername != actor {
		return apperrors.Forbidden("Visits can only be deleted by their own doctor")
	}

	// The visit and its bids go together or not at all.
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			return err
		}
		return s.bids.DeleteByVisitID(sessCtx, id)
	})
	if err != nil {
		return s.translateRepoError(err, id)
	}

	s.cfg.Log.Info("Visit deleted", "id", id, "doctor", actor)
	return nil
}

func (s *visitService) PendingVisits(ctx context.Context) ([]*model.Visit, error) {
	return s.list(s.repo.FindByStatusAndAuction(ctx, config.StatusPending, false))
}

func (s *visitService) PendingAuctionVisits(ctx context.Context) ([]*model.Visit, error) {
	return s.list(s.repo.FindByStatusAndAuction(ctx, config.StatusPending, true))
}

func (s *visitService) AvailableAuctionVisits(ctx context.Context) ([]*model.Visit, error) {
	return s.list(s.repo.FindByStatusAndAuction(ctx, config.StatusApproved, true))
}

func (s *visitService) DoctorVisits(ctx context.Context, actor string) ([]*model.Visit, error) {
	return s.list(s.repo.FindByDoctorAndAuction(ctx, actor, false))
}

func (s *visitService) DoctorAuctionVisits(ctx context.Context, actor string) ([]*model.Visit, error) {
	return s.list(s.repo.FindByDoctorAndAuction(ctx, actor, true))
}

func (s *visitService) DoctorRecurringVisits(ctx context.Context, actor string) ([]*model.Visit, error) {
	return s.list(s.repo.FindRecurringByDoctor(ctx, actor))
}

func (s *visitService) DoctorVisitsInRange(ctx context.Context, actor string, start, end time.Time) ([]*model.Visit, error) {
	return s.list(s.repo.FindByDoctorInRange(ctx, actor, start, end))
}

func (s *visitService) PatientBookedVisits(ctx context.Context, actor string) ([]*model.Visit, error) {
	return s.list(s.repo.FindBookedBy(ctx, actor))
}

func (s *visitService) PatientHistory(ctx context.Context, actor string, start, end time.Time) ([]*model.Visit, error) {
	return s.list(s.repo.FindBookedByInRange(ctx, actor, start, end))
}

func (s *visitService) Departments(ctx context.Context) ([]string, error) {
	departments, err := s.repo.DistinctDepartments(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list departments", "error", err)
		return nil, apperrors.Internal("Failed to list departments", err)
	}
	return departments, nil
}

func (s *visitService) Doctors(ctx context.Context) ([]string, error) {
	doctors, err := s.repo.DistinctDoctors(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list doctors", "error", err)
		return nil, apperrors.Internal("Failed to list doctors", err)
	}
	return doctors, nil
}

// AvailableVisits lists bookable visits inside the patient-facing window:
// the four days ahead, plus whatever of today the cutoff rules still allow.
func (s *visitService) AvailableVisits(ctx context.Context, department, doctor string) ([]*model.Visit, error) {
	from, to := s.bookingWindow(s.now())

	visits, err := s.repo.FindAvailable(ctx, repository.AvailableQuery{
		Department: department,
		Doctor:     doctor,
		From:       from,
		To:         to,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to list available visits",
			"department", department,
			"doctor", doctor,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to list available visits", err)
	}
	return visits, nil
}

// bookingWindow returns the half-open interval a patient may book in at
// the given moment. Between opening and the morning cutoff the rest of
// today is included; until the afternoon cutoff only today's afternoon
// sessions remain; after that, same-day booking closes.
func (s *visitService) bookingWindow(now time.Time) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := midnight.AddDate(0, 0, 5)

	from := midnight.AddDate(0, 0, 1)
	switch hour := now.Hour(); {
	case hour >= openingHour && hour < morningCutoff:
		from = now
	case hour >= morningCutoff && hour < afternoonCutoff:
		from = midnight.Add(afternoonCutoff * time.Hour)
	}

	return from, to
}

// Recommendations ranks the available window for a patient: visits in
// departments the patient has booked before come first, then visits with
// previously seen doctors, then everything else; each bucket stays in time
// order. Already booked visits are dropped.
func (s *visitService) Recommendations(ctx context.Context, actor string) ([]*model.Visit, error) {
	booked, err := s.repo.FindBookedBy(ctx, actor)
	if err != nil {
		s.cfg.Log.Error("Failed to load booking history", "patient", actor, "error", err)
		return nil, apperrors.Internal("Failed to load booking history", err)
	}

	seenDepartments := make(map[string]struct{})
	seenDoctors := make(map[string]struct{})
	for _, v := range booked {
		seenDepartments[v.Department] = struct{}{}
		seenDoctors[v.DoctorUsername] = struct{}{}
	}

	candidates, err := s.AvailableVisits(ctx, "", "")
	if err != nil {
		return nil, err
	}

	ranked := make([]*model.Visit, 0, len(candidates))
	for _, v := range candidates {
		if v.IsBookedBy(actor) {
			continue
		}
		ranked = append(ranked, v)
	}

	bucket := func(v *model.Visit) int {
		if _, ok := seenDepartments[v.Department]; ok {
			return 0
		}
		if _, ok := seenDoctors[v.DoctorUsername]; ok {
			return 1
		}
		return 2
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return bucket(ranked[i]) < bucket(ranked[j])
	})

	if len(ranked) > recommendationLimit {
		ranked = ranked[:recommendationLimit]
	}
	return ranked, nil
}

func (s *visitService) Book(ctx context.Context, actor, id string) error {
	visit, err := s.checkBookable(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.repo.Book(ctx, id, actor); err != nil {
		if errors.Is(err, visitserrors.ErrNoSlotOrDuplicate) {
			return s.explainBookRejection(ctx, actor, id)
		}
		s.cfg.Log.Error("Failed to book visit", "visit_id", id, "patient", actor, "error", err)
		return apperrors.Internal("Failed to book visit", err)
	}

	s.audit.Record(ctx, config.OpBook, actor, "visit", id)
	s.cfg.Log.Info("Visit booked", "visit_id", id, "patient", actor, "doctor", visit.DoctorUsername)
	return nil
}

// BookPrecheck runs the booking preconditions without claiming a slot, for
// the two-step book-then-pay flow.
func (s *visitService) BookPrecheck(ctx context.Context, actor, id string) error {
	_, err := s.checkBookable(ctx, actor, id)
	return err
}

func (s *visitService) CancelBooking(ctx context.Context, actor, id string) error {
	visit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.translateRepoError(err, id)
	}

	if !visit.IsBookedBy(actor) {
		return apperrors.Conflict("Visit is not booked by this patient")
	}
	if visit.VisitTime.Before(s.now().Add(s.cfg.CancelLeadTime)) {
		return apperrors.Conflict(fmt.Sprintf(
			"Bookings cannot be cancelled less than %s before the visit", s.cfg.CancelLeadTime,
		))
	}

	if err := s.repo.Cancel(ctx, id, actor); err != nil {
		if errors.Is(err, visitserrors.ErrNotBooked) {
			return apperrors.Conflict("Visit is not booked by this patient")
		}
		s.cfg.Log.Error("Failed to cancel booking", "visit_id", id, "patient", actor, "error", err)
		return apperrors.Internal("Failed to cancel booking", err)
	}

	s.audit.Record(ctx, config.OpCancel, actor, "visit", id)
	s.cfg.Log.Info("Booking cancelled", "visit_id", id, "patient", actor)
	return nil
}

func (s *visitService) checkBookable(ctx context.Context, actor, id string) (*model.Visit, error) {
	patient, err := s.patients.FindByUsername(ctx, actor)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Forbidden("Only registered patients can book visits")
		}
		return nil, apperrors.Internal("Failed to verify patient", err)
	}
	if patient.CreditScore < s.cfg.MinCreditScore {
		return nil, apperrors.Forbidden(fmt.Sprintf(
			"Credit score %d is below the booking threshold of %d",
			patient.CreditScore, s.cfg.MinCreditScore,
		))
	}

	visit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id)
	}
	if visit.Recurring {
		return nil, apperrors.InvalidInput("Recurring visit templates cannot be booked")
	}
	if visit.Auction {
		return nil, apperrors.InvalidInput("Auction visits are booked through bidding")
	}
	if visit.Status != config.StatusApproved {
		return nil, apperrors.Conflict("Visit is not approved for booking")
	}
	if visit.IsBookedBy(actor) {
		return nil, apperrors.Conflict("Visit is already booked by this patient")
	}
	if visit.AvailableSlots <= 0 {
		return nil, apperrors.Conflict("Visit is fully booked")
	}

	return visit, nil
}

// explainBookRejection re-reads the visit after a conditional update
// matched nothing, to report the precise reason.
func (s *visitService) explainBookRejection(ctx context.Context, actor, id string) error {
	visit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.translateRepoError(err, id)
	}
	if visit.IsBookedBy(actor) {
		return apperrors.Conflict("Visit is already booked by this patient")
	}
	return apperrors.Conflict("Visit is fully booked")
}

func (s *visitService) list(visits []*model.Visit, err error) ([]*model.Visit, error) {
	if err != nil {
		s.cfg.Log.Error("Failed to list visits", "error", err)
		return nil, apperrors.Internal("Failed to list visits", err)
	}
	return visits, nil
}

func (s *visitService) translateRepoError(err error, id string) error {
	switch {
	case errors.Is(err, visitserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Visit", id)
	case errors.Is(err, visitserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid visit ID format")
	default:
		s.cfg.Log.Error("Visit store operation failed", "id", id, "error", err)
		return apperrors.Internal("Visit store operation failed", err)
	}
}
