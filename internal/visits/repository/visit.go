package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	visitserrors "medbook/internal/visits/errors"
	"medbook/pkg/config"
	mongotx "medbook/pkg/db/mongo"
	"medbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const VisitCollection = "Visits"

// AvailableQuery narrows the patient-facing availability listing. Zero
// fields are not applied.
type AvailableQuery struct {
	Department string
	Doctor     string
	From       time.Time
	To         time.Time
}

type VisitRepository interface {
	Create(ctx context.Context, visit *model.Visit) error
	FindByID(ctx context.Context, id string) (*model.Visit, error)
	FindByStatusAndAuction(ctx context.Context, status string, auction bool) ([]*model.Visit, error)
	FindRecurring(ctx context.Context) ([]*model.Visit, error)
	FindRecurringByDoctor(ctx context.Context, doctorUsername string) ([]*model.Visit, error)
	FindByDoctor(ctx context.Context, doctorUsername string) ([]*model.Visit, error)
	FindByDoctorAndAuction(ctx context.Context, doctorUsername string, auction bool) ([]*model.Visit, error)
	FindByDoctorInRange(ctx context.Context, doctorUsername string, start, end time.Time) ([]*model.Visit, error)
	FindBookedBy(ctx context.Context, patientUsername string) ([]*model.Visit, error)
	FindBookedByInRange(ctx context.Context, patientUsername string, start, end time.Time) ([]*model.Visit, error)
	FindAvailable(ctx context.Context, q AvailableQuery) ([]*model.Visit, error)
	DistinctDepartments(ctx context.Context) ([]string, error)
	DistinctDoctors(ctx context.Context) ([]string, error)
	ExistsByDoctorAndTime(ctx context.Context, doctorUsername string, visitTime time.Time) (bool, error)
	Save(ctx context.Context, visit *model.Visit) error
	Book(ctx context.Context, id, patientUsername string) error
	Cancel(ctx context.Context, id, patientUsername string) error
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoVisitRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoVisitRepository(cfg *config.Config) VisitRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVisitRepository{
		cfg:        cfg,
		collection: db.Collection(VisitCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoVisitRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoVisitRepository) Create(ctx context.Context, visit *model.Visit) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	visit.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if visit.BookedBy == nil {
		visit.BookedBy = []string{}
	}

	result, err := r.collection.InsertOne(ctx, visit)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		visit.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVisitRepository) FindByID(ctx context.Context, id string) (*model.Visit, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, id)
	}

	var visit model.Visit
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&visit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, visitserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find visit: %w", err)
	}

	return &visit, nil
}

func (r *mongoVisitRepository) FindByStatusAndAuction(ctx context.Context, status string, auction bool) ([]*model.Visit, error) {
	return r.find(ctx, bson.M{
		"status":    status,
		"auction":   auction,
		"recurring": false,
	})
}

func (r *mongoVisitRepository) FindRecurring(ctx context.Context) ([]*model.Visit, error) {
	return r.find(ctx, bson.M{"recurring": true})
}

func (r *mongoVisitRepository) FindRecurringByDoctor(ctx context.Context, doctorUsername string) ([]*model.Visit, error) {
	return r.find(ctx, bson.M{
		"recurring":       true,
		"doctor_username": doctorUsername,
	})
}

func (r *mongoVisitRepository) FindByDoctor(ctx context.Context, doctorUsername string) ([]*model.Visit, error) {
	return r.find(ctx, bson.M{
		"recurring":       false,
		"doctor_username": doctorUsername,
	})
}

func (r *mongoVisitRepository) FindByDoctorAndAuction(ctx context.Context, doctorUsername string, auction bool) ([]*model.Visit, error) {
	return r.find(ctx, bson.M{
		"recurring":       false,
		"auction":         auction,
		"doctor_username": doctorUsername,
	})
}

func (r *mongoVisitRepository) FindByDoctorInRange(ctx context.Context, doctorUsername string, start, end time.Time) ([]*model.Visit, error) {
	return r.find(ctx, bson.M{
		"recurring":       false,
		"doctor_username": doctorUsername,
		"visit_time":      bson.M{"$gte": start, "$lt": end},
	})
}

func (r *mongoVisitRepository) FindBookedBy(ctx context.Context, patientUsername string) ([]*model.Visit, error) {
	return r.find(ctx, bson.M{"booked_by": patientUsername})
}

func (r *mongoVisitRepository) FindBookedByInRange(ctx context.Context, patientUsername string, start, end time.Time) ([]*model.Visit, error) {
	return r.find(ctx, bson.M{
		"booked_by":  patientUsername,
		"visit_time": bson.M{"$gte": start, "$lt": end},
	})
}

func (r *mongoVisitRepository) FindAvailable(ctx context.Context, q AvailableQuery) ([]*model.Visit, error) {
	filter := bson.M{
		"status":          config.StatusApproved,
		"auction":         false,
		"recurring":       false,
		"available_slots": bson.M{"$gt": 0},
	}
	if q.Department != "" {
		filter["department"] = q.Department
	}
	if q.Doctor != "" {
		filter["doctor_username"] = q.Doctor
	}
	timeFilter := bson.M{}
	if !q.From.IsZero() {
		timeFilter["$gte"] = q.From
	}
	if !q.To.IsZero() {
		timeFilter["$lt"] = q.To
	}
	if len(timeFilter) > 0 {
		filter["visit_time"] = timeFilter
	}

	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "visit_time", Value: 1}}))
}

func (r *mongoVisitRepository) DistinctDepartments(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "department")
}

func (r *mongoVisitRepository) DistinctDoctors(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "doctor_username")
}

func (r *mongoVisitRepository) ExistsByDoctorAndTime(ctx context.Context, doctorUsername string, visitTime time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"recurring":       false,
		"doctor_username": doctorUsername,
		"visit_time":      visitTime,
	})
	if err != nil {
		return false, fmt.Errorf("failed to count visits: %w", err)
	}
	return count > 0, nil
}

func (r *mongoVisitRepository) Save(ctx context.Context, visit *model.Visit) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(visit.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, visit.ID)
	}

	update := bson.M{"$set": bson.M{
		"department":      visit.Department,
		"visit_time":      visit.VisitTime,
		"capacity":        visit.Capacity,
		"available_slots": visit.AvailableSlots,
		"status":          visit.Status,
		"auction":         visit.Auction,
		"booked_by":       visit.BookedBy,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update visit: %w", err)
	}
	if result.MatchedCount == 0 {
		return visitserrors.ErrNotFound
	}
	return nil
}

// Book claims one slot in a single conditional update so a full visit or a
// duplicate booking can never oversubscribe under concurrency.
func (r *mongoVisitRepository) Book(ctx context.Context, id, patientUsername string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":             objectID,
		"available_slots": bson.M{"$gt": 0},
		"booked_by":       bson.M{"$ne": patientUsername},
	}
	update := bson.M{
		"$inc":      bson.M{"available_slots": -1},
		"$addToSet": bson.M{"booked_by": patientUsername},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to book visit: %w", err)
	}
	if result.MatchedCount == 0 {
		return visitserrors.ErrNoSlotOrDuplicate
	}
	return nil
}

// Cancel releases a slot only if the patient actually holds one.
func (r *mongoVisitRepository) Cancel(ctx context.Context, id, patientUsername string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":       objectID,
		"booked_by": patientUsername,
	}
	update := bson.M{
		"$inc":  bson.M{"available_slots": 1},
		"$pull": bson.M{"booked_by": patientUsername},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return visitserrors.ErrNotBooked
	}
	return nil
}

func (r *mongoVisitRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", visitserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}
	if result.DeletedCount == 0 {
		return visitserrors.ErrNotFound
	}
	return nil
}

func (r *mongoVisitRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*model.Visit, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to find visits: %w", err)
	}
	defer cursor.Close(ctx)

	var visits []*model.Visit
	if err = cursor.All(ctx, &visits); err != nil {
		return nil, fmt.Errorf("failed to decode visits: %w", err)
	}
	return visits, nil
}

func (r *mongoVisitRepository) distinct(ctx context.Context, field string) ([]string, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	values, err := r.collection.Distinct(ctx, field, bson.M{
		"recurring": false,
		"auction":   false,
		"status":    config.StatusApproved,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s values: %w", field, err)
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
