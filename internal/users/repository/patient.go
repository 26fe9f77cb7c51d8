package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	userserrors "medbook/internal/users/errors"
	"medbook/pkg/config"
	"medbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const PatientCollection = "Patients"

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	CreateMany(ctx context.Context, patients []*model.Patient) error
	FindByID(ctx context.Context, id string) (*model.Patient, error)
	FindByUsername(ctx context.Context, username string) (*model.Patient, error)
	FindByUsernames(ctx context.Context, usernames []string) ([]*model.Patient, error)
	FindByStatus(ctx context.Context, status string) ([]*model.Patient, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Save(ctx context.Context, patient *model.Patient) error
	UpdateCreditScore(ctx context.Context, username string, score int) error
	Delete(ctx context.Context, id string) error
}

type mongoPatientRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPatientRepository(cfg *config.Config) PatientRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPatientRepository{
		cfg:        cfg,
		collection: db.Collection(PatientCollection),
	}
}

func (r *mongoPatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	patient.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, patient)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return userserrors.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		patient.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPatientRepository) CreateMany(ctx context.Context, patients []*model.Patient) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	docs := make([]any, 0, len(patients))
	now := time.Now().UTC().Truncate(time.Millisecond)
	for _, p := range patients {
		p.CreatedAt = now
		docs = append(docs, p)
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create patients: %w", err)
	}
	return nil
}

func (r *mongoPatientRepository) FindByID(ctx context.Context, id string) (*model.Patient, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	var patient model.Patient
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find patient: %w", err)
	}

	return &patient, nil
}

func (r *mongoPatientRepository) FindByUsername(ctx context.Context, username string) (*model.Patient, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var patient model.Patient
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find patient: %w", err)
	}

	return &patient, nil
}

func (r *mongoPatientRepository) FindByUsernames(ctx context.Context, usernames []string) ([]*model.Patient, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"username": bson.M{"$in": usernames}})
	if err != nil {
		return nil, fmt.Errorf("failed to find patients: %w", err)
	}
	defer cursor.Close(ctx)

	var patients []*model.Patient
	if err = cursor.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("failed to decode patients: %w", err)
	}
	return patients, nil
}

func (r *mongoPatientRepository) FindByStatus(ctx context.Context, status string) ([]*model.Patient, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, fmt.Errorf("failed to find patients by status: %w", err)
	}
	defer cursor.Close(ctx)

	var patients []*model.Patient
	if err = cursor.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("failed to decode patients: %w", err)
	}
	return patients, nil
}

func (r *mongoPatientRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return false, fmt.Errorf("failed to count patients: %w", err)
	}
	return count > 0, nil
}

func (r *mongoPatientRepository) Save(ctx context.Context, patient *model.Patient) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(patient.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, patient.ID)
	}

	update := bson.M{"$set": bson.M{
		"name":           patient.Name,
		"gender":         patient.Gender,
		"age":            patient.Age,
		"address":        patient.Address,
		"contact":        patient.Contact,
		"medical_record": patient.MedicalRecord,
		"credit_score":   patient.CreditScore,
		"password":       patient.Password,
		"status":         patient.Status,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	if result.MatchedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}

func (r *mongoPatientRepository) UpdateCreditScore(ctx context.Context, username string, score int) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{"credit_score": score}},
	)
	if err != nil {
		return fmt.Errorf("failed to update credit score: %w", err)
	}
	if result.MatchedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}

func (r *mongoPatientRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	if result.DeletedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}
