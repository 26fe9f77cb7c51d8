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

const DoctorCollection = "Doctors"

type DoctorRepository interface {
	Create(ctx context.Context, doctor *model.Doctor) error
	CreateMany(ctx context.Context, doctors []*model.Doctor) error
	FindByID(ctx context.Context, id string) (*model.Doctor, error)
	FindByUsername(ctx context.Context, username string) (*model.Doctor, error)
	FindByStatus(ctx context.Context, status string) ([]*model.Doctor, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Save(ctx context.Context, doctor *model.Doctor) error
	Delete(ctx context.Context, id string) error
}

type mongoDoctorRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoDoctorRepository(cfg *config.Config) DoctorRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDoctorRepository{
		cfg:        cfg,
		collection: db.Collection(DoctorCollection),
	}
}

func (r *mongoDoctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	doctor.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, doctor)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return userserrors.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create doctor: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		doctor.ID = oid.Hex()
	}
	return nil
}

func (r *mongoDoctorRepository) CreateMany(ctx context.Context, doctors []*model.Doctor) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	docs := make([]any, 0, len(doctors))
	now := time.Now().UTC().Truncate(time.Millisecond)
	for _, d := range doctors {
		d.CreatedAt = now
		docs = append(docs, d)
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create doctors: %w", err)
	}
	return nil
}

func (r *mongoDoctorRepository) FindByID(ctx context.Context, id string) (*model.Doctor, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	var doctor model.Doctor
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doctor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find doctor: %w", err)
	}

	return &doctor, nil
}

func (r *mongoDoctorRepository) FindByUsername(ctx context.Context, username string) (*model.Doctor, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doctor model.Doctor
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&doctor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find doctor: %w", err)
	}

	return &doctor, nil
}

func (r *mongoDoctorRepository) FindByStatus(ctx context.Context, status string) ([]*model.Doctor, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, fmt.Errorf("failed to find doctors by status: %w", err)
	}
	defer cursor.Close(ctx)

	var doctors []*model.Doctor
	if err = cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("failed to decode doctors: %w", err)
	}
	return doctors, nil
}

func (r *mongoDoctorRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return false, fmt.Errorf("failed to count doctors: %w", err)
	}
	return count > 0, nil
}

func (r *mongoDoctorRepository) Save(ctx context.Context, doctor *model.Doctor) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(doctor.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, doctor.ID)
	}

	update := bson.M{"$set": bson.M{
		"name":       doctor.Name,
		"department": doctor.Department,
		"title":      doctor.Title,
		"hospital":   doctor.Hospital,
		"specialty":  doctor.Specialty,
		"gender":     doctor.Gender,
		"age":        doctor.Age,
		"address":    doctor.Address,
		"contact":    doctor.Contact,
		"password":   doctor.Password,
		"status":     doctor.Status,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	if result.MatchedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}

func (r *mongoDoctorRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	if result.DeletedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}
