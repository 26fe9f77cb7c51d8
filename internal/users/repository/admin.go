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

const AdminCollection = "Admins"

type AdminRepository interface {
	Create(ctx context.Context, admin *model.Admin) error
	FindByID(ctx context.Context, id string) (*model.Admin, error)
	FindByUsername(ctx context.Context, username string) (*model.Admin, error)
	FindByStatus(ctx context.Context, status string) ([]*model.Admin, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Save(ctx context.Context, admin *model.Admin) error
	Delete(ctx context.Context, id string) error
}

type mongoAdminRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAdminRepository(cfg *config.Config) AdminRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAdminRepository{
		cfg:        cfg,
		collection: db.Collection(AdminCollection),
	}
}

func (r *mongoAdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	admin.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, admin)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return userserrors.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		admin.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAdminRepository) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	var admin model.Admin
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	return &admin, nil
}

func (r *mongoAdminRepository) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var admin model.Admin
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	return &admin, nil
}

func (r *mongoAdminRepository) FindByStatus(ctx context.Context, status string) ([]*model.Admin, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, fmt.Errorf("failed to find admins by status: %w", err)
	}
	defer cursor.Close(ctx)

	var admins []*model.Admin
	if err = cursor.All(ctx, &admins); err != nil {
		return nil, fmt.Errorf("failed to decode admins: %w", err)
	}
	return admins, nil
}

func (r *mongoAdminRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return false, fmt.Errorf("failed to count admins: %w", err)
	}
	return count > 0, nil
}

func (r *mongoAdminRepository) Save(ctx context.Context, admin *model.Admin) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(admin.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, admin.ID)
	}

	update := bson.M{"$set": bson.M{
		"name":        admin.Name,
		"address":     admin.Address,
		"contact":     admin.Contact,
		"password":    admin.Password,
		"status":      admin.Status,
		"first_login": admin.FirstLogin,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update admin: %w", err)
	}
	if result.MatchedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}

func (r *mongoAdminRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}
	if result.DeletedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}
