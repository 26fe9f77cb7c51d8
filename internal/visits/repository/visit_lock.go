package repository

import (
	"context"
	"fmt"
	"time"

	visitserrors "medbook/internal/visits/errors"
	"medbook/pkg/config"
	"medbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const VisitLockCollection = "Visit_locks"

// VisitLockRepository provides advisory per-visit locks backed by a unique
// _id insert. A TTL index on expires_at reaps locks orphaned by a crash.
type VisitLockRepository interface {
	Acquire(ctx context.Context, visitID string, ttl time.Duration) error
	Release(ctx context.Context, visitID string) error
}

type mongoVisitLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoVisitLockRepository(cfg *config.Config) VisitLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVisitLockRepository{
		cfg:        cfg,
		collection: db.Collection(VisitLockCollection),
	}
}

func (r *mongoVisitLockRepository) Acquire(ctx context.Context, visitID string, ttl time.Duration) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	lock := &model.VisitLock{
		ID:        visitID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return visitserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to acquire visit lock: %w", err)
	}
	return nil
}

func (r *mongoVisitLockRepository) Release(ctx context.Context, visitID string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": visitID}); err != nil {
		return fmt.Errorf("failed to release visit lock: %w", err)
	}
	return nil
}
