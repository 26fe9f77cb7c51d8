package repository

import (
	"context"
	"fmt"
	"time"

	bidserrors "medbook/internal/bids/errors"
	"medbook/pkg/config"
	"medbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const BidCollection = "Bids"

type BidRepository interface {
	Create(ctx context.Context, bid *model.Bid) error
	FindByVisitID(ctx context.Context, visitID string) ([]*model.Bid, error)
	FindByPatientUsername(ctx context.Context, patientUsername string) ([]*model.Bid, error)
	DeleteByVisitID(ctx context.Context, visitID string) error
}

type mongoBidRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBidRepository(cfg *config.Config) BidRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBidRepository{
		cfg:        cfg,
		collection: db.Collection(BidCollection),
	}
}

func (r *mongoBidRepository) Create(ctx context.Context, bid *model.Bid) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	bid.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, bid)
	if err != nil {
		return fmt.Errorf("failed to create bid: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		bid.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBidRepository) FindByVisitID(ctx context.Context, visitID string) ([]*model.Bid, error) {
	if _, err := primitive.ObjectIDFromHex(visitID); err != nil {
		return nil, fmt.Errorf("%w: %s", bidserrors.ErrInvalidID, visitID)
	}
	return r.find(ctx, bson.M{"visit_id": visitID})
}

func (r *mongoBidRepository) FindByPatientUsername(ctx context.Context, patientUsername string) ([]*model.Bid, error) {
	return r.find(ctx, bson.M{"patient_username": patientUsername})
}

func (r *mongoBidRepository) DeleteByVisitID(ctx context.Context, visitID string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, bson.M{"visit_id": visitID}); err != nil {
		return fmt.Errorf("failed to delete bids for visit %s: %w", visitID, err)
	}
	return nil
}

func (r *mongoBidRepository) find(ctx context.Context, filter bson.M) ([]*model.Bid, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "bid_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find bids: %w", err)
	}
	defer cursor.Close(ctx)

	var bids []*model.Bid
	if err = cursor.All(ctx, &bids); err != nil {
		return nil, fmt.Errorf("failed to decode bids: %w", err)
	}
	return bids, nil
}
