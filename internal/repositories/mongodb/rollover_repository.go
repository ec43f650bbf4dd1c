package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.RolloverRepository = (*RolloverRepository)(nil)

// RolloverRepository implements the repositories.RolloverRepository interface
type RolloverRepository struct {
	collection *mongo.Collection
}

// NewRolloverRepository creates a new RolloverRepository
func NewRolloverRepository(db *mongo.Database) *RolloverRepository {
	return &RolloverRepository{
		collection: db.Collection(rolloversCollection),
	}
}

// CreateMany records the unclaimed pools of a settled draw.
func (r *RolloverRepository) CreateMany(ctx context.Context, rollovers []*models.Rollover) error {
	if len(rollovers) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(rollovers))
	for _, ro := range rollovers {
		if ro.ID.IsZero() {
			ro.ID = primitive.NewObjectID()
		}
		ro.CreatedAt = now
		docs = append(docs, ro)
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create rollover records: %w", err)
	}
	return nil
}

// FindPending finds rollovers not yet applied to a draw, oldest first.
func (r *RolloverRepository) FindPending(ctx context.Context) ([]*models.Rollover, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"applied": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending rollovers: %w", err)
	}
	defer cursor.Close(ctx)

	var rollovers []*models.Rollover
	if err := cursor.All(ctx, &rollovers); err != nil {
		return nil, err
	}
	return rollovers, nil
}

// MarkApplied flags rollovers as consumed by the destination draw.
func (r *RolloverRepository) MarkApplied(ctx context.Context, ids []primitive.ObjectID, destinationDrawID primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "applied": false},
		bson.M{"$set": bson.M{"applied": true, "destinationDrawId": destinationDrawID}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark rollovers applied: %w", err)
	}
	return nil
}
