package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.DrawRepository = (*DrawRepository)(nil)

// DrawRepository implements the repositories.DrawRepository interface
type DrawRepository struct {
	collection *mongo.Collection
}

// NewDrawRepository creates a new DrawRepository
func NewDrawRepository(db *mongo.Database) *DrawRepository {
	return &DrawRepository{
		collection: db.Collection(drawsCollection),
	}
}

// Create creates a new draw. Both unique indexes on the collection (number
// and the open-status partial index) only collide when two draws are opened
// concurrently, so either maps to ErrOpenDrawExists.
func (r *DrawRepository) Create(ctx context.Context, draw *models.Draw) error {
	if draw.ID.IsZero() {
		draw.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	draw.CreatedAt = now
	draw.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, draw); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrOpenDrawExists
		}
		return fmt.Errorf("failed to create draw: %w", err)
	}
	return nil
}

// FindByID finds a draw by ID
func (r *DrawRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Draw, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindOpen finds the draw currently selling tickets
func (r *DrawRepository) FindOpen(ctx context.Context) (*models.Draw, error) {
	return r.findOne(ctx, bson.M{"status": models.DrawStatusOpen})
}

// FindLatest finds the draw with the highest number
func (r *DrawRepository) FindLatest(ctx context.Context) (*models.Draw, error) {
	return r.findOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "number", Value: -1}}))
}

// FindAll finds all draws with pagination, newest first
func (r *DrawRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Draw, error) {
	if page < 1 {
		page = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "number", Value: -1}})
	if limit > 0 {
		opts.SetSkip(int64((page - 1) * limit)).SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var draws []*models.Draw
	if err := cursor.All(ctx, &draws); err != nil {
		return nil, err
	}
	return draws, nil
}

// ReserveTickets increments ticketsSold only while the draw is OPEN and
// selling. The status filter and the increment are one atomic update, so no
// reservation can land after Close.
func (r *DrawRepository) ReserveTickets(ctx context.Context, id primitive.ObjectID, n int64, at time.Time) error {
	filter := bson.M{
		"_id":      id,
		"status":   models.DrawStatusOpen,
		"closesAt": bson.M{"$gt": at.UTC()},
	}
	update := bson.M{
		"$inc": bson.M{"ticketsSold": n},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reserve tickets: %w", err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrDrawStateChanged
	}
	return nil
}

// ReleaseTickets decrements ticketsSold unless the draw is already settled
func (r *DrawRepository) ReleaseTickets(ctx context.Context, id primitive.ObjectID, n int64) error {
	filter := bson.M{"_id": id, "status": bson.M{"$ne": models.DrawStatusSettled}}
	update := bson.M{
		"$inc": bson.M{"ticketsSold": -n},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release tickets: %w", err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrDrawStateChanged
	}
	return nil
}

// Close moves an OPEN draw to CLOSED and returns the stored result
func (r *DrawRepository) Close(ctx context.Context, id primitive.ObjectID, closedAt time.Time, note string) (*models.Draw, error) {
	filter := bson.M{"_id": id, "status": models.DrawStatusOpen}
	update := bson.M{
		"$set": bson.M{
			"status":    models.DrawStatusClosed,
			"closedAt":  closedAt.UTC(),
			"updatedAt": time.Now().UTC(),
		},
		"$push": bson.M{"executionLog": note},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var draw models.Draw
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&draw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrDrawStateChanged
		}
		return nil, fmt.Errorf("failed to close draw: %w", err)
	}
	return &draw, nil
}

// Update replaces a draw whose stored status is still from
func (r *DrawRepository) Update(ctx context.Context, draw *models.Draw, from models.DrawStatus) error {
	draw.UpdatedAt = time.Now().UTC()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": draw.ID, "status": from}, draw)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrOpenDrawExists
		}
		return fmt.Errorf("failed to update draw: %w", err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrDrawStateChanged
	}
	return nil
}

func (r *DrawRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.Draw, error) {
	var draw models.Draw
	if err := r.collection.FindOne(ctx, filter, opts...).Decode(&draw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &draw, nil
}
