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

var _ repositories.TicketRepository = (*TicketRepository)(nil)

// TicketRepository implements the repositories.TicketRepository interface
type TicketRepository struct {
	collection *mongo.Collection
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *mongo.Database) *TicketRepository {
	return &TicketRepository{
		collection: db.Collection(ticketsCollection),
	}
}

// CreatePurchase inserts the purchase as a single document. A duplicate key on
// transactionHash means another request already consumed the payment.
func (r *TicketRepository) CreatePurchase(ctx context.Context, purchase *models.TicketPurchase) error {
	if purchase.ID.IsZero() {
		purchase.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	purchase.CreatedAt = now
	purchase.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, purchase); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrTransactionAlreadyUsed
		}
		return fmt.Errorf("failed to insert ticket purchase: %w", err)
	}
	return nil
}

// ExistsByTransactionHash reports whether a purchase already used hash.
func (r *TicketRepository) ExistsByTransactionHash(ctx context.Context, hash string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"transactionHash": hash}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check transaction hash: %w", err)
	}
	return n > 0, nil
}

// FindByTransactionHash finds the purchase paid by hash
func (r *TicketRepository) FindByTransactionHash(ctx context.Context, hash string) (*models.TicketPurchase, error) {
	var purchase models.TicketPurchase
	err := r.collection.FindOne(ctx, bson.M{"transactionHash": hash}).Decode(&purchase)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

// FindByWallet finds purchases by wallet with pagination, newest first
func (r *TicketRepository) FindByWallet(ctx context.Context, wallet string, page, limit int) ([]*models.TicketPurchase, error) {
	if page < 1 {
		page = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetSkip(int64((page - 1) * limit)).SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{"walletAddress": wallet}, opts)
}

// FindByDrawID finds every purchase made for a draw
func (r *TicketRepository) FindByDrawID(ctx context.Context, drawID primitive.ObjectID) ([]*models.TicketPurchase, error) {
	return r.find(ctx, bson.M{"drawId": drawID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// CountTicketsByDraw sums the tickets of every purchase in a draw
func (r *TicketRepository) CountTicketsByDraw(ctx context.Context, drawID primitive.ObjectID) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"drawId": drawID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": bson.M{"$size": "$tickets"}}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

// UpdateResults stores settled ticket results on a purchase
func (r *TicketRepository) UpdateResults(ctx context.Context, id primitive.ObjectID, tickets []models.Ticket) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"tickets":   tickets,
			"settled":   true,
			"updatedAt": time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update ticket results: %w", err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *TicketRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.TicketPurchase, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var purchases []*models.TicketPurchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}
