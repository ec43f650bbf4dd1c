package mongodb

import (
	"context"
	"fmt"

	"github.com/ArowuTest/tonlotto-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	ticketsCollection    = "tickets"
	drawsCollection      = "draws"
	rolloversCollection  = "rollovers"
	adminUsersCollection = "admin_users"
)

// EnsureIndexes creates the indexes the repositories depend on. The unique
// index on tickets.transactionHash is what makes purchase deduplication safe
// under concurrent requests; the partial unique index on draws.status keeps at
// most one draw open.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		ticketsCollection: {
			{
				Keys:    bson.D{{Key: "transactionHash", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_transaction_hash"),
			},
			{Keys: bson.D{{Key: "walletAddress", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "drawId", Value: 1}}},
		},
		drawsCollection: {
			{
				Keys:    bson.D{{Key: "number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "status", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("uniq_open_draw").
					SetPartialFilterExpression(bson.M{"status": models.DrawStatusOpen}),
			},
		},
		rolloversCollection: {
			{Keys: bson.D{{Key: "applied", Value: 1}}},
		},
		adminUsersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for name, idx := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
