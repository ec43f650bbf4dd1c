package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ticket is a single set of picked numbers inside a purchase.
type Ticket struct {
	Seq       int             `bson:"seq" json:"seq"`
	Numbers   []int           `bson:"numbers" json:"numbers"`
	QuickPick bool            `bson:"quickPick" json:"quickPick"`
	Matches   int             `bson:"matches" json:"matches"`
	Tier      string          `bson:"tier,omitempty" json:"tier,omitempty"`
	Jackpot   bool            `bson:"jackpot,omitempty" json:"jackpot,omitempty"`
	Prize     decimal.Decimal `bson:"prize" json:"prize"`
}

// TicketPurchase is one paid purchase: N tickets bought with a single on-chain
// transaction. TransactionHash is unique across the collection, which is what
// prevents one payment from being credited twice.
type TicketPurchase struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DrawID          primitive.ObjectID `bson:"drawId" json:"drawId"`
	WalletAddress   string             `bson:"walletAddress" json:"walletAddress"`
	TransactionHash string             `bson:"transactionHash" json:"transactionHash"`
	Transaction     TransactionRecord  `bson:"transaction" json:"transaction"`
	Count           int64              `bson:"count" json:"count"`
	UnitPrice       decimal.Decimal    `bson:"unitPrice" json:"unitPrice"`
	Discount        decimal.Decimal    `bson:"discount" json:"discount"`
	AmountDue       decimal.Decimal    `bson:"amountDue" json:"amountDue"`
	Tickets         []Ticket           `bson:"tickets" json:"tickets"`
	Settled         bool               `bson:"settled" json:"settled"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PurchaseRequest is the body of POST /api/tickets/purchase.
type PurchaseRequest struct {
	WalletAddress   string  `json:"walletAddress" binding:"required"`
	Count           int64   `json:"count" binding:"required,min=1"`
	TransactionHash string  `json:"transactionHash" binding:"required"`
	Numbers         [][]int `json:"numbers"`
}

// PurchaseResult is returned by the purchase flow. A rejected purchase carries
// the verifier result and no Purchase.
type PurchaseResult struct {
	Success      bool                `json:"success"`
	Purchase     *TicketPurchase     `json:"purchase,omitempty"`
	Verification *VerificationResult `json:"verification,omitempty"`
}
