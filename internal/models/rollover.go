package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rollover kinds.
const (
	RolloverKindTier    = "TIER"
	RolloverKindJackpot = "JACKPOT"
)

// Rollover records a pool that nobody won in a settled draw and that is carried
// into the next draw.
type Rollover struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SourceDrawID      primitive.ObjectID `bson:"sourceDrawId" json:"sourceDrawId"`
	SourceDrawNumber  int64              `bson:"sourceDrawNumber" json:"sourceDrawNumber"`
	Kind              string             `bson:"kind" json:"kind"`
	Tier              string             `bson:"tier,omitempty" json:"tier,omitempty"`
	Amount            decimal.Decimal    `bson:"amount" json:"amount"`
	DestinationDrawID primitive.ObjectID `bson:"destinationDrawId,omitempty" json:"destinationDrawId,omitempty"`
	Applied           bool               `bson:"applied" json:"applied"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}
