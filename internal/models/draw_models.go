package models

import (
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/finance"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawStatus represents the status of a draw
type DrawStatus string

const (
	DrawStatusOpen    DrawStatus = "OPEN"
	DrawStatusClosed  DrawStatus = "CLOSED"
	DrawStatusSettled DrawStatus = "SETTLED"
)

// Draw is one lottery round. Tickets are sold while it is OPEN; settlement
// fixes the distribution and every prize.
type Draw struct {
	ID               primitive.ObjectID         `bson:"_id,omitempty" json:"id,omitempty"`
	Number           int64                      `bson:"number" json:"number"`
	Status           DrawStatus                 `bson:"status" json:"status"`
	TicketPrice      decimal.Decimal            `bson:"ticketPrice" json:"ticketPrice"`
	OpensAt          time.Time                  `bson:"opensAt" json:"opensAt"`
	ClosesAt         time.Time                  `bson:"closesAt" json:"closesAt"`
	CarriedJackpot   decimal.Decimal            `bson:"carriedJackpot" json:"carriedJackpot"`
	CarriedTierPools map[string]decimal.Decimal `bson:"carriedTierPools,omitempty" json:"carriedTierPools,omitempty"`
	TicketsSold      int64                      `bson:"ticketsSold" json:"ticketsSold"` // reserved while OPEN, stored at settlement
	Revenue          decimal.Decimal            `bson:"revenue" json:"revenue"`
	WinningNumbers   []int                      `bson:"winningNumbers,omitempty" json:"winningNumbers,omitempty"`
	Distribution     *finance.Distribution      `bson:"distribution,omitempty" json:"distribution,omitempty"`
	Allocations      []finance.PrizeAllocation  `bson:"allocations,omitempty" json:"allocations,omitempty"`
	JackpotAmount    decimal.Decimal            `bson:"jackpotAmount" json:"jackpotAmount"`
	JackpotWinners   int64                      `bson:"jackpotWinners" json:"jackpotWinners"`
	JackpotPerWinner decimal.Decimal            `bson:"jackpotPerWinner" json:"jackpotPerWinner"`
	ExecutionLog     []string                   `bson:"executionLog,omitempty" json:"executionLog,omitempty"`
	ClosedAt         time.Time                  `bson:"closedAt,omitempty" json:"closedAt,omitempty"`
	SettledAt        time.Time                  `bson:"settledAt,omitempty" json:"settledAt,omitempty"`
	CreatedAt        time.Time                  `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time                  `bson:"updatedAt" json:"updatedAt"`
}

// CreateDrawRequest is the body of POST /api/admin/draws.
type CreateDrawRequest struct {
	ClosesAt time.Time `json:"closesAt" binding:"required"`
}

// SettleDrawRequest is the body of POST /api/admin/draws/:id/settle.
type SettleDrawRequest struct {
	WinningNumbers []int `json:"winningNumbers" binding:"required"`
}
