// Package finance holds the lottery money math: revenue distribution, tier
// prize allocation and purchase quotes. Everything here is pure and safe for
// concurrent use.
package finance

import "github.com/shopspring/decimal"

// Distribution is the split of one sale batch.
//
//	totalRevenue = prizeFund + platform
//	prizeFund    = jackpotGrowth + payoutPool
//	platform     = reserve + platformRevenue
type Distribution struct {
	TicketsSold     int64           `json:"ticketsSold" bson:"ticketsSold"`
	TicketPrice     decimal.Decimal `json:"ticketPrice" bson:"ticketPrice"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue" bson:"totalRevenue"`
	PrizeFund       decimal.Decimal `json:"prizeFund" bson:"prizeFund"`
	Platform        decimal.Decimal `json:"platform" bson:"platform"`
	JackpotGrowth   decimal.Decimal `json:"jackpotGrowth" bson:"jackpotGrowth"`
	PayoutPool      decimal.Decimal `json:"payoutPool" bson:"payoutPool"`
	Reserve         decimal.Decimal `json:"reserve" bson:"reserve"`
	PlatformRevenue decimal.Decimal `json:"platformRevenue" bson:"platformRevenue"`
}

// Calculator computes distributions against a validated, immutable Shares set.
type Calculator struct {
	shares Shares
}

// NewCalculator validates the shares and returns a Calculator bound to them.
func NewCalculator(shares Shares) (*Calculator, error) {
	if err := shares.Validate(); err != nil {
		return nil, err
	}
	tiers := make([]TierShare, len(shares.Tiers))
	copy(tiers, shares.Tiers)
	shares.Tiers = tiers
	return &Calculator{shares: shares}, nil
}

// Shares returns a copy of the configured shares.
func (c *Calculator) Shares() Shares {
	s := c.shares
	s.Tiers = make([]TierShare, len(c.shares.Tiers))
	copy(s.Tiers, c.shares.Tiers)
	return s
}

// ComputeDistribution splits ticketsSold × ticketPrice into its prize and
// platform parts. Complementary parts are derived by subtraction so the sum
// invariants hold exactly.
func (c *Calculator) ComputeDistribution(ticketsSold int64, ticketPrice decimal.Decimal) (Distribution, error) {
	if ticketsSold < 0 {
		return Distribution{}, invalid("ticketsSold", ticketsSold, "must not be negative")
	}
	if !ticketPrice.IsPositive() {
		return Distribution{}, invalid("ticketPrice", ticketPrice, "must be positive")
	}

	return c.split(ticketsSold, ticketPrice, ticketPrice.Mul(decimal.NewFromInt(ticketsSold))), nil
}

// ComputeDistributionForRevenue splits the revenue actually collected for
// ticketsSold tickets listed at ticketPrice. Bulk discounts make revenue
// lower than ticketsSold × ticketPrice; the shares then apply to what was
// received.
func (c *Calculator) ComputeDistributionForRevenue(ticketsSold int64, ticketPrice, revenue decimal.Decimal) (Distribution, error) {
	if ticketsSold < 0 {
		return Distribution{}, invalid("ticketsSold", ticketsSold, "must not be negative")
	}
	if !ticketPrice.IsPositive() {
		return Distribution{}, invalid("ticketPrice", ticketPrice, "must be positive")
	}
	if revenue.IsNegative() {
		return Distribution{}, invalid("revenue", revenue, "must not be negative")
	}
	return c.split(ticketsSold, ticketPrice, revenue), nil
}

func (c *Calculator) split(ticketsSold int64, ticketPrice, total decimal.Decimal) Distribution {
	prizeFund := total.Mul(c.shares.PrizeFund)
	platform := total.Sub(prizeFund)
	jackpot := prizeFund.Mul(c.shares.Jackpot)
	payout := prizeFund.Sub(jackpot)
	reserve := platform.Mul(c.shares.Reserve)

	return Distribution{
		TicketsSold:     ticketsSold,
		TicketPrice:     ticketPrice,
		TotalRevenue:    total,
		PrizeFund:       prizeFund,
		Platform:        platform,
		JackpotGrowth:   jackpot,
		PayoutPool:      payout,
		Reserve:         reserve,
		PlatformRevenue: platform.Sub(reserve),
	}
}
