package finance

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PrizeAllocation is one tier's share of the payout pool.
type PrizeAllocation struct {
	Tier           string          `json:"tier" bson:"tier"`
	PoolShare      decimal.Decimal `json:"poolShare" bson:"poolShare"`
	TierPool       decimal.Decimal `json:"tierPool" bson:"tierPool"`
	WinnerCount    int64           `json:"winnerCount" bson:"winnerCount"`
	PrizePerWinner decimal.Decimal `json:"prizePerWinner" bson:"prizePerWinner"`
	// Unclaimed is the tier pool when nobody won the tier. It is rolled over,
	// never redistributed to the other tiers.
	Unclaimed decimal.Decimal `json:"unclaimed" bson:"unclaimed"`
}

// Allocations maps tier name to its allocation.
type Allocations map[string]PrizeAllocation

// TotalPaid is the amount actually paid out across all tiers.
func (a Allocations) TotalPaid() decimal.Decimal {
	sum := decimal.Zero
	for _, alloc := range a {
		sum = sum.Add(alloc.PrizePerWinner.Mul(decimal.NewFromInt(alloc.WinnerCount)))
	}
	return sum
}

// TotalUnclaimed is the amount left in tiers without winners.
func (a Allocations) TotalUnclaimed() decimal.Decimal {
	sum := decimal.Zero
	for _, alloc := range a {
		sum = sum.Add(alloc.Unclaimed)
	}
	return sum
}

// Sorted returns the allocations ordered by tier name.
func (a Allocations) Sorted() []PrizeAllocation {
	out := make([]PrizeAllocation, 0, len(a))
	for _, alloc := range a {
		out = append(out, alloc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out
}

// ComputePrizeAllocation splits payoutPool across the configured tiers. Every
// configured tier appears in the result; tiers absent from winners are treated
// as having no winners.
func (c *Calculator) ComputePrizeAllocation(payoutPool decimal.Decimal, winners map[string]int64) (Allocations, error) {
	if payoutPool.IsNegative() {
		return nil, invalid("payoutPool", payoutPool, "must not be negative")
	}
	for tier, count := range winners {
		if _, ok := c.shares.tierShare(tier); !ok {
			return nil, &UnknownTierError{Tier: tier}
		}
		if count < 0 {
			return nil, invalid("winners."+tier, count, "must not be negative")
		}
	}

	out := make(Allocations, len(c.shares.Tiers))
	for _, t := range c.shares.Tiers {
		tierPool := payoutPool.Mul(t.Share)
		count := winners[t.Tier]
		alloc := PrizeAllocation{
			Tier:           t.Tier,
			PoolShare:      t.Share,
			TierPool:       tierPool,
			WinnerCount:    count,
			PrizePerWinner: decimal.Zero,
			Unclaimed:      decimal.Zero,
		}
		if count == 0 {
			alloc.Unclaimed = tierPool
		} else {
			alloc.PrizePerWinner = tierPool.Div(decimal.NewFromInt(count))
		}
		out[t.Tier] = alloc
	}
	return out, nil
}

// WithCarryOver adds pools rolled over from earlier draws to their own tiers.
// A tier with winners shares its carried amount among them; a tier without
// winners carries it on again.
func (a Allocations) WithCarryOver(carried map[string]decimal.Decimal) Allocations {
	out := make(Allocations, len(a))
	for tier, alloc := range a {
		extra, ok := carried[tier]
		if ok && extra.IsPositive() {
			alloc.TierPool = alloc.TierPool.Add(extra)
			if alloc.WinnerCount == 0 {
				alloc.Unclaimed = alloc.TierPool
			} else {
				alloc.PrizePerWinner = alloc.TierPool.Div(decimal.NewFromInt(alloc.WinnerCount))
			}
		}
		out[tier] = alloc
	}
	return out
}
