package finance

import "github.com/shopspring/decimal"

// Tier names used by the default configuration.
const (
	TierMatch4 = "match4"
	TierMatch3 = "match3"
	TierMatch2 = "match2"
)

// TierShare is the slice of the payout pool reserved for one match tier.
type TierShare struct {
	Tier    string          `json:"tier"`
	Matches int             `json:"matches"`
	Share   decimal.Decimal `json:"share"`
}

// Shares holds the fixed split percentages, all expressed as fractions in [0,1].
// The complementary shares (platform, payout pool, platform revenue) are never
// stored; they are always derived by subtraction.
type Shares struct {
	PrizeFund decimal.Decimal
	Jackpot   decimal.Decimal
	Reserve   decimal.Decimal
	Tiers     []TierShare
}

// DefaultShares returns the production split: 50% prize fund, 15% of it to the
// jackpot, 10% of the platform share to the reserve, and a 60/30/10 tier split.
func DefaultShares() Shares {
	return Shares{
		PrizeFund: decimal.RequireFromString("0.50"),
		Jackpot:   decimal.RequireFromString("0.15"),
		Reserve:   decimal.RequireFromString("0.10"),
		Tiers: []TierShare{
			{Tier: TierMatch4, Matches: 4, Share: decimal.RequireFromString("0.60")},
			{Tier: TierMatch3, Matches: 3, Share: decimal.RequireFromString("0.30")},
			{Tier: TierMatch2, Matches: 2, Share: decimal.RequireFromString("0.10")},
		},
	}
}

// Validate checks every fraction is within [0,1] and that the tier shares sum
// to exactly one.
func (s Shares) Validate() error {
	for name, v := range map[string]decimal.Decimal{
		"prizeFundShare": s.PrizeFund,
		"jackpotShare":   s.Jackpot,
		"reserveShare":   s.Reserve,
	} {
		if err := checkFraction(name, v); err != nil {
			return err
		}
	}

	if len(s.Tiers) == 0 {
		return invalid("tierShares", "[]", "at least one tier is required")
	}

	sum := decimal.Zero
	seen := make(map[string]struct{}, len(s.Tiers))
	for _, t := range s.Tiers {
		if t.Tier == "" {
			return invalid("tierShares", t.Share, "tier name is empty")
		}
		if _, dup := seen[t.Tier]; dup {
			return invalid("tierShares", t.Tier, "duplicate tier")
		}
		seen[t.Tier] = struct{}{}
		if t.Matches <= 0 {
			return invalid("tierShares."+t.Tier+".matches", t.Matches, "must be positive")
		}
		if err := checkFraction("tierShares."+t.Tier, t.Share); err != nil {
			return err
		}
		sum = sum.Add(t.Share)
	}
	if !sum.Equal(decimal.NewFromInt(1)) {
		return invalid("tierShares", sum, "tier shares must sum to 1")
	}
	return nil
}

// TierByMatches returns the tier awarded for the given number of matched numbers.
func (s Shares) TierByMatches(matches int) (TierShare, bool) {
	for _, t := range s.Tiers {
		if t.Matches == matches {
			return t, true
		}
	}
	return TierShare{}, false
}

func (s Shares) tierShare(tier string) (decimal.Decimal, bool) {
	for _, t := range s.Tiers {
		if t.Tier == tier {
			return t.Share, true
		}
	}
	return decimal.Zero, false
}

func checkFraction(name string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
		return invalid(name, v, "must be within [0,1]")
	}
	return nil
}
