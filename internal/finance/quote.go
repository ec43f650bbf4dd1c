package finance

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BulkDiscount grants Percent off the subtotal for purchases of at least MinTickets.
type BulkDiscount struct {
	MinTickets int64           `json:"minTickets"`
	Percent    decimal.Decimal `json:"percent"`
}

// Quote is the amount a buyer must pay for a batch of tickets.
type Quote struct {
	Count           int64           `json:"count"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
}

// ValidateDiscounts rejects thresholds below one ticket and percentages outside [0,100).
func ValidateDiscounts(discounts []BulkDiscount) error {
	for _, d := range discounts {
		if d.MinTickets < 1 {
			return invalid("bulkDiscount.minTickets", d.MinTickets, "must be at least 1")
		}
		if d.Percent.IsNegative() || d.Percent.GreaterThanOrEqual(hundred) {
			return invalid("bulkDiscount.percent", d.Percent, "must be within [0,100)")
		}
	}
	return nil
}

// PurchaseQuote prices count tickets, applying the largest discount whose
// threshold the count reaches.
func PurchaseQuote(count int64, unitPrice decimal.Decimal, discounts []BulkDiscount) (Quote, error) {
	if count < 1 {
		return Quote{}, invalid("count", count, "must be at least 1")
	}
	if !unitPrice.IsPositive() {
		return Quote{}, invalid("ticketPrice", unitPrice, "must be positive")
	}
	if err := ValidateDiscounts(discounts); err != nil {
		return Quote{}, err
	}

	sorted := make([]BulkDiscount, len(discounts))
	copy(sorted, discounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinTickets > sorted[j].MinTickets })

	percent := decimal.Zero
	for _, d := range sorted {
		if count >= d.MinTickets {
			percent = d.Percent
			break
		}
	}

	subtotal := unitPrice.Mul(decimal.NewFromInt(count))
	discount := subtotal.Mul(percent).Div(hundred)
	return Quote{
		Count:           count,
		UnitPrice:       unitPrice,
		Subtotal:        subtotal,
		DiscountPercent: percent,
		Discount:        discount,
		Total:           subtotal.Sub(discount),
	}, nil
}
