// Package pricing computes discounted line totals for cart additions.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
)

// Item is the slice of catalog state the engine needs.
type Item struct {
	UnitPrice     decimal.Decimal
	Discount      decimal.Decimal
	StockQuantity int
	IsAvailable   bool
}

// TierRates are the per-unit discount and cashback fraction granted by a membership tier.
type TierRates struct {
	DiscountRate decimal.Decimal
	CashbackRate decimal.Decimal
}

// Quote is the priced result for a single line.
type Quote struct {
	UnitPrice       decimal.Decimal
	DiscountApplied decimal.Decimal
	EffectivePrice  decimal.Decimal
	Quantity        int
	LineTotal       decimal.Decimal
}

// ComputeLineTotal validates the request against the item state and prices the line.
// The effective unit price never drops below zero.
func ComputeLineTotal(item Item, quantity int, tier TierRates) (Quote, error) {
	if quantity < 1 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"field": "quantity", "value": quantity})
	}
	if !item.IsAvailable {
		return Quote{}, pkgerrors.New(pkgerrors.CodeItemUnavailable, "item is not available for purchase")
	}
	if item.StockQuantity < quantity {
		return Quote{}, pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("only %d left in stock", item.StockQuantity)).
			WithDetails(map[string]any{"requested": quantity, "available": item.StockQuantity})
	}

	discount := item.Discount.Add(tier.DiscountRate)
	effective := item.UnitPrice.Sub(discount)
	if effective.IsNegative() {
		effective = decimal.Zero
	}

	return Quote{
		UnitPrice:       item.UnitPrice,
		DiscountApplied: discount,
		EffectivePrice:  effective,
		Quantity:        quantity,
		LineTotal:       effective.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// Cashback returns total × rate rounded to cents with banker's rounding.
func Cashback(total decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() || total.IsZero() {
		return decimal.Zero
	}
	return total.Mul(rate).RoundBank(2)
}
