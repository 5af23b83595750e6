package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestComputeLineTotalAppliesItemAndTierDiscount(t *testing.T) {
	item := Item{UnitPrice: dec("20.00"), Discount: dec("2.00"), StockQuantity: 10, IsAvailable: true}
	quote, err := ComputeLineTotal(item, 3, TierRates{DiscountRate: dec("1.00")})
	require.NoError(t, err)

	assert.True(t, quote.EffectivePrice.Equal(dec("17.00")), "effective %s", quote.EffectivePrice)
	assert.True(t, quote.LineTotal.Equal(dec("51.00")), "line %s", quote.LineTotal)
	assert.True(t, quote.DiscountApplied.Equal(dec("3.00")))
	assert.Equal(t, 3, quote.Quantity)
}

func TestComputeLineTotalWithoutTier(t *testing.T) {
	item := Item{UnitPrice: dec("9.99"), StockQuantity: 1, IsAvailable: true}
	quote, err := ComputeLineTotal(item, 1, TierRates{})
	require.NoError(t, err)
	assert.True(t, quote.LineTotal.Equal(dec("9.99")))
}

func TestComputeLineTotalClampsToZero(t *testing.T) {
	item := Item{UnitPrice: dec("5.00"), Discount: dec("4.00"), StockQuantity: 5, IsAvailable: true}
	quote, err := ComputeLineTotal(item, 2, TierRates{DiscountRate: dec("3.00")})
	require.NoError(t, err)
	assert.True(t, quote.EffectivePrice.IsZero())
	assert.True(t, quote.LineTotal.IsZero())
}

func TestComputeLineTotalErrors(t *testing.T) {
	available := Item{UnitPrice: dec("10"), StockQuantity: 2, IsAvailable: true}

	tests := []struct {
		name string
		item Item
		qty  int
		code pkgerrors.Code
	}{
		{name: "zero quantity", item: available, qty: 0, code: pkgerrors.CodeValidation},
		{name: "negative quantity", item: available, qty: -1, code: pkgerrors.CodeValidation},
		{name: "unavailable", item: Item{UnitPrice: dec("10"), StockQuantity: 5}, qty: 1, code: pkgerrors.CodeItemUnavailable},
		{name: "insufficient stock", item: available, qty: 3, code: pkgerrors.CodeInsufficientStock},
		{name: "out of stock", item: Item{UnitPrice: dec("10"), IsAvailable: true}, qty: 1, code: pkgerrors.CodeInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeLineTotal(tt.item, tt.qty, TierRates{})
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestCashback(t *testing.T) {
	assert.True(t, Cashback(dec("100.00"), dec("0.05")).Equal(dec("5.00")))
	assert.True(t, Cashback(dec("100.00"), decimal.Zero).IsZero())
	assert.True(t, Cashback(dec("0.50"), dec("0.05")).Equal(dec("0.02")), "0.025 rounds to even")
	assert.True(t, Cashback(dec("0.70"), dec("0.05")).Equal(dec("0.04")), "0.035 rounds to even")
}
