package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one cart entry as shown to the member.
type Line struct {
	EntryID         uuid.UUID
	ItemID          uuid.UUID
	ItemName        string
	Quantity        int
	ItemPrice       decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountApplied decimal.Decimal
	TotalPrice      decimal.Decimal
	AddedAt         time.Time
}

// View is the member's cart. Lines keep insertion order and Total sums the
// prices frozen when each entry was added.
type View struct {
	Lines []Line
	Total decimal.Decimal
}

// Empty reports whether the cart has no entries.
func (v *View) Empty() bool {
	return v == nil || len(v.Lines) == 0
}

// buildView projects joined rows. DiscountApplied reflects the current item and
// tier discounts while TotalPrice stays at the value frozen on add.
func buildView(rows []EntryWithItem, tierDiscount decimal.Decimal) *View {
	view := &View{Lines: make([]Line, 0, len(rows)), Total: decimal.Zero}
	for _, row := range rows {
		view.Lines = append(view.Lines, Line{
			EntryID:         row.ID,
			ItemID:          row.ItemID,
			ItemName:        row.ItemName,
			Quantity:        row.Quantity,
			ItemPrice:       row.ItemPrice,
			UnitPrice:       row.UnitPrice,
			DiscountApplied: row.ItemDiscount.Add(tierDiscount),
			TotalPrice:      row.TotalAmount,
			AddedAt:         row.CreatedAt,
		})
		view.Total = view.Total.Add(row.TotalAmount)
	}
	return view
}
