package cart

import (
	cartdto "github.com/angelmondragon/memberclub-backend/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/memberclub-backend/internal/cart"
	"github.com/angelmondragon/memberclub-backend/internal/checkout"
	"github.com/angelmondragon/memberclub-backend/pkg/db/models"
)

func newEntry(entry *models.CartEntry) cartdto.Entry {
	return cartdto.Entry{
		ID:          entry.ID,
		ItemID:      entry.ItemID,
		Quantity:    entry.Quantity,
		UnitPrice:   entry.UnitPrice.StringFixed(2),
		TotalAmount: entry.TotalAmount.StringFixed(2),
		CreatedAt:   entry.CreatedAt,
	}
}

func newCart(view *cartsvc.View) cartdto.Cart {
	out := cartdto.Cart{Items: []cartdto.Line{}, TotalPrice: "0.00"}
	if view == nil {
		return out
	}
	out.Items = make([]cartdto.Line, 0, len(view.Lines))
	for _, line := range view.Lines {
		out.Items = append(out.Items, cartdto.Line{
			EntryID:         line.EntryID,
			ItemID:          line.ItemID,
			ItemName:        line.ItemName,
			Quantity:        line.Quantity,
			ItemPrice:       line.ItemPrice.StringFixed(2),
			UnitPrice:       line.UnitPrice.StringFixed(2),
			DiscountApplied: line.DiscountApplied.StringFixed(2),
			TotalPrice:      line.TotalPrice.StringFixed(2),
			AddedAt:         line.AddedAt,
		})
	}
	out.TotalPrice = view.Total.StringFixed(2)
	return out
}

func newRemoved(removed *cartsvc.RemovedEntry) cartdto.Removed {
	return cartdto.Removed{
		EntryID:       removed.EntryID,
		ItemID:        removed.ItemID,
		RestoredUnits: removed.RestoredUnits,
	}
}

func newCheckoutResult(result *checkout.Result) cartdto.CheckoutResult {
	return cartdto.CheckoutResult{
		TotalAmount:     result.TotalAmount.StringFixed(2),
		Cashback:        result.Cashback.StringFixed(2),
		EntryCount:      result.EntryCount,
		CashbackBalance: result.CashbackBalance.StringFixed(2),
		CashbackExpires: result.CashbackExpires,
	}
}
